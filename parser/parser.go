// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser
//
// A recursive descent parser is a top-down parser because it starts from the
// top grammar rule and works its way down into the nested sub-expressions
// before reaching the leaves of the syntax tree (terminal rules).
//
// Blocks are not delimited by brackets: a NEWLINE token carries the
// indentation of the line that follows it, so block membership is a numeric
// comparison against the parser's current indentation.
package parser

import (
	"karamel/ast"
	"karamel/token"
)

// SyntaxFlag adjusts how sub-parsers behave for the current position.
type SyntaxFlag uint8

const (
	// FlagSkipFuncCall suppresses function-call detection while the callee
	// of a call is being parsed, preventing left-recursion.
	FlagSkipFuncCall SyntaxFlag = 1 << iota

	// FlagInLoop marks that break and continue are legal here.
	FlagInLoop

	// FlagInFunction marks that return is legal here.
	FlagInFunction
)

// Parser consumes the token vector produced by the lexer and produces the
// AST. It keeps a cursor index, a backup index for speculative parsing, the
// indentation of the block being parsed, and a flag set.
type Parser struct {
	tokens      []token.Token
	index       int
	backupIndex int
	indentation int
	flags       SyntaxFlag
}

// NOTE: The parser's position always points at the token currently being
// looked at; consume moves past it.

// Make initializes and returns a new Parser instance over the given tokens.
func Make(tokens []token.Token) *Parser {
	return &Parser{
		tokens: tokens,
	}
}

// Parse parses the entire token stream into the top level Block. A trailing
// token that no rule consumed is reported as undefined syntax with its
// position.
//
// Returns:
//   - ast.Block: the parsed program.
//   - error: the first syntax error encountered; parsing aborts on it.
func (parser *Parser) Parse() (ast.Block, error) {
	block, err := parser.parseStatements(0)
	if err != nil {
		return ast.Block{}, err
	}

	parser.cleanup()
	if !parser.isFinished() {
		trailing := parser.peek()
		return ast.Block{}, CreateSyntaxError(trailing.Line, trailing.Column, "Syntax error, undefined syntax")
	}
	return block, nil
}

// Determines if the parser has consumed all the tokens.
func (parser *Parser) isFinished() bool {
	return parser.index >= len(parser.tokens)
}

// Peeks the token at the parser's current position, without advancing.
func (parser *Parser) peek() token.Token {
	if parser.isFinished() {
		return token.Token{}
	}
	return parser.tokens[parser.index]
}

// next returns the token one past the current position without advancing.
func (parser *Parser) next() token.Token {
	if parser.index+1 >= len(parser.tokens) {
		return token.Token{}
	}
	return parser.tokens[parser.index+1]
}

// consume moves the cursor past the current token and returns it.
func (parser *Parser) consume() token.Token {
	current := parser.peek()
	if !parser.isFinished() {
		parser.index++
	}
	return current
}

// backup records the cursor so a speculative parse can be rolled back.
func (parser *Parser) backup() {
	parser.backupIndex = parser.index
}

// restore rolls the cursor back to the last backup.
func (parser *Parser) restore() {
	parser.index = parser.backupIndex
}

// getIndex and setIndex let sub-parsers keep private backups; the single
// backup slot is not enough once rules nest.
func (parser *Parser) getIndex() int {
	return parser.index
}

func (parser *Parser) setIndex(index int) {
	parser.index = index
}

// checkOperator determines if the current token is the given operator,
// without consuming it.
func (parser *Parser) checkOperator(operator token.Operator) bool {
	current := parser.peek()
	return current.IsOperator() && current.Operator() == operator
}

// matchOperator consumes and returns the current operator token if it
// belongs to the provided set.
func (parser *Parser) matchOperator(operators ...token.Operator) (token.Operator, bool) {
	for _, operator := range operators {
		if parser.checkOperator(operator) {
			parser.consume()
			return operator, true
		}
	}
	return token.OperatorNone, false
}

// checkKeyword determines if the current token is the given keyword.
func (parser *Parser) checkKeyword(keyword token.Keyword) bool {
	current := parser.peek()
	return current.IsKeyword() && current.Keyword() == keyword
}

// matchKeyword consumes the current token if it is the given keyword.
func (parser *Parser) matchKeyword(keyword token.Keyword) bool {
	if parser.checkKeyword(keyword) {
		parser.consume()
		return true
	}
	return false
}

// cleanupWhitespaces skips over WHITESPACE tokens. NEWLINE tokens are left
// alone; they terminate expressions and drive block structure.
func (parser *Parser) cleanupWhitespaces() {
	for parser.peek().IsWhiteSpace() {
		parser.consume()
	}
}

// cleanup skips over both WHITESPACE and NEWLINE tokens. Used inside
// bracketed constructs that may span lines, and after the top level block.
func (parser *Parser) cleanup() {
	for parser.peek().IsWhiteSpace() || parser.peek().IsNewLine() {
		parser.consume()
	}
}

// Indentation routines.

func (parser *Parser) getIndentation() int {
	return parser.indentation
}

func (parser *Parser) setIndentation(indentation int) {
	parser.indentation = indentation
}

// blankLine reports whether the NEWLINE at the cursor is followed (skipping
// whitespace) by another NEWLINE or by the end of input, i.e the next line
// carries no content of its own.
func (parser *Parser) blankLine() bool {
	lookahead := parser.index + 1
	for lookahead < len(parser.tokens) && parser.tokens[lookahead].IsWhiteSpace() {
		lookahead++
	}
	return lookahead >= len(parser.tokens) || parser.tokens[lookahead].IsNewLine()
}

// advanceToContent positions the cursor at the next statement of a block
// with the given indentation. Blank lines are skipped. It reports false when
// the block has ended: either the input is exhausted or a line with smaller
// indentation begins (that NEWLINE is left for the enclosing block). A line
// indented deeper than the block is an indentation error.
func (parser *Parser) advanceToContent(indentation int) (bool, error) {
	for {
		if parser.isFinished() {
			return false, nil
		}
		current := parser.peek()

		if current.IsWhiteSpace() {
			parser.consume()
			continue
		}

		if current.IsNewLine() {
			if parser.blankLine() {
				parser.consume()
				continue
			}
			indent := current.Length()
			if indent == indentation {
				parser.consume()
				continue
			}
			if indent < indentation {
				return false, nil
			}
			return false, CreateSyntaxError(current.Line, current.Column, "Indentation issue")
		}

		return true, nil
	}
}
