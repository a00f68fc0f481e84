package parser

import (
	"karamel/ast"
	"karamel/token"
)

// parseStatements parses the statements of one block at the given
// indentation, until the input ends or a line with smaller indentation
// begins. Statements on the same line are separated by semicolons.
func (parser *Parser) parseStatements(indentation int) (ast.Block, error) {
	statements := []ast.Stmt{}

	for {
		ok, err := parser.advanceToContent(indentation)
		if err != nil {
			return ast.Block{}, err
		}
		if !ok {
			break
		}

		statement, err := parser.parseStatement()
		if err != nil {
			return ast.Block{}, err
		}
		statements = append(statements, statement)

		parser.cleanupWhitespaces()
		if _, ok := parser.matchOperator(token.Semicolon); ok {
			continue
		}
		if parser.isFinished() || parser.peek().IsNewLine() {
			continue
		}

		// something trails the statement that no rule consumed; leave it
		// for the caller to report with its position
		break
	}

	return ast.Block{Statements: statements}, nil
}

// parseStatement parses a single statement: a control structure, a function
// declaration, a loop control keyword, a return, or an expression.
func (parser *Parser) parseStatement() (ast.Stmt, error) {
	parser.cleanupWhitespaces()
	current := parser.peek()

	if current.IsKeyword() {
		switch current.Keyword() {
		case token.KeywordIf:
			parser.consume()
			return parser.parseIfStatement()
		case token.KeywordLoop:
			parser.consume()
			return parser.parseWhileLoop()
		case token.KeywordEndless:
			parser.consume()
			return parser.parseEndlessLoop()
		case token.KeywordFunction:
			parser.consume()
			return parser.parseFuncDecl()
		case token.KeywordBreak:
			if parser.flags&FlagInLoop == 0 {
				return nil, CreateSyntaxError(0, 0, "break and continue belong to loops")
			}
			parser.consume()
			return ast.Break{}, nil
		case token.KeywordContinue:
			if parser.flags&FlagInLoop == 0 {
				return nil, CreateSyntaxError(0, 0, "break and continue belong to loops")
			}
			parser.consume()
			return ast.Continue{}, nil
		case token.KeywordReturn:
			if parser.flags&FlagInFunction == 0 {
				return nil, CreateSyntaxError(0, 0, "return belong to function")
			}
			parser.consume()
			return parser.parseReturn()
		}
	}

	expression, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if expression == nil {
		return nil, CreateSyntaxError(current.Line, current.Column, "Syntax error, undefined syntax")
	}

	// a call at statement position discards its value
	if call, ok := expression.(ast.FuncCall); ok {
		call.AssignToTemp = false
		expression = call
	}

	return ast.ExpressionStmt{Expression: expression}, nil
}

// parseBlock parses the body that follows a `:` header. The body is either
// the rest of the header line (statements separated by semicolons) or the
// maximal run of following lines indented strictly deeper than the header.
// Mixed indents at the same level surface as an indentation error.
func (parser *Parser) parseBlock() (ast.Stmt, error) {
	parser.cleanupWhitespaces()

	if parser.isFinished() {
		return ast.Block{}, nil
	}

	if !parser.peek().IsNewLine() {
		return parser.parseInlineBlock()
	}

	// skip blank lines to the first body line
	for parser.peek().IsNewLine() && parser.blankLine() {
		parser.consume()
		parser.cleanupWhitespaces()
	}
	if !parser.peek().IsNewLine() {
		return parser.parseInlineBlock()
	}

	newline := parser.peek()
	bodyIndent := newline.Length()
	if bodyIndent <= parser.getIndentation() {
		return nil, CreateSyntaxError(newline.Line, newline.Column, "Indentation issue")
	}
	parser.consume()

	previousIndent := parser.getIndentation()
	parser.setIndentation(bodyIndent)
	block, err := parser.parseStatements(bodyIndent)
	parser.setIndentation(previousIndent)
	if err != nil {
		return nil, err
	}
	return block, nil
}

// parseInlineBlock parses a single-line block: one or more statements on the
// header line, separated by semicolons.
func (parser *Parser) parseInlineBlock() (ast.Stmt, error) {
	statements := []ast.Stmt{}

	for {
		statement, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, statement)

		parser.cleanupWhitespaces()
		if _, ok := parser.matchOperator(token.Semicolon); !ok {
			break
		}
		parser.cleanupWhitespaces()
		if parser.isFinished() || parser.peek().IsNewLine() {
			break
		}
	}

	if len(statements) == 1 {
		return statements[0], nil
	}
	return ast.Block{Statements: statements}, nil
}

// consumeBlockColon expects the `:` that introduces a block body.
func (parser *Parser) consumeBlockColon() error {
	parser.cleanupWhitespaces()
	if _, ok := parser.matchOperator(token.ColonMark); !ok {
		return CreateSyntaxError(0, 0, "':' missing")
	}
	return nil
}

// parseIfStatement parses `eğer cond: body` with optional `yada eğer`
// chains and a final `yada: body`. The else arms must sit at the same
// indentation as the `eğer` header.
func (parser *Parser) parseIfStatement() (ast.Stmt, error) {
	branches := []ast.ConditionBranch{}
	var elseBody ast.Stmt

	for {
		condition, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		if condition == nil {
			return nil, CreateSyntaxError(0, 0, "Invalid expression")
		}
		if err := parser.consumeBlockColon(); err != nil {
			return nil, err
		}
		body, err := parser.parseBlock()
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.ConditionBranch{Condition: condition, Body: body})

		if !parser.matchElseKeyword() {
			break
		}
		parser.cleanupWhitespaces()

		if parser.matchKeyword(token.KeywordIf) {
			continue
		}

		if err := parser.consumeBlockColon(); err != nil {
			return nil, err
		}
		elseBody, err = parser.parseBlock()
		if err != nil {
			return nil, err
		}
		break
	}

	return ast.IfStatement{Branches: branches, Else: elseBody}, nil
}

// matchElseKeyword looks past the current line boundary for a `yada` at the
// same indentation and consumes up to and including it. Anything else rolls
// back.
func (parser *Parser) matchElseKeyword() bool {
	indexBackup := parser.getIndex()
	parser.cleanupWhitespaces()

	if parser.peek().IsNewLine() {
		if parser.peek().Length() != parser.getIndentation() {
			parser.setIndex(indexBackup)
			return false
		}
		parser.consume()
		parser.cleanupWhitespaces()
	}

	if parser.matchKeyword(token.KeywordElse) {
		return true
	}
	parser.setIndex(indexBackup)
	return false
}

// parseWhileLoop parses `döngü cond: body`.
func (parser *Parser) parseWhileLoop() (ast.Stmt, error) {
	condition, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if condition == nil {
		return nil, CreateSyntaxError(0, 0, "Invalid expression")
	}
	if err := parser.consumeBlockColon(); err != nil {
		return nil, err
	}

	flagsBackup := parser.flags
	parser.flags |= FlagInLoop
	body, err := parser.parseBlock()
	parser.flags = flagsBackup
	if err != nil {
		return nil, err
	}

	return ast.WhileLoop{Condition: condition, Body: body}, nil
}

// parseEndlessLoop parses `sonsuz: body`.
func (parser *Parser) parseEndlessLoop() (ast.Stmt, error) {
	if err := parser.consumeBlockColon(); err != nil {
		return nil, err
	}

	flagsBackup := parser.flags
	parser.flags |= FlagInLoop
	body, err := parser.parseBlock()
	parser.flags = flagsBackup
	if err != nil {
		return nil, err
	}

	return ast.EndlessLoop{Body: body}, nil
}

// parseFuncDecl parses `fn name::param::…: body`. The loop-control flag
// does not cross the function boundary: a `kır` directly inside a function
// that happens to be declared in a loop is still an error.
func (parser *Parser) parseFuncDecl() (ast.Stmt, error) {
	parser.cleanupWhitespaces()
	nameToken := parser.peek()
	if !nameToken.IsSymbol() {
		return nil, CreateSyntaxError(0, 0, "Function name not defined")
	}
	parser.consume()

	params := []string{}
	for {
		if !parser.checkOperator(token.ColonMark) || !parser.next().IsOperator() || parser.next().Operator() != token.ColonMark {
			break
		}
		parser.consume()
		parser.consume()
		parser.cleanupWhitespaces()
		paramToken := parser.peek()
		if !paramToken.IsSymbol() {
			return nil, CreateSyntaxError(0, 0, "Function argument not valid")
		}
		parser.consume()
		params = append(params, paramToken.Text())
		parser.cleanupWhitespaces()
	}

	if err := parser.consumeBlockColon(); err != nil {
		return nil, err
	}

	flagsBackup := parser.flags
	parser.flags = (parser.flags &^ FlagInLoop) | FlagInFunction
	body, err := parser.parseBlock()
	parser.flags = flagsBackup
	if err != nil {
		return nil, err
	}

	return ast.FuncDecl{Name: nameToken.Text(), Params: params, Body: body}, nil
}

// parseReturn parses `döndür [expr]`. A bare return yields the None
// expression, which compiles to pushing empty.
func (parser *Parser) parseReturn() (ast.Stmt, error) {
	parser.cleanupWhitespaces()

	if parser.isFinished() || parser.peek().IsNewLine() || parser.checkOperator(token.Semicolon) {
		return ast.Return{Value: ast.None{}}, nil
	}

	value, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, CreateSyntaxError(0, 0, "Invalid expression")
	}
	return ast.Return{Value: value}, nil
}
