package parser

import (
	"karamel/ast"
	"karamel/object"
	"karamel/token"
)

var equalityOperators = []token.Operator{
	token.Equal,
	token.NotEqual,
}

var comparisonOperators = []token.Operator{
	token.GreaterThan,
	token.GreaterEqualThan,
	token.LessThan,
	token.LessEqualThan,
}

var shiftOperators = []token.Operator{
	token.BitwiseLeftShift,
	token.BitwiseRightShift,
}

var additiveOperators = []token.Operator{
	token.Addition,
	token.Subtraction,
}

var multiplicativeOperators = []token.Operator{
	token.Multiplication,
	token.Division,
	token.Modulo,
}

var assignmentOperators = []token.Operator{
	token.Assign,
	token.AssignAddition,
	token.AssignSubtraction,
	token.AssignMultiplication,
	token.AssignDivision,
	token.AssignModulo,
}

// parseExpression is the entry point for expressions. It begins at the
// assignment rule, which encompasses all lower-precedence rules.
func (parser *Parser) parseExpression() (ast.Expression, error) {
	return parser.parseAssignment()
}

// parseAssignment parses `name = value`, `name[index] = value` and the
// compound forms. Assignment is right-associative; anything that turns out
// not to be an assignment rolls back and becomes an ordinary expression.
func (parser *Parser) parseAssignment() (ast.Expression, error) {
	indexBackup := parser.getIndex()

	expression, err := parser.trySpeculativeAssignment()
	if err != nil {
		return nil, err
	}
	if expression != nil {
		return expression, nil
	}

	parser.setIndex(indexBackup)
	return parser.parseOr()
}

// trySpeculativeAssignment attempts the assignment shape; a nil result means
// the cursor was on something else and the caller rolls back.
func (parser *Parser) trySpeculativeAssignment() (ast.Expression, error) {
	parser.cleanupWhitespaces()

	current := parser.peek()
	if !current.IsSymbol() {
		return nil, nil
	}
	name := current.Text()
	parser.consume()
	parser.cleanupWhitespaces()

	indexes := []ast.Expression{}
	for parser.checkOperator(token.SquareBracketStart) {
		parser.consume()
		parser.cleanupWhitespaces()
		index, err := parser.parseExpression()
		if err != nil || index == nil {
			return nil, nil
		}
		parser.cleanupWhitespaces()
		if _, ok := parser.matchOperator(token.SquareBracketEnd); !ok {
			return nil, nil
		}
		indexes = append(indexes, index)
		parser.cleanupWhitespaces()
	}

	operator, ok := parser.matchOperator(assignmentOperators...)
	if !ok {
		return nil, nil
	}

	parser.cleanupWhitespaces()
	value, err := parser.parseAssignment()
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, CreateSyntaxError(0, 0, "Invalid expression")
	}
	return ast.Assignment{
		Name:     name,
		Indexes:  indexes,
		Operator: operator,
		Value:    value,
	}, nil
}

// parseOr parses `a veya b`, folding left-associatively. The keyword is
// rewritten into the Or operator kind so the AST carries operators only.
func (parser *Parser) parseOr() (ast.Expression, error) {
	expression, err := parser.parseAnd()
	if err != nil || expression == nil {
		return expression, err
	}

	for {
		parser.cleanupWhitespaces()
		if !parser.matchKeyword(token.KeywordOr) {
			break
		}
		parser.cleanupWhitespaces()
		right, err := parser.parseAnd()
		if err != nil {
			return nil, err
		}
		if right == nil {
			return nil, CreateSyntaxError(0, 0, "Invalid expression")
		}
		expression = ast.Control{Left: expression, Operator: token.Or, Right: right}
	}
	return expression, nil
}

// parseAnd parses `a ve b`.
func (parser *Parser) parseAnd() (ast.Expression, error) {
	expression, err := parser.parseEquality()
	if err != nil || expression == nil {
		return expression, err
	}

	for {
		parser.cleanupWhitespaces()
		if !parser.matchKeyword(token.KeywordAnd) {
			break
		}
		parser.cleanupWhitespaces()
		right, err := parser.parseEquality()
		if err != nil {
			return nil, err
		}
		if right == nil {
			return nil, CreateSyntaxError(0, 0, "Invalid expression")
		}
		expression = ast.Control{Left: expression, Operator: token.And, Right: right}
	}
	return expression, nil
}

// parseControlLevel is the shared shape of the binary precedence levels that
// produce Control nodes.
func (parser *Parser) parseControlLevel(operators []token.Operator, next func() (ast.Expression, error)) (ast.Expression, error) {
	expression, err := next()
	if err != nil || expression == nil {
		return expression, err
	}

	for {
		parser.cleanupWhitespaces()
		operator, ok := parser.matchOperator(operators...)
		if !ok {
			break
		}
		parser.cleanupWhitespaces()
		right, err := next()
		if err != nil {
			return nil, err
		}
		if right == nil {
			return nil, CreateSyntaxError(0, 0, "Invalid expression")
		}
		expression = ast.Control{Left: expression, Operator: operator, Right: right}
	}
	return expression, nil
}

// parseBinaryLevel is the shared shape of the binary precedence levels that
// produce Binary nodes.
func (parser *Parser) parseBinaryLevel(operators []token.Operator, next func() (ast.Expression, error)) (ast.Expression, error) {
	expression, err := next()
	if err != nil || expression == nil {
		return expression, err
	}

	for {
		parser.cleanupWhitespaces()
		operator, ok := parser.matchOperator(operators...)
		if !ok {
			break
		}
		parser.cleanupWhitespaces()
		right, err := next()
		if err != nil {
			return nil, err
		}
		if right == nil {
			return nil, CreateSyntaxError(0, 0, "Invalid expression")
		}
		expression = ast.Binary{Left: expression, Operator: operator, Right: right}
	}
	return expression, nil
}

func (parser *Parser) parseEquality() (ast.Expression, error) {
	return parser.parseControlLevel(equalityOperators, parser.parseComparison)
}

func (parser *Parser) parseComparison() (ast.Expression, error) {
	return parser.parseControlLevel(comparisonOperators, parser.parseBitwiseOr)
}

func (parser *Parser) parseBitwiseOr() (ast.Expression, error) {
	return parser.parseBinaryLevel([]token.Operator{token.BitwiseOr}, parser.parseBitwiseXor)
}

func (parser *Parser) parseBitwiseXor() (ast.Expression, error) {
	return parser.parseBinaryLevel([]token.Operator{token.BitwiseXor}, parser.parseBitwiseAnd)
}

func (parser *Parser) parseBitwiseAnd() (ast.Expression, error) {
	return parser.parseBinaryLevel([]token.Operator{token.BitwiseAnd}, parser.parseShift)
}

func (parser *Parser) parseShift() (ast.Expression, error) {
	return parser.parseBinaryLevel(shiftOperators, parser.parseAdditive)
}

func (parser *Parser) parseAdditive() (ast.Expression, error) {
	return parser.parseBinaryLevel(additiveOperators, parser.parseMultiplicative)
}

func (parser *Parser) parseMultiplicative() (ast.Expression, error) {
	return parser.parseBinaryLevel(multiplicativeOperators, parser.parseUnary)
}

// parseUnary parses the prefix unaries. `+` and `-` apply to numeric
// literals only and are folded at parse time; `++` and `--` require a symbol
// operand; `!` applies to any unary expression.
func (parser *Parser) parseUnary() (ast.Expression, error) {
	indexBackup := parser.getIndex()
	parser.cleanupWhitespaces()

	if operator, ok := parser.matchOperator(token.Addition, token.Subtraction); ok {
		parser.cleanupWhitespaces()
		current := parser.peek()

		sign := 1.0
		if operator == token.Subtraction {
			sign = -1.0
		}

		switch {
		case current.IsInteger():
			parser.consume()
			return ast.Primitive{Value: object.NewNumber(sign * float64(current.Integer()))}, nil
		case current.IsDouble():
			parser.consume()
			return ast.Primitive{Value: object.NewNumber(sign * current.Double())}, nil
		}
		parser.setIndex(indexBackup)
		return nil, CreateSyntaxError(0, 0, "Unary works with number")
	}

	if operator, ok := parser.matchOperator(token.Increment, token.Decrement); ok {
		parser.cleanupWhitespaces()
		current := parser.peek()
		if !current.IsSymbol() {
			parser.setIndex(indexBackup)
			return nil, CreateSyntaxError(0, 0, "Invalid unary operation")
		}
		parser.consume()
		return ast.PrefixUnary{Operator: operator, Operand: ast.Symbol{Name: current.Text()}}, nil
	}

	if _, ok := parser.matchOperator(token.Not); ok {
		parser.cleanupWhitespaces()
		operand, err := parser.parseUnary()
		if err != nil {
			return nil, err
		}
		if operand == nil {
			parser.setIndex(indexBackup)
			return nil, CreateSyntaxError(0, 0, "Invalid unary expression")
		}
		return ast.PrefixUnary{Operator: token.Not, Operand: operand}, nil
	}

	return parser.parsePostfix()
}

// parsePostfix handles the suffix unaries, function calls and the indexer
// chain, all of which bind tighter than any prefix operator.
func (parser *Parser) parsePostfix() (ast.Expression, error) {
	expression, err := parser.parseSuffixUnary()
	if err != nil {
		return nil, err
	}

	if expression == nil && parser.flags&FlagSkipFuncCall == 0 {
		expression, err = parser.parseFuncCall()
		if err != nil {
			return nil, err
		}
	}

	if expression == nil {
		expression, err = parser.parsePrimary()
		if err != nil || expression == nil {
			return expression, err
		}
	}

	for {
		indexBackup := parser.getIndex()
		parser.cleanupWhitespaces()

		if _, ok := parser.matchOperator(token.SquareBracketStart); ok {
			parser.cleanupWhitespaces()

			index, err := parser.parseExpression()
			if err != nil {
				return nil, err
			}
			parser.cleanupWhitespaces()
			if _, ok := parser.matchOperator(token.SquareBracketEnd); !ok || index == nil {
				parser.setIndex(indexBackup)
				break
			}
			expression = ast.Indexer{Body: expression, Index: index}
			continue
		}

		if _, ok := parser.matchOperator(token.Dot); ok {
			call, err := parser.parseMethodCall(expression)
			if err != nil {
				return nil, err
			}
			expression = call
			continue
		}

		parser.setIndex(indexBackup)
		break
	}

	return expression, nil
}

// parseMethodCall parses the `.name(arg, …)` tail of a method call; the dot
// has already been consumed. Methods dispatch on the receiver's kind at run
// time, so the name alone is enough here.
func (parser *Parser) parseMethodCall(source ast.Expression) (ast.Expression, error) {
	parser.cleanupWhitespaces()
	nameToken := parser.peek()
	if !nameToken.IsSymbol() {
		return nil, CreateSyntaxError(0, 0, "Method name expected")
	}
	parser.consume()

	parser.cleanupWhitespaces()
	if _, ok := parser.matchOperator(token.LeftParentheses); !ok {
		return nil, CreateSyntaxError(0, 0, "'(' missing")
	}

	arguments := []ast.Expression{}
	parser.cleanup()

	for {
		if parser.checkOperator(token.RightParentheses) {
			break
		}

		parser.cleanup()
		argument, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		if argument == nil {
			return nil, CreateSyntaxError(0, 0, "Invalid function argument")
		}
		arguments = append(arguments, argument)

		parser.cleanup()
		if _, ok := parser.matchOperator(token.Comma); !ok {
			break
		}
	}

	if _, ok := parser.matchOperator(token.RightParentheses); !ok {
		return nil, CreateSyntaxError(0, 0, "Parentheses not closed")
	}

	return ast.MethodCall{Source: source, Name: nameToken.Text(), Arguments: arguments}, nil
}

// parseSuffixUnary parses `symbol++` and `symbol--`.
func (parser *Parser) parseSuffixUnary() (ast.Expression, error) {
	indexBackup := parser.getIndex()
	parser.cleanupWhitespaces()

	current := parser.peek()
	if current.IsSymbol() {
		parser.consume()
		parser.cleanupWhitespaces()
		if operator, ok := parser.matchOperator(token.Increment, token.Decrement); ok {
			return ast.SuffixUnary{Operator: operator, Operand: ast.Symbol{Name: current.Text()}}, nil
		}
	}

	parser.setIndex(indexBackup)
	return nil, nil
}

// parseFuncCall parses `callee(arg, arg, …)` where the callee is a possibly
// qualified name. The callee itself is parsed with FlagSkipFuncCall set so
// call detection cannot left-recurse. The empty argument list is legal.
func (parser *Parser) parseFuncCall() (ast.Expression, error) {
	indexBackup := parser.getIndex()

	flagsBackup := parser.flags
	parser.flags |= FlagSkipFuncCall
	callee, err := parser.parsePostfix()
	parser.flags = flagsBackup
	if err != nil || callee == nil {
		parser.setIndex(indexBackup)
		return nil, nil
	}

	var names []string
	switch target := callee.(type) {
	case ast.Symbol:
		names = []string{target.Name}
	case ast.FunctionMap:
		names = target.Names
	default:
		parser.setIndex(indexBackup)
		return nil, nil
	}

	parser.cleanupWhitespaces()
	if _, ok := parser.matchOperator(token.LeftParentheses); !ok {
		parser.setIndex(indexBackup)
		return nil, nil
	}

	arguments := []ast.Expression{}
	parser.cleanup()

	for {
		if parser.checkOperator(token.RightParentheses) {
			break
		}

		parser.cleanup()
		argument, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		if argument == nil {
			return nil, CreateSyntaxError(0, 0, "Invalid function argument")
		}
		arguments = append(arguments, argument)

		parser.cleanup()
		if _, ok := parser.matchOperator(token.Comma); !ok {
			break
		}
	}

	if _, ok := parser.matchOperator(token.RightParentheses); !ok {
		return nil, CreateSyntaxError(0, 0, "Parentheses not closed")
	}

	return ast.FuncCall{Names: names, Arguments: arguments, AssignToTemp: true}, nil
}
