package parser

import (
	"karamel/ast"
	"karamel/object"
	"karamel/token"
)

// Primary expressions, tried in fixed order: dict, list, parenthesised
// expression, qualified function reference, bare symbol, basic literal.
func (parser *Parser) parsePrimary() (ast.Expression, error) {
	if expression, err := parser.parseDict(); expression != nil || err != nil {
		return expression, err
	}
	if expression, err := parser.parseList(); expression != nil || err != nil {
		return expression, err
	}
	if expression, err := parser.parseParenthesis(); expression != nil || err != nil {
		return expression, err
	}
	if expression, err := parser.parseFunctionMap(); expression != nil || err != nil {
		return expression, err
	}
	if expression, err := parser.parseSymbol(); expression != nil || err != nil {
		return expression, err
	}
	return parser.parseBasicPrimitive()
}

// parseBasicPrimitive parses the literal leaves: integers, doubles, texts,
// the boolean and empty keywords, and `:symbol` atoms. Integers widen to the
// number primitive here; the runtime has a single numeric type.
func (parser *Parser) parseBasicPrimitive() (ast.Expression, error) {
	indexBackup := parser.getIndex()
	parser.cleanupWhitespaces()

	current := parser.peek()
	switch {
	case current.IsInteger():
		parser.consume()
		return ast.Primitive{Value: object.NewNumber(float64(current.Integer()))}, nil
	case current.IsDouble():
		parser.consume()
		return ast.Primitive{Value: object.NewNumber(current.Double())}, nil
	case current.IsText():
		parser.consume()
		return ast.Primitive{Value: object.NewText(current.Text())}, nil
	case current.IsKeyword():
		switch current.Keyword() {
		case token.KeywordTrue:
			parser.consume()
			return ast.Primitive{Value: object.NewBool(true)}, nil
		case token.KeywordFalse:
			parser.consume()
			return ast.Primitive{Value: object.NewBool(false)}, nil
		case token.KeywordEmpty:
			parser.consume()
			return ast.Primitive{Value: object.NewEmpty()}, nil
		}
	case current.IsOperator() && current.Operator() == token.ColonMark:
		// atom literal, `:name` with the symbol attached directly
		if parser.next().IsSymbol() {
			parser.consume()
			name := parser.consume()
			return ast.Primitive{Value: object.NewAtom(name.Text())}, nil
		}
	}

	parser.setIndex(indexBackup)
	return nil, nil
}

// parseSymbol parses a bare symbol reference.
func (parser *Parser) parseSymbol() (ast.Expression, error) {
	indexBackup := parser.getIndex()
	parser.cleanupWhitespaces()

	current := parser.peek()
	if current.IsSymbol() {
		parser.consume()
		return ast.Symbol{Name: current.Text()}, nil
	}

	parser.setIndex(indexBackup)
	return nil, nil
}

// parseFunctionMap parses a qualified reference `name::name::…`. A single
// name is not a function map; the symbol parser owns that case.
func (parser *Parser) parseFunctionMap() (ast.Expression, error) {
	indexBackup := parser.getIndex()
	parser.cleanupWhitespaces()

	current := parser.peek()
	if !current.IsSymbol() {
		parser.setIndex(indexBackup)
		return nil, nil
	}

	names := []string{current.Text()}
	parser.consume()

	for {
		if _, ok := parser.matchOperator(token.ColonMark); !ok {
			break
		}
		if _, ok := parser.matchOperator(token.ColonMark); !ok {
			parser.setIndex(indexBackup)
			return nil, nil
		}
		inner := parser.peek()
		if !inner.IsSymbol() {
			parser.setIndex(indexBackup)
			return nil, nil
		}
		parser.consume()
		names = append(names, inner.Text())
	}

	if len(names) > 1 {
		return ast.FunctionMap{Names: names}, nil
	}

	parser.setIndex(indexBackup)
	return nil, nil
}

// parseList parses a `[ expr, … ]` literal. The empty list is legal.
func (parser *Parser) parseList() (ast.Expression, error) {
	indexBackup := parser.getIndex()
	if _, ok := parser.matchOperator(token.SquareBracketStart); !ok {
		parser.setIndex(indexBackup)
		return nil, nil
	}

	items := []ast.Expression{}
	parser.cleanupWhitespaces()

	for {
		if parser.checkOperator(token.SquareBracketEnd) {
			break
		}

		parser.cleanupWhitespaces()
		item, err := parser.parseExpression()
		if err != nil {
			parser.setIndex(indexBackup)
			return nil, err
		}
		if item == nil {
			parser.setIndex(indexBackup)
			return nil, CreateSyntaxError(0, 0, "Invalid list item")
		}
		items = append(items, item)

		parser.cleanupWhitespaces()
		if _, ok := parser.matchOperator(token.Comma); !ok {
			break
		}
	}

	if _, ok := parser.matchOperator(token.SquareBracketEnd); !ok {
		parser.setIndex(indexBackup)
		return nil, CreateSyntaxError(0, 0, "Array not closed")
	}

	return ast.List{Items: items}, nil
}

// parseDict parses a `{ key: value, … }` literal. Keys must be text
// primitives. Entries may span lines.
func (parser *Parser) parseDict() (ast.Expression, error) {
	indexBackup := parser.getIndex()
	if _, ok := parser.matchOperator(token.CurveBracketStart); !ok {
		parser.setIndex(indexBackup)
		return nil, nil
	}

	items := []ast.DictItem{}
	parser.cleanup()

	for {
		if parser.checkOperator(token.CurveBracketEnd) {
			break
		}

		parser.cleanup()
		key, err := parser.parseBasicPrimitive()
		if err != nil {
			parser.setIndex(indexBackup)
			return nil, err
		}
		keyPrimitive, ok := key.(ast.Primitive)
		if !ok || keyPrimitive.Value.Kind != object.KindText {
			parser.setIndex(indexBackup)
			return nil, CreateSyntaxError(0, 0, "Dictionary key not valid")
		}

		parser.cleanup()
		if _, ok := parser.matchOperator(token.ColonMark); !ok {
			parser.setIndex(indexBackup)
			return nil, CreateSyntaxError(0, 0, "':' required")
		}

		parser.cleanup()
		value, err := parser.parseExpression()
		if err != nil {
			parser.setIndex(indexBackup)
			return nil, err
		}
		if value == nil {
			parser.setIndex(indexBackup)
			return nil, CreateSyntaxError(0, 0, "Dictionary value not valid")
		}
		items = append(items, ast.DictItem{Key: keyPrimitive.Value, Value: value})

		parser.cleanup()
		if _, ok := parser.matchOperator(token.Comma); !ok {
			break
		}
	}

	if _, ok := parser.matchOperator(token.CurveBracketEnd); !ok {
		parser.setIndex(indexBackup)
		return nil, CreateSyntaxError(0, 0, "Dict not closed")
	}

	return ast.Dict{Items: items}, nil
}

// parseParenthesis parses `( expression )`.
func (parser *Parser) parseParenthesis() (ast.Expression, error) {
	indexBackup := parser.getIndex()
	if _, ok := parser.matchOperator(token.LeftParentheses); !ok {
		parser.setIndex(indexBackup)
		return nil, nil
	}

	expression, err := parser.parseExpression()
	if err != nil {
		parser.setIndex(indexBackup)
		return nil, err
	}
	if expression == nil {
		parser.setIndex(indexBackup)
		return nil, CreateSyntaxError(0, 0, "Invalid expression")
	}

	if _, ok := parser.matchOperator(token.RightParentheses); !ok {
		parser.setIndex(indexBackup)
		return nil, CreateSyntaxError(0, 0, "Parentheses not closed")
	}

	return expression, nil
}
