package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"karamel/ast"
	"karamel/lexer"
	"karamel/object"
	"karamel/token"
)

func parseSource(t *testing.T, source string) (ast.Block, error) {
	t.Helper()
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		t.Fatalf("lexing %q failed: %v", source, err)
	}
	return Make(tokens).Parse()
}

func parseSuccess(t *testing.T, source string) ast.Block {
	t.Helper()
	block, err := parseSource(t, source)
	if err != nil {
		t.Fatalf("parsing %q failed: %v", source, err)
	}
	return block
}

func expectSyntaxError(t *testing.T, source string, message string, line int32, column int) {
	t.Helper()
	_, err := parseSource(t, source)
	syntaxError, ok := err.(SyntaxError)
	if !ok {
		t.Fatalf("parsing %q should fail with a SyntaxError, got %v", source, err)
	}
	if syntaxError.Message != message {
		t.Errorf("%q message = %q, want %q", source, syntaxError.Message, message)
	}
	if syntaxError.Line != line || syntaxError.Column != column {
		t.Errorf("%q position = (%d, %d), want (%d, %d)", source, syntaxError.Line, syntaxError.Column, line, column)
	}
}

func expressionStmt(expression ast.Expression) ast.Block {
	return ast.Block{Statements: []ast.Stmt{ast.ExpressionStmt{Expression: expression}}}
}

func TestParsePrimitives(t *testing.T) {
	tests := []struct {
		source   string
		expected ast.Block
	}{
		{"1024", expressionStmt(ast.Primitive{Value: object.NewNumber(1024.0)})},
		{"1.3", expressionStmt(ast.Primitive{Value: object.NewNumber(1.3)})},
		{"0b10000000000000000000000000000000", expressionStmt(ast.Primitive{Value: object.NewNumber(2147483648.0)})},
		{"-1024", expressionStmt(ast.Primitive{Value: object.NewNumber(-1024.0)})},
		{"+1024", expressionStmt(ast.Primitive{Value: object.NewNumber(1024.0)})},
		{"'merhaba dünya'", expressionStmt(ast.Primitive{Value: object.NewText("merhaba dünya")})},
		{"doğru", expressionStmt(ast.Primitive{Value: object.NewBool(true)})},
		{"yanlış", expressionStmt(ast.Primitive{Value: object.NewBool(false)})},
		{"yok", expressionStmt(ast.Primitive{Value: object.NewEmpty()})},
		{"empty", expressionStmt(ast.Primitive{Value: object.NewEmpty()})},
		{":merhaba", expressionStmt(ast.Primitive{Value: object.NewAtom("merhaba")})},
		{"data", expressionStmt(ast.Symbol{Name: "data"})},
	}

	for _, tt := range tests {
		block := parseSuccess(t, tt.source)
		if diff := cmp.Diff(tt.expected, block); diff != "" {
			t.Errorf("%q AST mismatch (-want +got):\n%s", tt.source, diff)
		}
	}
}

func TestParseList(t *testing.T) {
	block := parseSuccess(t, "[123, doğru, :erhan_barış, 'merhaba dünya', 1.3]")
	expected := expressionStmt(ast.List{Items: []ast.Expression{
		ast.Primitive{Value: object.NewNumber(123.0)},
		ast.Primitive{Value: object.NewBool(true)},
		ast.Primitive{Value: object.NewAtom("erhan_barış")},
		ast.Primitive{Value: object.NewText("merhaba dünya")},
		ast.Primitive{Value: object.NewNumber(1.3)},
	}})
	if diff := cmp.Diff(expected, block); diff != "" {
		t.Errorf("list AST mismatch (-want +got):\n%s", diff)
	}

	nested := parseSuccess(t, "[[]]")
	expectedNested := expressionStmt(ast.List{Items: []ast.Expression{
		ast.List{Items: []ast.Expression{}},
	}})
	if diff := cmp.Diff(expectedNested, nested); diff != "" {
		t.Errorf("nested list AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseListNotClosed(t *testing.T) {
	expectSyntaxError(t, "[123", "Array not closed", 0, 0)
}

func TestParseDict(t *testing.T) {
	block := parseSuccess(t, "{\n    '1' : 1,\n    '2': 2\n}")
	expected := expressionStmt(ast.Dict{Items: []ast.DictItem{
		{Key: object.NewText("1"), Value: ast.Primitive{Value: object.NewNumber(1.0)}},
		{Key: object.NewText("2"), Value: ast.Primitive{Value: object.NewNumber(2.0)}},
	}})
	if diff := cmp.Diff(expected, block); diff != "" {
		t.Errorf("dict AST mismatch (-want +got):\n%s", diff)
	}

	expectSyntaxError(t, "{'anahtar': 1", "Dict not closed", 0, 0)
	expectSyntaxError(t, "{1: 1}", "Dictionary key not valid", 0, 0)
}

func TestParseBreakContinueOutsideLoops(t *testing.T) {
	expectSyntaxError(t, "kır", "break and continue belong to loops", 0, 0)
	expectSyntaxError(t, "devamet", "break and continue belong to loops", 0, 0)
	expectSyntaxError(t, "break", "break and continue belong to loops", 0, 0)
}

func TestParseReturnOutsideFunction(t *testing.T) {
	expectSyntaxError(t, "döndür 5", "return belong to function", 0, 0)
}

func TestParseEndlessLoop(t *testing.T) {
	block := parseSuccess(t, "sonsuz:\n    erhan=123\n")
	expected := ast.Block{Statements: []ast.Stmt{
		ast.EndlessLoop{Body: ast.Block{Statements: []ast.Stmt{
			ast.ExpressionStmt{Expression: ast.Assignment{
				Name:     "erhan",
				Indexes:  []ast.Expression{},
				Operator: token.Assign,
				Value:    ast.Primitive{Value: object.NewNumber(123.0)},
			}},
		}}},
	}}
	if diff := cmp.Diff(expected, block); diff != "" {
		t.Errorf("endless AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEndlessLoopWithBreak(t *testing.T) {
	block := parseSuccess(t, "sonsuz:\n    erhan=123\n    gç::satıryaz(1)\n    kır")
	expected := ast.Block{Statements: []ast.Stmt{
		ast.EndlessLoop{Body: ast.Block{Statements: []ast.Stmt{
			ast.ExpressionStmt{Expression: ast.Assignment{
				Name:     "erhan",
				Indexes:  []ast.Expression{},
				Operator: token.Assign,
				Value:    ast.Primitive{Value: object.NewNumber(123.0)},
			}},
			ast.ExpressionStmt{Expression: ast.FuncCall{
				Names:     []string{"gç", "satıryaz"},
				Arguments: []ast.Expression{ast.Primitive{Value: object.NewNumber(1.0)}},
			}},
			ast.Break{},
		}}},
	}}
	if diff := cmp.Diff(expected, block); diff != "" {
		t.Errorf("endless AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEndlessMissingColon(t *testing.T) {
	expectSyntaxError(t, "sonsuz\n    erhan=123", "':' missing", 0, 0)
}

func TestParseSingleLineBlock(t *testing.T) {
	block := parseSuccess(t, "sonsuz: erhan = 123; gç::satıryaz(1); kır")
	loop, ok := block.Statements[0].(ast.EndlessLoop)
	if !ok {
		t.Fatalf("statement is not an endless loop: %T", block.Statements[0])
	}
	body, ok := loop.Body.(ast.Block)
	if !ok {
		t.Fatalf("single line body should be a block: %T", loop.Body)
	}
	if len(body.Statements) != 3 {
		t.Errorf("body has %d statements, want 3", len(body.Statements))
	}
	if _, ok := body.Statements[2].(ast.Break); !ok {
		t.Errorf("last body statement should be break: %T", body.Statements[2])
	}
}

func TestParseIfElse(t *testing.T) {
	block := parseSuccess(t, "eğer a > 5:\n    b = 1\nyada eğer a > 2:\n    b = 2\nyada:\n    b = 3")
	statement, ok := block.Statements[0].(ast.IfStatement)
	if !ok {
		t.Fatalf("statement is not an if: %T", block.Statements[0])
	}
	if len(statement.Branches) != 2 {
		t.Fatalf("if has %d branches, want 2", len(statement.Branches))
	}
	if statement.Else == nil {
		t.Errorf("else branch missing")
	}

	condition, ok := statement.Branches[0].Condition.(ast.Control)
	if !ok || condition.Operator != token.GreaterThan {
		t.Errorf("first condition wrong: %#v", statement.Branches[0].Condition)
	}
}

func TestParseWhileLoop(t *testing.T) {
	block := parseSuccess(t, "döngü sayac < 5:\n    sayac += 1")
	loop, ok := block.Statements[0].(ast.WhileLoop)
	if !ok {
		t.Fatalf("statement is not a while loop: %T", block.Statements[0])
	}
	body, ok := loop.Body.(ast.Block)
	if !ok || len(body.Statements) != 1 {
		t.Fatalf("loop body wrong: %#v", loop.Body)
	}
	assignment := body.Statements[0].(ast.ExpressionStmt).Expression.(ast.Assignment)
	if assignment.Operator != token.AssignAddition {
		t.Errorf("compound operator lost: %v", assignment.Operator)
	}
}

func TestParseFuncDecl(t *testing.T) {
	block := parseSuccess(t, "fn test_1: döndür 'erhan'")
	expected := ast.Block{Statements: []ast.Stmt{
		ast.FuncDecl{
			Name:   "test_1",
			Params: []string{},
			Body:   ast.Return{Value: ast.Primitive{Value: object.NewText("erhan")}},
		},
	}}
	if diff := cmp.Diff(expected, block); diff != "" {
		t.Errorf("fn AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFuncDeclWithParams(t *testing.T) {
	block := parseSuccess(t, "fn topla::a::b: döndür a + b")
	decl, ok := block.Statements[0].(ast.FuncDecl)
	if !ok {
		t.Fatalf("statement is not a function declaration: %T", block.Statements[0])
	}
	if diff := cmp.Diff([]string{"a", "b"}, decl.Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	returnStmt, ok := decl.Body.(ast.Return)
	if !ok {
		t.Fatalf("body should be a bare return: %T", decl.Body)
	}
	if _, ok := returnStmt.Value.(ast.Binary); !ok {
		t.Errorf("return value should be a binary expression: %T", returnStmt.Value)
	}
}

func TestParseQualifiedCall(t *testing.T) {
	block := parseSuccess(t, "hataayıklama::doğrula(barış() + ' barış', 'erhan barış')")
	expected := ast.Block{Statements: []ast.Stmt{
		ast.ExpressionStmt{Expression: ast.FuncCall{
			Names: []string{"hataayıklama", "doğrula"},
			Arguments: []ast.Expression{
				ast.Binary{
					Left:     ast.FuncCall{Names: []string{"barış"}, Arguments: []ast.Expression{}, AssignToTemp: true},
					Operator: token.Addition,
					Right:    ast.Primitive{Value: object.NewText(" barış")},
				},
				ast.Primitive{Value: object.NewText("erhan barış")},
			},
		}},
	}}
	if diff := cmp.Diff(expected, block); diff != "" {
		t.Errorf("call AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFunctionMapReference(t *testing.T) {
	block := parseSuccess(t, "yazici = gç::satıryaz")
	assignment := block.Statements[0].(ast.ExpressionStmt).Expression.(ast.Assignment)
	if diff := cmp.Diff(ast.FunctionMap{Names: []string{"gç", "satıryaz"}}, assignment.Value); diff != "" {
		t.Errorf("function map mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIndexer(t *testing.T) {
	block := parseSuccess(t, "erhan[0][1]")
	expected := expressionStmt(ast.Indexer{
		Body: ast.Indexer{
			Body:  ast.Symbol{Name: "erhan"},
			Index: ast.Primitive{Value: object.NewNumber(0.0)},
		},
		Index: ast.Primitive{Value: object.NewNumber(1.0)},
	})
	if diff := cmp.Diff(expected, block); diff != "" {
		t.Errorf("indexer AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIndexedAssignment(t *testing.T) {
	block := parseSuccess(t, "erhan[0] = 5")
	expected := expressionStmt(ast.Assignment{
		Name:     "erhan",
		Indexes:  []ast.Expression{ast.Primitive{Value: object.NewNumber(0.0)}},
		Operator: token.Assign,
		Value:    ast.Primitive{Value: object.NewNumber(5.0)},
	})
	if diff := cmp.Diff(expected, block); diff != "" {
		t.Errorf("indexed assignment AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMethodCall(t *testing.T) {
	block := parseSuccess(t, "liste.ekle(123)")
	expected := expressionStmt(ast.MethodCall{
		Source:    ast.Symbol{Name: "liste"},
		Name:      "ekle",
		Arguments: []ast.Expression{ast.Primitive{Value: object.NewNumber(123.0)}},
	})
	if diff := cmp.Diff(expected, block); diff != "" {
		t.Errorf("method call AST mismatch (-want +got):\n%s", diff)
	}

	// method calls chain with indexers, left to right
	chained := parseSuccess(t, "liste[0].pop()")
	expectedChained := expressionStmt(ast.MethodCall{
		Source: ast.Indexer{
			Body:  ast.Symbol{Name: "liste"},
			Index: ast.Primitive{Value: object.NewNumber(0.0)},
		},
		Name:      "pop",
		Arguments: []ast.Expression{},
	})
	if diff := cmp.Diff(expectedChained, chained); diff != "" {
		t.Errorf("chained method call AST mismatch (-want +got):\n%s", diff)
	}

	expectSyntaxError(t, "liste.ekle", "'(' missing", 0, 0)
	expectSyntaxError(t, "liste.123()", "Method name expected", 0, 0)
}

func TestParseUnary(t *testing.T) {
	block := parseSuccess(t, "!doğru")
	expected := expressionStmt(ast.PrefixUnary{
		Operator: token.Not,
		Operand:  ast.Primitive{Value: object.NewBool(true)},
	})
	if diff := cmp.Diff(expected, block); diff != "" {
		t.Errorf("unary AST mismatch (-want +got):\n%s", diff)
	}

	suffix := parseSuccess(t, "sayac = 0\nsayac++")
	unary := suffix.Statements[1].(ast.ExpressionStmt).Expression.(ast.SuffixUnary)
	if unary.Operator != token.Increment {
		t.Errorf("suffix operator = %v", unary.Operator)
	}

	expectSyntaxError(t, "- erhan", "Unary works with number", 0, 0)
}

func TestParsePrecedence(t *testing.T) {
	block := parseSuccess(t, "1 + 2 * 3")
	binary := block.Statements[0].(ast.ExpressionStmt).Expression.(ast.Binary)
	if binary.Operator != token.Addition {
		t.Fatalf("top operator = %v, want +", binary.Operator)
	}
	right, ok := binary.Right.(ast.Binary)
	if !ok || right.Operator != token.Multiplication {
		t.Errorf("multiplication should bind tighter: %#v", binary.Right)
	}

	logical := parseSuccess(t, "1 == 2 veya 3 < 4")
	control := logical.Statements[0].(ast.ExpressionStmt).Expression.(ast.Control)
	if control.Operator != token.Or {
		t.Errorf("top operator = %v, want veya", control.Operator)
	}
}

func TestParseTrailingTriviaInvariance(t *testing.T) {
	plain := parseSuccess(t, "1024")
	decorated := parseSuccess(t, "1024   // yorum\n")
	if diff := cmp.Diff(plain, decorated); diff != "" {
		t.Errorf("trailing trivia changed the AST (-plain +decorated):\n%s", diff)
	}
}

func TestParseUndefinedTrailingSyntax(t *testing.T) {
	expectSyntaxError(t, "1024 1024", "Syntax error, undefined syntax", 0, 5)
}

func TestParseIndentationIssue(t *testing.T) {
	_, err := parseSource(t, "sonsuz:\n    a = 1\n  b = 2")
	syntaxError, ok := err.(SyntaxError)
	if !ok {
		t.Fatalf("expected a SyntaxError, got %v", err)
	}
	if syntaxError.Message != "Indentation issue" {
		t.Errorf("message = %q, want %q", syntaxError.Message, "Indentation issue")
	}
}
