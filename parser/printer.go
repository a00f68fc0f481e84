package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"karamel/ast"
	"karamel/object"
)

// Printer renders an AST as JSON, primarily for the -dumpAST tooling flag
// and for debugging the parser. Each node becomes an object tagged with its
// node type.
type Printer struct{}

// PrintASTJSON returns the prettified JSON rendering of a block.
func PrintASTJSON(block ast.Block) (string, error) {
	printer := Printer{}
	encoded, err := json.MarshalIndent(printer.VisitBlock(block), "", "  ")
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// WriteASTJSONToFile writes the AST for the provided block to a .json file
// at the given path.
func WriteASTJSONToFile(block ast.Block, path string) error {
	encoded, err := PrintASTJSON(block)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(encoded), 0o644)
}

// Print prints the AST as prettified JSON to standard output.
func (parser *Parser) Print(block ast.Block) {
	encoded, err := PrintASTJSON(block)
	if err != nil {
		fmt.Println("error producing AST JSON:", err)
		return
	}
	fmt.Println(encoded)
}

func node(nodeType string, fields map[string]any) map[string]any {
	result := map[string]any{"node": nodeType}
	for key, value := range fields {
		result[key] = value
	}
	return result
}

func (p Printer) expression(expression ast.Expression) any {
	if expression == nil {
		return nil
	}
	return expression.Accept(p)
}

func (p Printer) statement(statement ast.Stmt) any {
	if statement == nil {
		return nil
	}
	return statement.Accept(p)
}

func (p Printer) VisitNone(none ast.None) any {
	return node("None", nil)
}

func (p Printer) VisitPrimitive(primitive ast.Primitive) any {
	value := primitive.Value
	switch value.Kind {
	case object.KindNumber:
		return node("Primitive", map[string]any{"number": value.Number})
	case object.KindBool:
		return node("Primitive", map[string]any{"bool": value.Bool})
	case object.KindText:
		return node("Primitive", map[string]any{"text": value.Text})
	case object.KindAtom:
		return node("Primitive", map[string]any{"atom": value.Atom})
	default:
		return node("Primitive", map[string]any{"empty": true})
	}
}

func (p Printer) VisitSymbol(symbol ast.Symbol) any {
	return node("Symbol", map[string]any{"name": symbol.Name})
}

func (p Printer) VisitList(list ast.List) any {
	items := make([]any, 0, len(list.Items))
	for _, item := range list.Items {
		items = append(items, p.expression(item))
	}
	return node("List", map[string]any{"items": items})
}

func (p Printer) VisitDict(dict ast.Dict) any {
	items := make([]any, 0, len(dict.Items))
	for _, item := range dict.Items {
		items = append(items, map[string]any{
			"key":   item.Key.Text,
			"value": p.expression(item.Value),
		})
	}
	return node("Dict", map[string]any{"items": items})
}

func (p Printer) VisitFunctionMap(functionMap ast.FunctionMap) any {
	return node("FunctionMap", map[string]any{"names": functionMap.Names})
}

func (p Printer) VisitPrefixUnary(unary ast.PrefixUnary) any {
	return node("PrefixUnary", map[string]any{
		"operator": unary.Operator.String(),
		"operand":  p.expression(unary.Operand),
	})
}

func (p Printer) VisitSuffixUnary(unary ast.SuffixUnary) any {
	return node("SuffixUnary", map[string]any{
		"operator": unary.Operator.String(),
		"operand":  p.expression(unary.Operand),
	})
}

func (p Printer) VisitBinary(binary ast.Binary) any {
	return node("Binary", map[string]any{
		"left":     p.expression(binary.Left),
		"operator": binary.Operator.String(),
		"right":    p.expression(binary.Right),
	})
}

func (p Printer) VisitControl(control ast.Control) any {
	return node("Control", map[string]any{
		"left":     p.expression(control.Left),
		"operator": control.Operator.String(),
		"right":    p.expression(control.Right),
	})
}

func (p Printer) VisitAssignment(assignment ast.Assignment) any {
	indexes := make([]any, 0, len(assignment.Indexes))
	for _, index := range assignment.Indexes {
		indexes = append(indexes, p.expression(index))
	}
	return node("Assignment", map[string]any{
		"name":     assignment.Name,
		"indexes":  indexes,
		"operator": assignment.Operator.String(),
		"value":    p.expression(assignment.Value),
	})
}

func (p Printer) VisitIndexer(indexer ast.Indexer) any {
	return node("Indexer", map[string]any{
		"body":  p.expression(indexer.Body),
		"index": p.expression(indexer.Index),
	})
}

func (p Printer) VisitFuncCall(call ast.FuncCall) any {
	arguments := make([]any, 0, len(call.Arguments))
	for _, argument := range call.Arguments {
		arguments = append(arguments, p.expression(argument))
	}
	return node("FuncCall", map[string]any{
		"names":     call.Names,
		"arguments": arguments,
	})
}

func (p Printer) VisitMethodCall(call ast.MethodCall) any {
	arguments := make([]any, 0, len(call.Arguments))
	for _, argument := range call.Arguments {
		arguments = append(arguments, p.expression(argument))
	}
	return node("MethodCall", map[string]any{
		"source":    p.expression(call.Source),
		"name":      call.Name,
		"arguments": arguments,
	})
}

func (p Printer) VisitBlock(block ast.Block) any {
	statements := make([]any, 0, len(block.Statements))
	for _, statement := range block.Statements {
		statements = append(statements, p.statement(statement))
	}
	return node("Block", map[string]any{"statements": statements})
}

func (p Printer) VisitExpressionStmt(stmt ast.ExpressionStmt) any {
	return node("ExpressionStmt", map[string]any{"expression": p.expression(stmt.Expression)})
}

func (p Printer) VisitIfStatement(stmt ast.IfStatement) any {
	branches := make([]any, 0, len(stmt.Branches))
	for _, branch := range stmt.Branches {
		branches = append(branches, map[string]any{
			"condition": p.expression(branch.Condition),
			"body":      p.statement(branch.Body),
		})
	}
	return node("IfStatement", map[string]any{
		"branches": branches,
		"else":     p.statement(stmt.Else),
	})
}

func (p Printer) VisitWhileLoop(loop ast.WhileLoop) any {
	return node("WhileLoop", map[string]any{
		"condition": p.expression(loop.Condition),
		"body":      p.statement(loop.Body),
	})
}

func (p Printer) VisitEndlessLoop(loop ast.EndlessLoop) any {
	return node("EndlessLoop", map[string]any{"body": p.statement(loop.Body)})
}

func (p Printer) VisitBreak(breakStmt ast.Break) any {
	return node("Break", nil)
}

func (p Printer) VisitContinue(continueStmt ast.Continue) any {
	return node("Continue", nil)
}

func (p Printer) VisitReturn(returnStmt ast.Return) any {
	return node("Return", map[string]any{"value": p.expression(returnStmt.Value)})
}

func (p Printer) VisitFuncDecl(decl ast.FuncDecl) any {
	return node("FuncDecl", map[string]any{
		"name":   decl.Name,
		"params": decl.Params,
		"body":   p.statement(decl.Body),
	})
}
