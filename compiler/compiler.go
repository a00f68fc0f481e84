// Package compiler lowers the AST to stack bytecode. It is a visitor over
// the expression and statement nodes, appending to the current function's
// byte vector while maintaining a deduplicated constant pool, the function
// table, a scope stack of local slot names and the pending jump patch sites
// of the control structures.
package compiler

import (
	"fmt"

	"karamel/ast"
	"karamel/object"
	"karamel/token"
)

// scope is the per-function compilation state. Local slot names resolve to
// their index; functions declared in enclosing scopes stay visible through
// the chain, locals do not.
type scope struct {
	function  *object.Function
	locals    []string
	declared  map[string]int
	loops     []*loopContext
	enclosing *scope
}

// Compiler compiles a parsed program to a Program. It implements both
// ast.ExpressionVisitor and ast.StmtVisitor; compile errors unwind through
// panics carrying typed errors and are recovered at the Compile boundary.
type Compiler struct {
	heap      *object.Heap
	constants []object.VmObject
	functions []*object.Function
	scope     *scope

	// function table index -> constant pool index, so repeated references
	// to the same declared function share one constant
	functionConstants map[int]int
}

// New creates a Compiler with an empty entry function at function table
// index 0.
func New() *Compiler {
	entry := &object.Function{Name: "main"}
	compiler := &Compiler{
		heap:              object.NewHeap(),
		functions:         []*object.Function{entry},
		functionConstants: make(map[int]int),
	}
	compiler.scope = &scope{
		function: entry,
		declared: make(map[string]int),
	}
	return compiler
}

// Compile lowers the top level block and finishes the entry function with a
// halt. The returned program owns the heap the constants live on.
func (c *Compiler) Compile(block ast.Block) (program *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case SemanticError:
				err = v
			case DeveloperError:
				err = v
			default:
				panic(r)
			}
		}
	}()

	block.Accept(c)
	c.emit(OP_HALT)
	c.scope.function.Locals = len(c.scope.locals)

	return &Program{
		Constants: c.constants,
		Functions: c.functions,
		Heap:      c.heap,
	}, nil
}

// code returns the byte vector of the function being compiled.
func (c *Compiler) code() []byte {
	return c.scope.function.Code
}

// emit constructs a bytecode instruction and appends it to the current
// function's instruction stream.
func (c *Compiler) emit(opcode Opcode, operands ...int) {
	instruction, err := AssembleInstruction(opcode, operands...)
	if err != nil {
		panic(err.(DeveloperError))
	}
	c.scope.function.Code = append(c.scope.function.Code, instruction...)
}

// emitJump emits a jump whose target is not yet known. The operand bytes
// are reserved and their location returned for later patching.
func (c *Compiler) emitJump(opcode Opcode) *OpcodeLocation {
	c.emit(opcode, 0xffff)
	return &OpcodeLocation{position: len(c.code()) - 2}
}

// patchJump writes the current code offset into a reserved jump operand.
func (c *Compiler) patchJump(location *OpcodeLocation) {
	location.Apply(c.code(), len(c.code()))
}

// addConstant appends a value to the constant pool, deduplicated by
// structural equality, and returns its index.
func (c *Compiler) addConstant(value object.VmObject) int {
	for index, existing := range c.constants {
		if object.Equals(c.heap, existing, value) {
			return index
		}
	}
	c.constants = append(c.constants, value)
	return len(c.constants) - 1
}

// constantFor converts a parsed literal primitive to its runtime value.
func (c *Compiler) constantFor(primitive *object.Primitive) object.VmObject {
	switch primitive.Kind {
	case object.KindEmpty:
		return object.EmptyObject
	case object.KindBool:
		return object.ConvertBool(primitive.Bool)
	case object.KindNumber:
		return object.ConvertNumber(primitive.Number)
	}
	return c.heap.Alloc(primitive)
}

// emitConstant pushes a literal through the constant pool.
func (c *Compiler) emitConstant(value object.VmObject) {
	c.emit(OP_CONSTANT, c.addConstant(value))
}

// resolveLocal finds the slot of a name in the current function, or -1.
func (c *Compiler) resolveLocal(name string) int {
	for index, local := range c.scope.locals {
		if local == name {
			return index
		}
	}
	return -1
}

// defineLocal finds or creates the slot of a name in the current function.
func (c *Compiler) defineLocal(name string) int {
	if slot := c.resolveLocal(name); slot >= 0 {
		return slot
	}
	c.scope.locals = append(c.scope.locals, name)
	return len(c.scope.locals) - 1
}

// resolveFunction walks the scope chain for a declared function and returns
// its function table index, or -1.
func (c *Compiler) resolveFunction(name string) int {
	for current := c.scope; current != nil; current = current.enclosing {
		if index, ok := current.declared[name]; ok {
			return index
		}
	}
	return -1
}

// functionConstant returns the constant pool index holding the function
// primitive for a function table entry.
func (c *Compiler) functionConstant(index int) int {
	if constant, ok := c.functionConstants[index]; ok {
		return constant
	}
	handle := c.heap.Alloc(object.NewFunction(c.functions[index]))
	constant := c.addConstant(handle)
	c.functionConstants[index] = constant
	return constant
}

// qualifiedNameConstant interns the joined module path of a qualified
// reference; the VM resolves it through the registry at call time.
func (c *Compiler) qualifiedNameConstant(names []string) int {
	joined := names[0]
	for _, name := range names[1:] {
		joined += "::" + name
	}
	return c.addConstant(c.heap.AllocText(joined))
}

// currentLoop returns the innermost loop context of the current function.
func (c *Compiler) currentLoop() *loopContext {
	loops := c.scope.loops
	if len(loops) == 0 {
		return nil
	}
	return loops[len(loops)-1]
}

/* expressions */

func (c *Compiler) VisitNone(none ast.None) any {
	c.emitConstant(object.EmptyObject)
	return nil
}

func (c *Compiler) VisitPrimitive(primitive ast.Primitive) any {
	c.emitConstant(c.constantFor(primitive.Value))
	return nil
}

func (c *Compiler) VisitSymbol(symbol ast.Symbol) any {
	if slot := c.resolveLocal(symbol.Name); slot >= 0 {
		c.emit(OP_GET_LOCAL, slot)
		return nil
	}
	if index := c.resolveFunction(symbol.Name); index >= 0 {
		c.emit(OP_CONSTANT, c.functionConstant(index))
		return nil
	}
	panic(SemanticError{
		Message: fmt.Sprintf("name '%s' is not defined", symbol.Name),
	})
}

func (c *Compiler) VisitList(list ast.List) any {
	for _, item := range list.Items {
		item.Accept(c)
	}
	c.emit(OP_NEW_LIST, len(list.Items))
	return nil
}

func (c *Compiler) VisitDict(dict ast.Dict) any {
	for _, item := range dict.Items {
		c.emitConstant(c.heap.AllocText(item.Key.Text))
		item.Value.Accept(c)
	}
	c.emit(OP_NEW_DICT, len(dict.Items))
	return nil
}

func (c *Compiler) VisitFunctionMap(functionMap ast.FunctionMap) any {
	c.emit(OP_GET_GLOBAL, c.qualifiedNameConstant(functionMap.Names))
	return nil
}

var binaryOpcodes = map[token.Operator]Opcode{
	token.Addition:          OP_ADD,
	token.Subtraction:       OP_SUBTRACT,
	token.Multiplication:    OP_MULTIPLY,
	token.Division:          OP_DIVIDE,
	token.Modulo:            OP_MODULO,
	token.BitwiseAnd:        OP_BITWISE_AND,
	token.BitwiseOr:         OP_BITWISE_OR,
	token.BitwiseXor:        OP_BITWISE_XOR,
	token.BitwiseLeftShift:  OP_LEFT_SHIFT,
	token.BitwiseRightShift: OP_RIGHT_SHIFT,
}

var controlOpcodes = map[token.Operator]Opcode{
	token.Equal:            OP_EQUAL,
	token.NotEqual:         OP_NOT_EQUAL,
	token.GreaterThan:      OP_GREATER,
	token.GreaterEqualThan: OP_GREATER_EQUAL,
	token.LessThan:         OP_LESS,
	token.LessEqualThan:    OP_LESS_EQUAL,
}

// compoundOpcodes maps the compound assignment operators onto the binary
// operation of their load, operate, store lowering.
var compoundOpcodes = map[token.Operator]Opcode{
	token.AssignAddition:       OP_ADD,
	token.AssignSubtraction:    OP_SUBTRACT,
	token.AssignMultiplication: OP_MULTIPLY,
	token.AssignDivision:       OP_DIVIDE,
	token.AssignModulo:         OP_MODULO,
}

func (c *Compiler) VisitBinary(binary ast.Binary) any {
	// left first; evaluation order is part of the language
	binary.Left.Accept(c)
	binary.Right.Accept(c)

	opcode, ok := binaryOpcodes[binary.Operator]
	if !ok {
		panic(DeveloperError{Message: fmt.Sprintf("binary operator '%s' has no opcode", binary.Operator)})
	}
	c.emit(opcode)
	return nil
}

func (c *Compiler) VisitControl(control ast.Control) any {
	switch control.Operator {
	case token.And:
		// short circuit on a duplicated top: the right operand never
		// evaluates when the left already decides
		control.Left.Accept(c)
		c.emit(OP_DUP)
		end := c.emitJump(OP_JUMP_IF_FALSE)
		c.emit(OP_POP)
		control.Right.Accept(c)
		c.patchJump(end)
		return nil
	case token.Or:
		control.Left.Accept(c)
		c.emit(OP_DUP)
		end := c.emitJump(OP_JUMP_IF_TRUE)
		c.emit(OP_POP)
		control.Right.Accept(c)
		c.patchJump(end)
		return nil
	}

	control.Left.Accept(c)
	control.Right.Accept(c)
	opcode, ok := controlOpcodes[control.Operator]
	if !ok {
		panic(DeveloperError{Message: fmt.Sprintf("control operator '%s' has no opcode", control.Operator)})
	}
	c.emit(opcode)
	return nil
}

func (c *Compiler) VisitPrefixUnary(unary ast.PrefixUnary) any {
	switch unary.Operator {
	case token.Not:
		unary.Operand.Accept(c)
		c.emit(OP_NOT)
		return nil
	case token.Increment, token.Decrement:
		symbol, ok := unary.Operand.(ast.Symbol)
		if !ok {
			panic(DeveloperError{Message: "prefix increment needs a symbol operand"})
		}
		slot := c.resolveLocal(symbol.Name)
		if slot < 0 {
			panic(SemanticError{Message: fmt.Sprintf("name '%s' is not defined", symbol.Name)})
		}
		c.emit(OP_GET_LOCAL, slot)
		c.emitConstant(object.ConvertNumber(1.0))
		if unary.Operator == token.Increment {
			c.emit(OP_ADD)
		} else {
			c.emit(OP_SUBTRACT)
		}
		// the new value is the expression result
		c.emit(OP_DUP)
		c.emit(OP_SET_LOCAL, slot)
		return nil
	}
	panic(DeveloperError{Message: fmt.Sprintf("prefix operator '%s' has no lowering", unary.Operator)})
}

func (c *Compiler) VisitSuffixUnary(unary ast.SuffixUnary) any {
	symbol, ok := unary.Operand.(ast.Symbol)
	if !ok {
		panic(DeveloperError{Message: "suffix increment needs a symbol operand"})
	}
	slot := c.resolveLocal(symbol.Name)
	if slot < 0 {
		panic(SemanticError{Message: fmt.Sprintf("name '%s' is not defined", symbol.Name)})
	}

	// the old value stays as the expression result
	c.emit(OP_GET_LOCAL, slot)
	c.emit(OP_DUP)
	c.emitConstant(object.ConvertNumber(1.0))
	if unary.Operator == token.Increment {
		c.emit(OP_ADD)
	} else {
		c.emit(OP_SUBTRACT)
	}
	c.emit(OP_SET_LOCAL, slot)
	return nil
}

func (c *Compiler) VisitAssignment(assignment ast.Assignment) any {
	if len(assignment.Indexes) > 0 {
		c.compileIndexedAssignment(assignment)
		return nil
	}

	if assignment.Operator == token.Assign {
		assignment.Value.Accept(c)
	} else {
		opcode, ok := compoundOpcodes[assignment.Operator]
		if !ok {
			panic(DeveloperError{Message: fmt.Sprintf("assignment operator '%s' has no opcode", assignment.Operator)})
		}
		slot := c.resolveLocal(assignment.Name)
		if slot < 0 {
			panic(SemanticError{Message: fmt.Sprintf("name '%s' is not defined", assignment.Name)})
		}
		c.emit(OP_GET_LOCAL, slot)
		assignment.Value.Accept(c)
		c.emit(opcode)
	}

	slot := c.defineLocal(assignment.Name)
	// assignment is an expression; its value survives the store
	c.emit(OP_DUP)
	c.emit(OP_SET_LOCAL, slot)
	return nil
}

// compileIndexedAssignment lowers `x[i] = v` and its compound forms onto the
// receiver's setter. The index chain of a compound form evaluates twice,
// once for the load and once for the store.
func (c *Compiler) compileIndexedAssignment(assignment ast.Assignment) {
	slot := c.resolveLocal(assignment.Name)
	if slot < 0 {
		panic(SemanticError{Message: fmt.Sprintf("name '%s' is not defined", assignment.Name)})
	}

	navigate := func() {
		c.emit(OP_GET_LOCAL, slot)
		for _, index := range assignment.Indexes[:len(assignment.Indexes)-1] {
			index.Accept(c)
			c.emit(OP_GET_INDEX)
		}
		assignment.Indexes[len(assignment.Indexes)-1].Accept(c)
	}

	navigate()
	if assignment.Operator == token.Assign {
		assignment.Value.Accept(c)
	} else {
		opcode, ok := compoundOpcodes[assignment.Operator]
		if !ok {
			panic(DeveloperError{Message: fmt.Sprintf("assignment operator '%s' has no opcode", assignment.Operator)})
		}
		navigate()
		c.emit(OP_GET_INDEX)
		assignment.Value.Accept(c)
		c.emit(opcode)
	}
	c.emit(OP_SET_INDEX)
}

func (c *Compiler) VisitIndexer(indexer ast.Indexer) any {
	indexer.Body.Accept(c)
	indexer.Index.Accept(c)
	c.emit(OP_GET_INDEX)
	return nil
}

func (c *Compiler) VisitFuncCall(call ast.FuncCall) any {
	if len(call.Names) == 1 {
		name := call.Names[0]
		if slot := c.resolveLocal(name); slot >= 0 {
			c.emit(OP_GET_LOCAL, slot)
		} else if index := c.resolveFunction(name); index >= 0 {
			c.emit(OP_CONSTANT, c.functionConstant(index))
		} else {
			panic(SemanticError{Message: fmt.Sprintf("name '%s' is not defined", name)})
		}
	} else {
		c.emit(OP_GET_GLOBAL, c.qualifiedNameConstant(call.Names))
	}

	// arguments push left to right, on top of the callee
	for _, argument := range call.Arguments {
		argument.Accept(c)
	}
	c.emit(OP_CALL, len(call.Arguments))
	return nil
}

func (c *Compiler) VisitMethodCall(call ast.MethodCall) any {
	// receiver first, then arguments left to right
	call.Source.Accept(c)
	for _, argument := range call.Arguments {
		argument.Accept(c)
	}
	name := c.addConstant(c.heap.AllocText(call.Name))
	c.emit(OP_CALL_METHOD, name, len(call.Arguments))
	return nil
}

/* statements */

func (c *Compiler) VisitBlock(block ast.Block) any {
	for _, statement := range block.Statements {
		statement.Accept(c)
	}
	return nil
}

func (c *Compiler) VisitExpressionStmt(stmt ast.ExpressionStmt) any {
	stmt.Expression.Accept(c)
	c.emit(OP_POP)
	return nil
}

func (c *Compiler) VisitIfStatement(stmt ast.IfStatement) any {
	endLocations := []*OpcodeLocation{}

	for index, branch := range stmt.Branches {
		branch.Condition.Accept(c)
		next := c.emitJump(OP_JUMP_IF_FALSE)
		branch.Body.Accept(c)

		if index < len(stmt.Branches)-1 || stmt.Else != nil {
			endLocations = append(endLocations, c.emitJump(OP_JUMP))
		}
		c.patchJump(next)
	}

	if stmt.Else != nil {
		stmt.Else.Accept(c)
	}
	for _, location := range endLocations {
		c.patchJump(location)
	}
	return nil
}

func (c *Compiler) VisitWhileLoop(loop ast.WhileLoop) any {
	start := len(c.code())
	loop.Condition.Accept(c)
	end := c.emitJump(OP_JUMP_IF_FALSE)

	context := &loopContext{start: start}
	c.scope.loops = append(c.scope.loops, context)
	loop.Body.Accept(c)
	c.scope.loops = c.scope.loops[:len(c.scope.loops)-1]

	c.emit(OP_JUMP, start)
	c.patchJump(end)

	for _, location := range context.breaks {
		location.Apply(c.code(), len(c.code()))
	}
	for _, location := range context.continues {
		location.Apply(c.code(), start)
	}
	return nil
}

func (c *Compiler) VisitEndlessLoop(loop ast.EndlessLoop) any {
	start := len(c.code())

	context := &loopContext{start: start}
	c.scope.loops = append(c.scope.loops, context)
	loop.Body.Accept(c)
	c.scope.loops = c.scope.loops[:len(c.scope.loops)-1]

	c.emit(OP_JUMP, start)

	for _, location := range context.breaks {
		location.Apply(c.code(), len(c.code()))
	}
	for _, location := range context.continues {
		location.Apply(c.code(), start)
	}
	return nil
}

func (c *Compiler) VisitBreak(breakStmt ast.Break) any {
	context := c.currentLoop()
	if context == nil {
		panic(SemanticError{Message: "break and continue belong to loops"})
	}
	context.breaks = append(context.breaks, c.emitJump(OP_JUMP))
	return nil
}

func (c *Compiler) VisitContinue(continueStmt ast.Continue) any {
	context := c.currentLoop()
	if context == nil {
		panic(SemanticError{Message: "break and continue belong to loops"})
	}
	context.continues = append(context.continues, c.emitJump(OP_JUMP))
	return nil
}

func (c *Compiler) VisitReturn(returnStmt ast.Return) any {
	returnStmt.Value.Accept(c)
	c.emit(OP_RETURN)
	return nil
}

func (c *Compiler) VisitFuncDecl(decl ast.FuncDecl) any {
	function := &object.Function{
		Name:   decl.Name,
		Params: decl.Params,
	}
	index := len(c.functions)
	c.functions = append(c.functions, function)

	// visible before the body compiles, so the function can recurse
	c.scope.declared[decl.Name] = index

	c.scope = &scope{
		function:  function,
		declared:  make(map[string]int),
		enclosing: c.scope,
	}
	for _, param := range decl.Params {
		c.defineLocal(param)
	}

	decl.Body.Accept(c)

	// falling off the end returns empty
	c.emitConstant(object.EmptyObject)
	c.emit(OP_RETURN)

	function.Locals = len(c.scope.locals)
	c.scope = c.scope.enclosing
	return nil
}
