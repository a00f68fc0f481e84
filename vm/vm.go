// Package vm executes compiled programs on a single-threaded stack machine.
// Execution never yields mid-opcode; there are no suspension points. The VM
// performs no I/O of its own: builtins write through the stream handles the
// executing scope captured.
package vm

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"karamel/compiler"
	"karamel/modules"
	"karamel/object"
)

// VM is the runtime environment where bytecode gets executed. A VM instance
// runs one program at a time; the operand stack, the scope stack and the
// resolved-global cache reset on every Run.
type VM struct {
	stack   Stack
	scopes  []*Scope
	program *compiler.Program
	heap    *object.Heap

	registry *modules.Registry
	stdout   io.Writer
	stderr   io.Writer

	// qualified name -> resolved native function handle
	globals map[string]object.VmObject

	// the value the last statement discarded; it is the program result
	lastPopped object.VmObject
}

// New creates a VM that resolves built-in modules through the given
// registry and hands the output streams to every scope it pushes.
func New(registry *modules.Registry, stdout io.Writer, stderr io.Writer) *VM {
	return &VM{
		registry: registry,
		stdout:   stdout,
		stderr:   stderr,
	}
}

// operator spellings for the runtime type errors
var opcodeSymbols = map[compiler.Opcode]string{
	compiler.OP_ADD:           "+",
	compiler.OP_SUBTRACT:      "-",
	compiler.OP_MULTIPLY:      "*",
	compiler.OP_DIVIDE:        "/",
	compiler.OP_MODULO:        "%",
	compiler.OP_BITWISE_AND:   "&",
	compiler.OP_BITWISE_OR:    "|",
	compiler.OP_BITWISE_XOR:   "^",
	compiler.OP_LEFT_SHIFT:    "<<",
	compiler.OP_RIGHT_SHIFT:   ">>",
	compiler.OP_GREATER:       ">",
	compiler.OP_GREATER_EQUAL: ">=",
	compiler.OP_LESS:          "<",
	compiler.OP_LESS_EQUAL:    "<=",
}

// Run executes the program's entry function and returns the final value:
// the value of the last executed top level statement. Execution aborts on
// the first runtime error.
func (vm *VM) Run(program *compiler.Program) (object.VmObject, error) {
	vm.program = program
	vm.heap = program.Heap
	vm.stack = Stack{}
	vm.globals = make(map[string]object.VmObject)
	vm.lastPopped = object.EmptyObject
	vm.scopes = []*Scope{newScope(program.Entry(), 0, vm.stdout, vm.stderr)}

	for {
		scope := vm.scopes[len(vm.scopes)-1]
		code := scope.function.Code
		opcode := compiler.Opcode(code[scope.ip])
		scope.ip++

		switch opcode {
		case compiler.OP_HALT:
			return vm.lastPopped, nil

		case compiler.OP_CONSTANT:
			index := vm.readUint16(scope)
			vm.stack.Push(vm.program.Constants[index])

		case compiler.OP_GET_LOCAL:
			slot := vm.readUint16(scope)
			vm.stack.Push(scope.slots[slot])

		case compiler.OP_SET_LOCAL:
			slot := vm.readUint16(scope)
			value, _ := vm.stack.Pop()
			scope.slots[slot] = value

		case compiler.OP_GET_GLOBAL:
			index := vm.readUint16(scope)
			handle, err := vm.resolveGlobal(vm.program.Constants[index])
			if err != nil {
				return object.EmptyObject, err
			}
			vm.stack.Push(handle)

		case compiler.OP_CALL:
			argc := int(code[scope.ip])
			scope.ip++
			if err := vm.call(scope, argc); err != nil {
				return object.EmptyObject, err
			}

		case compiler.OP_CALL_METHOD:
			name := vm.readUint16(scope)
			argc := int(code[scope.ip])
			scope.ip++
			if err := vm.callMethod(scope, name, argc); err != nil {
				return object.EmptyObject, err
			}

		case compiler.OP_RETURN:
			result, _ := vm.stack.Pop()
			returning := vm.scopes[len(vm.scopes)-1]
			vm.stack.Truncate(returning.returnBase)
			vm.scopes = vm.scopes[:len(vm.scopes)-1]
			vm.stack.Push(result)

		case compiler.OP_JUMP:
			scope.ip = int(binary.BigEndian.Uint16(code[scope.ip:]))

		case compiler.OP_JUMP_IF_FALSE:
			target := vm.readUint16(scope)
			value, _ := vm.stack.Pop()
			if !object.IsTrue(vm.heap, value) {
				scope.ip = target
			}

		case compiler.OP_JUMP_IF_TRUE:
			target := vm.readUint16(scope)
			value, _ := vm.stack.Pop()
			if object.IsTrue(vm.heap, value) {
				scope.ip = target
			}

		case compiler.OP_POP:
			vm.lastPopped, _ = vm.stack.Pop()

		case compiler.OP_DUP:
			value, _ := vm.stack.Peek()
			vm.stack.Push(value)

		case compiler.OP_ADD, compiler.OP_SUBTRACT, compiler.OP_MULTIPLY, compiler.OP_DIVIDE, compiler.OP_MODULO,
			compiler.OP_BITWISE_AND, compiler.OP_BITWISE_OR, compiler.OP_BITWISE_XOR,
			compiler.OP_LEFT_SHIFT, compiler.OP_RIGHT_SHIFT:
			if err := vm.binaryOperation(opcode); err != nil {
				return object.EmptyObject, err
			}

		case compiler.OP_EQUAL:
			right, _ := vm.stack.Pop()
			left, _ := vm.stack.Pop()
			vm.stack.Push(object.ConvertBool(object.Equals(vm.heap, left, right)))

		case compiler.OP_NOT_EQUAL:
			right, _ := vm.stack.Pop()
			left, _ := vm.stack.Pop()
			vm.stack.Push(object.ConvertBool(!object.Equals(vm.heap, left, right)))

		case compiler.OP_GREATER, compiler.OP_GREATER_EQUAL, compiler.OP_LESS, compiler.OP_LESS_EQUAL:
			if err := vm.comparisonOperation(opcode); err != nil {
				return object.EmptyObject, err
			}

		case compiler.OP_NOT:
			value, _ := vm.stack.Pop()
			vm.stack.Push(object.ConvertBool(!object.IsTrue(vm.heap, value)))

		case compiler.OP_GET_INDEX:
			index, _ := vm.stack.Pop()
			source, _ := vm.stack.Pop()
			class, ok := vm.classFor(source)
			if !ok {
				return object.EmptyObject, vm.indexerError(source)
			}
			result, err := class.Getter(vm.heap, source, index)
			if err != nil {
				return object.EmptyObject, err
			}
			vm.stack.Push(result)

		case compiler.OP_SET_INDEX:
			item, _ := vm.stack.Pop()
			index, _ := vm.stack.Pop()
			source, _ := vm.stack.Pop()
			class, ok := vm.classFor(source)
			if !ok {
				return object.EmptyObject, vm.indexerError(source)
			}
			result, err := class.Setter(vm.heap, source, index, item)
			if err != nil {
				return object.EmptyObject, err
			}
			vm.stack.Push(result)

		case compiler.OP_NEW_LIST:
			count := vm.readUint16(scope)
			items := make([]object.VmObject, count)
			copy(items, vm.stack.View(count))
			vm.stack.Truncate(vm.stack.Size() - count)
			vm.stack.Push(vm.heap.AllocList(items))

		case compiler.OP_NEW_DICT:
			count := vm.readUint16(scope)
			pairs := vm.stack.View(count * 2)
			items := make(map[string]object.VmObject, count)
			for i := 0; i < count*2; i += 2 {
				key := pairs[i].Deref(vm.heap)
				items[key.Text] = pairs[i+1]
			}
			vm.stack.Truncate(vm.stack.Size() - count*2)
			vm.stack.Push(vm.heap.AllocDict(items))

		default:
			// NOTE: This should only happen in development mode.
			return object.EmptyObject, fmt.Errorf("unknown opcode %v at ip %d", opcode, scope.ip-1)
		}
	}
}

// readUint16 decodes a 2 byte operand and advances the instruction pointer.
func (vm *VM) readUint16(scope *Scope) int {
	value := binary.BigEndian.Uint16(scope.function.Code[scope.ip:])
	scope.ip += 2
	return int(value)
}

// resolveGlobal resolves a qualified name constant through the module
// registry, caching the wrapped function handle.
func (vm *VM) resolveGlobal(name object.VmObject) (object.VmObject, error) {
	qualified := name.Deref(vm.heap).Text
	if handle, ok := vm.globals[qualified]; ok {
		return handle, nil
	}

	native, err := vm.registry.Resolve(strings.Split(qualified, "::"))
	if err != nil {
		return object.EmptyObject, err
	}

	handle := vm.heap.Alloc(object.NewFunction(&object.Function{
		Name:   qualified,
		Native: native,
	}))
	vm.globals[qualified] = handle
	return handle, nil
}

// call dispatches on the callee's kind: a native call constructs the
// parameter view and invokes the function pointer, a bytecode call pushes a
// new scope. In both cases the stack resets to the caller's pre-call height
// when the callee is done.
func (vm *VM) call(scope *Scope, argc int) error {
	base := vm.stack.Size() - argc - 1
	callee := (vm.stack)[base]

	primitive := callee.Deref(vm.heap)
	if primitive.Kind != object.KindFunction {
		return object.CreateRuntimeError(0, 0,
			fmt.Sprintf("'%s' is not callable", object.Format(vm.heap, callee)))
	}
	function := primitive.Function

	if function.IsNative() {
		parameter := object.NewFunctionParameter(vm.stack.View(argc), vm.heap, scope.stdout, scope.stderr)
		result, err := function.Native(parameter)
		if err != nil {
			return err
		}
		vm.stack.Truncate(base)
		vm.stack.Push(result)
		return nil
	}

	if argc != function.Arity() {
		return object.CreateRuntimeError(0, 0,
			fmt.Sprintf("'%s' function expects %d parameter(s), received %d", function.Name, function.Arity(), argc))
	}

	called := newScope(function, base, scope.stdout, scope.stderr)
	copy(called.slots, vm.stack.View(argc))
	vm.stack.Truncate(base)
	vm.scopes = append(vm.scopes, called)
	return nil
}

// callMethod dispatches a method call on the receiver sitting under the
// arguments. Dispatch goes through the compile-time-fixed class table of the
// receiver's kind; the receiver travels in the parameter view's receiver
// slot, not as a positional argument. The stack resets to the pre-call
// height, the method result replacing receiver and arguments.
func (vm *VM) callMethod(scope *Scope, nameIndex int, argc int) error {
	base := vm.stack.Size() - argc - 1
	receiver := vm.stack[base]
	name := vm.program.Constants[nameIndex].Deref(vm.heap).Text

	class, ok := vm.classFor(receiver)
	if !ok {
		return object.CreateRuntimeError(0, 0, "Method not found")
	}
	method, ok := class.Method(name)
	if !ok {
		return object.CreateRuntimeError(0, 0, "Method not found")
	}

	parameter := object.NewMethodParameter(vm.stack.View(argc), receiver, vm.heap, scope.stdout, scope.stderr)
	result, err := method(parameter)
	if err != nil {
		return err
	}
	vm.stack.Truncate(base)
	vm.stack.Push(result)
	return nil
}

// classFor returns the dispatch class of the value's primitive kind.
func (vm *VM) classFor(source object.VmObject) (object.Class, bool) {
	return vm.registry.Class(source.Kind(vm.heap))
}

// indexerError reports an indexer on a kind without a class.
func (vm *VM) indexerError(source object.VmObject) error {
	return object.CreateRuntimeError(0, 0,
		fmt.Sprintf("Indexer is not supported for '%s'", source.Kind(vm.heap)))
}

// binaryOperation applies the arithmetic and bitwise operators. Arithmetic
// expects numbers on both sides, with `+` also joining texts; the bitwise
// family works on the integer part of its numeric operands.
func (vm *VM) binaryOperation(opcode compiler.Opcode) error {
	right, _ := vm.stack.Pop()
	left, _ := vm.stack.Pop()

	if opcode == compiler.OP_ADD {
		if left.Kind(vm.heap) == object.KindText && right.Kind(vm.heap) == object.KindText {
			vm.stack.Push(vm.heap.AllocText(left.Deref(vm.heap).Text + right.Deref(vm.heap).Text))
			return nil
		}
	}

	if !left.IsNumber() || !right.IsNumber() {
		return object.CreateRuntimeError(0, 0,
			fmt.Sprintf("Unsupported operand types for '%s'", opcodeSymbols[opcode]))
	}

	a := left.Number()
	b := right.Number()

	switch opcode {
	case compiler.OP_ADD:
		vm.stack.Push(object.ConvertNumber(a + b))
	case compiler.OP_SUBTRACT:
		vm.stack.Push(object.ConvertNumber(a - b))
	case compiler.OP_MULTIPLY:
		vm.stack.Push(object.ConvertNumber(a * b))
	case compiler.OP_DIVIDE:
		if b == 0.0 {
			return object.CreateRuntimeError(0, 0, "Division by zero")
		}
		vm.stack.Push(object.ConvertNumber(a / b))
	case compiler.OP_MODULO:
		if int64(b) == 0 {
			return object.CreateRuntimeError(0, 0, "Division by zero")
		}
		vm.stack.Push(object.ConvertNumber(float64(int64(a) % int64(b))))
	case compiler.OP_BITWISE_AND:
		vm.stack.Push(object.ConvertNumber(float64(int64(a) & int64(b))))
	case compiler.OP_BITWISE_OR:
		vm.stack.Push(object.ConvertNumber(float64(int64(a) | int64(b))))
	case compiler.OP_BITWISE_XOR:
		vm.stack.Push(object.ConvertNumber(float64(int64(a) ^ int64(b))))
	case compiler.OP_LEFT_SHIFT:
		vm.stack.Push(object.ConvertNumber(float64(int64(a) << uint64(b))))
	case compiler.OP_RIGHT_SHIFT:
		vm.stack.Push(object.ConvertNumber(float64(int64(a) >> uint64(b))))
	}
	return nil
}

// comparisonOperation applies the ordering operators. Ordering is defined
// for numbers and texts only.
func (vm *VM) comparisonOperation(opcode compiler.Opcode) error {
	right, _ := vm.stack.Pop()
	left, _ := vm.stack.Pop()

	var result bool
	switch {
	case left.IsNumber() && right.IsNumber():
		a := left.Number()
		b := right.Number()
		switch opcode {
		case compiler.OP_GREATER:
			result = a > b
		case compiler.OP_GREATER_EQUAL:
			result = a >= b
		case compiler.OP_LESS:
			result = a < b
		case compiler.OP_LESS_EQUAL:
			result = a <= b
		}
	case left.Kind(vm.heap) == object.KindText && right.Kind(vm.heap) == object.KindText:
		a := left.Deref(vm.heap).Text
		b := right.Deref(vm.heap).Text
		switch opcode {
		case compiler.OP_GREATER:
			result = a > b
		case compiler.OP_GREATER_EQUAL:
			result = a >= b
		case compiler.OP_LESS:
			result = a < b
		case compiler.OP_LESS_EQUAL:
			result = a <= b
		}
	default:
		return object.CreateRuntimeError(0, 0,
			fmt.Sprintf("Unsupported operand types for '%s'", opcodeSymbols[opcode]))
	}

	vm.stack.Push(object.ConvertBool(result))
	return nil
}
