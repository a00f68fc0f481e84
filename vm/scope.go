package vm

import (
	"io"

	"karamel/object"
)

// Scope is the per-invocation record: the executing function's bytecode and
// instruction pointer, the local slots fixed at compile time, the stack
// height to restore on return, and the captured output streams the builtins
// write through. The VM itself performs no I/O.
type Scope struct {
	function   *object.Function
	ip         int
	slots      []object.VmObject
	returnBase int

	stdout io.Writer
	stderr io.Writer
}

func newScope(function *object.Function, returnBase int, stdout io.Writer, stderr io.Writer) *Scope {
	slots := make([]object.VmObject, function.Locals)
	for i := range slots {
		slots[i] = object.EmptyObject
	}
	return &Scope{
		function:   function,
		slots:      slots,
		returnBase: returnBase,
		stdout:     stdout,
		stderr:     stderr,
	}
}
