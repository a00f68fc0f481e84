package object

import (
	"io"
)

// NativeCall is the signature every built-in function implements. The
// parameter view carries the arguments as laid out on the operand stack; the
// returned error, when non-nil, is a RuntimeError triple.
type NativeCall func(parameter FunctionParameter) (VmObject, error)

// Function is the runtime function record. A function is either native
// (implemented in the host) or bytecode (compiled from source); the Native
// field decides which. Arity and local-slot count are fixed at compile time.
type Function struct {
	Name   string
	Params []string
	Locals int
	Code   []byte
	Native NativeCall
}

// IsNative reports whether calls dispatch through the native-call ABI
// instead of pushing a VM scope.
func (f *Function) IsNative() bool {
	return f.Native != nil
}

// Arity returns the declared parameter count of a bytecode function.
func (f *Function) Arity() int {
	return len(f.Params)
}

// FunctionParameter is the view handed to a native function: the slice of
// VmObjects forming its arguments, an optional receiver for method calls on
// containers, and the stdout/stderr handles captured by the executing scope.
// The VM itself performs no I/O; builtins write through these handles only.
type FunctionParameter struct {
	args      []VmObject
	source    VmObject
	hasSource bool
	heap      *Heap
	stdout    io.Writer
	stderr    io.Writer
}

// NewFunctionParameter assembles a parameter view for a plain call.
func NewFunctionParameter(args []VmObject, heap *Heap, stdout io.Writer, stderr io.Writer) FunctionParameter {
	return FunctionParameter{
		args:   args,
		heap:   heap,
		stdout: stdout,
		stderr: stderr,
	}
}

// NewMethodParameter assembles a parameter view for a method call; the
// receiver travels in the source slot, not as a positional argument.
func NewMethodParameter(args []VmObject, source VmObject, heap *Heap, stdout io.Writer, stderr io.Writer) FunctionParameter {
	return FunctionParameter{
		args:      args,
		source:    source,
		hasSource: true,
		heap:      heap,
		stdout:    stdout,
		stderr:    stderr,
	}
}

// Length returns the argument count.
func (p FunctionParameter) Length() int {
	return len(p.args)
}

// Arg returns the i-th argument. Arguments were pushed left to right.
func (p FunctionParameter) Arg(index int) VmObject {
	return p.args[index]
}

// Args exposes the raw argument slice.
func (p FunctionParameter) Args() []VmObject {
	return p.args
}

// Source returns the receiver of a method call, if any.
func (p FunctionParameter) Source() (VmObject, bool) {
	return p.source, p.hasSource
}

// Heap returns the heap the arguments live on.
func (p FunctionParameter) Heap() *Heap {
	return p.heap
}

// Stdout returns the captured standard output handle.
func (p FunctionParameter) Stdout() io.Writer {
	return p.stdout
}

// Stderr returns the captured standard error handle.
func (p FunctionParameter) Stderr() io.Writer {
	return p.stderr
}
