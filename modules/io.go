package modules

import (
	"strings"

	"karamel/object"
)

// NewIoModule builds the `gç` module. Output goes through the stdout handle
// captured by the executing scope; writes are serialised by execution order.
func NewIoModule() Module {
	module := createBaseModule("gç")
	module.methods["satıryaz"] = ioWriteLine
	module.methods["satiryaz"] = ioWriteLine
	module.methods["yaz"] = ioWrite
	return module
}

func formatArguments(parameter object.FunctionParameter) string {
	parts := make([]string, 0, parameter.Length())
	for i := 0; i < parameter.Length(); i++ {
		parts = append(parts, object.Format(parameter.Heap(), parameter.Arg(i)))
	}
	return strings.Join(parts, " ")
}

// ioWriteLine writes its arguments separated by spaces with a trailing
// newline.
func ioWriteLine(parameter object.FunctionParameter) (object.VmObject, error) {
	if parameter.Stdout() != nil {
		parameter.Stdout().Write([]byte(formatArguments(parameter) + "\n"))
	}
	return object.EmptyObject, nil
}

// ioWrite writes its arguments separated by spaces.
func ioWrite(parameter object.FunctionParameter) (object.VmObject, error) {
	if parameter.Stdout() != nil {
		parameter.Stdout().Write([]byte(formatArguments(parameter)))
	}
	return object.EmptyObject, nil
}
