package modules

import (
	"karamel/object"
)

// NewDebugModule builds the `hataayıklama` module.
func NewDebugModule() Module {
	module := createBaseModule("hataayıklama")
	module.methods["doğrula"] = debugAssert
	module.methods["dogrula"] = debugAssert
	return module
}

// debugAssert checks truthiness with one argument and equality with two.
// Any violation, including a wrong argument count, raises the assert error.
func debugAssert(parameter object.FunctionParameter) (object.VmObject, error) {
	status := false
	switch parameter.Length() {
	case 1:
		status = object.IsTrue(parameter.Heap(), parameter.Arg(0))
	case 2:
		status = object.Equals(parameter.Heap(), parameter.Arg(0), parameter.Arg(1))
	}

	if !status {
		return object.EmptyObject, object.CreateRuntimeError(0, 0, "Assert failed")
	}
	return object.EmptyObject, nil
}
