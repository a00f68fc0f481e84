package modules

import (
	"fmt"
	"strconv"

	"karamel/object"
)

// NewNumModule builds the `sayı` module.
func NewNumModule() Module {
	module := createBaseModule("sayı")
	module.methods["oku"] = numParse
	return module
}

// numParse converts its single argument to a number. Numbers pass through
// untouched, texts are parsed, anything else yields empty.
func numParse(parameter object.FunctionParameter) (object.VmObject, error) {
	if parameter.Length() != 1 {
		return object.EmptyObject, object.CreateRuntimeError(0, 0, "More than 1 argument passed")
	}

	argument := parameter.Arg(0)
	if argument.IsNumber() {
		return argument, nil
	}

	primitive := argument.Deref(parameter.Heap())
	switch primitive.Kind {
	case object.KindText:
		value, err := strconv.ParseFloat(primitive.Text, 64)
		if err != nil {
			return object.EmptyObject, object.CreateRuntimeError(0, 0,
				fmt.Sprintf("'%s' can not be converted to a number", primitive.Text))
		}
		return object.ConvertNumber(value), nil
	default:
		return object.EmptyObject, nil
	}
}
