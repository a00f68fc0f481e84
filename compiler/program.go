package compiler

import (
	"fmt"
	"strings"

	"karamel/object"
)

// Program is the compilation result handed to the VM: the deduplicated
// constant pool, the function table whose entry 0 is the top level code, and
// the heap the constants live on. Constants and function records live for
// the duration of the execution.
type Program struct {
	Constants []object.VmObject
	Functions []*object.Function
	Heap      *object.Heap
}

// Entry returns the top level function.
func (program *Program) Entry() *object.Function {
	return program.Functions[0]
}

// Disassemble renders every function of the program in a human readable
// form, mainly for the dump subcommand and for debugging the compiler.
func (program *Program) Disassemble() string {
	var builder strings.Builder

	for index, function := range program.Functions {
		if function.IsNative() {
			continue
		}
		builder.WriteString(fmt.Sprintf("fonksiyon %d <%s> (locals: %d)\n", index, function.Name, function.Locals))

		ip := 0
		for ip < len(function.Code) {
			opcode := Opcode(function.Code[ip])
			length := InstructionLength(opcode)
			line, err := DisassembleInstruction(function.Code[ip : ip+length])
			if err != nil {
				builder.WriteString(fmt.Sprintf("%04d ???\n", ip))
				ip += OPCODE_TOTAL_BYTES
				continue
			}
			builder.WriteString(fmt.Sprintf("%04d %s\n", ip, line))
			ip += length
		}
		builder.WriteString("\n")
	}

	builder.WriteString(fmt.Sprintf("sabitler: %d\n", len(program.Constants)))
	for index, constant := range program.Constants {
		builder.WriteString(fmt.Sprintf("%04d %s\n", index, object.Format(program.Heap, constant)))
	}
	return builder.String()
}
