package compiler

import (
	"encoding/binary"
	"fmt"
)

type Opcode byte

type Instructions []byte

// opcodes
// iota generates a distinct byte for each opcode
const (
	// OP_CONSTANT pushes a constant-pool entry. Its single operand is a
	// 2 byte index, which restricts a program to 65536 constants; not a
	// hard constraint, the width could move to uint32 if ever needed.
	OP_CONSTANT Opcode = iota

	// local slot access within the executing scope
	OP_GET_LOCAL
	OP_SET_LOCAL

	// OP_GET_GLOBAL resolves a qualified name through the module registry
	// at run time. The operand indexes a text constant holding the name.
	OP_GET_GLOBAL

	// OP_CALL invokes the function sitting under its arguments on the
	// operand stack. The operand is the argument count.
	OP_CALL

	// OP_CALL_METHOD invokes a built-in method on the receiver sitting
	// under its arguments. The operands are the constant index of the
	// method name and the argument count; the method resolves through the
	// receiver kind's class table at run time.
	OP_CALL_METHOD

	OP_RETURN

	// jumps; operands are absolute byte offsets within the enclosing
	// function's bytecode. The conditional forms pop the tested value.
	OP_JUMP
	OP_JUMP_IF_FALSE
	OP_JUMP_IF_TRUE

	OP_POP
	OP_DUP

	// arithmetic and bitwise binary operators
	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_MODULO
	OP_BITWISE_AND
	OP_BITWISE_OR
	OP_BITWISE_XOR
	OP_LEFT_SHIFT
	OP_RIGHT_SHIFT

	// comparisons
	OP_EQUAL
	OP_NOT_EQUAL
	OP_GREATER
	OP_GREATER_EQUAL
	OP_LESS
	OP_LESS_EQUAL

	OP_NOT

	// indexer; dispatches to the receiver class getter/setter
	OP_GET_INDEX
	OP_SET_INDEX

	// container construction from stack laid out elements
	OP_NEW_LIST
	OP_NEW_DICT

	// OP_HALT ends the entry function; the VM's result is the value the
	// last statement popped.
	OP_HALT
)

const (
	// Width of the opcode byte itself.
	OPCODE_TOTAL_BYTES = 1

	// Width of an instruction with a single 2 byte operand.
	OP_CONSTANT_TOTAL_BYTES = 3
)

// Represents a definition of an opcode.
// Fields:
//   - Name: The human-readable name for the opcode e.g "OP_CONSTANT"
//   - OperandWidths: The number of bytes each operand takes up.
type OpCodeDefinition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_CONSTANT:      {Name: "OP_CONSTANT", OperandWidths: []int{2}},
	OP_GET_LOCAL:     {Name: "OP_GET_LOCAL", OperandWidths: []int{2}},
	OP_SET_LOCAL:     {Name: "OP_SET_LOCAL", OperandWidths: []int{2}},
	OP_GET_GLOBAL:    {Name: "OP_GET_GLOBAL", OperandWidths: []int{2}},
	OP_CALL:          {Name: "OP_CALL", OperandWidths: []int{1}},
	OP_CALL_METHOD:   {Name: "OP_CALL_METHOD", OperandWidths: []int{2, 1}},
	OP_RETURN:        {Name: "OP_RETURN", OperandWidths: []int{}},
	OP_JUMP:          {Name: "OP_JUMP", OperandWidths: []int{2}},
	OP_JUMP_IF_FALSE: {Name: "OP_JUMP_IF_FALSE", OperandWidths: []int{2}},
	OP_JUMP_IF_TRUE:  {Name: "OP_JUMP_IF_TRUE", OperandWidths: []int{2}},
	OP_POP:           {Name: "OP_POP", OperandWidths: []int{}},
	OP_DUP:           {Name: "OP_DUP", OperandWidths: []int{}},
	OP_ADD:           {Name: "OP_ADD", OperandWidths: []int{}},
	OP_SUBTRACT:      {Name: "OP_SUBTRACT", OperandWidths: []int{}},
	OP_MULTIPLY:      {Name: "OP_MULTIPLY", OperandWidths: []int{}},
	OP_DIVIDE:        {Name: "OP_DIVIDE", OperandWidths: []int{}},
	OP_MODULO:        {Name: "OP_MODULO", OperandWidths: []int{}},
	OP_BITWISE_AND:   {Name: "OP_BITWISE_AND", OperandWidths: []int{}},
	OP_BITWISE_OR:    {Name: "OP_BITWISE_OR", OperandWidths: []int{}},
	OP_BITWISE_XOR:   {Name: "OP_BITWISE_XOR", OperandWidths: []int{}},
	OP_LEFT_SHIFT:    {Name: "OP_LEFT_SHIFT", OperandWidths: []int{}},
	OP_RIGHT_SHIFT:   {Name: "OP_RIGHT_SHIFT", OperandWidths: []int{}},
	OP_EQUAL:         {Name: "OP_EQUAL", OperandWidths: []int{}},
	OP_NOT_EQUAL:     {Name: "OP_NOT_EQUAL", OperandWidths: []int{}},
	OP_GREATER:       {Name: "OP_GREATER", OperandWidths: []int{}},
	OP_GREATER_EQUAL: {Name: "OP_GREATER_EQUAL", OperandWidths: []int{}},
	OP_LESS:          {Name: "OP_LESS", OperandWidths: []int{}},
	OP_LESS_EQUAL:    {Name: "OP_LESS_EQUAL", OperandWidths: []int{}},
	OP_NOT:           {Name: "OP_NOT", OperandWidths: []int{}},
	OP_GET_INDEX:     {Name: "OP_GET_INDEX", OperandWidths: []int{}},
	OP_SET_INDEX:     {Name: "OP_SET_INDEX", OperandWidths: []int{}},
	OP_NEW_LIST:      {Name: "OP_NEW_LIST", OperandWidths: []int{2}},
	OP_NEW_DICT:      {Name: "OP_NEW_DICT", OperandWidths: []int{2}},
	OP_HALT:          {Name: "OP_HALT", OperandWidths: []int{}},
}

func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode: '%d' undefined", op)
	}
	return def, nil
}

// AssembleInstruction constructs a bytecode instruction from an opcode and
// its operands. The operands are encoded in BigEndian order.
//
// The resulting byte slice always begins with the opcode, followed by each
// operand encoded according to its defined width.
//
// Returns:
//   - The encoded instruction bytes.
//   - A DeveloperError when the opcode is unknown; that can only happen
//     during development of the compiler itself.
func AssembleInstruction(op Opcode, operands ...int) ([]byte, error) {
	def, err := Get(op)
	if err != nil {
		return []byte{}, DeveloperError{Message: err.Error()}
	}

	byteOffset := 1
	instructionLength := byteOffset // starts at one for the opcode
	for _, width := range def.OperandWidths {
		instructionLength += width
	}

	instruction := make([]byte, instructionLength)

	// The first byte of the instruction is the opcode
	instruction[0] = byte(op)

	for i, operand := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 2:
			binary.BigEndian.PutUint16(instruction[byteOffset:], uint16(operand))
		case 1:
			instruction[byteOffset] = byte(operand)
		}
		byteOffset += width
	}
	return instruction, nil
}

// DisassembleInstruction renders one instruction in a human readable form.
func DisassembleInstruction(instruction []byte) (string, error) {
	def, err := Get(Opcode(instruction[0]))
	if err != nil {
		return "", err
	}

	result := def.Name
	byteOffset := 1
	for _, width := range def.OperandWidths {
		switch width {
		case 2:
			result += fmt.Sprintf(" %d", binary.BigEndian.Uint16(instruction[byteOffset:]))
		case 1:
			result += fmt.Sprintf(" %d", instruction[byteOffset])
		}
		byteOffset += width
	}
	return result, nil
}

// InstructionLength returns the total byte width of the instruction
// starting at the given opcode.
func InstructionLength(op Opcode) int {
	def, err := Get(op)
	if err != nil {
		return OPCODE_TOTAL_BYTES
	}
	length := OPCODE_TOTAL_BYTES
	for _, width := range def.OperandWidths {
		length += width
	}
	return length
}
