package compiler

import (
	"encoding/binary"
)

// OpcodeLocation records a jump operand whose target was unknown when the
// jump was emitted. The emitter reserves the operand bytes and hands the
// location out; once the target offset is fixed the compiler writes it into
// the reserved bytes. Break and continue collect locations into the
// enclosing loop context, which is drained at loop end and loop start.
type OpcodeLocation struct {
	// byte offset of the reserved operand within the function's code
	position int
}

// Apply writes the absolute target offset into the reserved operand bytes.
func (location *OpcodeLocation) Apply(code []byte, target int) {
	binary.BigEndian.PutUint16(code[location.position:], uint16(target))
}

// loopContext tracks one enclosing loop while its body compiles: the offset
// of the loop start, and the pending jump locations break and continue have
// enqueued.
type loopContext struct {
	start     int
	breaks    []*OpcodeLocation
	continues []*OpcodeLocation
}
