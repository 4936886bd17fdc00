// Package code defines the bytecode instruction format shared by the
// compiler and the VM: the Opcode byte values, their operand widths, and the
// helpers used to encode (Make) and decode (ReadOperands) instructions.
package code

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Instructions is a contiguous run of encoded bytecode: opcode bytes
// interleaved with their operand bytes, back to back, with no padding.
type Instructions []byte

// String disassembles the full instruction stream into human-readable text,
// one line per instruction, each prefixed with its byte offset.
func (ins Instructions) String() string {
	var out bytes.Buffer

	i := 0
	for i < len(ins) {
		def, err := Lookup(ins[i])
		if err != nil {
			fmt.Fprintf(&out, "ERROR: %s\n", err)
			i++
			continue
		}

		operands, read := ReadOperands(def, ins[i+1:])
		fmt.Fprintf(&out, "%04d %s\n", i, ins.fmtInstruction(def, operands))

		i += 1 + read
	}

	return out.String()
}

func (ins Instructions) fmtInstruction(def *Definition, operands []int) string {
	operandCount := len(def.OperandWidths)

	if len(operands) != operandCount {
		return fmt.Sprintf("ERROR: operand len %d does not match defined %d\n",
			len(operands), operandCount)
	}

	switch operandCount {
	case 0:
		return def.Name
	case 1:
		return fmt.Sprintf("%s %d", def.Name, operands[0])
	case 2:
		return fmt.Sprintf("%s %d %d", def.Name, operands[0], operands[1])
	}

	return fmt.Sprintf("ERROR: unhandled operandCount for %s\n", def.Name)
}

// Opcode is the first byte of every instruction.
type Opcode byte

// The complete instruction set of the core dispatch loop. Values are
// arbitrary and only need to stay distinct and fit in one byte.
const (
	OpConstant Opcode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpPrint
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpClosure
	OpCloseUpvalue
	OpReturn
)

// Definition describes an Opcode's mnemonic and the byte width of each of
// its operands, in order. Every operand not listed as width 2 (used only for
// jump offsets) is a single byte.
type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	OpConstant:     {"OP_CONSTANT", []int{1}},
	OpNil:          {"OP_NIL", []int{}},
	OpTrue:         {"OP_TRUE", []int{}},
	OpFalse:        {"OP_FALSE", []int{}},
	OpPop:          {"OP_POP", []int{}},
	OpGetLocal:     {"OP_GET_LOCAL", []int{1}},
	OpSetLocal:     {"OP_SET_LOCAL", []int{1}},
	OpGetGlobal:    {"OP_GET_GLOBAL", []int{1}},
	OpDefineGlobal: {"OP_DEFINE_GLOBAL", []int{1}},
	OpSetGlobal:    {"OP_SET_GLOBAL", []int{1}},
	OpGetUpvalue:   {"OP_GET_UPVALUE", []int{1}},
	OpSetUpvalue:   {"OP_SET_UPVALUE", []int{1}},
	OpEqual:        {"OP_EQUAL", []int{}},
	OpGreater:      {"OP_GREATER", []int{}},
	OpLess:         {"OP_LESS", []int{}},
	OpAdd:          {"OP_ADD", []int{}},
	OpSubtract:     {"OP_SUBTRACT", []int{}},
	OpMultiply:     {"OP_MULTIPLY", []int{}},
	OpDivide:       {"OP_DIVIDE", []int{}},
	OpNot:          {"OP_NOT", []int{}},
	OpNegate:       {"OP_NEGATE", []int{}},
	OpPrint:        {"OP_PRINT", []int{}},
	// OpJump/OpJumpIfFalse/OpLoop carry a 2-byte big-endian offset, the only
	// multi-byte operand width in this instruction set.
	OpJump:        {"OP_JUMP", []int{2}},
	OpJumpIfFalse: {"OP_JUMP_IF_FALSE", []int{2}},
	OpLoop:        {"OP_LOOP", []int{2}},
	OpCall: {"OP_CALL", []int{1}},
	// OpClosure's only explicit operand is the function's constant-pool
	// index; how many (isLocal, index) byte pairs immediately follow the
	// instruction is not encoded at all — it's the looked-up function's own
	// upvalue_count. Those pairs are raw bytes read directly off the frame's
	// instruction stream, not through ReadOperands.
	OpClosure:      {"OP_CLOSURE", []int{1}},
	OpCloseUpvalue: {"OP_CLOSE_UPVALUE", []int{}},
	OpReturn:       {"OP_RETURN", []int{}},
}

// Lookup finds the Definition for the given raw opcode byte.
func Lookup(op byte) (*Definition, error) {
	def, ok := definitions[Opcode(op)]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// Make encodes a single instruction: the opcode byte followed by its
// operands, each truncated to the width its Definition specifies.
func Make(op Opcode, operands ...int) []byte {
	def, ok := definitions[op]
	if !ok {
		return []byte{}
	}

	instructionLen := 1
	for _, w := range def.OperandWidths {
		instructionLen += w
	}

	instruction := make([]byte, instructionLen)
	instruction[0] = byte(op)

	offset := 1
	for i, o := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 2:
			binary.BigEndian.PutUint16(instruction[offset:], uint16(o))
		case 1:
			instruction[offset] = byte(o)
		}
		offset += width
	}

	return instruction
}

// ReadOperands decodes the operands of one instruction and reports how many
// bytes were consumed doing so.
func ReadOperands(def *Definition, ins Instructions) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0

	for i, width := range def.OperandWidths {
		switch width {
		case 2:
			operands[i] = int(ReadUint16(ins[offset:]))
		case 1:
			operands[i] = int(ins[offset])
		}
		offset += width
	}

	return operands, offset
}

// ReadUint16 decodes a big-endian 16-bit operand, used only for jump
// offsets.
func ReadUint16(ins Instructions) uint16 {
	return binary.BigEndian.Uint16(ins)
}
