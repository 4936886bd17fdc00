package object

import (
	"fmt"
	"strings"

	"github.com/loxlang/loxvm/code"
)

// Chunk is a compiled unit's bytecode: a contiguous byte buffer, a constant
// pool, and a parallel line-number array (Lines[i] is the source line of the
// instruction whose first byte is Code[i]).
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// NewChunk returns an empty chunk ready to be written into.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends one raw byte, recording the source line it came from.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteBytes appends a whole pre-encoded instruction (see code.Make),
// recording the same line for every byte of it.
func (c *Chunk) WriteBytes(bytes []byte, line int) int {
	start := len(c.Code)
	for _, b := range bytes {
		c.Write(b, line)
	}
	return start
}

// AddConstant appends v to the constant pool and returns its index.
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Disassemble renders the whole chunk as human-readable text: offset,
// mnemonic, and decoded operands per instruction, plus the source line of
// each one. It is reachable only from the CLI's -debug flag, never from
// inside the dispatch loop itself.
func (c *Chunk) Disassemble(name string) string {
	var out strings.Builder
	fmt.Fprintf(&out, "== %s ==\n", name)

	offset := 0
	for offset < len(c.Code) {
		offset = c.disassembleInstruction(&out, offset)
	}
	return out.String()
}

func (c *Chunk) disassembleInstruction(out *strings.Builder, offset int) int {
	def, err := code.Lookup(c.Code[offset])
	if err != nil {
		fmt.Fprintf(out, "%04d ERROR: %s\n", offset, err)
		return offset + 1
	}

	line := "   |"
	if offset == 0 || c.Lines[offset] != c.Lines[offset-1] {
		line = fmt.Sprintf("%4d", c.Lines[offset])
	}

	operands, read := code.ReadOperands(def, code.Instructions(c.Code[offset+1:]))
	fmt.Fprintf(out, "%04d %s %s", offset, line, def.Name)
	var fnConstant *ObjFunction
	for i, o := range operands {
		if def.Name == "OP_CONSTANT" || def.Name == "OP_CLOSURE" {
			if i == 0 {
				fmt.Fprintf(out, " %d '%s'", o, c.Constants[o].String())
				if def.Name == "OP_CLOSURE" {
					fnConstant, _ = c.Constants[o].AsObj().(*ObjFunction)
				}
				continue
			}
		}
		fmt.Fprintf(out, " %d", o)
	}
	fmt.Fprintln(out)

	next := offset + 1 + read
	if def.Name == "OP_CLOSURE" && fnConstant != nil {
		// The upvalue (isLocal, index) byte pairs immediately following a
		// CLOSURE instruction aren't encoded as ordinary operands — there is
		// no count operand at all, only the looked-up function's own
		// upvalue_count — so the disassembler walks them separately here.
		upvalueCount := fnConstant.UpvalueCount
		for i := 0; i < upvalueCount; i++ {
			isLocal := c.Code[next]
			index := c.Code[next+1]
			kind := "upvalue"
			if isLocal == 1 {
				kind = "local"
			}
			fmt.Fprintf(out, "%04d      |                     %s %d\n", next, kind, index)
			next += 2
		}
	}
	return next
}
