package vm

import (
	"github.com/loxlang/loxvm/code"
	"github.com/loxlang/loxvm/object"
)

// CallFrame records the execution-relevant state of one active call: the
// closure being run, its instruction pointer, and slots — the index of the
// first operand-stack slot belonging to this call. Slot 0 of a frame is
// always the callee closure itself; slots 1..arity are the arguments;
// everything above that is locals and temporaries, assigned by the
// compiler.
type CallFrame struct {
	closure *object.ObjClosure
	ip      int
	slots   int
}

// newCallFrame starts a frame at instruction 0, based at the given stack
// slot.
func newCallFrame(cl *object.ObjClosure, slots int) CallFrame {
	return CallFrame{closure: cl, ip: 0, slots: slots}
}

// instructions returns the bytecode of the frame's closure's function.
func (f *CallFrame) instructions() code.Instructions {
	return code.Instructions(f.closure.Function.Chunk.Code)
}
