package vm

import "github.com/loxlang/loxvm/object"

// readUpvalue and writeUpvalue are the indirection GET_UPVALUE/SET_UPVALUE
// go through: while the upvalue is open they read/write the live stack slot
// it names, so the closure and the enclosing frame observe each other's
// writes; once closed they read/write the upvalue's own embedded value.
func (vm *VM) readUpvalue(uv *object.ObjUpvalue) object.Value {
	if uv.IsClosed {
		return uv.Closed
	}
	return vm.stack[uv.Slot]
}

func (vm *VM) writeUpvalue(uv *object.ObjUpvalue, v object.Value) {
	if uv.IsClosed {
		uv.Closed = v
		return
	}
	vm.stack[uv.Slot] = v
}

// captureUpvalue returns the upvalue for the given stack slot, reusing one
// already open on that slot so that multiple closures capturing the same
// local share a single upvalue object (the mechanism by which writes
// through one are visible through the other). The open list is kept sorted
// strictly descending by slot with no duplicates; this walks
// it looking for an exact match or the insertion point.
func (vm *VM) captureUpvalue(slot int) *object.ObjUpvalue {
	var prev *object.ObjUpvalue
	curr := vm.openUpvalues

	for curr != nil && curr.Slot > slot {
		prev = curr
		curr = curr.Next
	}

	if curr != nil && curr.Slot == slot {
		return curr
	}

	created := vm.heap.NewUpvalue(slot)
	created.Next = curr

	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}

	return created
}

// closeUpvalues lifts every open upvalue whose slot is >= last off the
// stack and onto the heap (copying the live value into Closed) and unlinks
// it from the open list. Called with last = stackTop-1 for
// OP_CLOSE_UPVALUE (closing exactly the top stack slot) and with
// last = frame.slots on OP_RETURN (closing every upvalue the returning
// frame owns, and any deeper ones a callee left open).
//
// Calling this twice with the same last is idempotent: the first call
// closes and unlinks everything at or above last, so a second call finds
// nothing left to do.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= last {
		uv := vm.openUpvalues
		uv.Closed = vm.stack[uv.Slot]
		uv.IsClosed = true
		vm.openUpvalues = uv.Next
		uv.Next = nil
	}
}
