package object

// ObjUpvalue is a stable handle mediating a closure's access to a variable
// captured from an enclosing frame. While the variable is still live on the
// VM's operand stack the upvalue is open: Slot names the stack index the VM
// should read/write through. When the variable's scope ends the upvalue is
// closed: its value is copied into Closed and IsClosed is set, so the
// upvalue keeps working even after the stack slot it used to name is reused
// by something else.
//
// Slot is a stack-slot index rather than a raw pointer: Go has no ordering
// comparison on pointers, and the VM's operand stack has a fixed maximum
// capacity (FramesMax * StackSlotsPerFrame) and never reallocates, so a
// slot index stays valid for exactly as long as a pointer into the stack
// would have.
type ObjUpvalue struct {
	objHeader
	Slot     int
	Closed   Value
	IsClosed bool
	// Next links this upvalue into the VM's open-upvalue list, kept sorted
	// strictly descending by Slot with no duplicates.
	Next *ObjUpvalue
}

func (u *ObjUpvalue) Type() ObjType  { return ObjUpvalueType }
func (u *ObjUpvalue) String() string { return "<upvalue>" }
