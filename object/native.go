package object

import "fmt"

// NativeFn is a host-provided callable. It never allocates a VM call frame;
// the VM invokes it directly and pushes whatever it returns.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a NativeFn with the name it was registered under, used
// only for Inspect-style printing.
type ObjNative struct {
	objHeader
	Name string
	Fn   NativeFn
}

func (n *ObjNative) Type() ObjType  { return ObjNativeType }
func (n *ObjNative) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
