package object

// ObjClosure is a Function bound to a fixed-size vector of Upvalue handles.
// Every callable user-level value is a Closure, even the implicit top-level
// script — there is no bare, unbound Function value visible at runtime.
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) Type() ObjType  { return ObjClosureType }
func (c *ObjClosure) String() string { return c.Function.String() }
