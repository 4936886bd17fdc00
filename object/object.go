package object

// ObjType tags the concrete kind of a heap-allocated Object.
type ObjType int

const (
	ObjStringType ObjType = iota
	ObjFunctionType
	ObjNativeType
	ObjClosureType
	ObjUpvalueType
)

// objHeader is the common header every heap object embeds: a link to the
// next object in the allocator's intrusive list and a GC mark bit.
// Reclamation itself is delegated to Go's own garbage collector; the header
// and list exist so the live object population stays introspectable, not to
// drive a hand-rolled mark-sweep pass.
type objHeader struct {
	next    Obj
	marked  bool
}

func (h *objHeader) header() *objHeader { return h }

// Obj is satisfied by every heap-allocated reference type: ObjString,
// ObjFunction, ObjNative, ObjClosure, ObjUpvalue.
type Obj interface {
	Type() ObjType
	String() string
	header() *objHeader
}
