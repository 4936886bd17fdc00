package object

import "weak"

// Heap is the allocator: it links every object it creates into a singly
// linked intrusive list and interns strings in a table keyed by their byte
// content. There is no package-level global VM/heap instance — every
// operation takes an explicit *Heap — so more than one VM can exist in the
// same process.
type Heap struct {
	objects Obj
	strings map[string]weak.Pointer[ObjString]
}

// NewHeap creates an empty allocator.
func NewHeap() *Heap {
	return &Heap{strings: make(map[string]weak.Pointer[ObjString])}
}

func (h *Heap) track(o Obj) Obj {
	o.header().next = h.objects
	h.objects = o
	return o
}

// ObjectCount walks the intrusive list and counts live objects; a debug
// helper, not something the dispatch loop calls.
func (h *Heap) ObjectCount() int {
	n := 0
	for o := h.objects; o != nil; o = o.header().next {
		n++
	}
	return n
}

// CopyString hashes bytes and returns the canonical interned ObjString for
// that content, allocating a new one only on a miss. The intern table holds
// weak references (weak.Pointer): once nothing else reaches an ObjString,
// Go's collector is free to reclaim it and the table entry silently goes
// stale, with no hand-rolled bookkeeping needed to prune it.
func (h *Heap) CopyString(bytes []byte) *ObjString {
	key := string(bytes)
	if wp, ok := h.strings[key]; ok {
		if s := wp.Value(); s != nil {
			return s
		}
	}

	s := &ObjString{Chars: key, Hash: hashFNV1a(bytes)}
	h.track(s)
	h.strings[key] = weak.Make(s)
	return s
}

// TakeString has the same canonicalizing behavior as CopyString. It exists
// as a separate entry point for a caller that already owns a freshly
// allocated buffer and wants to hand over ownership on a miss instead of
// copying again; Go's value semantics for string(bytes) make that
// distinction moot here, but the separate entry point keeps call sites
// self-documenting about which case they're in.
func (h *Heap) TakeString(bytes []byte) *ObjString {
	return h.CopyString(bytes)
}

// NewFunction allocates a function object with an empty chunk ready for the
// compiler to emit into.
func (h *Heap) NewFunction(name *ObjString) *ObjFunction {
	fn := &ObjFunction{Chunk: NewChunk(), Name: name}
	h.track(fn)
	return fn
}

// NewNative allocates a host-provided callable.
func (h *Heap) NewNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	h.track(n)
	return n
}

// NewClosure binds a function to a fresh, empty upvalue vector sized to the
// function's upvalue_count; OP_CLOSURE populates each slot after this call.
func (h *Heap) NewClosure(fn *ObjFunction) *ObjClosure {
	cl := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	h.track(cl)
	return cl
}

// NewUpvalue allocates an open upvalue pointing at the given VM stack slot.
func (h *Heap) NewUpvalue(slot int) *ObjUpvalue {
	uv := &ObjUpvalue{Slot: slot}
	h.track(uv)
	return uv
}
