package object

import "testing"

func TestCopyStringInterning(t *testing.T) {
	h := NewHeap()

	a := h.CopyString([]byte("monkey"))
	b := h.CopyString([]byte("monkey"))
	c := h.CopyString([]byte("banana"))

	if a != b {
		t.Fatalf("expected same byte sequence to intern to the same object")
	}
	if a == c {
		t.Fatalf("expected different byte sequences to intern to different objects")
	}
	if a.Hash != b.Hash {
		t.Errorf("interned strings with equal content must have equal hashes")
	}
}

func TestTakeStringCanonicalizesOnHit(t *testing.T) {
	h := NewHeap()

	a := h.CopyString([]byte("concat"))
	b := h.TakeString([]byte("concat"))

	if a != b {
		t.Fatalf("TakeString must return the already-interned object on a hit")
	}
}

func TestNewClosureSizesUpvalues(t *testing.T) {
	h := NewHeap()
	fn := h.NewFunction(nil)
	fn.UpvalueCount = 2

	cl := h.NewClosure(fn)
	if len(cl.Upvalues) != 2 {
		t.Fatalf("expected 2 upvalue slots, got %d", len(cl.Upvalues))
	}
}

func TestObjectCountTracksAllocations(t *testing.T) {
	h := NewHeap()
	before := h.ObjectCount()

	h.CopyString([]byte("a"))
	h.NewFunction(nil)

	if got := h.ObjectCount(); got != before+2 {
		t.Errorf("ObjectCount = %d, want %d", got, before+2)
	}
}
