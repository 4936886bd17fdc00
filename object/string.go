package object

// ObjString is an immutable, interned byte string. Because every String is
// interned, two ObjStrings are equal iff they are the same pointer — see
// Equal in value.go.
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

func (s *ObjString) Type() ObjType  { return ObjStringType }
func (s *ObjString) String() string { return s.Chars }

// hashFNV1a computes the 32-bit FNV-1a hash of bytes, used as the intern
// table's key alongside the string content itself.
func hashFNV1a(b []byte) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	hash := offsetBasis
	for _, c := range b {
		hash ^= uint32(c)
		hash *= prime
	}
	return hash
}
