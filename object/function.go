package object

import "fmt"

// ObjFunction is a compiled unit produced by the compiler: its arity, how
// many upvalues its closures need, and the Chunk holding its bytecode,
// constant pool and line map.
type ObjFunction struct {
	objHeader
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString // nil for the implicit top-level script function
}

func (f *ObjFunction) Type() ObjType { return ObjFunctionType }

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// DisplayName is what the runtime-error stack trace prints for a frame:
// "script" for the top-level function, the bare name otherwise.
func (f *ObjFunction) DisplayName() string {
	if f.Name == nil {
		return "script"
	}
	return f.Name.Chars
}
