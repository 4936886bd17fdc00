// Package object defines the runtime value representation, the
// heap-allocated object model, string interning, and the bytecode Chunk
// format shared by the compiler and the VM.
package object

import (
	"fmt"
	"strconv"
)

// ValueType tags the four variants a Value can hold.
type ValueType int

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is a small, by-value tagged union. Only one of the payload fields is
// meaningful, selected by Type. Values are copied freely; only Obj carries a
// reference into the heap.
type Value struct {
	Type    ValueType
	boolean bool
	number  float64
	obj     Obj
}

// Nil is the singleton nil value.
var Nil = Value{Type: ValNil}

// Bool wraps a boolean literal.
func Bool(b bool) Value {
	return Value{Type: ValBool, boolean: b}
}

// Number wraps a float64 literal.
func Number(n float64) Value {
	return Value{Type: ValNumber, number: n}
}

// FromObj wraps a heap object reference.
func FromObj(o Obj) Value {
	return Value{Type: ValObj, obj: o}
}

// True and False are pre-built Bool values, kept around to avoid
// reallocating them on every NOT/comparison result.
var (
	True  = Bool(true)
	False = Bool(false)
)

func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsObj() bool    { return v.Type == ValObj }

// AsBool returns the boolean payload. Only meaningful when IsBool is true.
func (v Value) AsBool() bool { return v.boolean }

// AsNumber returns the float64 payload. Only meaningful when IsNumber is true.
func (v Value) AsNumber() float64 { return v.number }

// AsObj returns the heap object reference. Only meaningful when IsObj is true.
func (v Value) AsObj() Obj { return v.obj }

// IsString reports whether v holds an *ObjString.
func (v Value) IsString() bool {
	_, ok := v.obj.(*ObjString)
	return v.Type == ValObj && ok
}

// AsString returns the underlying Go string of a string Value. Panics if v
// is not a string, matching the compiler's guarantee that callers only ask
// after checking IsString.
func (v Value) AsString() string {
	return v.obj.(*ObjString).Chars
}

// IsTruthy reports whether v counts as true in a conditional: Nil and
// Bool(false) are falsey, everything else — including Number(0) and the
// empty string — is truthy.
func IsTruthy(v Value) bool {
	switch v.Type {
	case ValNil:
		return false
	case ValBool:
		return v.boolean
	default:
		return true
	}
}

// Equal implements value equality: same variant and same payload. Numbers
// compare bitwise by IEEE-754 rules (NaN != NaN). Object equality is
// reference identity; because strings are interned this also gives string
// equality by content.
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ValNil:
		return true
	case ValBool:
		return a.boolean == b.boolean
	case ValNumber:
		return a.number == b.number
	case ValObj:
		return a.obj == b.obj
	default:
		return false
	}
}

// String renders a Value the way PRINT and the REPL display it.
func (v Value) String() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case ValNumber:
		return formatNumber(v.number)
	case ValObj:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if n != n { // NaN
		return "NaN"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// TypeName returns a short diagnostic name for v's kind, handy for
// debugging builds.
func (v Value) TypeName() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		return "bool"
	case ValNumber:
		return "number"
	case ValObj:
		return fmt.Sprintf("%T", v.obj)
	default:
		return "unknown"
	}
}
