package noct

import (
	"fmt"
	"math"
)

// Kind is the tag of a Value's six variants (spec §3.1).
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindArray
	KindDict
	KindFunc
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindDict:
		return "dict"
	case KindFunc:
		return "func"
	default:
		return "unknown"
	}
}

// gcObject is implemented by every heap object kind (StringObj, ArrayObj,
// DictObj, FuncObj). It plays the role of the "struct rt_gc_object head"
// that starts every heap object in the C runtime: the GC header lives
// behind this interface rather than at a fixed byte offset.
type gcObject interface {
	gcHeader() *objHeader
	objKind() Kind
}

// Value is the tagged union described in spec §3.1. Because obj is a
// two-word Go interface, a Value takes 24 bytes on a 64-bit GOARCH and 16
// on a 32-bit one, not the 16/8 bytes of a C tagged union. It is plain
// data, copied by value on assignment — the Go equivalent of the C
// union's "bitwise copy" contract used by ASSIGN.
//
// A zero Value is Int(0): kind defaults to KindInt and num defaults to 0,
// matching NOCT_ZERO.
type Value struct {
	kind Kind
	num  int32 // raw bits: either the int payload, or math.Float32bits(f)
	obj  gcObject
}

// NewInt constructs an Int value.
func NewInt(i int32) Value { return Value{kind: KindInt, num: i} }

// NewFloat constructs a Float value.
func NewFloat(f float32) Value { return Value{kind: KindFloat, num: int32(math.Float32bits(f))} }

func newObjValue(k Kind, o gcObject) Value { return Value{kind: k, obj: o} }

// Kind reports the value's variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsInt, IsFloat, ... report the variant tag without touching the payload.
func (v Value) IsInt() bool    { return v.kind == KindInt }
func (v Value) IsFloat() bool  { return v.kind == KindFloat }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsArray() bool  { return v.kind == KindArray }
func (v Value) IsDict() bool   { return v.kind == KindDict }
func (v Value) IsFunc() bool   { return v.kind == KindFunc }

// Int returns the raw int payload. The caller must have checked Kind().
func (v Value) Int() int32 { return v.num }

// Float returns the raw float payload. The caller must have checked Kind().
func (v Value) Float() float32 { return math.Float32frombits(uint32(v.num)) }

// StringObj returns the underlying string object. Strings are immutable
// and never participate in copy-on-resize. The caller must have checked
// Kind().
func (v Value) StringObj() *StringObj { return v.obj.(*StringObj) }

// ArrayObj returns the underlying array object, already resolved to its
// latest copy-on-resize generation. The caller must have checked Kind().
func (v Value) ArrayObj() *ArrayObj { return v.obj.(*ArrayObj).latest() }

// DictObj returns the underlying dict object, already resolved to its
// latest copy-on-resize generation. The caller must have checked Kind().
func (v Value) DictObj() *DictObj { return v.obj.(*DictObj).latest() }

// FuncObj returns the underlying function object. The caller must have
// checked Kind().
func (v Value) FuncObj() *FuncObj { return v.obj.(*FuncObj) }

// object returns the raw gcObject reference held by the value, or nil for
// Int/Float. Used by the GC root scanner, which chases copy-on-resize
// `newer` forwarding itself during marking rather than here.
func (v Value) object() gcObject {
	if v.kind == KindInt || v.kind == KindFloat {
		return nil
	}
	return v.obj
}

// TypeError reports that a value's Kind did not match what an operation
// required.
type TypeError struct {
	Op       string
	Expected string
	Got      Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Op, e.Expected, e.Got)
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Int())
	case KindFloat:
		return fmt.Sprintf("%f", v.Float())
	case KindString:
		return v.StringObj().Data
	case KindArray:
		return fmt.Sprintf("array[%d]", v.ArrayObj().Size())
	case KindDict:
		return fmt.Sprintf("dict[%d]", v.DictObj().Size())
	case KindFunc:
		return fmt.Sprintf("func %s", v.FuncObj().Name)
	default:
		return "<invalid>"
	}
}
