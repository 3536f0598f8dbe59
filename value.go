package mvt

import "fmt"

// ValueKind identifies which member of the Value union is set.
type ValueKind uint8

const (
	KindString ValueKind = iota + 1
	KindFloat
	KindDouble
	KindInt
	KindUint
	KindSint
	KindBool
)

// String returns the lower-case name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindSint:
		return "sint"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is a tag value stored in a layer's value dictionary.
//
// Values are comparable with ==. Two values are equal only when both the kind
// and the payload match, so DoubleValue(1) and FloatValue(1) are distinct
// entries, as are IntValue(1) and SintValue(1). Floating point payloads compare
// with IEEE semantics: NaN never equals itself and is therefore never
// deduplicated.
type Value struct {
	kind ValueKind
	str  string
	f32  float32
	f64  float64
	bits uint64 // int, uint, sint and bool payloads
}

// StringValue returns a string Value.
func StringValue(v string) Value { return Value{kind: KindString, str: v} }

// FloatValue returns a 32-bit float Value.
func FloatValue(v float32) Value { return Value{kind: KindFloat, f32: v} }

// DoubleValue returns a 64-bit float Value.
func DoubleValue(v float64) Value { return Value{kind: KindDouble, f64: v} }

// IntValue returns a Value encoded as a plain varint int64.
func IntValue(v int64) Value { return Value{kind: KindInt, bits: uint64(v)} }

// UintValue returns an unsigned Value.
func UintValue(v uint64) Value { return Value{kind: KindUint, bits: v} }

// SintValue returns a Value encoded as a zigzag varint.
func SintValue(v int64) Value { return Value{kind: KindSint, bits: uint64(v)} }

// BoolValue returns a boolean Value.
func BoolValue(v bool) Value {
	val := Value{kind: KindBool}
	if v {
		val.bits = 1
	}
	return val
}

// Kind reports which member of the union is set.
// The zero Value has kind 0 and is never produced by the constructors.
func (v Value) Kind() ValueKind { return v.kind }

// Str returns the string payload, or "" for other kinds.
func (v Value) Str() string { return v.str }

// Float returns the float payload.
func (v Value) Float() float32 { return v.f32 }

// Double returns the double payload.
func (v Value) Double() float64 { return v.f64 }

// Int returns the payload of an int or sint value.
func (v Value) Int() int64 { return int64(v.bits) }

// Uint returns the payload of a uint value.
func (v Value) Uint() uint64 { return v.bits }

// Bool returns the payload of a bool value.
func (v Value) Bool() bool { return v.bits != 0 }

// Interface returns the payload as a Go value of the matching type.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindFloat:
		return v.f32
	case KindDouble:
		return v.f64
	case KindInt, KindSint:
		return int64(v.bits)
	case KindUint:
		return v.bits
	case KindBool:
		return v.bits != 0
	default:
		return nil
	}
}

// GoString makes test failures readable.
func (v Value) GoString() string {
	return fmt.Sprintf("mvt.Value{%s: %#v}", v.kind, v.Interface())
}
