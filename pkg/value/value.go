package value

import (
	"fmt"
	"math"
	"strconv"
)

type Kind int

const (
	KindInvalid Kind = iota
	KindI32
	KindI64
	KindF32
	KindF64
	KindLabel
)

// String returns the WebAssembly name of the kind.
func (k Kind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindLabel:
		return "label"
	default:
		return "invalid"
	}
}

// IsNumeric reports whether the kind carries a number.
func (k Kind) IsNumeric() bool {
	return k >= KindI32 && k <= KindF64
}

// ParseKind maps a type name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "i32":
		return KindI32, nil
	case "i64":
		return KindI64, nil
	case "f32":
		return KindF32, nil
	case "f64":
		return KindF64, nil
	case "label":
		return KindLabel, nil
	default:
		return KindInvalid, fmt.Errorf("unknown value type: %q", name)
	}
}

// Value is an immutable tagged operand. The zero Value is invalid and marks
// an unset local slot.
type Value struct {
	kind  Kind
	bits  uint64 // integer payload, or IEEE bits for floats
	label string
}

// I32 creates a new i32 Value.
func I32(n int32) Value {
	return Value{kind: KindI32, bits: uint64(uint32(n))}
}

// I64 creates a new i64 Value.
func I64(n int64) Value {
	return Value{kind: KindI64, bits: uint64(n)}
}

// F32 creates a new f32 Value.
func F32(f float32) Value {
	return Value{kind: KindF32, bits: uint64(math.Float32bits(f))}
}

// F64 creates a new f64 Value.
func F64(f float64) Value {
	return Value{kind: KindF64, bits: math.Float64bits(f)}
}

// Label creates a block label marker.
func Label(name string) Value {
	return Value{kind: KindLabel, label: name}
}

func (v Value) Kind() Kind {
	return v.kind
}

// IsValid reports whether the value was built by one of the constructors.
func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

// AsI32 returns the payload of an i32 value.
func (v Value) AsI32() (int32, bool) {
	if v.kind != KindI32 {
		return 0, false
	}
	return int32(uint32(v.bits)), true
}

// AsI64 returns the payload of an i64 value.
func (v Value) AsI64() (int64, bool) {
	if v.kind != KindI64 {
		return 0, false
	}
	return int64(v.bits), true
}

// AsF32 returns the payload of an f32 value.
func (v Value) AsF32() (float32, bool) {
	if v.kind != KindF32 {
		return 0, false
	}
	return math.Float32frombits(uint32(v.bits)), true
}

// AsF64 returns the payload of an f64 value.
func (v Value) AsF64() (float64, bool) {
	if v.kind != KindF64 {
		return 0, false
	}
	return math.Float64frombits(v.bits), true
}

// LabelName returns the name carried by a label marker.
func (v Value) LabelName() (string, bool) {
	if v.kind != KindLabel {
		return "", false
	}
	return v.label, true
}

// Equal reports whether both tag and payload match. Floats compare by bit
// pattern, so NaN equals an identical NaN.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.bits == o.bits && v.label == o.label
}

// String renders the value as "<payload>:<type>".
func (v Value) String() string {
	switch v.kind {
	case KindI32:
		n, _ := v.AsI32()
		return strconv.FormatInt(int64(n), 10) + ":i32"
	case KindI64:
		n, _ := v.AsI64()
		return strconv.FormatInt(n, 10) + ":i64"
	case KindF32:
		f, _ := v.AsF32()
		return strconv.FormatFloat(float64(f), 'g', -1, 32) + ":f32"
	case KindF64:
		f, _ := v.AsF64()
		return strconv.FormatFloat(f, 'g', -1, 64) + ":f64"
	case KindLabel:
		return "label:" + v.label
	default:
		return "<unset>"
	}
}
