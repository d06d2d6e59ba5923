package value

import (
	"fmt"
	"math"

	"memfuzz/internal/errors"
)

// Value is a tagged scalar: a Type plus a 64-bit payload interpreted
// according to that tag. Signed integer payloads are stored sign-extended
// to 64 bits at construction time, unsigned payloads zero-extended, and
// float32 payloads stored as their raw 32-bit pattern in the low half of
// the word — so every accessor is a simple reinterpretation, never a
// runtime width check. Values are short-lived and stack-local; nothing in
// this package allocates beyond what Go's runtime does for the struct
// itself.
type Value struct {
	Type Type
	raw  uint64
}

func Int(t Type, v int64) Value {
	return Value{Type: t, raw: uint64(truncateSigned(v, t.Width()))}
}

func Uint(t Type, v uint64) Value {
	return Value{Type: t, raw: truncateUnsigned(v, t.Width())}
}

func Float32(v float32) Value {
	return Value{Type: F32, raw: uint64(math.Float32bits(v))}
}

func Float64(v float64) Value {
	return Value{Type: F64, raw: math.Float64bits(v)}
}

func Pointer(pointee Type, addr uint64) Value {
	return Value{Type: PointerTo(pointee), raw: addr}
}

func Bool32(b bool) Value {
	if b {
		return Int(S32, 1)
	}
	return Int(S32, 0)
}

func truncateSigned(v int64, width int) int64 {
	if width >= 8 {
		return v
	}
	bits := uint(width * 8)
	mask := int64(1)<<bits - 1
	v &= mask
	sign := int64(1) << (bits - 1)
	if v&sign != 0 {
		v -= int64(1) << bits
	}
	return v
}

func truncateUnsigned(v uint64, width int) uint64 {
	if width >= 8 {
		return v
	}
	bits := uint(width * 8)
	mask := uint64(1)<<bits - 1
	return v & mask
}

// Int64 reinterprets the payload as a signed 64-bit integer. Valid for any
// integer-family Type or a pointer (address as a signed value).
func (v Value) Int64() int64 {
	return int64(v.raw)
}

// Uint64 reinterprets the payload as an unsigned 64-bit integer, or an
// address for a pointer-typed value.
func (v Value) Uint64() uint64 {
	return v.raw
}

// Float64 reinterprets the payload as a double, promoting through float32
// or through the integer accessors as needed.
func (v Value) Float64() float64 {
	switch v.Type {
	case F64:
		return math.Float64frombits(v.raw)
	case F32:
		return float64(math.Float32frombits(uint32(v.raw)))
	default:
		if v.Type.IsSigned() {
			return float64(v.Int64())
		}
		return float64(v.Uint64())
	}
}

func (v Value) Float32() float32 {
	if v.Type == F32 {
		return math.Float32frombits(uint32(v.raw))
	}
	return float32(v.Float64())
}

func (v Value) Address() uint64 {
	return v.raw
}

// CastTo implements the ten cast_to_<T> operations as one dispatch: a
// C-style narrowing/widening/float<->int conversion, or a pointer<->
// address-width-integer reinterpretation.
func (v Value) CastTo(t Type) (Value, error) {
	if t.IsPointer() {
		switch {
		case v.Type.IsPointer():
			return Value{Type: t, raw: v.raw}, nil
		case v.Type.IsInteger():
			return Value{Type: t, raw: v.raw}, nil
		default:
			return Value{}, errors.PointerToNonIntegral()
		}
	}

	if v.Type.IsPointer() {
		if !t.IsInteger() {
			return Value{}, errors.PointerToNonIntegral()
		}
		if t.IsSigned() {
			return Int(t, v.Int64()), nil
		}
		return Uint(t, v.Uint64()), nil
	}

	switch t {
	case F32:
		return Float32(float32(v.Float64())), nil
	case F64:
		return Float64(v.Float64()), nil
	default:
		if v.Type.IsFloat() {
			f := v.Float64()
			if t.IsSigned() {
				return Int(t, int64(f)), nil
			}
			// Negative-float-to-unsigned is implementation-defined;
			// pinned here as truncate-toward-zero through the signed
			// representation, then reinterpret the bit pattern at the
			// target width.
			return Uint(t, uint64(int64(f))), nil
		}
		if t.IsSigned() {
			return Int(t, v.Int64()), nil
		}
		return Uint(t, v.Uint64()), nil
	}
}

func (v Value) String() string {
	switch {
	case v.Type.IsPointer():
		return fmt.Sprintf("(%s)0x%x", v.Type, v.raw)
	case v.Type.IsFloat():
		return fmt.Sprintf("(%s)%v", v.Type, v.Float64())
	case v.Type.IsSigned():
		return fmt.Sprintf("(%s)%d", v.Type, v.Int64())
	default:
		return fmt.Sprintf("(%s)%d", v.Type, v.Uint64())
	}
}
