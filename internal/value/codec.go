package value

import (
	"encoding/binary"
	"math"
)

// Decode interprets width-appropriate little-endian bytes from buf as a
// Value of concrete (non-pointer) type t. Used by DEREF (internal/eval)
// and by the scan engine when reading the element under the scan cursor.
// Pointer-typed reads use DecodePointer instead, since a pointer's
// payload width is the target's address width, not t.Width().
func Decode(t Type, buf []byte) Value {
	if t.IsPointer() {
		panic("value: Decode called with pointer type, use DecodePointer")
	}
	switch t.Width() {
	case 1:
		if t.IsSigned() || t.IsPointer() {
			return Int(t, int64(int8(buf[0])))
		}
		return Uint(t, uint64(buf[0]))
	case 2:
		u := binary.LittleEndian.Uint16(buf)
		if t == F32 || t == F64 {
			panic("value: Decode width mismatch for float type")
		}
		if t.IsSigned() {
			return Int(t, int64(int16(u)))
		}
		return Uint(t, uint64(u))
	case 4:
		u := binary.LittleEndian.Uint32(buf)
		if t == F32 {
			return Float32(math.Float32frombits(u))
		}
		if t.IsSigned() {
			return Int(t, int64(int32(u)))
		}
		return Uint(t, uint64(u))
	case 8:
		u := binary.LittleEndian.Uint64(buf)
		if t == F64 {
			return Float64(math.Float64frombits(u))
		}
		if t.IsSigned() {
			return Int(t, int64(u))
		}
		return Uint(t, u)
	}
	panic("value: Decode unsupported width")
}

// DecodePointer interprets addressWidth bytes (4 or 8; any value other
// than 4 reads 8) of buf as a pointer value with pointee type t.
func DecodePointer(t Type, buf []byte, addressWidth int) Value {
	if addressWidth == 4 {
		return Pointer(t, uint64(binary.LittleEndian.Uint32(buf)))
	}
	return Pointer(t, binary.LittleEndian.Uint64(buf))
}

// Encode serializes v into its native little-endian byte width, for
// writing back into target memory (poke) or symbol storage.
func Encode(v Value) []byte {
	if v.Type.IsPointer() {
		panic("value: Encode called with pointer type, use EncodePointer")
	}
	w := v.Type.Width()
	buf := make([]byte, w)
	switch w {
	case 1:
		buf[0] = byte(v.raw)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(v.raw))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(v.raw))
	case 8:
		binary.LittleEndian.PutUint64(buf, v.raw)
	}
	return buf
}

// EncodePointer serializes a pointer value into addressWidth bytes (4 or
// 8).
func EncodePointer(v Value, addressWidth int) []byte {
	buf := make([]byte, addressWidth)
	if addressWidth == 4 {
		binary.LittleEndian.PutUint32(buf, uint32(v.raw))
	} else {
		binary.LittleEndian.PutUint64(buf, v.raw)
	}
	return buf
}
