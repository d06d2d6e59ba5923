package value

import "testing"

func TestPromotedOperationType(t *testing.T) {
	tests := []struct {
		in   Type
		want Type
	}{
		{S8, S32}, {U8, S32}, {S16, S32}, {U16, S32},
		{F32, F64},
		{S32, S32}, {U32, U32}, {S64, S64}, {U64, U64}, {F64, F64},
	}
	for _, tt := range tests {
		if got := tt.in.PromotedOperationType(); got != tt.want {
			t.Errorf("%s.PromotedOperationType() = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestHigherTypeCommutative(t *testing.T) {
	types := []Type{S8, U8, S16, U16, S32, U32, S64, U64, F32, F64}
	for _, a := range types {
		for _, b := range types {
			if HigherType(a, b) != HigherType(b, a) {
				t.Errorf("HigherType(%s,%s) != HigherType(%s,%s)", a, b, b, a)
			}
		}
	}
}

func TestHigherTypeMonotone(t *testing.T) {
	// F64 must dominate every other type, and every integer type must
	// dominate S8, matching the usual-arithmetic-conversion rank ordering.
	types := []Type{S8, U8, S16, U16, S32, U32, S64, U64, F32}
	for _, ty := range types {
		if HigherType(F64, ty) != F64 {
			t.Errorf("HigherType(F64, %s) = %s, want F64", ty, HigherType(F64, ty))
		}
		if HigherType(ty, S8) != ty {
			t.Errorf("HigherType(%s, S8) = %s, want %s", ty, HigherType(ty, S8), ty)
		}
	}
}

func TestCastNarrowsS32ToU8(t *testing.T) {
	v := Int(S32, -5)
	cast, err := v.CastTo(U8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cast.Type != U8 || cast.Uint64() != 0xFB {
		t.Fatalf("got (%s) 0x%x, want (u8) 0xfb", cast.Type, cast.Uint64())
	}
}

func TestCastFloatToSigned(t *testing.T) {
	v := Float64(3.9)
	cast, err := v.CastTo(S32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cast.Int64() != 3 {
		t.Errorf("got %d, want 3 (truncation, not rounding)", cast.Int64())
	}
}

func TestCastPointerToNonIntegralIsError(t *testing.T) {
	v := Float64(1.0)
	_, err := v.CastTo(PointerTo(S32))
	if err == nil {
		t.Fatal("expected an error casting a float to a pointer type")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []Value{
		Int(S8, -3), Uint(U8, 200),
		Int(S16, -1000), Uint(U16, 60000),
		Int(S32, -70000), Uint(U32, 4000000000),
		Int(S64, -1), Uint(U64, 18446744073709551615),
		Float32(1.5), Float64(2.25),
	}
	for _, v := range tests {
		buf := Encode(v)
		if len(buf) != v.Type.Width() {
			t.Fatalf("%s: Encode produced %d bytes, want %d", v.Type, len(buf), v.Type.Width())
		}
		back := Decode(v.Type, buf)
		if back.Uint64() != v.Uint64() {
			t.Errorf("%s: round trip raw mismatch: got %#x, want %#x", v.Type, back.Uint64(), v.Uint64())
		}
	}
}

func TestIsZero(t *testing.T) {
	if !Int(S32, 0).IsZero() {
		t.Error("Int(S32, 0).IsZero() = false")
	}
	if Int(S32, 1).IsZero() {
		t.Error("Int(S32, 1).IsZero() = true")
	}
	if !Float64(0.0).IsZero() {
		t.Error("Float64(0.0).IsZero() = false")
	}
}
