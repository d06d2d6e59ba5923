package value

import "memfuzz/internal/errors"

// The operations below implement the numeric op table. Only S32, U32, S64,
// U64 and F64 carry native kernels — small-type promotion and F32's
// widening to F64 mean every other type is promoted to one of these
// five before reaching here (internal/eval does the promotion and casts
// both operands to the winning type before calling). A caller that invokes
// these directly with an unpromoted or mismatched-type pair gets
// InvalidOperandType rather than a silently wrong answer.

func nativeBinary(a, b Value, name string) (Type, error) {
	if a.Type != b.Type {
		return 0, errors.InvalidOperandType(name, a.Type, b.Type)
	}
	switch a.Type {
	case S32, U32, S64, U64, F64:
		return a.Type, nil
	default:
		return 0, errors.InvalidOperandType(name, a.Type, b.Type)
	}
}

func Add(a, b Value) (Value, error) {
	t, err := nativeBinary(a, b, "+")
	if err != nil {
		return Value{}, err
	}
	if t == F64 {
		return Float64(a.Float64() + b.Float64()), nil
	}
	if t == S32 || t == S64 {
		return Int(t, a.Int64()+b.Int64()), nil
	}
	return Uint(t, a.Uint64()+b.Uint64()), nil
}

func Sub(a, b Value) (Value, error) {
	t, err := nativeBinary(a, b, "-")
	if err != nil {
		return Value{}, err
	}
	if t == F64 {
		return Float64(a.Float64() - b.Float64()), nil
	}
	if t == S32 || t == S64 {
		return Int(t, a.Int64()-b.Int64()), nil
	}
	return Uint(t, a.Uint64()-b.Uint64()), nil
}

func Mul(a, b Value) (Value, error) {
	t, err := nativeBinary(a, b, "*")
	if err != nil {
		return Value{}, err
	}
	if t == F64 {
		return Float64(a.Float64() * b.Float64()), nil
	}
	if t == S32 || t == S64 {
		return Int(t, a.Int64()*b.Int64()), nil
	}
	return Uint(t, a.Uint64()*b.Uint64()), nil
}

func Div(a, b Value) (Value, error) {
	t, err := nativeBinary(a, b, "/")
	if err != nil {
		return Value{}, err
	}
	if t == F64 {
		return Float64(a.Float64() / b.Float64()), nil
	}
	if t == S32 || t == S64 {
		if b.Int64() == 0 {
			return Value{}, errors.DivideByZero()
		}
		return Int(t, a.Int64()/b.Int64()), nil
	}
	if b.Uint64() == 0 {
		return Value{}, errors.DivideByZero()
	}
	return Uint(t, a.Uint64()/b.Uint64()), nil
}

// Mod implements integer truncated-division remainder (host semantics);
// it is never called with F32/F64 operands — the parser rejects '%' on
// floats at parse time.
func Mod(a, b Value) (Value, error) {
	t, err := nativeBinary(a, b, "%")
	if err != nil {
		return Value{}, err
	}
	if t == F64 {
		return Value{}, errors.InvalidOperandType("%", a.Type, b.Type)
	}
	if t == S32 || t == S64 {
		if b.Int64() == 0 {
			return Value{}, errors.DivideByZero()
		}
		return Int(t, a.Int64()%b.Int64()), nil
	}
	if b.Uint64() == 0 {
		return Value{}, errors.DivideByZero()
	}
	return Uint(t, a.Uint64()%b.Uint64()), nil
}

func bitwiseOperand(t Type) bool {
	return t == S32 || t == U32 || t == S64 || t == U64
}

func BitAnd(a, b Value) (Value, error) { return bitwiseOp(a, b, "&", func(x, y uint64) uint64 { return x & y }) }
func BitXor(a, b Value) (Value, error) { return bitwiseOp(a, b, "^", func(x, y uint64) uint64 { return x ^ y }) }
func BitOr(a, b Value) (Value, error)  { return bitwiseOp(a, b, "|", func(x, y uint64) uint64 { return x | y }) }

func bitwiseOp(a, b Value, name string, f func(x, y uint64) uint64) (Value, error) {
	t, err := nativeBinary(a, b, name)
	if err != nil {
		return Value{}, err
	}
	if !bitwiseOperand(t) {
		return Value{}, errors.InvalidOperandType(name, a.Type, b.Type)
	}
	r := f(a.Uint64(), b.Uint64())
	if t == S32 || t == S64 {
		return Int(t, int64(r)), nil
	}
	return Uint(t, r), nil
}

// Shl/Shr: defined only for an integer left operand; the right operand is
// cast to the left operand's promoted type by the caller before this is
// invoked. Shift counts outside [0, width) are implementation-defined —
// this implementation uses Go's native shift-by-variable semantics,
// which mask nothing beyond what the width conversion below performs.
func Shl(a, b Value) (Value, error) {
	if !bitwiseOperand(a.Type) {
		return Value{}, errors.InvalidOperandType("<<", a.Type, b.Type)
	}
	n := uint(b.Uint64())
	if a.Type == S32 || a.Type == S64 {
		return Int(a.Type, a.Int64()<<n), nil
	}
	return Uint(a.Type, a.Uint64()<<n), nil
}

func Shr(a, b Value) (Value, error) {
	if !bitwiseOperand(a.Type) {
		return Value{}, errors.InvalidOperandType(">>", a.Type, b.Type)
	}
	n := uint(b.Uint64())
	if a.Type == S32 || a.Type == S64 {
		return Int(a.Type, a.Int64()>>n), nil
	}
	return Uint(a.Type, a.Uint64()>>n), nil
}

// --- Comparisons: always S32 0/1 ---

func Eq(a, b Value) (Value, error)  { return compare(a, b, "==") }
func Neq(a, b Value) (Value, error) { return compare(a, b, "!=") }
func Lt(a, b Value) (Value, error)  { return compare(a, b, "<") }
func Gt(a, b Value) (Value, error)  { return compare(a, b, ">") }
func Le(a, b Value) (Value, error)  { return compare(a, b, "<=") }
func Ge(a, b Value) (Value, error)  { return compare(a, b, ">=") }

func compare(a, b Value, op string) (Value, error) {
	t, err := nativeBinary(a, b, op)
	if err != nil {
		return Value{}, err
	}
	var less, equal bool
	switch t {
	case F64:
		x, y := a.Float64(), b.Float64()
		less, equal = x < y, x == y
	case S32, S64:
		x, y := a.Int64(), b.Int64()
		less, equal = x < y, x == y
	default:
		x, y := a.Uint64(), b.Uint64()
		less, equal = x < y, x == y
	}
	var result bool
	switch op {
	case "==":
		result = equal
	case "!=":
		result = !equal
	case "<":
		result = less
	case ">":
		result = !less && !equal
	case "<=":
		result = less || equal
	case ">=":
		result = !less
	}
	return Bool32(result), nil
}

// --- Unary ---

func Neg(a Value) (Value, error) {
	switch a.Type {
	case F64:
		return Float64(-a.Float64()), nil
	case S32, S64:
		return Int(a.Type, -a.Int64()), nil
	case U32, U64:
		return Uint(a.Type, -a.Uint64()), nil
	default:
		return Value{}, errors.InvalidOperandType("u-", a.Type, a.Type)
	}
}

// Not is logical negation: 0 -> 1, anything else -> 0, always S32. The
// operand must be integer — unlike C, a float operand is a type error
// here, not an implicit comparison against 0.0.
func Not(a Value) (Value, error) {
	if !a.Type.IsInteger() {
		return Value{}, errors.InvalidOperandType("!", a.Type, a.Type)
	}
	return Bool32(a.Uint64() == 0), nil
}

// Compl is bitwise complement, integer-only.
func Compl(a Value) (Value, error) {
	if !bitwiseOperand(a.Type) {
		return Value{}, errors.InvalidOperandType("~", a.Type, a.Type)
	}
	if a.Type == S32 || a.Type == S64 {
		return Int(a.Type, ^a.Int64()), nil
	}
	return Uint(a.Type, ^a.Uint64()), nil
}

// Assign converts src to dst's type and returns the converted value —
// the engine never mutates Value in place; the caller stores the result
// into the bound symbol's backing bytes itself.
func Assign(dstType Type, src Value) (Value, error) {
	return src.CastTo(dstType)
}

// IsZero reports whether v is the zero value of its type, used by the
// evaluator's &&/|| short-circuit decision.
func (v Value) IsZero() bool {
	if v.Type.IsFloat() {
		return v.Float64() == 0
	}
	return v.Uint64() == 0
}
