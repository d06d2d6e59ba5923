// Package eval implements the recursive AST walker: a pure function of
// the AST for any subtree with no Var and no DEREF, and a call into the
// MemoryTarget capability for every DEREF. It is the only core package
// that reaches outside the engine (into internal/target) — the
// dependency runs one way: value ops never reach back into the AST, and
// the AST never reaches into a target except through the evaluator.
package eval

import (
	"memfuzz/internal/ast"
	"memfuzz/internal/errors"
	"memfuzz/internal/target"
	"memfuzz/internal/value"
)

// Evaluate walks node and produces a Value, reading through tgt for any
// DEREF encountered. tgt may be nil if node is known to contain no DEREF
// (e.g. `explain`, or `eval` with no pointer dereference).
func Evaluate(node *ast.Node, tgt target.MemoryTarget) (value.Value, error) {
	switch node.Kind {
	case ast.KindLiteral:
		return node.Lit, nil

	case ast.KindVar:
		return node.Sym.Storage.Load(), nil

	case ast.KindUnary:
		return evalUnary(node, tgt)

	case ast.KindBinary:
		return evalBinary(node, tgt)
	}
	return value.Value{}, errors.New(errors.EvalError, "unreachable: unknown node kind")
}

func evalUnary(node *ast.Node, tgt target.MemoryTarget) (value.Value, error) {
	switch node.UnOp {
	case ast.OpCast:
		child, err := Evaluate(node.Child, tgt)
		if err != nil {
			return value.Value{}, err
		}
		return child.CastTo(node.CastType)

	case ast.OpDeref:
		child, err := Evaluate(node.Child, tgt)
		if err != nil {
			return value.Value{}, err
		}
		if !child.Type.IsPointer() {
			return value.Value{}, errors.New(errors.EvalError, "deref of non-pointer type %s", child.Type)
		}
		if tgt == nil {
			return value.Value{}, errors.New(errors.EvalError, "deref requires an attached memory target")
		}
		addr := target.Address(child.Address())
		width := node.CastType.Width()
		buf := make([]byte, width)
		if err := tgt.Read(addr, buf); err != nil {
			return value.Value{}, errors.MemoryRead(uint64(addr), node.CastType)
		}
		return value.Decode(node.CastType, buf), nil

	default:
		child, err := Evaluate(node.Child, tgt)
		if err != nil {
			return value.Value{}, err
		}
		promoted, err := promoteUnaryOperand(node.UnOp, child)
		if err != nil {
			return value.Value{}, err
		}
		switch node.UnOp {
		case ast.OpUSub:
			return value.Neg(promoted)
		case ast.OpUAdd:
			return promoted, nil
		case ast.OpLogicalNot:
			return value.Not(promoted)
		case ast.OpCompl:
			return value.Compl(promoted)
		}
	}
	return value.Value{}, errors.New(errors.EvalError, "unreachable: unknown unary op")
}

// promoteUnaryOperand applies narrow-type promotion before a native op
// lookup: signed or unsigned operands under 32 bits widen to S32 per C
// integer-promotion rules, F32 widens to F64.
func promoteUnaryOperand(op ast.UnaryOp, v value.Value) (value.Value, error) {
	t := v.Type.PromotedOperationType()
	if t == v.Type {
		return v, nil
	}
	return v.CastTo(t)
}

func evalBinary(node *ast.Node, tgt target.MemoryTarget) (value.Value, error) {
	if node.BinOp == ast.OpAndCond || node.BinOp == ast.OpOrCond {
		return evalShortCircuit(node, tgt)
	}

	left, err := Evaluate(node.Left, tgt)
	if err != nil {
		return value.Value{}, err
	}
	right, err := Evaluate(node.Right, tgt)
	if err != nil {
		return value.Value{}, err
	}

	uac := value.HigherType(left.Type.PromotedOperationType(), right.Type.PromotedOperationType())
	// Shifts use the type of the left operand, not the UAC of both: the
	// right operand is cast to that same type, but the node's own result
	// type already encodes this via the parser (node.Type), so here we
	// simply follow the "type of left" rule for which type the native op
	// runs at.
	opType := uac
	if node.BinOp == ast.OpShl || node.BinOp == ast.OpShr {
		opType = left.Type.PromotedOperationType()
	}

	lc, err := left.CastTo(opType)
	if err != nil {
		return value.Value{}, err
	}
	rc, err := right.CastTo(opType)
	if err != nil {
		return value.Value{}, err
	}

	switch node.BinOp {
	case ast.OpAdd:
		return value.Add(lc, rc)
	case ast.OpSub:
		return value.Sub(lc, rc)
	case ast.OpMul:
		return value.Mul(lc, rc)
	case ast.OpDiv:
		return value.Div(lc, rc)
	case ast.OpMod:
		return value.Mod(lc, rc)
	case ast.OpAnd:
		return value.BitAnd(lc, rc)
	case ast.OpXor:
		return value.BitXor(lc, rc)
	case ast.OpOr:
		return value.BitOr(lc, rc)
	case ast.OpShl:
		return value.Shl(lc, rc)
	case ast.OpShr:
		return value.Shr(lc, rc)
	case ast.OpEq:
		return value.Eq(lc, rc)
	case ast.OpNeq:
		return value.Neq(lc, rc)
	case ast.OpLt:
		return value.Lt(lc, rc)
	case ast.OpGt:
		return value.Gt(lc, rc)
	case ast.OpLe:
		return value.Le(lc, rc)
	case ast.OpGe:
		return value.Ge(lc, rc)
	}
	return value.Value{}, errors.New(errors.EvalError, "unreachable: unknown binary op")
}

// evalShortCircuit implements &&/||: evaluate the right operand only when
// the left's zero-ness does not already decide the result. A scan
// predicate like `value == 42 && (addr & 0x3) == 0` must not dereference
// past the end of a region once the left side already rejects the
// candidate, so short-circuiting is the correct behavior here even
// though it means a user expression can never observe a dereference in
// a right operand that short-circuiting skips.
func evalShortCircuit(node *ast.Node, tgt target.MemoryTarget) (value.Value, error) {
	left, err := Evaluate(node.Left, tgt)
	if err != nil {
		return value.Value{}, err
	}
	leftZero := left.IsZero()

	if node.BinOp == ast.OpAndCond && leftZero {
		return value.Bool32(false), nil
	}
	if node.BinOp == ast.OpOrCond && !leftZero {
		return value.Bool32(true), nil
	}

	right, err := Evaluate(node.Right, tgt)
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool32(!right.IsZero()), nil
}
