// Package ast defines the typed expression tree the parser produces and
// the evaluator/optimiser walk: a single tagged node type with a closed
// Kind enum rather than an interface-per-node-kind hierarchy — a closed
// sum type with exhaustive matching, trading open inheritance for a
// shape a reader can check by inspection. Every traversal (evaluate,
// optimize, Print) is one switch over Kind, which makes the
// constant-folding invariant (a folded subtree must never still contain
// a DEREF) trivially checkable rather than hidden behind virtual
// dispatch.
package ast

import (
	"fmt"

	"memfuzz/internal/symtab"
	"memfuzz/internal/value"
)

type Kind uint8

const (
	KindLiteral Kind = iota
	KindVar
	KindUnary
	KindBinary
)

type UnaryOp uint8

const (
	OpCast UnaryOp = iota
	OpDeref
	OpUSub
	OpUAdd
	OpLogicalNot
	OpCompl
)

var unarySymbol = map[UnaryOp]string{
	OpUSub:       "u-",
	OpUAdd:       "u+",
	OpLogicalNot: "!",
	OpCompl:      "~",
}

type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpXor
	OpOr
	OpShl
	OpShr
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLe
	OpGe
	OpAndCond
	OpOrCond
)

var binarySymbol = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpAnd: "&", OpXor: "^", OpOr: "|", OpShl: "<<", OpShr: ">>",
	OpEq: "==", OpNeq: "!=", OpLt: "<", OpGt: ">", OpLe: "<=", OpGe: ">=",
	OpAndCond: "&&", OpOrCond: "||",
}

// Node is the single AST node type. Every node carries (Kind, Type); the
// remaining fields are populated according to Kind, and their meaning
// for unused Kinds is simply zero.
type Node struct {
	Kind Kind
	Type value.Type

	// KindLiteral
	Lit value.Value

	// KindVar
	Sym *symtab.Symbol

	// KindUnary
	UnOp     UnaryOp
	CastType value.Type // target type for OpCast/OpDeref
	Child    *Node

	// KindBinary
	BinOp BinaryOp
	Left  *Node
	Right *Node
}

func Literal(v value.Value) *Node {
	return &Node{Kind: KindLiteral, Type: v.Type, Lit: v}
}

func Var(sym *symtab.Symbol) *Node {
	return &Node{Kind: KindVar, Type: sym.Type, Sym: sym}
}

func Unary(op UnaryOp, child *Node, resultType value.Type) *Node {
	return &Node{Kind: KindUnary, Type: resultType, UnOp: op, Child: child}
}

// Cast builds a CAST<T> node; Deref builds a DEREF<T> node. Both carry
// their target type in CastType in addition to Type, since Type is the
// node's *result* type and for DEREF that's the concrete pointee type.
func Cast(child *Node, target value.Type) *Node {
	return &Node{Kind: KindUnary, Type: target, UnOp: OpCast, CastType: target, Child: child}
}

func Deref(child *Node, pointee value.Type) *Node {
	return &Node{Kind: KindUnary, Type: pointee, UnOp: OpDeref, CastType: pointee, Child: child}
}

func Binary(op BinaryOp, left, right *Node, resultType value.Type) *Node {
	return &Node{Kind: KindBinary, Type: resultType, BinOp: op, Left: left, Right: right}
}

// IsConstant reports whether the subtree rooted at n contains no Var and
// no DEREF — the optimiser's fold predicate.
func (n *Node) IsConstant() bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case KindLiteral:
		return true
	case KindVar:
		return false
	case KindUnary:
		if n.UnOp == OpDeref {
			return false
		}
		return n.Child.IsConstant()
	case KindBinary:
		return n.Left.IsConstant() && n.Right.IsConstant()
	}
	return false
}

// Print renders the node in a stable reverse-Polish diagnostic form used
// by `explain` and by tests: "<left> <right> <op>" for binaries,
// "<child> <op>" for unaries (negation prints as "u-"), "<child>
// (<type>)" for casts, and "(<type>)<printed_number>" for values — the
// last form is exactly value.Value.String().
func (n *Node) Print() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindLiteral:
		return n.Lit.String()
	case KindVar:
		return n.Sym.Name
	case KindUnary:
		switch n.UnOp {
		case OpCast:
			return fmt.Sprintf("%s (%s)", n.Child.Print(), n.CastType)
		case OpDeref:
			return fmt.Sprintf("%s (deref %s)", n.Child.Print(), n.CastType)
		default:
			return fmt.Sprintf("%s %s", n.Child.Print(), unarySymbol[n.UnOp])
		}
	case KindBinary:
		return fmt.Sprintf("%s %s %s", n.Left.Print(), n.Right.Print(), binarySymbol[n.BinOp])
	}
	return ""
}
