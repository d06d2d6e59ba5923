// Package optimize implements the constant-folding AST->AST rewrite: a
// post-order walk that replaces any node whose subtree contains neither
// Var nor DEREF with a single Leaf::Value computed by evaluating it
// once, ahead of the per-address scan loop.
package optimize

import (
	"memfuzz/internal/ast"
	"memfuzz/internal/eval"
)

// Optimize returns a rewritten tree. If folding a constant subtree would
// itself fail (e.g. a constant divide-by-zero), the original subtree is
// preserved rather than embedding the error into the tree — a later
// evaluation of the unmodified subtree raises the same error at the same
// point a fully-evaluated run would, so folding never changes outcomes.
func Optimize(node *ast.Node) *ast.Node {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case ast.KindLiteral, ast.KindVar:
		return node

	case ast.KindUnary:
		child := Optimize(node.Child)
		rebuilt := *node
		rebuilt.Child = child
		return foldIfConstant(&rebuilt)

	case ast.KindBinary:
		left := Optimize(node.Left)
		right := Optimize(node.Right)
		rebuilt := *node
		rebuilt.Left = left
		rebuilt.Right = right
		return foldIfConstant(&rebuilt)
	}
	return node
}

func foldIfConstant(n *ast.Node) *ast.Node {
	if !n.IsConstant() {
		return n
	}
	v, err := eval.Evaluate(n, nil)
	if err != nil {
		return n
	}
	return ast.Literal(v)
}
