package gen

import (
	"go/ast"
	"go/token"

	"safecalc/pkg/checked"
)

// typeConstants converts untyped constant operands to the result type
// where Go would give them that type from context. Without it the type
// parameter of a checked call whose value operands are all constants, as
// in 1 << n, is inferred as int.
//
// Value positions are the root and the value operands of checked calls:
// both operands of Add..Rem, the base of Pow, Shl and Shr, and the operand
// of Neg. Counts, call arguments and comparison operands are left alone.
func typeConstants(root, result ast.Expr, qualifier string) {
	t := &constTyper{result: result, qualifier: qualifier, ops: make(map[string]checked.Op)}
	for _, op := range append([]checked.Op{checked.OpNeg}, checked.BinaryOps...) {
		t.ops[op.Func()] = op
	}
	t.value(root)
}

type constTyper struct {
	result    ast.Expr
	qualifier string
	ops       map[string]checked.Op
}

func (t *constTyper) value(e ast.Expr) {
	switch n := e.(type) {
	case *ast.ParenExpr:
		t.value(n.X)
	case *ast.CallExpr:
		op, ok := t.op(n)
		if !ok {
			return
		}
		values := n.Args[:1]
		switch op {
		case checked.OpAdd, checked.OpSub, checked.OpMul, checked.OpDiv, checked.OpRem:
			values = n.Args[:2]
		}
		for _, v := range values {
			t.value(v)
		}
		for _, v := range values {
			if !untyped(v) {
				return
			}
		}
		n.Args[0] = &ast.CallExpr{Fun: t.result, Args: []ast.Expr{n.Args[0]}}
	}
}

// op reports the checked operation n calls.
func (t *constTyper) op(n *ast.CallExpr) (checked.Op, bool) {
	var name string
	switch fun := n.Fun.(type) {
	case *ast.Ident:
		if t.qualifier != "" {
			return 0, false
		}
		name = fun.Name
	case *ast.SelectorExpr:
		x, ok := fun.X.(*ast.Ident)
		if !ok || x.Name != t.qualifier {
			return 0, false
		}
		name = fun.Sel.Name
	default:
		return 0, false
	}
	op, ok := t.ops[name]
	return op, ok
}

func untyped(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.BasicLit:
		return n.Kind == token.INT || n.Kind == token.FLOAT || n.Kind == token.CHAR
	case *ast.ParenExpr:
		return untyped(n.X)
	}
	return false
}
