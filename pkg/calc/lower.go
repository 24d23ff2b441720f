package calc

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
)

// Names of the unchecked helpers the lowered code calls.
const (
	plainFunc      = "Plain"
	plainUnaryFunc = "PlainUnary"
)

// plainTokens lists the Go operators whose expr-lang spelling means
// something else, or does not exist. Left in a rewritten tree they are
// evaluated by checked.Plain.
var plainTokens = map[token.Token]bool{
	token.ADD:     true,
	token.SUB:     true,
	token.MUL:     true,
	token.QUO:     true,
	token.REM:     true,
	token.AND:     true,
	token.OR:      true,
	token.XOR:     true,
	token.AND_NOT: true,
	token.SHL:     true,
	token.SHR:     true,
}

var plainTokenByName = func() map[string]token.Token {
	m := make(map[string]token.Token, len(plainTokens))
	for tok := range plainTokens {
		m[tok.String()] = tok
	}
	return m
}()

// lower translates a rewritten tree into the Go subset expr-lang reads the
// same way Go does. Operators still present after rewriting keep their Go
// meaning through calls to the Plain helpers. The input tree is not
// modified.
func lower(e ast.Expr, qualifier string) (ast.Expr, error) {
	l := &lowerer{qualifier: qualifier}
	out := l.expr(e)
	if l.err != nil {
		return nil, l.err
	}
	return out, nil
}

type lowerer struct {
	qualifier string
	err       error
}

func (l *lowerer) fail(format string, args ...any) {
	if l.err == nil {
		l.err = fmt.Errorf("calc: "+format, args...)
	}
}

func (l *lowerer) expr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.BinaryExpr:
		x, y := l.expr(n.X), l.expr(n.Y)
		if plainTokens[n.Op] {
			return l.call(plainFunc, opLit(n.Op), x, y)
		}
		return &ast.BinaryExpr{X: x, Op: n.Op, Y: y}

	case *ast.UnaryExpr:
		x := l.expr(n.X)
		switch n.Op {
		case token.ADD, token.SUB, token.XOR:
			return l.call(plainUnaryFunc, opLit(n.Op), x)
		case token.NOT:
			return &ast.UnaryExpr{Op: n.Op, X: x}
		}
		l.fail("unary %s is not supported", n.Op)
		return e

	case *ast.ParenExpr:
		return &ast.ParenExpr{X: l.expr(n.X)}

	case *ast.CallExpr:
		if n.Ellipsis.IsValid() {
			l.fail("variadic call arguments are not supported")
			return e
		}
		args := make([]ast.Expr, len(n.Args))
		for i, arg := range n.Args {
			args[i] = l.expr(arg)
		}
		return &ast.CallExpr{Fun: l.expr(n.Fun), Args: args}

	case *ast.SelectorExpr:
		return &ast.SelectorExpr{X: l.expr(n.X), Sel: n.Sel}

	case *ast.IndexExpr:
		return &ast.IndexExpr{X: l.expr(n.X), Index: l.expr(n.Index)}

	case *ast.StarExpr:
		l.fail("pointer indirection is not supported")
		return e

	case *ast.BasicLit:
		switch n.Kind {
		case token.CHAR:
			l.fail("rune literal %s is not supported", n.Value)
		case token.IMAG:
			l.fail("imaginary literal %s is not supported", n.Value)
		}
		return n
	}
	return e
}

func (l *lowerer) call(name string, args ...ast.Expr) ast.Expr {
	var fun ast.Expr = ast.NewIdent(name)
	if l.qualifier != "" {
		fun = &ast.SelectorExpr{X: ast.NewIdent(l.qualifier), Sel: ast.NewIdent(name)}
	}
	return &ast.CallExpr{Fun: fun, Args: args}
}

func opLit(tok token.Token) *ast.BasicLit {
	return &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(tok.String())}
}
