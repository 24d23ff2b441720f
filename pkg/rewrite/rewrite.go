// Package rewrite turns a Go arithmetic expression into one whose operators
// call the checked primitives of package checked.
//
// The rewritten operators are + - * / % ^ << >> and unary -. The ^ token
// means exponentiation, not bitwise xor, unless Config.KeepXor is set.
// Every other node is passed through untouched; its operands are still
// visited when it is a unary or binary expression. Argument lists of calls
// are opaque: only the callee (or the receiver of a method call) is
// visited.
//
// Operator offsets are byte offsets into the canonical rendering (see
// Render), one past the operator token. A negation at the very start of
// the expression reports offset 0; a nested negation reports its own
// offset.
package rewrite

import (
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"safecalc/pkg/checked"
)

const (
	DefaultQualifier = "checked"
	DefaultExprName  = "checkedExpr"
)

// Config controls the shape of the generated calls.
type Config struct {
	// Qualifier is the package name the checked functions are referenced
	// through. Empty means the generated code lives in package checked.
	Qualifier string
	// ExprName is the identifier the canonical source is bound to.
	ExprName string
	// KeepXor leaves ^ as bitwise xor.
	KeepXor bool
}

// DefaultConfig references the runtime as an imported package.
func DefaultConfig() Config {
	return Config{Qualifier: DefaultQualifier, ExprName: DefaultExprName}
}

// Site is the failure metadata of one rewritten operator.
type Site struct {
	Op    checked.Op `json:"op"`
	OpIx  int        `json:"op_ix"`
	OpLen int        `json:"op_len"`
}

// Result is a rewritten expression.
type Result struct {
	// Expr is the rewritten tree.
	Expr ast.Expr
	// Source is the canonical rendering of the original expression.
	Source string
	// Sites lists the rewritten operators in evaluation order.
	Sites []Site
}

// Failure returns the error the rewritten expression raises when s fails.
func (r *Result) Failure(s Site) *checked.Error {
	return &checked.Error{Expr: r.Source, OpIx: s.OpIx, OpLen: s.OpLen}
}

// Code prints the rewritten expression as Go source.
func (r *Result) Code() string {
	var sb strings.Builder
	if err := format.Node(&sb, token.NewFileSet(), r.Expr); err != nil {
		panic(err)
	}
	return sb.String()
}

// SyntaxError reports source text that does not parse as an expression.
// The whole transformation is abandoned.
type SyntaxError struct {
	Source string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("rewrite: cannot parse %q: %v", e.Source, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Parse parses src as a Go expression.
func Parse(src string) (ast.Expr, error) {
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, &SyntaxError{Source: src, Err: err}
	}
	return expr, nil
}

// ParseAndRewrite parses src as a Go expression and rewrites it.
func ParseAndRewrite(src string, cfg Config) (*Result, error) {
	expr, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Rewrite(expr, cfg), nil
}

// Rewrite replaces the checked operators of expr. The tree is modified in
// place; the returned Result holds the new root.
func Rewrite(expr ast.Expr, cfg Config) *Result {
	if cfg.ExprName == "" {
		cfg.ExprName = DefaultExprName
	}
	rw := &rewriter{cfg: cfg, widths: make(map[ast.Expr]int)}
	res := &Result{Source: Render(expr)}
	rw.width(expr)
	res.Expr = rw.expr(expr, 0)
	res.Sites = rw.sites
	return res
}

type rewriter struct {
	cfg   Config
	sites []Site
	// widths holds the canonical length of every node of the original
	// tree. It is filled before the tree is modified.
	widths map[ast.Expr]int
}

// expr rewrites e, whose canonical rendering starts at offset base of the
// top-level canonical text.
func (r *rewriter) expr(e ast.Expr, base int) ast.Expr {
	switch n := e.(type) {
	case *ast.BinaryExpr:
		tok := n.Op.String()
		opEnd := base + r.width(n.X) + 1 + len(tok)

		n.X = r.expr(n.X, base)
		n.Y = r.expr(n.Y, opEnd+1)

		op, ok := r.binaryOp(n.Op)
		if !ok {
			return n
		}
		return r.call(op, opEnd, len(tok), n.X, n.Y)

	case *ast.UnaryExpr:
		tok := n.Op.String()
		n.X = r.expr(n.X, base+len(tok)+1)
		if n.Op != token.SUB {
			return n
		}
		// A leading operator is reported at zero; the formatter's
		// saturating split still lands on it.
		opEnd := base + len(tok)
		if base == 0 {
			opEnd = 0
		}
		return r.call(checked.OpNeg, opEnd, len(tok), n.X)

	case *ast.ParenExpr:
		n.X = r.expr(n.X, base+len("( "))
		return n

	case *ast.CallExpr:
		if sel, ok := n.Fun.(*ast.SelectorExpr); ok {
			sel.X = r.expr(sel.X, base)
			return n
		}
		n.Fun = r.expr(n.Fun, base)
		return n
	}
	return e
}

func (r *rewriter) binaryOp(tok token.Token) (checked.Op, bool) {
	switch tok {
	case token.ADD:
		return checked.OpAdd, true
	case token.SUB:
		return checked.OpSub, true
	case token.MUL:
		return checked.OpMul, true
	case token.QUO:
		return checked.OpDiv, true
	case token.REM:
		return checked.OpRem, true
	case token.XOR:
		return checked.OpPow, !r.cfg.KeepXor
	case token.SHL:
		return checked.OpShl, true
	case token.SHR:
		return checked.OpShr, true
	}
	return 0, false
}

// call builds <q>.<Op>At(args..., <q>.At(<ExprName>, opIx, opLen)).
func (r *rewriter) call(op checked.Op, opIx, opLen int, args ...ast.Expr) ast.Expr {
	r.sites = append(r.sites, Site{Op: op, OpIx: opIx, OpLen: opLen})
	site := &ast.CallExpr{
		Fun:  r.ref("At"),
		Args: []ast.Expr{ast.NewIdent(r.cfg.ExprName), intLit(opIx), intLit(opLen)},
	}
	return &ast.CallExpr{Fun: r.ref(op.Func()), Args: append(args, site)}
}

func (r *rewriter) ref(name string) ast.Expr {
	if r.cfg.Qualifier == "" {
		return ast.NewIdent(name)
	}
	return &ast.SelectorExpr{X: ast.NewIdent(r.cfg.Qualifier), Sel: ast.NewIdent(name)}
}

func intLit(v int) *ast.BasicLit {
	return &ast.BasicLit{Kind: token.INT, Value: strconv.Itoa(v)}
}
