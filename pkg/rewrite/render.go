package rewrite

import (
	"bytes"
	"go/ast"
	"go/printer"
	"go/scanner"
	"go/token"
	"strings"
)

// Render returns the canonical rendering of expr: its tokens separated by
// exactly one space, e.g. "f ( x + 1 , y )". Diagnostic offsets are
// measured in this text.
func Render(expr ast.Expr) string {
	return strings.Join(tokens(expr), " ")
}

func tokens(expr ast.Expr) []string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, token.NewFileSet(), expr); err != nil {
		// bytes.Buffer never fails a write, so the printer cannot either.
		panic(err)
	}
	src := buf.Bytes()

	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))
	var s scanner.Scanner
	s.Init(file, src, nil, 0)

	var out []string
	for {
		_, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		if lit == "" {
			lit = tok.String()
		}
		out = append(out, lit)
	}
	return out
}

// width returns len(Render(e)), composing the lengths of the children for
// the node kinds the rewriter walks through. Every node is measured once.
func (r *rewriter) width(e ast.Expr) int {
	if w, ok := r.widths[e]; ok {
		return w
	}
	var w int
	switch n := e.(type) {
	case *ast.Ident:
		w = len(n.Name)
	case *ast.BasicLit:
		// The scanner drops carriage returns from raw strings.
		if strings.ContainsRune(n.Value, '\r') {
			w = len(Render(n))
		} else {
			w = len(n.Value)
		}
	case *ast.BinaryExpr:
		w = r.width(n.X) + 1 + len(n.Op.String()) + 1 + r.width(n.Y)
	case *ast.UnaryExpr:
		w = len(n.Op.String()) + 1 + r.width(n.X)
	case *ast.ParenExpr:
		w = len("( ") + r.width(n.X) + len(" )")
	case *ast.StarExpr:
		w = len("* ") + r.width(n.X)
	case *ast.SelectorExpr:
		w = r.width(n.X) + len(" . ") + len(n.Sel.Name)
	case *ast.IndexExpr:
		w = r.width(n.X) + len(" [ ") + r.width(n.Index) + len(" ]")
	case *ast.CallExpr:
		w = r.width(n.Fun) + len(" (")
		for i, arg := range n.Args {
			if i > 0 {
				w += len(" ,")
			}
			w += 1 + r.width(arg)
		}
		if n.Ellipsis.IsValid() {
			w += len(" ...")
		}
		w += len(" )")
	default:
		w = len(Render(e))
	}
	r.widths[e] = w
	return w
}
