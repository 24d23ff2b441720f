// Package gen emits checked Go functions from directives of the form
//
//	//safecalc:checked name(params) result = expression
//
// Each directive becomes
//
//	func name(params) (_ result, err error)
//
// whose body evaluates the rewritten expression and returns the first
// arithmetic failure as a *checked.Error.
package gen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"safecalc/pkg/rewrite"
)

const (
	// Directive starts a generator comment.
	Directive = "//safecalc:checked"
	// Header marks generated files.
	Header = "// Code generated by safecalc gen; DO NOT EDIT."
	// Suffix is appended to the base name of the input file.
	Suffix = "_checked.go"
)

// DirectiveError reports a malformed directive.
type DirectiveError struct {
	Pos  token.Position
	Text string
	Err  error
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Pos, Directive, e.Err)
}

func (e *DirectiveError) Unwrap() error { return e.Err }

// Func is one parsed directive.
type Func struct {
	Pos    token.Position
	Name   string
	Params string
	Result string
	Expr   string
}

// Generate returns the generated file for src, or nil when src holds no
// directives.
func Generate(src []byte, filename string, target Target) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("gen: %w", err)
	}

	funcs, err := Directives(fset, file)
	if err != nil {
		return nil, err
	}
	if len(funcs) == 0 {
		return nil, nil
	}

	cfg := rewrite.Config{Qualifier: target.Qualifier, ExprName: rewrite.DefaultExprName}
	ref := func(name string) string {
		if cfg.Qualifier == "" {
			return name
		}
		return cfg.Qualifier + "." + name
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\npackage %s\n", Header, file.Name.Name)
	if target.ImportPath != "" {
		fmt.Fprintf(&buf, "\nimport %q\n", target.ImportPath)
	}

	for _, fn := range funcs {
		res, err := rewrite.ParseAndRewrite(fn.Expr, cfg)
		if err != nil {
			return nil, &DirectiveError{Pos: fn.Pos, Text: fn.Expr, Err: err}
		}
		if result, err := parser.ParseExpr(fn.Result); err == nil {
			typeConstants(res.Expr, result, cfg.Qualifier)
		}

		fmt.Fprintf(&buf, "\n// %s evaluates %s with checked arithmetic.\n", fn.Name, fn.Expr)
		fmt.Fprintf(&buf, "func %s%s (_ %s, err error) {\n", fn.Name, fn.Params, fn.Result)
		fmt.Fprintf(&buf, "\tdefer %s(&err)\n", ref("Catch"))
		fmt.Fprintf(&buf, "\tconst %s = %s\n", cfg.ExprName, strconv.Quote(res.Source))
		fmt.Fprintf(&buf, "\treturn %s, nil\n}\n", res.Code())
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: format %s: %w", filename, err)
	}
	return out, nil
}

// Directives collects the directives of file in source order.
func Directives(fset *token.FileSet, file *ast.File) ([]Func, error) {
	var funcs []Func
	seen := make(map[string]token.Position)
	for _, group := range file.Comments {
		for _, c := range group.List {
			rest, ok := strings.CutPrefix(c.Text, Directive)
			if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
				continue
			}
			pos := fset.Position(c.Pos())
			fn, err := parseDirective(strings.TrimSpace(rest))
			if err != nil {
				return nil, &DirectiveError{Pos: pos, Text: c.Text, Err: err}
			}
			if prev, dup := seen[fn.Name]; dup {
				return nil, &DirectiveError{Pos: pos, Text: c.Text, Err: fmt.Errorf("%s already declared at %s", fn.Name, prev)}
			}
			seen[fn.Name] = pos
			fn.Pos = pos
			funcs = append(funcs, fn)
		}
	}
	return funcs, nil
}

func parseDirective(text string) (Func, error) {
	sig, expr, ok := strings.Cut(text, "=")
	if !ok {
		return Func{}, fmt.Errorf("want name(params) result = expression")
	}
	sig, expr = strings.TrimSpace(sig), strings.TrimSpace(expr)
	if expr == "" {
		return Func{}, fmt.Errorf("empty expression")
	}

	open := strings.IndexByte(sig, '(')
	if open <= 0 {
		return Func{}, fmt.Errorf("missing function name in %q", sig)
	}
	name := strings.TrimSpace(sig[:open])
	if !token.IsIdentifier(name) {
		return Func{}, fmt.Errorf("%q is not an identifier", name)
	}

	// Parse the rest as a function type to validate it and find the
	// parameter and result spans.
	typ := "func" + sig[open:]
	fset := token.NewFileSet()
	node, err := parser.ParseExprFrom(fset, "", typ, 0)
	if err != nil {
		return Func{}, fmt.Errorf("signature %q: %w", sig, err)
	}
	ft, ok := node.(*ast.FuncType)
	if !ok {
		return Func{}, fmt.Errorf("signature %q is not a function signature", sig)
	}
	if ft.Results == nil || len(ft.Results.List) != 1 || len(ft.Results.List[0].Names) != 0 {
		return Func{}, fmt.Errorf("signature %q must declare exactly one unnamed result", sig)
	}
	for _, field := range ft.Params.List {
		for _, n := range field.Names {
			if n.Name == rewrite.DefaultExprName || n.Name == "err" {
				return Func{}, fmt.Errorf("parameter name %q is reserved", n.Name)
			}
		}
	}

	offset := func(p token.Pos) int { return fset.Position(p).Offset }
	return Func{
		Name:   name,
		Params: typ[offset(ft.Params.Opening) : offset(ft.Params.Closing)+1],
		Result: typ[offset(ft.Results.Pos()):offset(ft.Results.End())],
		Expr:   expr,
	}, nil
}

// OutputPath returns the generated file name for path.
func OutputPath(path string) string {
	return strings.TrimSuffix(path, ".go") + Suffix
}

// GenerateFile generates the checked functions for the Go file at path and
// writes them next to it. It returns the written path, or "" when the file
// holds no directives.
func GenerateFile(path string) (string, error) {
	if strings.HasSuffix(path, Suffix) {
		return "", nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("gen: %w", err)
	}
	target, err := ResolveTarget(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	out, err := Generate(src, path, target)
	if err != nil || out == nil {
		return "", err
	}

	dst := OutputPath(path)
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return "", fmt.Errorf("gen: %w", err)
	}
	return dst, nil
}
