// Package calc evaluates Go arithmetic expressions with checked operators.
//
// An expression is parsed and rewritten by package rewrite, lowered to an
// expr-lang program and run against a map of variables. Go operators the
// rewriter leaves in place (the bitwise family, ^ under KeepXor and
// arithmetic inside call arguments) keep their Go meaning: they are
// evaluated by checked.Plain, not by expr-lang's own operators. Arithmetic failures
// come back as *checked.Error; any other problem is a plain error.
package calc

import (
	"context"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"safecalc/pkg/checked"
	"safecalc/pkg/rewrite"
)

// ErrUndefined is wrapped by errors about variables missing from the
// environment.
var ErrUndefined = errors.New("undefined variable")

type Config struct {
	Rewrite rewrite.Config
	// CacheSize bounds the number of compiled programs kept by an Engine.
	// The cache is emptied when it is full.
	CacheSize int
}

func DefaultConfig() Config {
	return Config{Rewrite: rewrite.DefaultConfig(), CacheSize: 1024}
}

// Program is a compiled expression. It is immutable and safe for
// concurrent use.
type Program struct {
	// Source is the expression as given.
	Source string
	// Rewritten holds the canonical text and the operator sites.
	Rewritten *rewrite.Result
	// Code is the expr-lang source that is run.
	Code string

	names   []string
	cfg     rewrite.Config
	program *vm.Program
}

// Compile parses, rewrites and compiles src.
func Compile(src string, cfg rewrite.Config) (*Program, error) {
	if cfg.ExprName == "" {
		cfg.ExprName = rewrite.DefaultExprName
	}
	tree, err := rewrite.Parse(src)
	if err != nil {
		return nil, err
	}
	names := freeNames(tree)
	res := rewrite.Rewrite(tree, cfg)
	lowered, err := lower(res.Expr, cfg.Qualifier)
	if err != nil {
		return nil, err
	}

	var body strings.Builder
	if err := format.Node(&body, token.NewFileSet(), lowered); err != nil {
		return nil, fmt.Errorf("calc: print %q: %w", src, err)
	}
	code := fmt.Sprintf("let %s = %s; %s", cfg.ExprName, strconv.Quote(res.Source), body.String())
	program, err := expr.Compile(code)
	if err != nil {
		return nil, fmt.Errorf("calc: compile %q: %w", src, err)
	}

	return &Program{
		Source:    src,
		Rewritten: res,
		Code:      code,
		names:     names,
		cfg:       cfg,
		program:   program,
	}, nil
}

// Run evaluates the program with vars bound as variables. The first failing
// operator aborts the evaluation with a *checked.Error.
func (p *Program) Run(ctx context.Context, vars map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := &runState{}
	env, err := p.env(vars, st)
	if err != nil {
		return nil, err
	}

	out, err := expr.Run(p.program, env)
	if st.err != nil {
		return nil, st.err
	}
	if err != nil {
		return nil, fmt.Errorf("calc: run %q: %w", p.Source, err)
	}
	return out, nil
}

func (p *Program) env(vars map[string]any, st *runState) (map[string]any, error) {
	env := make(map[string]any, len(vars)+len(builtins)+2)
	for k, v := range builtins {
		env[k] = v
	}
	ns := st.namespace()
	if p.cfg.Qualifier == "" {
		for k, v := range ns {
			env[k] = v
		}
	} else {
		env[p.cfg.Qualifier] = ns
	}

	for k, v := range vars {
		if _, taken := env[k]; taken || k == p.cfg.ExprName {
			return nil, fmt.Errorf("calc: variable %q shadows a builtin", k)
		}
		env[k] = v
	}
	for _, name := range p.names {
		if _, ok := env[name]; !ok {
			return nil, fmt.Errorf("calc: %w: %s", ErrUndefined, name)
		}
	}
	return env, nil
}

// Engine compiles expressions once and keeps the programs by source text.
type Engine struct {
	cfg Config

	mu    sync.RWMutex
	cache map[string]*Program
}

func NewEngine(cfg Config) *Engine {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	return &Engine{cfg: cfg, cache: make(map[string]*Program)}
}

// Compile returns the cached program for src, compiling it on first use.
func (e *Engine) Compile(src string) (*Program, error) {
	e.mu.RLock()
	p, ok := e.cache[src]
	e.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := Compile(src, e.cfg.Rewrite)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if len(e.cache) >= e.cfg.CacheSize {
		clear(e.cache)
	}
	e.cache[src] = p
	e.mu.Unlock()
	return p, nil
}

// Eval compiles (or reuses) src and runs it with vars.
func (e *Engine) Eval(ctx context.Context, src string, vars map[string]any) (any, error) {
	p, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, vars)
}

// Cached reports the number of programs in the cache.
func (e *Engine) Cached() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// runState records the first error raised by a checked function during one
// run. expr-lang reports it wrapped in its own error type.
type runState struct {
	err error
}

func (s *runState) abort(err error) error {
	if s.err == nil {
		s.err = err
	}
	return err
}

// namespace returns the checked functions the rewritten code calls.
func (s *runState) namespace() map[string]any {
	ns := map[string]any{
		"At": checked.At,
		checked.OpNeg.Func(): func(a any, site checked.Error) (any, error) {
			v, ok, err := checked.Negate(a)
			if err != nil {
				return nil, s.abort(err)
			}
			if !ok {
				return nil, s.abort(&site)
			}
			return v, nil
		},
	}
	ns[plainFunc] = func(op string, a, b any) (any, error) {
		v, err := checked.Plain(plainTokenByName[op], a, b)
		if err != nil {
			return nil, s.abort(err)
		}
		return v, nil
	}
	ns[plainUnaryFunc] = func(op string, a any) (any, error) {
		v, err := checked.PlainUnary(plainTokenByName[op], a)
		if err != nil {
			return nil, s.abort(err)
		}
		return v, nil
	}
	for _, op := range checked.BinaryOps {
		op := op
		ns[op.Func()] = func(a, b any, site checked.Error) (any, error) {
			v, ok, err := checked.Apply(op, a, b)
			if err != nil {
				return nil, s.abort(err)
			}
			if !ok {
				return nil, s.abort(&site)
			}
			return v, nil
		}
	}
	return ns
}
