package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"safecalc/internal/server"
	"safecalc/pkg/calc"
	"safecalc/pkg/checked"
)

// HandleEval evaluates one expression.
// Usage: safecalc eval [--json] [--var name:kind=value]... <expr>
func HandleEval(args []string) {
	if err := runEval(args, loadConfig().Calc(), os.Stdout); err != nil {
		os.Exit(1)
	}
}

func runEval(args []string, cfg calc.Config, out io.Writer) error {
	isJSON := false
	var specs, parts []string

	for i := 0; i < len(args); i++ {
		v, next, ok, err := flagValue(args, i, "--var")
		if err != nil {
			fmt.Fprintf(out, "❌ %v\n", err)
			return err
		}
		switch {
		case ok:
			specs = append(specs, v)
			i = next
		case args[i] == "--json":
			isJSON = true
		default:
			parts = append(parts, args[i])
		}
	}

	// Unquoted expressions arrive split into several arguments.
	src := strings.Join(parts, " ")
	if strings.TrimSpace(src) == "" {
		fmt.Fprintln(out, "Usage: safecalc eval [--json] [--var name:kind=value]... <expr>")
		return errUsage
	}

	v, err := evaluate(cfg, src, specs)
	if isJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(server.NewEvalResponse(v, err)); encErr != nil {
			return encErr
		}
		return err
	}

	var ce *checked.Error
	switch {
	case err == nil:
		fmt.Fprintf(out, "✅ %s (%s)\n", calc.Format(v), calc.KindOf(v))
	case errors.As(err, &ce):
		fmt.Fprintf(out, "❌ %s\n", ce.Error())
	default:
		fmt.Fprintf(out, "❌ Error: %v\n", err)
	}
	return err
}

func evaluate(cfg calc.Config, src string, specs []string) (any, error) {
	vars, err := calc.ParseVars(specs)
	if err != nil {
		return nil, err
	}
	return calc.NewEngine(cfg).Eval(context.Background(), src, vars)
}
