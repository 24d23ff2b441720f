package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"safecalc/internal/server"
	"safecalc/pkg/rewrite"
)

// HandleRewrite prints the canonical text, the rewritten expression and the
// operator sites.
// Usage: safecalc rewrite [--json] [--qualifier q] [--keep-xor] <expr>
func HandleRewrite(args []string) {
	if err := runRewrite(args, loadConfig().Calc().Rewrite, os.Stdout); err != nil {
		os.Exit(1)
	}
}

func runRewrite(args []string, cfg rewrite.Config, out io.Writer) error {
	isJSON := false
	var parts []string

	for i := 0; i < len(args); i++ {
		v, next, ok, err := flagValue(args, i, "--qualifier")
		if err != nil {
			fmt.Fprintf(out, "❌ %v\n", err)
			return err
		}
		switch {
		case ok:
			cfg.Qualifier = v
			i = next
		case args[i] == "--keep-xor":
			cfg.KeepXor = true
		case args[i] == "--json":
			isJSON = true
		default:
			parts = append(parts, args[i])
		}
	}

	src := strings.Join(parts, " ")
	if strings.TrimSpace(src) == "" {
		fmt.Fprintln(out, "Usage: safecalc rewrite [--json] [--qualifier q] [--keep-xor] <expr>")
		return errUsage
	}

	res, err := rewrite.ParseAndRewrite(src, cfg)
	if err != nil {
		fmt.Fprintf(out, "❌ Syntax Error: %v\n", err)
		return err
	}

	if isJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(server.NewRewriteResponse(res))
	}

	fmt.Fprintf(out, "canonical: %s\n", res.Source)
	fmt.Fprintf(out, "rewritten: %s\n", res.Code())
	if len(res.Sites) == 0 {
		fmt.Fprintln(out, "sites:     none")
		return nil
	}
	fmt.Fprintln(out, "sites:")
	for _, s := range res.Sites {
		prefix, op, suffix := res.Failure(s).Split()
		fmt.Fprintf(out, "  %-3s %s 》%s《 %s\n", s.Op, prefix, op, suffix)
	}
	return nil
}
