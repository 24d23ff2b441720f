package cli

import (
	"fmt"
	"io"
	"os"

	"safecalc/pkg/gen"
)

// HandleGen generates <file>_checked.go for every file holding
// //safecalc:checked directives. Without arguments it uses $GOFILE, so a
// "//go:generate safecalc gen" line is enough.
func HandleGen(args []string) {
	if err := runGen(args, os.Stdout); err != nil {
		os.Exit(1)
	}
}

func runGen(args []string, out io.Writer) error {
	files := args
	if len(files) == 0 {
		if f := os.Getenv("GOFILE"); f != "" {
			files = []string{f}
		}
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "Usage: safecalc gen <file.go>...")
		return errUsage
	}

	failed := 0
	for _, path := range files {
		dst, err := gen.GenerateFile(path)
		switch {
		case err != nil:
			fmt.Fprintf(out, "❌ %v\n", err)
			failed++
		case dst == "":
			fmt.Fprintf(out, "⚠️  %s: no directives\n", path)
		default:
			fmt.Fprintf(out, "✅ %s\n", dst)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}
