package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"safecalc/internal/config"
)

// Version is set at build time with -ldflags "-X safecalc/internal/cli.Version=...".
var Version = "dev"

var errUsage = errors.New("usage")

const usage = `Usage: safecalc <command> [arguments]

Commands:
  eval [--json] [--var name:kind=value]... <expr>   evaluate with checked arithmetic
  rewrite [--json] [--qualifier q] [--keep-xor] <expr>
                                                     print the rewritten expression
  gen [file.go]...                                   generate checked functions
  serve                                              start the HTTP service
  version                                            print the version
`

// PrintUsage writes the command summary.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usage)
}

// loadConfig reads .env and the environment or exits.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// flagValue returns the value of a --name value or --name=value flag at
// args[i] and the index of the last consumed argument.
func flagValue(args []string, i int, name string) (string, int, bool, error) {
	arg := args[i]
	if v, ok := strings.CutPrefix(arg, name+"="); ok {
		return v, i, true, nil
	}
	if arg != name {
		return "", i, false, nil
	}
	if i+1 >= len(args) {
		return "", i, true, fmt.Errorf("%s needs a value", name)
	}
	return args[i+1], i + 1, true, nil
}
