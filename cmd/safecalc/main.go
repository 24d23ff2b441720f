package main

import (
	"fmt"
	"os"

	"safecalc/internal/cli"
)

func main() {
	if len(os.Args) < 2 {
		cli.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "eval":
		cli.HandleEval(os.Args[2:])
	case "rewrite":
		cli.HandleRewrite(os.Args[2:])
	case "gen":
		cli.HandleGen(os.Args[2:])
	case "serve":
		cli.HandleServe(os.Args[2:])
	case "version", "--version":
		cli.HandleVersion()
	case "help", "-h", "--help":
		cli.PrintUsage(os.Stdout)
	default:
		fmt.Printf("❌ Unknown command %q\n\n", cmd)
		cli.PrintUsage(os.Stderr)
		os.Exit(1)
	}
}
