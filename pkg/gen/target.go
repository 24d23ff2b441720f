package gen

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"

	"safecalc/pkg/rewrite"
)

// RuntimePackage is the import path of the checked runtime.
const RuntimePackage = "safecalc/pkg/checked"

// Target says how generated code reaches the runtime.
type Target struct {
	// Qualifier prefixes runtime identifiers; empty inside the runtime.
	Qualifier string
	// ImportPath is imported by the generated file when not empty.
	ImportPath string
}

// External is the target of any package other than the runtime.
var External = Target{Qualifier: rewrite.DefaultQualifier, ImportPath: RuntimePackage}

// ResolveTarget derives the target for generated files in dir from the
// enclosing module's go.mod.
func ResolveTarget(dir string) (Target, error) {
	pkg, err := ImportPath(dir)
	if err != nil {
		return Target{}, err
	}
	if pkg == RuntimePackage {
		return Target{}, nil
	}
	return External, nil
}

// ImportPath returns the import path of the package in dir.
func ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("gen: %w", err)
	}

	root := abs
	for {
		data, err := os.ReadFile(filepath.Join(root, "go.mod"))
		if err == nil {
			f, err := modfile.ParseLax(filepath.Join(root, "go.mod"), data, nil)
			if err != nil {
				return "", fmt.Errorf("gen: %w", err)
			}
			if f.Module == nil {
				return "", fmt.Errorf("gen: %s has no module directive", filepath.Join(root, "go.mod"))
			}
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				return "", fmt.Errorf("gen: %w", err)
			}
			return path.Join(f.Module.Mod.Path, filepath.ToSlash(rel)), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("gen: %w", err)
		}

		parent := filepath.Dir(root)
		if parent == root {
			return "", fmt.Errorf("gen: no go.mod above %s", abs)
		}
		root = parent
	}
}
