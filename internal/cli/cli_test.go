package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safecalc/pkg/calc"
	"safecalc/pkg/checked"
	"safecalc/pkg/rewrite"
)

func TestRunEval(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
		wantErr  bool
	}{
		{"Quoted", []string{"uint64(1) + 2 + 3"}, "✅ 6 (uint64)\n", false},
		{"Split Arguments", []string{"2", "^", "10"}, "✅ 1024 (int)\n", false},
		{"Variables", []string{"--var", "x:uint8=200", "--var=y:uint8=55", "x + y"}, "✅ 255 (uint8)\n", false},
		{"Failure", []string{"--var", "x:uint64=18446744073709551614", "x + 1 + 1"}, "❌ Failure in: x + 1  》+《  1\n", true},
		{"Leading Negation", []string{"-math.MinInt64"}, "❌ Failure in:  》-《  math . MinInt64\n", true},
		{"Missing Var Value", []string{"x", "--var"}, "❌ --var needs a value\n", true},
		{"No Expression", []string{"--json"}, "Usage: safecalc eval [--json] [--var name:kind=value]... <expr>\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runEval(tt.args, calc.DefaultConfig(), &out)
			assert.Equal(t, tt.wantErr, err != nil, "err: %v", err)
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestRunEvalJSON(t *testing.T) {
	var out bytes.Buffer
	err := runEval([]string{"--json", "math.MaxUint64 << 123"}, calc.DefaultConfig(), &out)

	var ce *checked.Error
	require.True(t, errors.As(err, &ce))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, false, resp["ok"])
	body := resp["error"].(map[string]any)
	assert.Equal(t, "<<", body["operator"])
	assert.Equal(t, float64(19), body["op_ix"])
	assert.Equal(t, float64(2), body["op_len"])
}

func TestRunRewrite(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runRewrite([]string{"x + 1 + 1"}, rewrite.DefaultConfig(), &out))
	assert.Equal(t, "canonical: x + 1 + 1\n"+
		"rewritten: checked.AddAt(checked.AddAt(x, 1, checked.At(checkedExpr, 3, 1)), 1, checked.At(checkedExpr, 7, 1))\n"+
		"sites:\n"+
		"  Add x  》+《  1 + 1\n"+
		"  Add x + 1  》+《  1\n", out.String())

	out.Reset()
	require.NoError(t, runRewrite([]string{"--qualifier=", "--keep-xor", "a ^ b"}, rewrite.DefaultConfig(), &out))
	assert.Contains(t, out.String(), "rewritten: a ^ b\n")
	assert.Contains(t, out.String(), "sites:     none\n")

	out.Reset()
	require.NoError(t, runRewrite([]string{"--json", "--qualifier", "c", "-x"}, rewrite.DefaultConfig(), &out))
	var resp struct {
		Rewritten string `json:"rewritten"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "c.NegAt(x, c.At(checkedExpr, 0, 1))", resp.Rewritten)

	out.Reset()
	assert.Error(t, runRewrite([]string{"x +"}, rewrite.DefaultConfig(), &out))
	assert.Contains(t, out.String(), "❌ Syntax Error")
}

func TestRunGen(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/demo\n\ngo 1.22\n"), 0o644))

	withDirective := filepath.Join(root, "sum.go")
	require.NoError(t, os.WriteFile(withDirective, []byte("package demo\n\n//safecalc:checked sum(a, b uint32) uint32 = a + b\n"), 0o644))
	plain := filepath.Join(root, "plain.go")
	require.NoError(t, os.WriteFile(plain, []byte("package demo\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, runGen([]string{withDirective, plain}, &out))
	assert.Contains(t, out.String(), "✅ "+filepath.Join(root, "sum_checked.go"))
	assert.Contains(t, out.String(), "⚠️  "+plain+": no directives")
	assert.FileExists(t, filepath.Join(root, "sum_checked.go"))

	out.Reset()
	assert.Error(t, runGen([]string{filepath.Join(root, "missing.go")}, &out))
	assert.Contains(t, out.String(), "❌")
}

func TestRunGenUsage(t *testing.T) {
	t.Setenv("GOFILE", "")
	var out bytes.Buffer
	assert.ErrorIs(t, runGen(nil, &out), errUsage)
}
