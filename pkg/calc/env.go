package calc

import (
	"fmt"
	"go/ast"
	"go/token"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"safecalc/pkg/coerce"
)

var kinds = map[string]reflect.Type{
	"int":     reflect.TypeOf(int(0)),
	"int8":    reflect.TypeOf(int8(0)),
	"int16":   reflect.TypeOf(int16(0)),
	"int32":   reflect.TypeOf(int32(0)),
	"int64":   reflect.TypeOf(int64(0)),
	"uint":    reflect.TypeOf(uint(0)),
	"uint8":   reflect.TypeOf(uint8(0)),
	"uint16":  reflect.TypeOf(uint16(0)),
	"uint32":  reflect.TypeOf(uint32(0)),
	"uint64":  reflect.TypeOf(uint64(0)),
	"float64": reflect.TypeOf(float64(0)),
	"decimal": reflect.TypeOf(decimal.Decimal{}),
}

// Kinds lists the value kinds understood by ParseValue.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// builtins is shared by every run. The expr-lang builtins (int, float,
// abs, ...) stay available as well.
var builtins = map[string]any{
	"math": map[string]any{
		"MaxInt":                 math.MaxInt,
		"MinInt":                 math.MinInt,
		"MaxInt8":                int8(math.MaxInt8),
		"MinInt8":                int8(math.MinInt8),
		"MaxInt16":               int16(math.MaxInt16),
		"MinInt16":               int16(math.MinInt16),
		"MaxInt32":               int32(math.MaxInt32),
		"MinInt32":               int32(math.MinInt32),
		"MaxInt64":               int64(math.MaxInt64),
		"MinInt64":               int64(math.MinInt64),
		"MaxUint":                uint(math.MaxUint),
		"MaxUint8":               uint8(math.MaxUint8),
		"MaxUint16":              uint16(math.MaxUint16),
		"MaxUint32":              uint32(math.MaxUint32),
		"MaxUint64":              uint64(math.MaxUint64),
		"MaxFloat64":             math.MaxFloat64,
		"SmallestNonzeroFloat64": math.SmallestNonzeroFloat64,
		"Pi":                     math.Pi,
		"E":                      math.E,
	},
	"int8":    conversion("int8"),
	"int16":   conversion("int16"),
	"int32":   conversion("int32"),
	"int64":   conversion("int64"),
	"uint":    conversion("uint"),
	"uint8":   conversion("uint8"),
	"uint16":  conversion("uint16"),
	"uint32":  conversion("uint32"),
	"uint64":  conversion("uint64"),
	"float64": conversion("float64"),
	"decimal": conversion("decimal"),
}

// conversion returns a Go-style conversion to kind. Unlike Go, an integer
// conversion refuses values it cannot represent instead of truncating.
func conversion(kind string) func(any) (any, error) {
	return func(v any) (any, error) {
		out, err := convert(kind, v)
		if err != nil {
			return nil, fmt.Errorf("%s(%v): %w", kind, v, err)
		}
		return out, nil
	}
}

func convert(kind string, v any) (any, error) {
	switch x := v.(type) {
	case string:
		return ParseValue(kind, x)
	case decimal.Decimal:
		return fromDecimal(kind, x)
	case float64:
		if kind == "float64" {
			return x, nil
		}
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, fmt.Errorf("%v is not finite", x)
		}
		return fromDecimal(kind, decimal.NewFromFloat(x))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ParseValue(kind, strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ParseValue(kind, strconv.FormatUint(rv.Uint(), 10))
	}
	return nil, fmt.Errorf("cannot convert %T", v)
}

func fromDecimal(kind string, d decimal.Decimal) (any, error) {
	switch kind {
	case "decimal":
		return d, nil
	case "float64":
		f, _ := d.Float64()
		return f, nil
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("%s is not an integer", d)
	}
	return ParseValue(kind, d.String())
}

// ParseValue parses s as a value of the given kind. Integers must fit the
// kind exactly; prefixes such as 0x and digit separators are accepted.
func ParseValue(kind, s string) (any, error) {
	t, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q (want one of %s)", kind, strings.Join(Kinds(), ", "))
	}
	s = strings.TrimSpace(s)

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 0, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", kind, s, err)
		}
		return reflect.ValueOf(n).Convert(t).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 0, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", kind, s, err)
		}
		return reflect.ValueOf(n).Convert(t).Interface(), nil
	case reflect.Float64:
		return coerce.ToFloat64(s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// ParseVar parses a "name:kind=value" binding. The kind defaults to int.
func ParseVar(binding string) (string, any, error) {
	lhs, value, ok := strings.Cut(binding, "=")
	if !ok {
		return "", nil, fmt.Errorf("calc: variable %q: want name[:kind]=value", binding)
	}
	name, kind, typed := strings.Cut(strings.TrimSpace(lhs), ":")
	if !typed {
		kind = "int"
	}
	if !token.IsIdentifier(name) {
		return "", nil, fmt.Errorf("calc: variable %q: %q is not an identifier", binding, name)
	}
	v, err := ParseValue(kind, value)
	if err != nil {
		return "", nil, fmt.Errorf("calc: variable %q: %w", name, err)
	}
	return name, v, nil
}

// ParseVars parses a list of bindings into an environment.
func ParseVars(bindings []string) (map[string]any, error) {
	vars := make(map[string]any, len(bindings))
	for _, binding := range bindings {
		name, v, err := ParseVar(binding)
		if err != nil {
			return nil, err
		}
		vars[name] = v
	}
	return vars, nil
}

// Format renders a result value.
func Format(v any) string {
	return coerce.ToString(v)
}

// freeNames lists the identifiers src reads as values. Callees are left
// out: expr-lang resolves function names on its own.
func freeNames(e ast.Expr) []string {
	seen := map[string]bool{"true": true, "false": true, "nil": true}
	var names []string
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.Ident:
			if !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
		case *ast.SelectorExpr:
			walk(n.X)
		case *ast.CallExpr:
			if _, ok := n.Fun.(*ast.Ident); !ok {
				walk(n.Fun)
			}
			for _, a := range n.Args {
				walk(a)
			}
		case *ast.BinaryExpr:
			walk(n.X)
			walk(n.Y)
		case *ast.UnaryExpr:
			walk(n.X)
		case *ast.ParenExpr:
			walk(n.X)
		case *ast.IndexExpr:
			walk(n.X)
			walk(n.Index)
		case *ast.SliceExpr:
			walk(n.X)
			for _, x := range []ast.Expr{n.Low, n.High, n.Max} {
				if x != nil {
					walk(x)
				}
			}
		}
	}
	walk(e)
	return names
}

// KindOf names the kind of a result value: one of Kinds, or the Go type
// for anything else (bool for comparisons).
func KindOf(v any) string {
	t := reflect.TypeOf(v)
	for name, k := range kinds {
		if k == t {
			return name
		}
	}
	if t == nil {
		return "nil"
	}
	return t.String()
}
