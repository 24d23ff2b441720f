package checked

import (
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// MaxDecimalDigits bounds the coefficient of a decimal power. A power
// whose result would need more digits fails like an overflow.
const MaxDecimalDigits = 10000

// KindError reports operands an operation is not defined on. It is a
// static problem with the expression, not an arithmetic failure.
type KindError struct {
	// Op names the operation: an Op name such as "Shl" or a Go operator
	// token for the unchecked operators.
	Op          string
	Left, Right reflect.Type
}

func (e *KindError) Error() string {
	if e.Right == nil {
		return fmt.Sprintf("checked: %s is not defined on %v", e.Op, e.Left)
	}
	return fmt.Sprintf("checked: %s is not defined on %v and %v", e.Op, e.Left, e.Right)
}

func kindError(op Op, a, b any) *KindError {
	return &KindError{Op: op.String(), Left: reflect.TypeOf(a), Right: reflect.TypeOf(b)}
}

type kind int

const (
	kindOther kind = iota
	kindSigned
	kindUnsigned
	kindFloat
	kindDecimal
)

func kindOf(v any) kind {
	if _, ok := v.(decimal.Decimal); ok {
		return kindDecimal
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindSigned
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindUnsigned
	case reflect.Float64:
		return kindFloat
	}
	return kindOther
}

func isInteger(k kind) bool { return k == kindSigned || k == kindUnsigned }

// Apply runs the binary operation op on two dynamically typed operands.
// ok is false when the checked operation failed; err is set when op is not
// defined on the operand kinds.
//
// Operands of different kinds are unified first: a plain int (the kind of
// an integer literal) adapts to the other integer kind if it fits, and
// integers widen to float64 or decimal.Decimal.
func Apply(op Op, a, b any) (v any, ok bool, err error) {
	if op.Unary() {
		return nil, false, kindError(op, a, b)
	}
	if op == OpPow || op == OpShl || op == OpShr {
		return applyExp(op, a, b)
	}
	x, y, fits, same := unify(a, b)
	if !same {
		return nil, false, kindError(op, a, b)
	}
	if !fits {
		return nil, false, nil
	}
	switch x := x.(type) {
	case int:
		return applyInt(op, x, y.(int))
	case int8:
		return applyInt(op, x, y.(int8))
	case int16:
		return applyInt(op, x, y.(int16))
	case int32:
		return applyInt(op, x, y.(int32))
	case int64:
		return applyInt(op, x, y.(int64))
	case uint:
		return applyInt(op, x, y.(uint))
	case uint8:
		return applyInt(op, x, y.(uint8))
	case uint16:
		return applyInt(op, x, y.(uint16))
	case uint32:
		return applyInt(op, x, y.(uint32))
	case uint64:
		return applyInt(op, x, y.(uint64))
	case float64:
		return applyFloat(op, x, y.(float64))
	case decimal.Decimal:
		return applyDecimal(op, x, y.(decimal.Decimal))
	}
	return nil, false, kindError(op, a, b)
}

// Negate runs checked negation on a dynamically typed operand.
func Negate(a any) (any, bool, error) {
	switch x := a.(type) {
	case int:
		return wrap(Neg(x))
	case int8:
		return wrap(Neg(x))
	case int16:
		return wrap(Neg(x))
	case int32:
		return wrap(Neg(x))
	case int64:
		return wrap(Neg(x))
	case uint:
		return wrap(Neg(x))
	case uint8:
		return wrap(Neg(x))
	case uint16:
		return wrap(Neg(x))
	case uint32:
		return wrap(Neg(x))
	case uint64:
		return wrap(Neg(x))
	case float64:
		return -x, true, nil
	case decimal.Decimal:
		return x.Neg(), true, nil
	}
	return nil, false, kindError(OpNeg, a, nil)
}

func wrap[T any](v T, ok bool) (any, bool, error) {
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

// unify brings a and b to one type. same is false when their kinds do not
// mix; fits is false when an int literal does not fit the other integer
// type.
func unify(a, b any) (x, y any, fits, same bool) {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb {
		return a, b, true, kindOf(a) != kindOther
	}
	ka, kb := kindOf(a), kindOf(b)
	switch {
	case ka == kindOther || kb == kindOther:
		return nil, nil, false, false
	case ta == reflect.TypeOf(0) && isInteger(kb):
		c, ok := convertInt(a.(int), tb)
		return c, b, ok, true
	case tb == reflect.TypeOf(0) && isInteger(ka):
		c, ok := convertInt(b.(int), ta)
		return a, c, ok, true
	case ka == kindDecimal || kb == kindDecimal:
		return toDecimal(a), toDecimal(b), true, true
	case ka == kindFloat || kb == kindFloat:
		return toFloat(a), toFloat(b), true, true
	}
	return nil, nil, false, false
}

// convertInt converts v to the integer type t. It reports false when v
// does not fit.
func convertInt(v int, t reflect.Type) (any, bool) {
	target := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v < 0 || target.OverflowUint(uint64(v)) {
			return nil, false
		}
	default:
		if target.OverflowInt(int64(v)) {
			return nil, false
		}
	}
	return reflect.ValueOf(v).Convert(t).Interface(), true
}

func toFloat(v any) float64 {
	rv := reflect.ValueOf(v)
	switch kindOf(v) {
	case kindSigned:
		return float64(rv.Int())
	case kindUnsigned:
		return float64(rv.Uint())
	}
	return rv.Float()
}

func toDecimal(v any) decimal.Decimal {
	rv := reflect.ValueOf(v)
	switch kindOf(v) {
	case kindSigned:
		return decimal.NewFromInt(rv.Int())
	case kindUnsigned:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0)
	case kindFloat:
		return decimal.NewFromFloat(rv.Float())
	}
	return v.(decimal.Decimal)
}

func applyInt[T constraints.Integer](op Op, a, b T) (any, bool, error) {
	switch op {
	case OpAdd:
		return wrap(Add(a, b))
	case OpSub:
		return wrap(Sub(a, b))
	case OpMul:
		return wrap(Mul(a, b))
	case OpDiv:
		return wrap(Div(a, b))
	case OpRem:
		return wrap(Rem(a, b))
	}
	return nil, false, kindError(op, a, b)
}

// applyFloat fails whenever the result leaves the finite range, which
// covers overflow and division by zero.
func applyFloat(op Op, a, b float64) (any, bool, error) {
	var c float64
	switch op {
	case OpAdd:
		c = a + b
	case OpSub:
		c = a - b
	case OpMul:
		c = a * b
	case OpDiv:
		c = a / b
	case OpRem:
		c = math.Mod(a, b)
	default:
		return nil, false, kindError(op, a, b)
	}
	return finite(c)
}

func finite(c float64) (any, bool, error) {
	if math.IsInf(c, 0) || math.IsNaN(c) {
		return nil, false, nil
	}
	return c, true, nil
}

func applyDecimal(op Op, a, b decimal.Decimal) (any, bool, error) {
	switch op {
	case OpAdd:
		return a.Add(b), true, nil
	case OpSub:
		return a.Sub(b), true, nil
	case OpMul:
		return a.Mul(b), true, nil
	case OpDiv:
		if b.IsZero() {
			return nil, false, nil
		}
		return a.Div(b), true, nil
	case OpRem:
		if b.IsZero() {
			return nil, false, nil
		}
		return a.Mod(b), true, nil
	}
	return nil, false, kindError(op, a, b)
}

// applyExp handles the operations whose right operand is a count rather
// than a value of the left operand's kind.
func applyExp(op Op, a, b any) (any, bool, error) {
	ka := kindOf(a)
	if !isInteger(kindOf(b)) || ka == kindOther {
		return nil, false, kindError(op, a, b)
	}
	if op != OpPow && !isInteger(ka) {
		return nil, false, kindError(op, a, b)
	}

	n, fits := exponent(b)
	if !fits {
		if op != OpPow {
			return nil, false, nil
		}
		u := reflect.ValueOf(b).Uint()
		if f, ok := a.(float64); ok {
			return finite(math.Pow(f, float64(u)))
		}
		// Only 0, 1 and -1 survive such an exponent, and for them an
		// exponent of the same parity gives the same result.
		if !unitOrZero(a) {
			return nil, false, nil
		}
		n = 2 + int64(u&1)
	}

	switch x := a.(type) {
	case int:
		return applyCount(op, x, n)
	case int8:
		return applyCount(op, x, n)
	case int16:
		return applyCount(op, x, n)
	case int32:
		return applyCount(op, x, n)
	case int64:
		return applyCount(op, x, n)
	case uint:
		return applyCount(op, x, n)
	case uint8:
		return applyCount(op, x, n)
	case uint16:
		return applyCount(op, x, n)
	case uint32:
		return applyCount(op, x, n)
	case uint64:
		return applyCount(op, x, n)
	case float64:
		return finite(math.Pow(x, float64(n)))
	case decimal.Decimal:
		return powDecimal(x, n)
	}
	return nil, false, kindError(op, a, b)
}

var decimalOne = decimal.NewFromInt(1)

func unitOrZero(v any) bool {
	switch kindOf(v) {
	case kindDecimal:
		d := v.(decimal.Decimal)
		return d.IsZero() || d.Abs().Equal(decimalOne)
	case kindSigned:
		n := reflect.ValueOf(v).Int()
		return n >= -1 && n <= 1
	case kindUnsigned:
		return reflect.ValueOf(v).Uint() <= 1
	}
	return false
}

// powDecimal fails on a zero base with a negative exponent and on results
// with more than MaxDecimalDigits digits.
func powDecimal(x decimal.Decimal, n int64) (any, bool, error) {
	switch {
	case n == 0:
		return decimalOne, true, nil
	case x.IsZero() && n < 0:
		return nil, false, nil
	case x.IsZero():
		return decimal.Zero, true, nil
	case x.Abs().Equal(decimalOne):
		if x.IsNegative() && n%2 != 0 {
			return decimalOne.Neg(), true, nil
		}
		return decimalOne, true, nil
	}
	if n > MaxDecimalDigits || n < -MaxDecimalDigits {
		return nil, false, nil
	}
	abs := n
	if abs < 0 {
		abs = -abs
	}
	if int64(x.NumDigits())*abs > MaxDecimalDigits {
		return nil, false, nil
	}
	return x.Pow(decimal.NewFromInt(n)), true, nil
}

// exponent reads an integer count as int64; fits is false for unsigned
// values above math.MaxInt64.
func exponent(v any) (n int64, fits bool) {
	rv := reflect.ValueOf(v)
	if kindOf(v) == kindUnsigned {
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return rv.Int(), true
}

func applyCount[T constraints.Integer](op Op, a T, n int64) (any, bool, error) {
	switch op {
	case OpPow:
		return wrap(Pow(a, n))
	case OpShl:
		return wrap(Shl(a, n))
	case OpShr:
		return wrap(Shr(a, n))
	}
	return nil, false, kindError(op, a, n)
}
