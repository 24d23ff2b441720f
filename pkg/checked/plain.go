package checked

import (
	"errors"
	"fmt"
	"go/token"
	"reflect"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

var (
	// ErrDivideByZero is returned by Plain for an integer or decimal
	// division by zero.
	ErrDivideByZero = errors.New("checked: division by zero")
	// ErrNegativeShift is returned by Plain for a negative shift count.
	ErrNegativeShift = errors.New("checked: negative shift count")
)

// Plain applies the Go binary operator tok with Go's unchecked semantics:
// integers wrap around and never fail. It evaluates the operators the
// rewriter leaves in place, the bitwise family and any arithmetic inside
// call arguments. The cases that make Go panic at run time are errors.
func Plain(tok token.Token, a, b any) (any, error) {
	if tok == token.SHL || tok == token.SHR {
		return plainShift(tok, a, b)
	}
	x, y, fits, same := unify(a, b)
	if !same {
		return nil, plainKindError(tok, a, b)
	}
	if !fits {
		return nil, fmt.Errorf("checked: %v %s %v: constant overflows the other operand's type", a, tok, b)
	}
	switch x := x.(type) {
	case int:
		return plainInt(tok, x, y.(int))
	case int8:
		return plainInt(tok, x, y.(int8))
	case int16:
		return plainInt(tok, x, y.(int16))
	case int32:
		return plainInt(tok, x, y.(int32))
	case int64:
		return plainInt(tok, x, y.(int64))
	case uint:
		return plainInt(tok, x, y.(uint))
	case uint8:
		return plainInt(tok, x, y.(uint8))
	case uint16:
		return plainInt(tok, x, y.(uint16))
	case uint32:
		return plainInt(tok, x, y.(uint32))
	case uint64:
		return plainInt(tok, x, y.(uint64))
	case float64:
		return plainFloat(tok, x, y.(float64))
	case decimal.Decimal:
		return plainDecimal(tok, x, y.(decimal.Decimal))
	}
	return nil, plainKindError(tok, a, b)
}

// PlainUnary applies the Go unary operator tok (+, - or ^) with Go's
// unchecked semantics.
func PlainUnary(tok token.Token, a any) (any, error) {
	switch tok {
	case token.ADD:
		if kindOf(a) == kindOther {
			return nil, plainKindError(tok, a, nil)
		}
		return a, nil
	case token.SUB:
		switch x := a.(type) {
		case float64:
			return -x, nil
		case decimal.Decimal:
			return x.Neg(), nil
		}
		if isInteger(kindOf(a)) {
			return Plain(token.SUB, reflect.Zero(reflect.TypeOf(a)).Interface(), a)
		}
	case token.XOR:
		switch x := a.(type) {
		case int:
			return ^x, nil
		case int8:
			return ^x, nil
		case int16:
			return ^x, nil
		case int32:
			return ^x, nil
		case int64:
			return ^x, nil
		case uint:
			return ^x, nil
		case uint8:
			return ^x, nil
		case uint16:
			return ^x, nil
		case uint32:
			return ^x, nil
		case uint64:
			return ^x, nil
		}
	}
	return nil, plainKindError(tok, a, nil)
}

func plainKindError(tok token.Token, a, b any) *KindError {
	return &KindError{Op: tok.String(), Left: reflect.TypeOf(a), Right: reflect.TypeOf(b)}
}

func plainInt[T constraints.Integer](tok token.Token, a, b T) (any, error) {
	switch tok {
	case token.ADD:
		return a + b, nil
	case token.SUB:
		return a - b, nil
	case token.MUL:
		return a * b, nil
	case token.QUO:
		if b == 0 {
			return nil, ErrDivideByZero
		}
		return a / b, nil
	case token.REM:
		if b == 0 {
			return nil, ErrDivideByZero
		}
		return a % b, nil
	case token.AND:
		return a & b, nil
	case token.OR:
		return a | b, nil
	case token.XOR:
		return a ^ b, nil
	case token.AND_NOT:
		return a &^ b, nil
	}
	return nil, plainKindError(tok, a, b)
}

// plainFloat follows IEEE 754: division by zero yields an infinity.
func plainFloat(tok token.Token, a, b float64) (any, error) {
	switch tok {
	case token.ADD:
		return a + b, nil
	case token.SUB:
		return a - b, nil
	case token.MUL:
		return a * b, nil
	case token.QUO:
		return a / b, nil
	}
	return nil, plainKindError(tok, a, b)
}

func plainDecimal(tok token.Token, a, b decimal.Decimal) (any, error) {
	switch tok {
	case token.ADD:
		return a.Add(b), nil
	case token.SUB:
		return a.Sub(b), nil
	case token.MUL:
		return a.Mul(b), nil
	case token.QUO, token.REM:
		if b.IsZero() {
			return nil, ErrDivideByZero
		}
		if tok == token.QUO {
			return a.Div(b), nil
		}
		return a.Mod(b), nil
	}
	return nil, plainKindError(tok, a, b)
}

// plainShift shifts an integer by a non-negative count of any integer
// type. Counts at or above the bit width shift every bit out, as in Go.
func plainShift(tok token.Token, a, b any) (any, error) {
	if !isInteger(kindOf(a)) || !isInteger(kindOf(b)) {
		return nil, plainKindError(tok, a, b)
	}
	rb := reflect.ValueOf(b)
	var n uint64
	if kindOf(b) == kindSigned {
		if rb.Int() < 0 {
			return nil, ErrNegativeShift
		}
		n = uint64(rb.Int())
	} else {
		n = rb.Uint()
	}
	switch x := a.(type) {
	case int:
		return shift(tok, x, n), nil
	case int8:
		return shift(tok, x, n), nil
	case int16:
		return shift(tok, x, n), nil
	case int32:
		return shift(tok, x, n), nil
	case int64:
		return shift(tok, x, n), nil
	case uint:
		return shift(tok, x, n), nil
	case uint8:
		return shift(tok, x, n), nil
	case uint16:
		return shift(tok, x, n), nil
	case uint32:
		return shift(tok, x, n), nil
	case uint64:
		return shift(tok, x, n), nil
	}
	return nil, plainKindError(tok, a, b)
}

func shift[T constraints.Integer](tok token.Token, a T, n uint64) T {
	if tok == token.SHL {
		return a << n
	}
	return a >> n
}
