// Package checked holds the arithmetic primitives the rewritten expressions
// call into. Every primitive reports failure with a false flag instead of
// wrapping around or panicking.
package checked

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

func bitsOf[T constraints.Integer]() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero)) * 8
}

func isSigned[T constraints.Integer]() bool {
	return ^T(0) < 0
}

func minOf[T constraints.Integer]() T {
	if !isSigned[T]() {
		return 0
	}
	return T(1) << (bitsOf[T]() - 1)
}

// minusOne reports whether v is -1 for a signed T.
func minusOne[T constraints.Integer](v T) bool {
	return isSigned[T]() && v == ^T(0)
}

func Add[T constraints.Integer](a, b T) (T, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}

func Sub[T constraints.Integer](a, b T) (T, bool) {
	c := a - b
	if (b > 0 && c > a) || (b < 0 && c < a) {
		return 0, false
	}
	return c, true
}

func Mul[T constraints.Integer](a, b T) (T, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (minusOne(a) && b == minOf[T]()) || (minusOne(b) && a == minOf[T]()) {
		return 0, false
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

// Div fails on a zero divisor and on MIN / -1.
func Div[T constraints.Integer](a, b T) (T, bool) {
	if b == 0 || (minusOne(b) && a == minOf[T]()) {
		return 0, false
	}
	return a / b, true
}

// Rem fails on a zero divisor and on MIN % -1.
func Rem[T constraints.Integer](a, b T) (T, bool) {
	if b == 0 || (minusOne(b) && a == minOf[T]()) {
		return 0, false
	}
	return a % b, true
}

// Pow raises base to a non-negative exponent by repeated squaring.
func Pow[T, E constraints.Integer](base T, exp E) (T, bool) {
	if exp < 0 {
		return 0, false
	}
	result := T(1)
	for exp > 0 {
		if exp&1 == 1 {
			r, ok := Mul(result, base)
			if !ok {
				return 0, false
			}
			result = r
		}
		exp >>= 1
		if exp > 0 {
			b, ok := Mul(base, base)
			if !ok {
				return 0, false
			}
			base = b
		}
	}
	return result, true
}

// Shl fails when n is negative or not smaller than the bit width of T.
// Bits shifted out of a valid shift are discarded.
func Shl[T, S constraints.Integer](a T, n S) (T, bool) {
	if n < 0 || uint64(n) >= bitsOf[T]() {
		return 0, false
	}
	return a << n, true
}

// Shr fails when n is negative or not smaller than the bit width of T.
func Shr[T, S constraints.Integer](a T, n S) (T, bool) {
	if n < 0 || uint64(n) >= bitsOf[T]() {
		return 0, false
	}
	return a >> n, true
}

// Neg fails on MIN and, for unsigned kinds, on every value except zero.
func Neg[T constraints.Integer](a T) (T, bool) {
	if !isSigned[T]() {
		if a != 0 {
			return 0, false
		}
		return 0, true
	}
	if a == minOf[T]() {
		return 0, false
	}
	return -a, true
}
