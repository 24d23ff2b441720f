package checked

import "golang.org/x/exp/constraints"

// failure is the panic value used by the *At functions. Catch only recovers
// this type.
type failure struct {
	err *Error
}

func fail(site Error) {
	panic(failure{err: &site})
}

// Catch turns a failure raised by an *At function into *err. It must be
// deferred directly:
//
//	func f(x uint64) (_ uint64, err error) {
//		defer checked.Catch(&err)
//		...
//	}
//
// Panics that did not come from this package are re-raised.
func Catch(err *error) {
	r := recover()
	if r == nil {
		return
	}
	f, ok := r.(failure)
	if !ok {
		panic(r)
	}
	*err = f.err
}

func AddAt[T constraints.Integer](a, b T, site Error) T {
	c, ok := Add(a, b)
	if !ok {
		fail(site)
	}
	return c
}

func SubAt[T constraints.Integer](a, b T, site Error) T {
	c, ok := Sub(a, b)
	if !ok {
		fail(site)
	}
	return c
}

func MulAt[T constraints.Integer](a, b T, site Error) T {
	c, ok := Mul(a, b)
	if !ok {
		fail(site)
	}
	return c
}

func DivAt[T constraints.Integer](a, b T, site Error) T {
	c, ok := Div(a, b)
	if !ok {
		fail(site)
	}
	return c
}

func RemAt[T constraints.Integer](a, b T, site Error) T {
	c, ok := Rem(a, b)
	if !ok {
		fail(site)
	}
	return c
}

func PowAt[T, E constraints.Integer](base T, exp E, site Error) T {
	c, ok := Pow(base, exp)
	if !ok {
		fail(site)
	}
	return c
}

func ShlAt[T, S constraints.Integer](a T, n S, site Error) T {
	c, ok := Shl(a, n)
	if !ok {
		fail(site)
	}
	return c
}

func ShrAt[T, S constraints.Integer](a T, n S, site Error) T {
	c, ok := Shr(a, n)
	if !ok {
		fail(site)
	}
	return c
}

func NegAt[T constraints.Integer](a T, site Error) T {
	c, ok := Neg(a)
	if !ok {
		fail(site)
	}
	return c
}
