package checked

import "fmt"

// Error reports which checked operation failed inside an expression.
// It carries no reason (overflow, zero divisor, ...), only the position of
// the failing operator inside Expr.
type Error struct {
	// Expr is the canonical rendering of the whole original expression.
	Expr string `json:"expr"`
	// OpIx is the offset one past the failing operator token.
	OpIx int `json:"op_ix"`
	// OpLen is the byte length of the failing operator token.
	OpLen int `json:"op_len"`
}

// At builds the failure metadata baked into generated code.
func At(expr string, opIx, opLen int) Error {
	return Error{Expr: expr, OpIx: opIx, OpLen: opLen}
}

// Split cuts Expr around the failing operator. The three parts always
// concatenate back to Expr.
//
// Offsets outside Expr mean the rewriter produced bad metadata; Split
// panics instead of truncating.
func (e *Error) Split() (prefix, op, suffix string) {
	start := e.OpIx - e.OpLen
	if start < 0 {
		start = 0
	}
	if e.OpLen < 0 || start+e.OpLen > len(e.Expr) {
		panic(fmt.Sprintf("checked: operator span [%d:%d] outside %q", start, start+e.OpLen, e.Expr))
	}
	rest := e.Expr[start:]
	return e.Expr[:start], rest[:e.OpLen], rest[e.OpLen:]
}

// Operator returns the failing operator token.
func (e *Error) Operator() string {
	_, op, _ := e.Split()
	return op
}

func (e *Error) Error() string {
	prefix, op, suffix := e.Split()
	return "Failure in: " + prefix + " 》" + op + "《 " + suffix
}
