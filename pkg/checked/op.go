package checked

// Op identifies one checked operation.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpPow
	OpShl
	OpShr
	OpNeg
)

var opTokens = [...]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpRem: "%",
	OpPow: "^",
	OpShl: "<<",
	OpShr: ">>",
	OpNeg: "-",
}

var opFuncs = [...]string{
	OpAdd: "AddAt",
	OpSub: "SubAt",
	OpMul: "MulAt",
	OpDiv: "DivAt",
	OpRem: "RemAt",
	OpPow: "PowAt",
	OpShl: "ShlAt",
	OpShr: "ShrAt",
	OpNeg: "NegAt",
}

// Token returns the surface operator token.
func (o Op) Token() string { return opTokens[o] }

// Func returns the name of the generated-code entry point for o.
func (o Op) Func() string { return opFuncs[o] }

func (o Op) String() string { return opFuncs[o][:len(opFuncs[o])-2] }

// Unary reports whether o takes a single operand.
func (o Op) Unary() bool { return o == OpNeg }

// BinaryOps lists the binary operations in table order.
var BinaryOps = []Op{OpAdd, OpSub, OpMul, OpDiv, OpRem, OpPow, OpShl, OpShr}

// MarshalText encodes o as its operator token.
func (o Op) MarshalText() ([]byte, error) { return []byte(o.Token()), nil }
