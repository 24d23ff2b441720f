package checked

import (
	"errors"
	"go/token"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlain(t *testing.T) {
	tests := []struct {
		name string
		tok  token.Token
		a, b any
		want any
	}{
		{"Xor", token.XOR, 5, 3, 6},
		{"And", token.AND, uint8(0xF0), 0x3C, uint8(0x30)},
		{"Or", token.OR, int16(1), int16(6), int16(7)},
		{"And Not", token.AND_NOT, uint32(7), 2, uint32(5)},
		{"Add Wraps", token.ADD, uint8(255), 1, uint8(0)},
		{"Mul Wraps", token.MUL, int8(64), 2, int8(-128)},
		{"Integer Division", token.QUO, 7, 2, 3},
		{"Min Over Minus One", token.QUO, int64(math.MinInt64), -1, int64(math.MinInt64)},
		{"Remainder", token.REM, -7, 3, -1},
		{"Float Division", token.QUO, 1.0, 4, 0.25},
		{"Shift Left Drops Bits", token.SHL, uint8(0x81), 1, uint8(0x02)},
		{"Shift Past Width", token.SHL, 1, uint64(200), 0},
		{"Arithmetic Shift Right", token.SHR, int8(-8), uint8(1), int8(-4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Plain(tt.tok, tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestPlainDecimal(t *testing.T) {
	v, err := Plain(token.QUO, decimal.RequireFromString("1"), 4)
	require.NoError(t, err)
	assert.Equal(t, "0.25", v.(decimal.Decimal).String())

	_, err = Plain(token.REM, decimal.RequireFromString("1"), 0)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestPlainErrors(t *testing.T) {
	_, err := Plain(token.QUO, 1, 0)
	assert.ErrorIs(t, err, ErrDivideByZero)

	_, err = Plain(token.SHL, 1, -1)
	assert.ErrorIs(t, err, ErrNegativeShift)

	_, err = Plain(token.OR, uint8(1), 300)
	assert.ErrorContains(t, err, "overflows")

	cases := []struct {
		tok  token.Token
		a, b any
	}{
		{token.XOR, 1.5, 1},
		{token.REM, 1.5, 1.0},
		{token.AND, decimal.NewFromInt(1), 1},
		{token.SHL, 1.0, 1},
		{token.ADD, "a", 1},
	}
	for _, c := range cases {
		_, err := Plain(c.tok, c.a, c.b)
		var ke *KindError
		assert.True(t, errors.As(err, &ke), "%s(%T, %T)", c.tok, c.a, c.b)
	}
}

func TestPlainUnary(t *testing.T) {
	v, err := PlainUnary(token.XOR, uint8(0x0F))
	require.NoError(t, err)
	assert.Equal(t, uint8(0xF0), v)

	v, err = PlainUnary(token.SUB, int8(math.MinInt8))
	require.NoError(t, err)
	assert.Equal(t, int8(math.MinInt8), v)

	v, err = PlainUnary(token.SUB, uint8(1))
	require.NoError(t, err)
	assert.Equal(t, uint8(255), v)

	v, err = PlainUnary(token.SUB, 2.5)
	require.NoError(t, err)
	assert.Equal(t, -2.5, v)

	v, err = PlainUnary(token.ADD, int32(4))
	require.NoError(t, err)
	assert.Equal(t, int32(4), v)

	_, err = PlainUnary(token.XOR, 1.5)
	var ke *KindError
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, "checked: ^ is not defined on float64", err.Error())
}
