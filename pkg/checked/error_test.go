package checked

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      Error
		expected string
		op       string
	}{
		{
			name:     "Second Addition",
			err:      At("x + 1 + 1", 7, 1),
			expected: "Failure in: x + 1  》+《  1",
			op:       "+",
		},
		{
			name:     "Leading Negation",
			err:      At("- math . MinInt64", 0, 1),
			expected: "Failure in:  》-《  math . MinInt64",
			op:       "-",
		},
		{
			name:     "Two Byte Operator",
			err:      At("math . MaxUint64 << 123", 19, 2),
			expected: "Failure in: math . MaxUint64  》<<《  123",
			op:       "<<",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())

			prefix, op, suffix := tt.err.Split()
			assert.Equal(t, tt.op, op)
			assert.Equal(t, tt.err.Expr, prefix+op+suffix)
		})
	}
}

func TestErrorSplitOutOfRange(t *testing.T) {
	err := At("1 + 2", 9, 1)
	assert.Panics(t, func() { _ = err.Error() })
}

func TestCatch(t *testing.T) {
	add := func(x uint64) (_ uint64, err error) {
		defer Catch(&err)
		const expr = "x + 1 + 1"
		return AddAt(AddAt(x, 1, At(expr, 3, 1)), 1, At(expr, 7, 1)), nil
	}

	v, err := add(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)

	_, err = add(math.MaxUint64 - 1)
	require.Error(t, err)

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 7, ce.OpIx)
	assert.Equal(t, "Failure in: x + 1  》+《  1", err.Error())
}

func TestCatchRepanicsForeignPanics(t *testing.T) {
	f := func() (err error) {
		defer Catch(&err)
		panic("boom")
	}
	assert.PanicsWithValue(t, "boom", func() { _ = f() })
}
