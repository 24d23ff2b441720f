package coerce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "42", ToString(42))
	assert.Equal(t, "18446744073709551615", ToString(uint64(18446744073709551615)))
	assert.Equal(t, "map[a:1]", ToString(map[string]int{"a": 1}))
}

func TestToInt(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    int
		wantErr bool
	}{
		{"Nil", nil, 0, false},
		{"String", "123", 123, false},
		{"Float", 12.0, 12, false},
		{"Word", "budi", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToInt(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToFloat64AndBool(t *testing.T) {
	f, err := ToFloat64("0.25")
	assert.NoError(t, err)
	assert.Equal(t, 0.25, f)

	_, err = ToFloat64("abc")
	assert.Error(t, err)

	b, err := ToBool("true")
	assert.NoError(t, err)
	assert.True(t, b)

	b, err = ToBool(0)
	assert.NoError(t, err)
	assert.False(t, b)

	_, err = ToBool("maybe")
	assert.Error(t, err)
}

func TestToDuration(t *testing.T) {
	d, err := ToDuration("1m30s")
	assert.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)
}
