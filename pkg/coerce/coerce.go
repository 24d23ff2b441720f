package coerce

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// ToString renders any value as text. Nil becomes "".
func ToString(input any) string {
	if input == nil {
		return ""
	}
	s, err := cast.ToStringE(input)
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return s
}

// ToInt converts numbers and numeric strings to int.
func ToInt(input any) (int, error) {
	if input == nil {
		return 0, nil
	}
	i, err := cast.ToIntE(input)
	if err != nil {
		return 0, fmt.Errorf("failed to coerce value '%v' (type %T) to int", input, input)
	}
	return i, nil
}

// ToFloat64 converts numbers and numeric strings to float64.
func ToFloat64(input any) (float64, error) {
	if input == nil {
		return 0, nil
	}
	f, err := cast.ToFloat64E(input)
	if err != nil {
		return 0, fmt.Errorf("failed to coerce value '%v' (type %T) to float64", input, input)
	}
	return f, nil
}

// ToBool accepts true/false, 1/0 and their string forms.
func ToBool(input any) (bool, error) {
	if input == nil {
		return false, nil
	}
	b, err := cast.ToBoolE(input)
	if err != nil {
		return false, fmt.Errorf("failed to coerce value '%v' (type %T) to bool", input, input)
	}
	return b, nil
}

// ToDuration accepts Go duration strings ("1m30s") and integer nanoseconds.
func ToDuration(input any) (time.Duration, error) {
	if input == nil {
		return 0, nil
	}
	d, err := cast.ToDurationE(input)
	if err != nil {
		return 0, fmt.Errorf("failed to coerce value '%v' (type %T) to duration", input, input)
	}
	return d, nil
}
