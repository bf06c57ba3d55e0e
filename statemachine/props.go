package statemachine

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Props carries caller-supplied arguments to every effect of a trigger call.
type Props map[string]any

// Get retrieves a raw value.
func (p Props) Get(key string) (any, bool) {
	val, ok := p[key]

	return val, ok
}

// String retrieves a string value.
func (p Props) String(key string) (string, bool) {
	val, ok := p[key]
	if !ok {
		return "", false
	}

	str, ok := val.(string)

	return str, ok
}

// Bool retrieves a boolean value.
func (p Props) Bool(key string) (bool, bool) {
	val, ok := p[key]
	if !ok {
		return false, false
	}

	b, ok := val.(bool)

	return b, ok
}

// Int retrieves an integer value.
func (p Props) Int(key string) (int, bool) {
	val, ok := p[key]
	if !ok {
		return 0, false
	}

	i, ok := val.(int)

	return i, ok
}

// Float64 retrieves a numeric value as float64. Any Go integer or float type is accepted.
func (p Props) Float64(key string) (float64, bool) {
	val, ok := p[key]
	if !ok {
		return 0, false
	}

	switch num := val.(type) {
	case float64:
		return num, true
	case float32:
		return float64(num), true
	case int:
		return float64(num), true
	case int32:
		return float64(num), true
	case int64:
		return float64(num), true
	case uint:
		return float64(num), true
	case uint32:
		return float64(num), true
	case uint64:
		return float64(num), true
	default:
		return 0, false
	}
}

// Float64Or retrieves a numeric value, falling back to def when the key is absent.
// A present value of a non-numeric type is an error.
func (p Props) Float64Or(key string, def float64) (float64, error) {
	if _, ok := p[key]; !ok {
		return def, nil
	}

	num, ok := p.Float64(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %T", ErrPropType, key, p[key])
	}

	return num, nil
}

// Decode copies props into a struct using mapstructure tags. Values are weakly
// typed, so "20" decodes into a numeric field.
func (p Props) Decode(into any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           into,
		WeaklyTypedInput: true,
		TagName:          "props",
	})
	if err != nil {
		return fmt.Errorf("failed to create props decoder: %w", err)
	}

	err = decoder.Decode(map[string]any(p))
	if err != nil {
		return fmt.Errorf("failed to decode props: %w", err)
	}

	return nil
}
