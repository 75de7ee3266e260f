package toolexecutor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args holds validated arguments. Values are already coerced to the Go type
// of their parameter: string, int or bool. Optional strings that were not
// given are absent.
type Args map[string]interface{}

// String returns a string argument, or "" when absent
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns an integer argument, or 0 when absent
func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

// Bool returns a boolean argument, or false when absent
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// OptString returns an optional string argument and whether it was set
func (a Args) OptString(name string) (string, bool) {
	s, ok := a[name].(string)
	return s, ok
}

// Clone returns a shallow copy; values are immutable scalars
func (a Args) Clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// coerce converts a raw model-supplied value to the Go type of its parameter.
// The caller handles absent (nil) values.
func coerce(p ToolParameter, raw interface{}) (interface{}, error) {
	var (
		value interface{}
		err   error
	)

	switch p.Type {
	case TypeString, TypeOptionalString:
		value, err = coerceString(raw)
	case TypeInteger:
		value, err = coerceInt(raw)
	case TypeBoolean:
		value, err = coerceBool(raw)
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", p.Type)
	}
	if err != nil {
		return nil, err
	}

	if len(p.Enum) > 0 && !inEnum(p.Enum, value) {
		return nil, fmt.Errorf("value %v is not one of %v", value, p.Enum)
	}
	return value, nil
}

func coerceString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", raw)
	}
}

func coerceInt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return intFromFloat(float64(v), raw)
	case float32:
		return intFromFloat(float64(v), raw)
	case float64:
		return intFromFloat(v, raw)
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to integer", v.String())
		}
		return n, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to integer", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", raw)
	}
}

func intFromFloat(f float64, raw interface{}) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, fmt.Errorf("cannot convert %v to integer", raw)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("integer %v out of range", raw)
	}
	return int(f), nil
}

func coerceBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("cannot convert %q to boolean", v)
	default:
		return false, fmt.Errorf("cannot convert %T to boolean", raw)
	}
}

func inEnum(enum []interface{}, value interface{}) bool {
	for _, e := range enum {
		if e == value {
			return true
		}
	}
	return false
}
