package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ToFloat64 converts numeric values and numeric strings to float64.
// The second return value is false when the value is not a number.
func ToFloat64(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint8:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToString converts various types to string.
// Nil yields an empty string.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToMap returns val as a string-keyed map.
// Decoders disagree on map key types (YAML may produce map[any]any),
// so keys are stringified.
func ToMap(val any) (map[string]any, bool) {
	switch v := val.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[ToString(k)] = item
		}
		return out, true
	default:
		return nil, false
	}
}

// ToSlice returns val as a slice of untyped values.
// TOML arrays of tables decode as []map[string]any and are widened here.
func ToSlice(val any) ([]any, bool) {
	switch v := val.(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out, true
	default:
		return nil, false
	}
}
