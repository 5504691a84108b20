package kinetic

import (
	"strconv"
)

// Num coerces a property value to float64. JSON round-trips turn numbers
// into float64, so this is the lingua franca for numeric properties.
// Unconvertible values yield 0.
func Num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Str coerces a property value to string.
func Str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// Bool coerces a property value to bool. Numbers are true when non-zero,
// strings when non-empty, nil is false.
func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return false
	case float64:
		return b != 0
	case int:
		return b != 0
	case string:
		return b != ""
	default:
		return true
	}
}
