package visibility

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// String coerces a value to text the way loosely typed form values are
// compared: nil is empty, numbers drop trailing zeros, lists join with ",".
func String(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = String(item)
		}
		return strings.Join(parts, ",")
	}
	if n, ok := numeric(value); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}

// Number coerces a value to a float64. Missing or non-numeric values yield
// NaN so every ordered comparison against them is false. Blank strings and
// false are zero, true is one.
func Number(value any) float64 {
	switch v := value.(type) {
	case nil:
		return math.NaN()
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	}
	if n, ok := numeric(value); ok {
		return n
	}
	return math.NaN()
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
