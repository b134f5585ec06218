package viz

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number coerces v to a float64. Numeric strings are accepted, as are all
// Go integer and float kinds and json.Number. NaN is rejected.
func Number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = n
	case interface{ Float64() float64 }:
		f = x.Float64()
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// NumberOr returns Number(v), or def when v is not numeric.
func NumberOr(v any, def float64) float64 {
	if f, ok := Number(v); ok {
		return f
	}
	return def
}

// IsNumeric reports whether v holds a number proper. Numeric strings do not
// count: a column of "2024" labels is a category, not a metric.
func IsNumeric(v any) bool {
	if _, ok := v.(string); ok {
		return false
	}
	if _, ok := v.(bool); ok {
		return false
	}
	_, ok := Number(v)
	return ok
}

// Text renders a scalar for use as a label. Nil becomes the empty string.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	if f, ok := Number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
