package profile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// missingTokens are compared against lower-cased, trimmed text.
var missingTokens = map[string]struct{}{
	"":     {},
	"null": {},
	"nan":  {},
	"n/a":  {},
	"na":   {},
	"none": {},
	"-":    {},
	"--":   {},
	"?":    {},
}

// Normalize folds a raw cell to nil (missing) or a defined value. Strings are
// trimmed; other kinds pass through unchanged.
func Normalize(v any) any {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	t := strings.TrimSpace(s)
	if _, missing := missingTokens[strings.ToLower(t)]; missing {
		return nil
	}
	return t
}

// Stringify renders a value the way it is counted in frequency maps and
// shown in issue examples.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64:
		return strconv.FormatInt(toInt64(x), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(toUint64(x), 10)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	}
	return 0
}

func toUint64(v any) uint64 {
	switch x := v.(type) {
	case uint:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	}
	return 0
}

// asFloat converts native numeric kinds.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8, int16, int32, int64:
		return float64(toInt64(x)), true
	case uint, uint8, uint16, uint32, uint64:
		return float64(toUint64(x)), true
	}
	return 0, false
}
