// Package evaluator implements the builtin temporal predicates: weekdays,
// months of year, blackout dates, time of day, date ranges, a recurrence
// subset, and the inventory gate.
//
// Rule configs come from untyped storage, so every evaluator is total with
// respect to malformed input: wrong types, unparseable strings, and
// out-of-range values make the predicate return false, never fail.
package evaluator

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// intValue coerces a config value to an int. Numeric strings are accepted;
// floats are accepted when they carry no fractional part.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return intFromFloat(float64(n))
	case float64:
		return intFromFloat(n)
	case json.Number:
		return intFromString(n.String())
	case string:
		return intFromString(n)
	default:
		return 0, false
	}
}

func intFromFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func intFromString(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// floatValue coerces a config value to a float64. Numeric strings are
// accepted.
func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// stringValue coerces a config value to a string. Only real strings qualify.
func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// sequence coerces a config value to a []any. Stores that round-trip through
// JSON or YAML hand back []any; anything else is treated as absent.
func sequence(v any) []any {
	s, _ := v.([]any)
	return s
}

// intSet collects the integer entries of a sequence, dropping non-numeric
// values and collapsing duplicates. keep filters entries; pass nil to accept
// everything.
func intSet(v any, keep func(int) bool) map[int]struct{} {
	items := sequence(v)
	if len(items) == 0 {
		return nil
	}
	set := make(map[int]struct{}, len(items))
	for _, item := range items {
		n, ok := intValue(item)
		if !ok {
			continue
		}
		if keep != nil && !keep(n) {
			continue
		}
		set[n] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}
