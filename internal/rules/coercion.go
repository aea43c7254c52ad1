// internal/rules/coercion.go
package rules

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

/*
 * Value and parameter coercion.
 *
 * Two directions:
 *   - castParam turns raw rule parameters ("18", "true", "null", "1.5") into
 *     typed values at compile time. Only unambiguous spellings are cast;
 *     anything else stays a string.
 *   - numeric/text helpers normalize input values for comparison. Input may
 *     come from encoding/json (float64, json.Number) or from Go callers (int,
 *     int64, uint8...), so numeric handling goes through reflect kinds.
 *
 * Null vs empty: nil, blank strings and zero-length collections are all
 * "empty" for optional-field skipping, but only nil is "null".
 */

// castParam converts one raw rule parameter to int, float64, bool or nil
// when the string unambiguously spells that type.
func castParam(raw string) any {
	switch raw {
	case "", "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if looksNumeric(raw) {
		if strings.Contains(raw, ".") {
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				return f
			}
		} else if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return raw
}

// looksNumeric accepts an optional sign, digits and at most one decimal point.
// Rejects forms ParseFloat would accept but users would not expect to be
// numbers ("1e5", "Inf", "0x10").
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// castParams casts every raw parameter in order.
func castParams(raw []string) []any {
	out := make([]any, len(raw))
	for i, p := range raw {
		out[i] = castParam(p)
	}
	return out
}

// toFloat64 converts native numeric values to float64.
// Strings are not numbers here; use numericValue for lenient parsing.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case nil:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// numericValue converts numbers and numeric strings to float64.
// Whitespace is trimmed; whitespace-only strings are not numbers.
func numericValue(v any) (float64, bool) {
	if f, ok := toFloat64(v); ok {
		return f, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if !looksNumeric(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// textValue renders scalars as strings for text comparison.
func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []byte:
		return string(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// isEmpty reports nil, blank strings and zero-length collections.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// sizeOf returns the measurable size used by min/max/between/size:
// the value itself for numbers, rune count for strings, length for collections.
func sizeOf(v any) (float64, bool) {
	if f, ok := toFloat64(v); ok {
		return f, true
	}
	switch t := v.(type) {
	case string:
		return float64(utf8.RuneCountInString(t)), true
	case []any:
		return float64(len(t)), true
	case map[string]any:
		return float64(len(t)), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return float64(rv.Len()), true
	default:
		return 0, false
	}
}

// isCollection reports slices, arrays and maps.
func isCollection(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	default:
		return false
	}
}

// typeName renders the dynamic type of an inline rule for statistics.
func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
