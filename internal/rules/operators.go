// internal/rules/operators.go
package rules

import (
	"strings"
)

/*
 * Comparison helpers shared by built-in rules.
 *
 * Numeric comparison handles float64/int/int64/json.Number mixing so that a
 * JSON-decoded 21 (float64) equals a cast rule parameter 21 (int).
 * Equality falls back to text comparison so that form input "1" is a member
 * of in:1,2,3 even though the parameters were cast to ints.
 */

// compareEqual performs equality comparison with numeric tolerance.
func compareEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isCollection(a) || isCollection(b) {
		return false
	}
	return textValue(a) == textValue(b)
}

// compareNumeric performs three-way numeric comparison (-1/0/1).
// ok is false for incomparable values.
func compareNumeric(a, b any) (int, bool) {
	na, nb, ok := asNumbers(a, b)
	if !ok {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	default:
		return 0, true
	}
}

// asNumbers converts both values to float64, accepting numeric strings.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := numericValue(a)
	nb, okb := numericValue(b)
	return na, nb, oka && okb
}

// compareIn checks if value equals any member of set.
func compareIn(value any, set []any) bool {
	for _, elem := range set {
		if compareEqual(value, elem) {
			return true
		}
	}
	return false
}

// hasAnyPrefix checks whether value starts with any of the prefixes.
// Non-string values never match.
func hasAnyPrefix(value any, prefixes []any) bool {
	vs, ok := value.(string)
	if !ok {
		return false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(vs, textValue(p)) {
			return true
		}
	}
	return false
}

// hasAnySuffix checks whether value ends with any of the suffixes.
func hasAnySuffix(value any, suffixes []any) bool {
	vs, ok := value.(string)
	if !ok {
		return false
	}
	for _, s := range suffixes {
		if strings.HasSuffix(vs, textValue(s)) {
			return true
		}
	}
	return false
}
