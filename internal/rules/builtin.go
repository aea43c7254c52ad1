// internal/rules/builtin.go
package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

/*
 * Built-in rules.
 *
 * Each rule is a predicateRule: a closure check plus a closure message. The
 * set is representative rather than exhaustive; callers add their own through
 * Registry.Register or pass inline rules built with Func / NewExpression.
 *
 * Messages follow "The <field> ..." with the display name substituted by the
 * validator (alias or humanized key).
 */

func registerBuiltins(r *Registry) {
	// presence and markers
	r.mustRegister("required", noParams(func() Rule {
		return &predicateRule{
			name: "required", cost: CostPresence, presence: true,
			check:   func(v any, _ string, _ map[string]any) bool { return !isEmpty(v) },
			message: messagef("The %s field is required."),
		}
	}))
	r.mustRegister("bail", noParams(func() Rule {
		return &predicateRule{
			name: "bail", cost: CostBail,
			check: func(any, string, map[string]any) bool { return true },
		}
	}))

	// types
	r.mustRegister("string", typeRule("string", isString, "The %s must be a string."))
	r.mustRegister("integer", typeRule("integer", isInteger, "The %s must be an integer."))
	r.mustRegister("numeric", typeRule("numeric", isNumeric, "The %s must be a number."))
	r.mustRegister("boolean", typeRule("boolean", isBoolean, "The %s field must be true or false."))
	r.mustRegister("array", typeRule("array", isCollection, "The %s must be an array."))

	// size
	r.mustRegister("min", sizeRule("min", func(s, n float64) bool { return s >= n }, "The %s must be at least %s."))
	r.mustRegister("max", sizeRule("max", func(s, n float64) bool { return s <= n }, "The %s may not be greater than %s."))
	r.mustRegister("size", sizeRule("size", func(s, n float64) bool { return s == n }, "The %s must be %s."))
	r.mustRegister("between", newBetween)

	// sets
	r.mustRegisterSet("in", setRule("in", CostSet, compareIn, false, "The selected %s is invalid."))
	r.mustRegisterSet("not_in", setRule("not_in", CostSet, compareIn, true, "The selected %s is invalid."))
	r.mustRegisterSet("starts_with", setRule("starts_with", CostAffix, hasAnyPrefix, false, "The %s must start with one of the following: %s."))
	r.mustRegisterSet("ends_with", setRule("ends_with", CostAffix, hasAnySuffix, false, "The %s must end with one of the following: %s."))

	// cross-field
	r.mustRegister("same", fieldRule("same", func(a, b any) bool { return compareEqual(a, b) }, "The %s and %s must match."))
	r.mustRegister("different", fieldRule("different", func(a, b any) bool { return !compareEqual(a, b) }, "The %s and %s must be different."))
	r.mustRegister("confirmed", noParams(func() Rule {
		return &predicateRule{
			name: "confirmed", cost: CostCompare,
			check: func(v any, field string, record map[string]any) bool {
				other, ok := record[field+"_confirmation"]
				return ok && compareEqual(v, other)
			},
			message: messagef("The %s confirmation does not match."),
		}
	}))
	r.mustRegister("gt", compareRule("gt", func(c int) bool { return c > 0 }, "The %s must be greater than %s."))
	r.mustRegister("gte", compareRule("gte", func(c int) bool { return c >= 0 }, "The %s must be greater than or equal to %s."))
	r.mustRegister("lt", compareRule("lt", func(c int) bool { return c < 0 }, "The %s must be less than %s."))
	r.mustRegister("lte", compareRule("lte", func(c int) bool { return c <= 0 }, "The %s must be less than or equal to %s."))

	// patterns
	r.mustRegister("alpha_dash", noParams(func() Rule {
		return patternRule("alpha_dash", CostPattern, alphaDash, false, "The %s may only contain letters, numbers, dashes and underscores.")
	}))
	r.mustRegister("regex", regexRule("regex", false))
	r.mustRegister("not_regex", regexRule("not_regex", true))

	// medium
	r.mustRegister("date", noParams(func() Rule {
		return &predicateRule{
			name: "date", cost: CostDate,
			check:   func(v any, _ string, _ map[string]any) bool { return isDate(v) },
			message: messagef("The %s is not a valid date."),
		}
	}))
}

var alphaDash = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)

// dateLayouts are tried in order by the date rule.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly}

func messagef(format string) func(string) string {
	return func(field string) string { return fmt.Sprintf(format, field) }
}

func noParams(build func() Rule) Factory {
	return func(params []any) (Rule, error) {
		if err := wantParams(params, 0); err != nil {
			return nil, err
		}
		return build(), nil
	}
}

func typeRule(name string, check func(any) bool, format string) Factory {
	return noParams(func() Rule {
		return &predicateRule{
			name: name, cost: CostType,
			numeric: name == "integer" || name == "numeric",
			check:   func(v any, _ string, _ map[string]any) bool { return check(v) },
			message: messagef(format),
		}
	})
}

// boundRule is a size check (min, max, size, between). Strings measure their
// rune count unless the field is typed numeric, in which case numeric strings
// such as form input "21" measure their value.
type boundRule struct {
	name    string
	accept  func(size float64) bool
	message func(field string) string
	numeric bool
}

func (r *boundRule) Cost() int    { return CostSize }
func (r *boundRule) Name() string { return r.name }

func (r *boundRule) Passes(v any, _ string, _ map[string]any) bool {
	s, ok := r.measure(v)
	return ok && r.accept(s)
}

func (r *boundRule) Message(field string) string { return r.message(field) }

func (r *boundRule) measure(v any) (float64, bool) {
	if r.numeric {
		if f, ok := numericValue(v); ok {
			return f, true
		}
	}
	return sizeOf(v)
}

func (r *boundRule) measuringNumbers() Rule {
	c := *r
	c.numeric = true
	return &c
}

func sizeRule(name string, cmp func(size, bound float64) bool, format string) Factory {
	return func(params []any) (Rule, error) {
		if err := wantParams(params, 1); err != nil {
			return nil, err
		}
		bound, err := numberParam(params, 0)
		if err != nil {
			return nil, err
		}
		shown := textValue(params[0])
		return &boundRule{
			name:    name,
			accept:  func(s float64) bool { return cmp(s, bound) },
			message: func(field string) string { return fmt.Sprintf(format, field, shown) },
		}, nil
	}
}

func newBetween(params []any) (Rule, error) {
	if err := wantParams(params, 2); err != nil {
		return nil, err
	}
	lo, err := numberParam(params, 0)
	if err != nil {
		return nil, err
	}
	hi, err := numberParam(params, 1)
	if err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, paramErrorf("lower bound %v exceeds upper bound %v", lo, hi)
	}
	loText, hiText := textValue(params[0]), textValue(params[1])
	return &boundRule{
		name:   "between",
		accept: func(s float64) bool { return s >= lo && s <= hi },
		message: func(field string) string {
			return fmt.Sprintf("The %s must be between %s and %s.", field, loText, hiText)
		},
	}, nil
}

func setRule(name string, cost int, member func(any, []any) bool, negate bool, format string) Factory {
	return func(params []any) (Rule, error) {
		set, err := setParam(params)
		if err != nil {
			return nil, err
		}
		shown := joinValues(set)
		return &predicateRule{
			name: name, cost: cost,
			check: func(v any, _ string, _ map[string]any) bool {
				if isCollection(v) {
					return false
				}
				return member(v, set) != negate
			},
			message: func(field string) string {
				if strings.Count(format, "%s") == 2 {
					return fmt.Sprintf(format, field, shown)
				}
				return fmt.Sprintf(format, field)
			},
		}, nil
	}
}

func fieldRule(name string, cmp func(a, b any) bool, format string) Factory {
	return func(params []any) (Rule, error) {
		if err := wantParams(params, 1); err != nil {
			return nil, err
		}
		other, err := stringParam(params, 0)
		if err != nil {
			return nil, err
		}
		return &predicateRule{
			name: name, cost: CostCompare,
			check: func(v any, _ string, record map[string]any) bool {
				return cmp(v, record[other])
			},
			message: func(field string) string { return fmt.Sprintf(format, field, other) },
		}, nil
	}
}

// compareRule compares against a literal number or, for string parameters,
// against the value of another field.
func compareRule(name string, accept func(int) bool, format string) Factory {
	return func(params []any) (Rule, error) {
		if err := wantParams(params, 1); err != nil {
			return nil, err
		}
		if params[0] == nil {
			return nil, paramErrorf("parameter 1 must not be empty")
		}
		target := params[0]
		_, literal := toFloat64(target)
		otherField := textValue(target)
		return &predicateRule{
			name: name, cost: CostCompare,
			check: func(v any, _ string, record map[string]any) bool {
				bound := target
				if !literal {
					bound = record[otherField]
				}
				c, ok := compareNumeric(v, bound)
				return ok && accept(c)
			},
			message: func(field string) string { return fmt.Sprintf(format, field, otherField) },
		}, nil
	}
}

func patternRule(name string, cost int, re *regexp.Regexp, negate bool, format string) Rule {
	return &predicateRule{
		name: name, cost: cost,
		check: func(v any, _ string, _ map[string]any) bool {
			s, ok := v.(string)
			if !ok {
				if _, num := toFloat64(v); !num {
					return false
				}
				s = textValue(v)
			}
			return re.MatchString(s) != negate
		},
		message: messagef(format),
	}
}

func regexRule(name string, negate bool) Factory {
	return func(params []any) (Rule, error) {
		if err := wantParams(params, 1); err != nil {
			return nil, err
		}
		pattern, err := stringParam(params, 0)
		if err != nil {
			return nil, err
		}
		// Accept delimited patterns such as /^[a-z]+$/i.
		if len(pattern) >= 2 && pattern[0] == '/' {
			if end := strings.LastIndex(pattern, "/"); end > 0 {
				flags := pattern[end+1:]
				pattern = pattern[1:end]
				if strings.Contains(flags, "i") {
					pattern = "(?i)" + pattern
				}
			}
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, paramErrorf("invalid pattern: %v", err)
		}
		return patternRule(name, CostRegex, re, negate, "The %s format is invalid."), nil
	}
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isInteger(v any) bool {
	if s, ok := v.(string); ok {
		_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return err == nil
	}
	if n, ok := v.(json.Number); ok {
		_, err := n.Int64()
		return err == nil
	}
	f, ok := toFloat64(v)
	return ok && f == math.Trunc(f) && !math.IsInf(f, 0)
}

func isNumeric(v any) bool {
	_, ok := numericValue(v)
	return ok
}

func isBoolean(v any) bool {
	switch t := v.(type) {
	case bool:
		return true
	case string:
		switch t {
		case "0", "1", "true", "false":
			return true
		}
		return false
	}
	f, ok := toFloat64(v)
	return ok && (f == 0 || f == 1)
}

func isDate(v any) bool {
	s, ok := v.(string)
	if !ok {
		_, ok := v.(time.Time)
		return ok
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func joinValues(set []any) string {
	parts := make([]string, len(set))
	for i, v := range set {
		parts[i] = textValue(v)
	}
	return strings.Join(parts, ", ")
}
