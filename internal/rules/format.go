// internal/rules/format.go
package rules

import (
	"github.com/go-playground/validator/v10"
)

/*
 * Format rules backed by go-playground/validator tags.
 *
 * The validator.Validate instance is safe for concurrent use and caches its
 * parsed tags, so one shared instance serves every compiled schema.
 * Non-string values fail format rules; formats describe text.
 */

var formatValidate = validator.New()

type formatSpec struct {
	name   string
	tag    string
	cost   int
	format string
}

var formatSpecs = []formatSpec{
	{"email", "email", CostFormat, "The %s must be a valid email address."},
	{"url", "url", CostFormat, "The %s format is invalid."},
	{"uuid", "uuid", CostFormat, "The %s must be a valid UUID."},
	{"alpha", "alpha", CostFormat, "The %s may only contain letters."},
	{"alpha_num", "alphanum", CostFormat, "The %s may only contain letters and numbers."},
	{"ascii", "ascii", CostFormat, "The %s may only contain ASCII characters."},
	{"lowercase", "lowercase", CostFormat, "The %s must be lowercase."},
	{"uppercase", "uppercase", CostFormat, "The %s must be uppercase."},
	{"hex", "hexadecimal", CostFormat, "The %s must be a hexadecimal string."},
	{"ip", "ip", CostFormatNet, "The %s must be a valid IP address."},
	{"ipv4", "ipv4", CostFormatNet, "The %s must be a valid IPv4 address."},
	{"ipv6", "ipv6", CostFormatNet, "The %s must be a valid IPv6 address."},
	{"json", "json", CostFormatNet, "The %s must be a valid JSON string."},
}

func registerFormats(r *Registry) {
	for _, spec := range formatSpecs {
		r.mustRegister(spec.name, noParams(func() Rule {
			return newFormatRule(spec)
		}))
	}
}

func newFormatRule(spec formatSpec) Rule {
	tag := spec.tag
	return &predicateRule{
		name: spec.name, cost: spec.cost,
		check: func(v any, _ string, _ map[string]any) bool {
			s, ok := v.(string)
			if !ok {
				return false
			}
			return formatValidate.Var(s, tag) == nil
		},
		message: messagef(spec.format),
	}
}
