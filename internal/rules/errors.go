// internal/rules/errors.go
package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for compilation and validation.
var (
	// ErrUnknownRule indicates a rule name with no registered factory.
	ErrUnknownRule = errors.New("unknown rule")

	// ErrInvalidParameters indicates wrong parameter arity or type.
	ErrInvalidParameters = errors.New("invalid rule parameters")

	// ErrEmptySpec indicates a field whose specification yields no rules.
	ErrEmptySpec = errors.New("empty rule specification")

	// ErrMalformedSpec indicates a token that is neither a rule name nor a Rule.
	ErrMalformedSpec = errors.New("malformed rule specification")

	// ErrInvalidRuleName indicates a registration under an unusable name.
	ErrInvalidRuleName = errors.New("invalid rule name")

	// ErrValidationFailed is wrapped by ValidationError in throw-on-failure mode.
	ErrValidationFailed = errors.New("validation failed")

	// ErrProviderMissing indicates lookup rules ran without a provider under strict lookups.
	ErrProviderMissing = errors.New("lookup rules require a lookup provider")

	// ErrLookupFailed wraps provider errors raised during the batch phase.
	ErrLookupFailed = errors.New("lookup failed")
)

// UnknownRuleError names the field and rule that could not be resolved.
type UnknownRuleError struct {
	Field string
	Rule  string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("field %q: unknown rule %q", e.Field, e.Rule)
}

func (e *UnknownRuleError) Unwrap() error { return ErrUnknownRule }

// InvalidRuleParametersError names the field and rule whose parameters were rejected.
type InvalidRuleParametersError struct {
	Field string
	Rule  string
	Err   error
}

func (e *InvalidRuleParametersError) Error() string {
	return fmt.Sprintf("field %q: rule %q: %v", e.Field, e.Rule, e.Err)
}

func (e *InvalidRuleParametersError) Unwrap() error { return e.Err }

// ValidationError carries the structured error map of a failed validation.
// Returned only when the validator runs in throw-on-failure mode.
type ValidationError struct {
	errors map[string][]string
}

func newValidationError(errs map[string][]string) *ValidationError {
	return &ValidationError{errors: copyErrors(errs)}
}

func (e *ValidationError) Error() string {
	fields := sortedKeys(e.errors)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.errors[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// Errors returns a copy of the field -> messages map.
func (e *ValidationError) Errors() map[string][]string { return copyErrors(e.errors) }

// ErrorCount returns the total number of messages across fields.
func (e *ValidationError) ErrorCount() int {
	n := 0
	for _, msgs := range e.errors {
		n += len(msgs)
	}
	return n
}

// First returns the first message recorded for field, or "".
func (e *ValidationError) First(field string) string {
	if msgs := e.errors[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func copyErrors(errs map[string][]string) map[string][]string {
	out := make(map[string][]string, len(errs))
	for k, v := range errs {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
