// internal/rules/result.go
package rules

import (
	"encoding/json"

	"github.com/solatis/checkpoint/internal/types"
)

// Result is the immutable outcome of one Validate call. A field appears in
// Errors or in Validated, never both.
type Result struct {
	runID     types.RunID
	errors    map[string][]string
	validated map[string]any
}

func newResult(runID types.RunID, errs map[string][]string, validated map[string]any) *Result {
	out := make(map[string]any, len(validated))
	for k, v := range validated {
		out[k] = v
	}
	return &Result{runID: runID, errors: copyErrors(errs), validated: out}
}

// RunID identifies the Validate call that produced the result.
func (r *Result) RunID() types.RunID { return r.runID }

// Passes reports whether no field failed.
func (r *Result) Passes() bool { return len(r.errors) == 0 }

// Fails reports whether any field failed.
func (r *Result) Fails() bool { return !r.Passes() }

// Errors returns a copy of the field -> messages map.
func (r *Result) Errors() map[string][]string { return copyErrors(r.errors) }

// FieldErrors returns the messages recorded for field.
func (r *Result) FieldErrors(field string) []string {
	msgs := r.errors[field]
	if len(msgs) == 0 {
		return nil
	}
	out := make([]string, len(msgs))
	copy(out, msgs)
	return out
}

// Has reports whether field has errors.
func (r *Result) Has(field string) bool { return len(r.errors[field]) > 0 }

// First returns the first message for field, or "".
func (r *Result) First(field string) string {
	if msgs := r.errors[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// FirstError returns the first failing field in key order and its first message.
func (r *Result) FirstError() (field, message string) {
	for _, f := range sortedKeys(r.errors) {
		if msgs := r.errors[f]; len(msgs) > 0 {
			return f, msgs[0]
		}
	}
	return "", ""
}

// ErrorCount returns the total number of messages.
func (r *Result) ErrorCount() int {
	n := 0
	for _, msgs := range r.errors {
		n += len(msgs)
	}
	return n
}

// Validated returns a copy of the validated subset of the input.
func (r *Result) Validated() map[string]any {
	out := make(map[string]any, len(r.validated))
	for k, v := range r.validated {
		out[k] = v
	}
	return out
}

// Only projects the validated map onto fields.
func (r *Result) Only(fields ...string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := r.validated[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Except returns the validated map without fields.
func (r *Result) Except(fields ...string) map[string]any {
	drop := make(map[string]bool, len(fields))
	for _, f := range fields {
		drop[f] = true
	}
	out := make(map[string]any, len(r.validated))
	for k, v := range r.validated {
		if !drop[k] {
			out[k] = v
		}
	}
	return out
}

// OnPass calls fn when the result passed. Returns r for chaining.
func (r *Result) OnPass(fn func(*Result)) *Result {
	if r.Passes() && fn != nil {
		fn(r)
	}
	return r
}

// OnFail calls fn when the result failed. Returns r for chaining.
func (r *Result) OnFail(fn func(*Result)) *Result {
	if r.Fails() && fn != nil {
		fn(r)
	}
	return r
}

type resultJSON struct {
	RunID     string              `json:"run_id"`
	Passed    bool                `json:"passed"`
	Errors    map[string][]string `json:"errors"`
	Validated map[string]any      `json:"validated"`
}

// MarshalJSON renders the result as {run_id, passed, errors, validated}.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		RunID:     string(r.runID),
		Passed:    r.Passes(),
		Errors:    r.errors,
		Validated: r.validated,
	})
}
