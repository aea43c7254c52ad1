// internal/rules/context.go
package rules

/*
 * Per-call validation state.
 *
 * A validationContext is created fresh for each Validate call and owned
 * exclusively by it, so the orchestrator needs no locking. visited keeps the
 * order fields were attempted in; the batch phase merges its findings in
 * that order.
 */

// PendingCheck is one expensive rule deferred to the batch phase.
type PendingCheck struct {
	Rule    Rule
	Value   any
	Field   string         // concrete key, wildcards expanded
	Display string         // name used in messages
	Record  map[string]any // record the field was read from
}

type validationContext struct {
	record    map[string]any
	errors    map[string][]string
	validated map[string]any
	pending   []PendingCheck
	visited   []string
}

func newValidationContext(record map[string]any) *validationContext {
	return &validationContext{
		record:    record,
		errors:    make(map[string][]string),
		validated: make(map[string]any),
	}
}

func (c *validationContext) addError(field, message string) {
	c.errors[field] = append(c.errors[field], message)
}

func (c *validationContext) queue(check PendingCheck) {
	c.pending = append(c.pending, check)
}

func (c *validationContext) markValidated(field string, value any) {
	c.validated[field] = value
}

// reject moves a provisionally validated field to the failed side.
func (c *validationContext) reject(field string, messages []string) {
	delete(c.validated, field)
	c.errors[field] = append(c.errors[field], messages...)
}

func (c *validationContext) hasLookups() bool {
	for _, check := range c.pending {
		if _, ok := check.Rule.(LookupRule); ok {
			return true
		}
	}
	return false
}
