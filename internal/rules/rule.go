// internal/rules/rule.go
package rules

/*
 * Rule capability contract.
 *
 * A Rule is an immutable predicate with a static cost and a message
 * generator. Rules are built once at schema-compile time (from a registry
 * name plus cast parameters, or supplied directly as objects) and are never
 * mutated afterwards, so a compiled schema can be shared across goroutines.
 *
 * Optional capabilities are discovered with type assertions at compile time
 * only, never on the validation hot path:
 *   - Named: stable rule name for statistics
 *   - PresenceRule: clears a node's optional flag
 *   - LookupRule: expensive rule resolved by the Batch Executor
 */

// Rule is a unit of validation logic applied to one field's value.
type Rule interface {
	// Cost is a static property of the rule kind; it must not depend on data.
	Cost() int
	// Passes reports whether value satisfies the rule. record is the whole
	// (possibly flattened) input and must be treated as read-only.
	Passes(value any, field string, record map[string]any) bool
	// Message renders the failure message for the given display name.
	Message(field string) string
}

// Named is implemented by rules that report a stable name.
type Named interface {
	Name() string
}

// PresenceRule is implemented by "required"-class rules. A node holding a
// rule that requires presence is never optional.
type PresenceRule interface {
	RequiresPresence() bool
}

// numericTyped is implemented by rules that declare the value a number.
type numericTyped interface {
	numericType() bool
}

// sizeMeasured is implemented by size rules; measuringNumbers returns a copy
// that measures numeric strings by value.
type sizeMeasured interface {
	measuringNumbers() Rule
}

// ruleName returns the registry name of a rule, or its Go type for inline rules.
func ruleName(r Rule) string {
	if n, ok := r.(Named); ok {
		return n.Name()
	}
	return typeName(r)
}

// requiresPresence reports whether r is a presence-required rule.
func requiresPresence(r Rule) bool {
	p, ok := r.(PresenceRule)
	return ok && p.RequiresPresence()
}

// predicateRule is the shared shape of built-in and inline Go rules:
// a closure check plus a closure message.
type predicateRule struct {
	name     string
	cost     int
	presence bool
	numeric  bool
	check    func(value any, field string, record map[string]any) bool
	message  func(field string) string
}

// Func builds an inline rule from a Go predicate. Use it for checks that
// cannot be expressed in the pipe syntax; collaborators the predicate needs
// should be captured by the closure rather than looked up globally.
func Func(cost int, name string, check func(value any, field string, record map[string]any) bool, message func(field string) string) Rule {
	return &predicateRule{name: name, cost: cost, check: check, message: message}
}

func (r *predicateRule) Cost() int              { return r.cost }
func (r *predicateRule) Name() string           { return r.name }
func (r *predicateRule) RequiresPresence() bool { return r.presence }
func (r *predicateRule) numericType() bool      { return r.numeric }

func (r *predicateRule) Passes(value any, field string, record map[string]any) bool {
	return r.check(value, field, record)
}

func (r *predicateRule) Message(field string) string {
	if r.message == nil {
		return "The " + field + " field is invalid."
	}
	return r.message(field)
}
