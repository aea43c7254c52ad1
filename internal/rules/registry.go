// internal/rules/registry.go
package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

/*
 * Rule registry: name -> factory.
 *
 * The compiler resolves every named token through a Registry. Factories
 * receive parameters already cast by castParam. Set-style rules (in, not_in,
 * starts_with, ...) are registered with RegisterSet and receive their whole
 * parameter list as a single []any argument instead of positionally.
 *
 * A Registry is populated before compilation and only read afterwards; the
 * mutex exists so custom registration from init code and compilation in
 * another goroutine cannot race.
 */

// Factory constructs a rule from cast parameters.
type Factory func(params []any) (Rule, error)

type registration struct {
	factory Factory
	collect bool // pass all params as one []any
}

// Registry maps rule names to factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// DefaultRegistry returns a registry holding every built-in rule.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	registerFormats(r)
	registerLookups(r)
	registerExpressions(r)
	return r
}

// Register adds or replaces a positional-parameter rule.
func (r *Registry) Register(name string, factory Factory) error {
	return r.add(name, registration{factory: factory})
}

// RegisterSet adds or replaces a rule that receives its parameters as one collection.
func (r *Registry) RegisterSet(name string, factory Factory) error {
	return r.add(name, registration{factory: factory, collect: true})
}

func (r *Registry) add(name string, reg registration) error {
	if name == "" || strings.ContainsAny(name, "|:, ") {
		return fmt.Errorf("%w: %q", ErrInvalidRuleName, name)
	}
	if reg.factory == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrInvalidRuleName, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = reg
	return nil
}

// mustRegister is used for built-ins whose names are known to be valid.
func (r *Registry) mustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

func (r *Registry) mustRegisterSet(name string, factory Factory) {
	if err := r.RegisterSet(name, factory); err != nil {
		panic(err)
	}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns registered rule names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// build instantiates a rule. found is false for unknown names.
func (r *Registry) build(name string, params []any) (rule Rule, found bool, err error) {
	r.mu.RLock()
	reg, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if reg.collect {
		params = []any{params}
	}
	rule, err = reg.factory(params)
	return rule, true, err
}

// Parameter helpers for factories. Errors wrap ErrInvalidParameters; the
// compiler adds field and rule context.

func paramErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameters, fmt.Sprintf(format, args...))
}

func wantParams(params []any, n int) error {
	if len(params) != n {
		return paramErrorf("expected %d parameter(s), got %d", n, len(params))
	}
	return nil
}

func numberParam(params []any, i int) (float64, error) {
	if i >= len(params) {
		return 0, paramErrorf("missing parameter %d", i+1)
	}
	f, ok := toFloat64(params[i])
	if !ok {
		return 0, paramErrorf("parameter %d must be a number, got %v", i+1, params[i])
	}
	return f, nil
}

func stringParam(params []any, i int) (string, error) {
	if i >= len(params) {
		return "", paramErrorf("missing parameter %d", i+1)
	}
	if params[i] == nil {
		return "", paramErrorf("parameter %d must not be empty", i+1)
	}
	return textValue(params[i]), nil
}

// setParam unpacks the single collection argument passed to set rules.
func setParam(params []any) ([]any, error) {
	if len(params) != 1 {
		return nil, paramErrorf("expected a single collection argument")
	}
	set, ok := params[0].([]any)
	if !ok {
		return nil, paramErrorf("expected a collection, got %T", params[0])
	}
	if len(set) == 0 {
		return nil, paramErrorf("at least one value is required")
	}
	return set, nil
}
