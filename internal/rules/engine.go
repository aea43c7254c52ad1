// internal/rules/engine.go
package rules

import "go.uber.org/zap"

// Engine bundles what every validator of a service shares: the rule
// registry, the lookup provider, the logger and default options.
type Engine struct {
	registry *Registry
	provider LookupProvider
	logger   *zap.Logger
	defaults []Option
}

// NewEngine creates an engine. A nil registry means the built-in rules; a
// nil provider leaves lookup rules unverified.
func NewEngine(reg *Registry, provider LookupProvider, logger *zap.Logger, defaults ...Option) *Engine {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{registry: reg, provider: provider, logger: logger, defaults: defaults}
}

// Registry returns the engine's rule registry for custom registrations.
func (e *Engine) Registry() *Registry { return e.registry }

// Compile compiles specs against the engine's registry.
func (e *Engine) Compile(specs map[string]Spec) (*Schema, error) {
	return Compile(specs, e.registry)
}

// NewValidator creates a validator wired to the engine's provider and
// logger. opts are applied after the engine defaults.
func (e *Engine) NewValidator(schema *Schema, opts ...Option) *Validator {
	all := make([]Option, 0, len(e.defaults)+len(opts)+2)
	all = append(all, WithProvider(e.provider), WithLogger(e.logger))
	all = append(all, e.defaults...)
	all = append(all, opts...)
	return NewValidator(schema, all...)
}
