// internal/rules/validator.go
package rules

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/solatis/checkpoint/internal/types"
)

/*
 * Validation orchestrator.
 *
 * Per Validate call:
 *   1. Init a fresh validationContext (and flatten once in nested mode)
 *   2. Walk schema fields in key order, expanding wildcard keys against the
 *      input. A concrete key reached by several patterns is visited once
 *      with their rules merged. For each concrete key:
 *        a. optional + empty value: skip (neither erred nor validated)
 *        b. cheap tier; fail-fast stops the field at its first failure
 *        c. medium tier, only when cheap recorded nothing
 *        d. no error: queue expensive rules and provisionally validate
 *        e. error + stop-on-first-error: abort the walk
 *   3. Unless the walk aborted, run the Batch Executor once over the queue;
 *      fields failing there leave the validated map
 *   4. Assemble the Result
 *
 * Fail-fast bounds errors per field; stop-on-first-error bounds failing
 * fields per call. The two are independent.
 *
 * Values absent from the record are nil, so required fields fail on {}.
 * Record keys without a schema field are ignored.
 */

// Validator runs one compiled schema against records. Safe for concurrent use.
type Validator struct {
	schema           *Schema
	failFast         bool
	stopOnFirstError bool
	nested           bool
	throwOnFailure   bool
	strictLookups    bool
	provider         LookupProvider
	aliases          *Aliases
	logger           *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithFailFast stops a field's rule chain at its first failure. Default true.
func WithFailFast(on bool) Option {
	return func(v *Validator) { v.failFast = on }
}

// WithStopOnFirstError aborts the record at the first failing field. Default false.
// An aborted walk skips the batch phase: fields that passed their inline
// tiers stay in Validated() although their unique/exists checks never ran,
// so callers must not treat Validated() of a failed, aborted run as verified.
func WithStopOnFirstError(on bool) Option {
	return func(v *Validator) { v.stopOnFirstError = on }
}

// WithNested flattens nested input so dotted schema keys address it.
func WithNested(on bool) Option {
	return func(v *Validator) { v.nested = on }
}

// WithProvider sets the lookup provider for unique/exists rules.
func WithProvider(p LookupProvider) Option {
	return func(v *Validator) { v.provider = p }
}

// WithAliases sets display names for messages.
func WithAliases(a *Aliases) Option {
	return func(v *Validator) { v.aliases = a }
}

// WithThrowOnFailure makes Validate return a *ValidationError alongside a
// failing Result.
func WithThrowOnFailure(on bool) Option {
	return func(v *Validator) { v.throwOnFailure = on }
}

// WithStrictLookups makes Validate fail with ErrProviderMissing when lookup
// rules are queued and no provider is set. Without it they are skipped.
func WithStrictLookups(on bool) Option {
	return func(v *Validator) { v.strictLookups = on }
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewValidator creates a validator for schema.
func NewValidator(schema *Schema, opts ...Option) *Validator {
	v := &Validator{
		schema:   schema,
		failFast: true,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Schema returns the compiled schema the validator runs.
func (v *Validator) Schema() *Schema { return v.schema }

// Validate checks record against the schema. The error is non-nil for
// provider failures, unusable input, a missing provider under strict
// lookups, and (with WithThrowOnFailure) failing records, in which case the
// Result is returned too.
func (v *Validator) Validate(ctx context.Context, record map[string]any) (*Result, error) {
	start := time.Now()
	runID := types.NewRunID()
	logger := v.logger.With(zap.String("run_id", string(runID)))

	if record == nil {
		record = map[string]any{}
	}
	data := record
	if v.nested {
		flat, err := Flatten(record)
		if err != nil {
			return nil, err
		}
		data = flat
	}

	vc := newValidationContext(data)
	aborted := v.walk(vc, record)

	if !aborted && len(vc.pending) > 0 {
		if err := v.runBatch(ctx, vc, logger); err != nil {
			return nil, err
		}
	}

	result := newResult(runID, vc.errors, vc.validated)
	logger.Debug("validation complete",
		zap.Int("fields", len(vc.visited)),
		zap.Int("errors", result.ErrorCount()),
		zap.Int("deferred", len(vc.pending)),
		zap.Bool("aborted", aborted),
		zap.Duration("elapsed", time.Since(start)))

	if v.throwOnFailure && result.Fails() {
		return result, newValidationError(vc.errors)
	}
	return result, nil
}

// fieldVisit is one concrete key and every schema pattern resolving to it.
type fieldVisit struct {
	key      string
	patterns []string
	wildcard bool
}

// plan expands the schema against record. A concrete key matched by several
// patterns (items.*.price and items.0.price) is visited once, at its first
// appearance, with the rules of all of them.
func (v *Validator) plan(record map[string]any) []fieldVisit {
	var visits []fieldVisit
	index := make(map[string]int)
	for _, pattern := range v.schema.fields {
		wildcard := v.schema.IsWildcard(pattern)
		keys := []string{pattern}
		if wildcard {
			keys = ExpandWildcards(v.schema.Path(pattern), record)
		}
		for _, key := range keys {
			if i, ok := index[key]; ok {
				visits[i].patterns = append(visits[i].patterns, pattern)
				visits[i].wildcard = visits[i].wildcard || wildcard
				continue
			}
			index[key] = len(visits)
			visits = append(visits, fieldVisit{key: key, patterns: []string{pattern}, wildcard: wildcard})
		}
	}
	return visits
}

// walk runs the per-field pass. Returns true when stop-on-first-error aborted it.
func (v *Validator) walk(vc *validationContext, record map[string]any) bool {
	for _, fv := range v.plan(record) {
		value := v.valueOf(vc.record, record, fv.key, fv.wildcard)
		node := v.nodeFor(fv.patterns)
		display := v.displayName(fv.key, fv.patterns)
		if v.validateField(vc, fv.key, display, node, value) && v.stopOnFirstError {
			return true
		}
	}
	return false
}

// nodeFor returns the node of a single pattern, or a merged node holding the
// rules of every pattern in pattern order, re-sorted by cost.
func (v *Validator) nodeFor(patterns []string) *Node {
	if len(patterns) == 1 {
		return v.schema.nodes[patterns[0]]
	}
	merged := NewNode()
	for _, pattern := range patterns {
		node := v.schema.nodes[pattern]
		for _, tier := range []Tier{TierCheap, TierMedium, TierExpensive} {
			for _, r := range node.RulesByTier(tier) {
				merged.AddRule(r)
			}
		}
	}
	merged.SortRules()
	return merged
}

// displayName picks the alias of the concrete key, then of the first pattern
// carrying one, then the humanized key.
func (v *Validator) displayName(key string, patterns []string) string {
	pattern := patterns[0]
	if v.aliases != nil {
		for _, p := range patterns {
			if _, ok := v.aliases.Get(p); ok {
				pattern = p
				break
			}
		}
	}
	return v.aliases.Display(key, pattern)
}

// valueOf reads key from the (possibly flattened) data, falling back to a
// path walk over the original record for keys flattening kept inside a leaf.
func (v *Validator) valueOf(data, record map[string]any, key string, wildcard bool) any {
	if value, ok := data[key]; ok {
		return value
	}
	if v.nested || wildcard {
		value, _ := Extract(record, key)
		return value
	}
	return nil
}

// validateField runs the inline tiers for one concrete key. Returns true when
// the field recorded an error.
func (v *Validator) validateField(vc *validationContext, key, display string, node *Node, value any) bool {
	if node.IsOptional() && isEmpty(value) {
		return false
	}
	vc.visited = append(vc.visited, key)

	failed := false
	for _, tier := range []Tier{TierCheap, TierMedium} {
		for _, r := range node.RulesByTier(tier) {
			if r.Passes(value, key, vc.record) {
				continue
			}
			vc.addError(key, r.Message(display))
			failed = true
			if v.failFast {
				break
			}
		}
		if failed {
			return true
		}
	}

	for _, r := range node.RulesByTier(TierExpensive) {
		vc.queue(PendingCheck{Rule: r, Value: value, Field: key, Display: display, Record: vc.record})
	}
	vc.markValidated(key, value)
	return false
}

// runBatch resolves queued checks and merges failures in visit order.
func (v *Validator) runBatch(ctx context.Context, vc *validationContext, logger *zap.Logger) error {
	if v.provider == nil && vc.hasLookups() && v.strictLookups {
		return ErrProviderMissing
	}

	found := make(map[string][]string)
	executor := NewBatchExecutor(v.provider, logger)
	if err := executor.Execute(ctx, vc.pending, found); err != nil {
		return err
	}

	failedOne := false
	merged := make(map[string]bool, len(found))
	for _, key := range vc.visited {
		msgs, ok := found[key]
		if !ok || merged[key] {
			continue
		}
		merged[key] = true
		if v.stopOnFirstError && failedOne {
			// Not attempted: drop from validated without recording errors.
			delete(vc.validated, key)
			continue
		}
		if v.failFast {
			msgs = msgs[:1]
		}
		vc.reject(key, msgs)
		failedOne = true
	}
	return nil
}
