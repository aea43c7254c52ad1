// internal/rules/batch.go
package rules

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

/*
 * Batch Executor for expensive rules.
 *
 * Execution workflow:
 *   1. Partition pending checks by (kind, table) in one pass; non-lookup
 *      expensive rules are evaluated inline as they are met
 *   2. Per group, collect the distinct (column, value) pairs and issue
 *      exactly one RunQuery
 *   3. Index returned rows by column:value
 *   4. Decide each check through the kind's policy and append the rule's
 *      message on failure
 *
 * Adding a lookup kind means adding one entry to lookupPolicies.
 *
 * Provider errors abort the batch and are returned wrapped in
 * ErrLookupFailed: a partial batch would silently mis-validate the other
 * fields of the same group.
 */

// lookupPolicy decides a check from the rows matching its column:value.
type lookupPolicy func(l Lookup, matches []Row) bool

var lookupPolicies = map[LookupKind]lookupPolicy{
	KindUnique: uniquePolicy,
	KindExists: existsPolicy,
}

// uniquePolicy fails on any matching row except the ignored one.
func uniquePolicy(l Lookup, matches []Row) bool {
	for _, row := range matches {
		if l.Ignore != nil && LookupKey(l.Ignore.Column, row[l.Ignore.Column]) == LookupKey(l.Ignore.Column, l.Ignore.Value) {
			continue
		}
		return false
	}
	return true
}

// existsPolicy passes iff a row matched.
func existsPolicy(_ Lookup, matches []Row) bool {
	return len(matches) > 0
}

// BatchExecutor resolves the expensive checks of one validate call.
type BatchExecutor struct {
	provider LookupProvider
	logger   *zap.Logger
}

// NewBatchExecutor creates an executor. A nil provider skips lookup checks;
// a nil logger discards logs.
func NewBatchExecutor(provider LookupProvider, logger *zap.Logger) *BatchExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchExecutor{provider: provider, logger: logger}
}

type groupKey struct {
	kind  LookupKind
	table string
}

type boundCheck struct {
	check  PendingCheck
	lookup Lookup
}

type lookupGroup struct {
	key    groupKey
	checks []boundCheck
}

// Execute runs checks and appends failure messages to errs under each
// check's field. Returns the first provider error, wrapped in ErrLookupFailed.
func (b *BatchExecutor) Execute(ctx context.Context, checks []PendingCheck, errs map[string][]string) error {
	groups, skipped := b.partition(checks, errs)
	if skipped > 0 {
		b.logger.Warn("lookup provider not configured, skipping lookup checks",
			zap.Int("skipped", skipped))
	}

	for _, g := range groups {
		if err := b.runGroup(ctx, g, errs); err != nil {
			return err
		}
	}
	return nil
}

// partition groups lookup checks by (kind, table) in first-seen order and
// evaluates every other check inline.
func (b *BatchExecutor) partition(checks []PendingCheck, errs map[string][]string) ([]*lookupGroup, int) {
	var groups []*lookupGroup
	index := make(map[groupKey]*lookupGroup)
	skipped := 0

	for _, check := range checks {
		lr, ok := check.Rule.(LookupRule)
		if !ok {
			if !check.Rule.Passes(check.Value, check.Field, check.Record) {
				errs[check.Field] = append(errs[check.Field], check.Rule.Message(check.Display))
			}
			continue
		}
		if b.provider == nil {
			skipped++
			continue
		}

		l := lr.Lookup(check.Field)
		key := groupKey{kind: l.Kind, table: l.Table}
		g, ok := index[key]
		if !ok {
			g = &lookupGroup{key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.checks = append(g.checks, boundCheck{check: check, lookup: l})
	}
	return groups, skipped
}

func (b *BatchExecutor) runGroup(ctx context.Context, g *lookupGroup, errs map[string][]string) error {
	policy, ok := lookupPolicies[g.key.kind]
	if !ok {
		return fmt.Errorf("%w: no policy for lookup kind %q", ErrLookupFailed, g.key.kind)
	}

	q := groupQuery(g)
	rows, err := b.provider.RunQuery(ctx, q)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrLookupFailed, g.key.kind, g.key.table, err)
	}
	b.logger.Debug("lookup batch",
		zap.String("kind", string(g.key.kind)),
		zap.String("table", g.key.table),
		zap.Int("checks", len(g.checks)),
		zap.Int("rows", len(rows)))

	index := IndexRows(rows, q.MatchColumns())
	for _, bc := range g.checks {
		matches := index[LookupKey(bc.lookup.Column, bc.check.Value)]
		if !policy(bc.lookup, matches) {
			field := bc.check.Field
			errs[field] = append(errs[field], bc.check.Rule.Message(bc.check.Display))
		}
	}
	return nil
}

// groupQuery builds one query covering every distinct (column, value) pair
// of the group, plus the columns ignore clauses compare against.
func groupQuery(g *lookupGroup) LookupQuery {
	q := LookupQuery{Table: g.key.table, Match: make(map[string][]any)}
	seen := make(map[string]bool)
	extra := make(map[string]bool)

	for _, bc := range g.checks {
		l := bc.lookup
		key := LookupKey(l.Column, bc.check.Value)
		if !seen[key] {
			seen[key] = true
			q.Match[l.Column] = append(q.Match[l.Column], bc.check.Value)
		}
		if l.Ignore != nil && !extra[l.Ignore.Column] {
			extra[l.Ignore.Column] = true
			q.Columns = append(q.Columns, l.Ignore.Column)
		}
	}
	return q
}
