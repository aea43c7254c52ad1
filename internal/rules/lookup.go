// internal/rules/lookup.go
package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/checkpoint/internal/types"
)

/*
 * Lookup-backed rules: unique and exists.
 *
 * These rules are expensive by construction (CostLookup) and are never
 * evaluated inline. The orchestrator queues them and the Batch Executor
 * resolves all of them for one validate call with one provider query per
 * (kind, table). Passes therefore always returns true: the rule itself holds
 * no data, only the description of the lookup it needs.
 *
 * Parameters:
 *   unique:table[,column[,ignoreValue[,idColumn]]]
 *   exists:table[,column]
 * column defaults to the field's last named segment; idColumn defaults to "id".
 */

// LookupKind identifies how lookup rows translate into pass/fail.
type LookupKind string

const (
	KindUnique LookupKind = "unique"
	KindExists LookupKind = "exists"
)

// DefaultIDColumn is the identifier column used by unique's ignore clause.
const DefaultIDColumn = "id"

// Lookup describes the provider data one check needs.
type Lookup struct {
	Kind   LookupKind
	Table  string
	Column string
	Ignore *Ignore
}

// LookupRule is an expensive rule resolved through a LookupProvider.
type LookupRule interface {
	Rule
	Lookup(field string) Lookup
}

type lookupRule struct {
	kind     LookupKind
	table    string
	column   string
	ignore   *Ignore
	template string
}

func (r *lookupRule) Cost() int    { return CostLookup }
func (r *lookupRule) Name() string { return string(r.kind) }

// Passes always succeeds; the Batch Executor decides the outcome.
func (r *lookupRule) Passes(any, string, map[string]any) bool { return true }

func (r *lookupRule) Message(field string) string {
	return fmt.Sprintf(r.template, field)
}

func (r *lookupRule) Lookup(field string) Lookup {
	column := r.column
	if column == "" {
		column = defaultColumn(field)
	}
	return Lookup{Kind: r.kind, Table: r.table, Column: column, Ignore: r.ignore}
}

// defaultColumn picks the last non-index segment of a dotted field.
func defaultColumn(field string) string {
	parts := strings.Split(field, types.PathSeparator)
	for i := len(parts) - 1; i >= 0; i-- {
		if seg := types.KeySegment(parts[i]); !seg.IsIndex && !seg.Wildcard {
			return parts[i]
		}
	}
	return field
}

func registerLookups(r *Registry) {
	r.mustRegister(string(KindUnique), newUnique)
	r.mustRegister(string(KindExists), newExists)
}

// NewUnique builds a uniqueness rule directly, for callers composing rule lists.
func NewUnique(table, column string, ignore *Ignore) Rule {
	return &lookupRule{kind: KindUnique, table: table, column: column, ignore: ignore, template: "The %s has already been taken."}
}

// NewExists builds an existence rule directly.
func NewExists(table, column string) Rule {
	return &lookupRule{kind: KindExists, table: table, column: column, template: "The selected %s is invalid."}
}

func newUnique(params []any) (Rule, error) {
	if len(params) < 1 || len(params) > 4 {
		return nil, paramErrorf("expected 1 to 4 parameters, got %d", len(params))
	}
	table, column, err := tableAndColumn(params)
	if err != nil {
		return nil, err
	}
	var ignore *Ignore
	if len(params) >= 3 && params[2] != nil && textValue(params[2]) != "NULL" {
		ignore = &Ignore{Column: DefaultIDColumn, Value: params[2]}
		if len(params) == 4 && params[3] != nil {
			ignore.Column = textValue(params[3])
		}
	}
	return NewUnique(table, column, ignore), nil
}

func newExists(params []any) (Rule, error) {
	if len(params) < 1 || len(params) > 2 {
		return nil, paramErrorf("expected 1 or 2 parameters, got %d", len(params))
	}
	table, column, err := tableAndColumn(params)
	if err != nil {
		return nil, err
	}
	return NewExists(table, column), nil
}

func tableAndColumn(params []any) (string, string, error) {
	table, err := stringParam(params, 0)
	if err != nil {
		return "", "", err
	}
	column := ""
	if len(params) >= 2 && params[1] != nil {
		column = textValue(params[1])
	}
	return table, column, nil
}
