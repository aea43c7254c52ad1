// internal/rules/provider.go
package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

/*
 * External Lookup Provider contract.
 *
 * The engine consumes this interface and never a concrete store. The Batch
 * Executor only calls RunQuery; the batch existence/conflict checks and the
 * single-row Exists are part of the contract for callers outside the
 * validation pass (and are implemented on top of RunQuery by the SQL
 * provider using MissingValues / ConflictingValues below).
 *
 * Values returned by stores rarely share Go types with input values (int64
 * vs float64, []byte vs string), so correlation goes through LookupKey,
 * which normalizes both sides to text.
 */

// Row is one record returned by a lookup query, keyed by column name.
type Row map[string]any

// LookupQuery selects rows of Table where any Match column equals any of its
// candidate values. Columns lists extra columns to return (e.g. id columns);
// Match columns are always returned.
type LookupQuery struct {
	Table   string
	Match   map[string][]any
	Columns []string
}

// Ignore excludes the row whose Column equals Value from uniqueness checks.
type Ignore struct {
	Column string
	Value  any
}

// LookupProvider supplies existence and uniqueness data for expensive rules.
// Calls may block; implementations own their own timeouts.
type LookupProvider interface {
	// RunQuery returns all rows matching q.
	RunQuery(ctx context.Context, q LookupQuery) ([]Row, error)
	// BatchCheckMissing returns, per column, the values with no matching row.
	BatchCheckMissing(ctx context.Context, table string, values map[string][]any) (map[string][]any, error)
	// BatchCheckConflicting returns, per column, the values already present.
	BatchCheckConflicting(ctx context.Context, table string, values map[string][]any) (map[string][]any, error)
	// Exists reports whether a row with column = value exists, optionally
	// ignoring the row identified by ignore.
	Exists(ctx context.Context, table, column string, value any, ignore *Ignore) (bool, error)
}

// LookupKey builds the column:value correlation key.
func LookupKey(column string, value any) string {
	return column + ":" + normalizeLookupValue(value)
}

func normalizeLookupValue(v any) string {
	if f, ok := toFloat64(v); ok {
		return textValue(f)
	}
	return textValue(v)
}

// AllColumns returns the sorted union of match and extra columns.
func (q LookupQuery) AllColumns() []string {
	seen := make(map[string]bool, len(q.Match)+len(q.Columns))
	cols := make([]string, 0, len(q.Match)+len(q.Columns))
	for col := range q.Match {
		if !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
	}
	for _, col := range q.Columns {
		if !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	return cols
}

// MatchColumns returns the match columns in sorted order.
func (q LookupQuery) MatchColumns() []string {
	cols := make([]string, 0, len(q.Match))
	for col := range q.Match {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// String renders the query for logs.
func (q LookupQuery) String() string {
	parts := make([]string, 0, len(q.Match))
	for _, col := range q.MatchColumns() {
		parts = append(parts, fmt.Sprintf("%s IN %d value(s)", col, len(q.Match[col])))
	}
	return fmt.Sprintf("%s WHERE %s", q.Table, strings.Join(parts, " OR "))
}

// IndexRows indexes rows by column:value for every match column present.
func IndexRows(rows []Row, columns []string) map[string][]Row {
	index := make(map[string][]Row)
	for _, row := range rows {
		for _, col := range columns {
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			key := LookupKey(col, v)
			index[key] = append(index[key], row)
		}
	}
	return index
}

// MissingValues returns, per column, the requested values absent from rows.
func MissingValues(values map[string][]any, rows []Row) map[string][]any {
	return partitionValues(values, rows, false)
}

// ConflictingValues returns, per column, the requested values present in rows.
func ConflictingValues(values map[string][]any, rows []Row) map[string][]any {
	return partitionValues(values, rows, true)
}

func partitionValues(values map[string][]any, rows []Row, present bool) map[string][]any {
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	index := IndexRows(rows, cols)
	out := make(map[string][]any)
	for col, vals := range values {
		for _, v := range vals {
			_, found := index[LookupKey(col, v)]
			if found == present {
				out[col] = append(out[col], v)
			}
		}
	}
	return out
}
