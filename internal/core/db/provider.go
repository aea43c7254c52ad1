package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/solatis/checkpoint/internal/rules"
)

/*
 * SQL lookup provider.
 *
 * Implements rules.LookupProvider over any sqlx database. Table and column
 * names come from schema definitions, not from input records, but are still
 * checked against a strict identifier pattern before being rendered into a
 * statement. Values are always bind parameters; IN lists are expanded with
 * sqlx.In and placeholders rebound for the driver.
 */

// ErrInvalidIdentifier indicates a table or column name unsafe to render.
var ErrInvalidIdentifier = errors.New("invalid SQL identifier")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLProvider answers unique/exists lookups from a SQL database.
type SQLProvider struct {
	queries *Queries
	logger  *zap.Logger
}

var _ rules.LookupProvider = (*SQLProvider)(nil)

// NewSQLProvider creates a provider over db.
func NewSQLProvider(db *sqlx.DB, logger *zap.Logger) (*SQLProvider, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLProvider{queries: queries, logger: logger}, nil
}

// Ping checks the database is reachable.
func (p *SQLProvider) Ping(ctx context.Context) error {
	var one int
	return p.queries.Get(ctx, "ping", nil, &one)
}

type lookupTemplate struct {
	Table   string
	Columns string
	Where   string
}

// RunQuery returns the rows of q.Table matching any (column IN values) pair.
func (p *SQLProvider) RunQuery(ctx context.Context, q rules.LookupQuery) ([]rules.Row, error) {
	if err := checkIdentifiers(q.Table); err != nil {
		return nil, err
	}
	columns := q.AllColumns()
	if err := checkIdentifiers(columns...); err != nil {
		return nil, err
	}

	var where []string
	var args []any
	for _, col := range q.MatchColumns() {
		values := q.Match[col]
		if len(values) == 0 {
			continue
		}
		where = append(where, col+" IN (?)")
		args = append(args, values)
	}
	if len(where) == 0 {
		return nil, nil
	}

	raw, err := p.queries.Select(ctx, "lookup-rows", lookupTemplate{
		Table:   q.Table,
		Columns: strings.Join(columns, ", "),
		Where:   strings.Join(where, " OR "),
	}, args...)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", q.Table, err)
	}

	rows := make([]rules.Row, len(raw))
	for i, r := range raw {
		rows[i] = normalizeRow(r)
	}
	p.logger.Debug("lookup query",
		zap.String("query", q.String()),
		zap.Int("rows", len(rows)))
	return rows, nil
}

// BatchCheckMissing returns, per column, the values with no matching row.
func (p *SQLProvider) BatchCheckMissing(ctx context.Context, table string, values map[string][]any) (map[string][]any, error) {
	rows, err := p.RunQuery(ctx, rules.LookupQuery{Table: table, Match: values})
	if err != nil {
		return nil, err
	}
	return rules.MissingValues(values, rows), nil
}

// BatchCheckConflicting returns, per column, the values already present.
func (p *SQLProvider) BatchCheckConflicting(ctx context.Context, table string, values map[string][]any) (map[string][]any, error) {
	rows, err := p.RunQuery(ctx, rules.LookupQuery{Table: table, Match: values})
	if err != nil {
		return nil, err
	}
	return rules.ConflictingValues(values, rows), nil
}

// Exists reports whether table has a row with column = value, skipping the
// row identified by ignore.
func (p *SQLProvider) Exists(ctx context.Context, table, column string, value any, ignore *rules.Ignore) (bool, error) {
	idents := []string{table, column}
	if ignore != nil {
		idents = append(idents, ignore.Column)
	}
	if err := checkIdentifiers(idents...); err != nil {
		return false, err
	}

	var one int
	var err error
	if ignore == nil {
		err = p.queries.Get(ctx, "exists-row", map[string]string{
			"Table": table, "Column": column,
		}, &one, value)
	} else {
		err = p.queries.Get(ctx, "exists-row-ignoring", map[string]string{
			"Table": table, "Column": column, "IgnoreColumn": ignore.Column,
		}, &one, value, ignore.Value)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s.%s: %w", table, column, err)
	}
	return true, nil
}

func checkIdentifiers(names ...string) error {
	for _, name := range names {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	return nil
}

// normalizeRow turns driver byte slices into strings so rows correlate with
// JSON input values.
func normalizeRow(r map[string]any) rules.Row {
	row := make(rules.Row, len(r))
	for k, v := range r {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		row[k] = v
	}
	return row
}
