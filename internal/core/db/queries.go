package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// Queries provides access to named SQL statements loaded from embedded .sql
// files. Statements may be text/template templates over validated
// identifiers (table and column names); values always travel as bind
// parameters.
type Queries struct {
	dot *dotsql.DotSql
	db  *sqlx.DB

	mu        sync.Mutex
	templates map[string]*template.Template
}

// LoadQueries loads all .sql files from the embedded filesystem.
// Named statements are accessible by name (e.g., "lookup-rows").
func LoadQueries(db *sqlx.DB) (*Queries, error) {
	var combined strings.Builder

	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}

		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		combined.Write(content)
		combined.WriteString("\n")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse queries: %w", err)
	}

	return &Queries{dot: dot, db: db, templates: make(map[string]*template.Template)}, nil
}

// Render expands a named statement with identifier data and rebinds
// placeholders for the connected driver.
func (q *Queries) Render(name string, data any) (string, error) {
	tmpl, err := q.template(name)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return out.String(), nil
}

func (q *Queries) template(name string) (*template.Template, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if tmpl, ok := q.templates[name]; ok {
		return tmpl, nil
	}
	raw, err := q.dot.Raw(name)
	if err != nil {
		return nil, fmt.Errorf("query not found: %s", name)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	q.templates[name] = tmpl
	return tmpl, nil
}

// Get retrieves a single row into dest using a rendered statement.
func (q *Queries) Get(ctx context.Context, name string, data any, dest any, args ...any) error {
	query, err := q.Render(name, data)
	if err != nil {
		return err
	}
	return q.db.GetContext(ctx, dest, q.db.Rebind(query), args...)
}

// Select runs a rendered statement, expanding slice arguments with sqlx.In,
// and returns every row as a column map.
func (q *Queries) Select(ctx context.Context, name string, data any, args ...any) ([]map[string]any, error) {
	query, err := q.Render(name, data)
	if err != nil {
		return nil, err
	}
	query, args, err = sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", name, err)
	}

	rows, err := q.db.QueryxContext(ctx, q.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
