package source

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
)

func init() {
	Register(KindSQLite, &SQLReader{Driver: "sqlite", quote: `"`})
	Register(KindMySQL, &SQLReader{Driver: "mysql", quote: "`"})
}

// SQLReader reads a table or query result through database/sql. Values are
// read as text; SQL NULL is null.
type SQLReader struct {
	// Driver is the database/sql driver name.
	Driver string

	quote string
}

// Read implements Reader.
func (r *SQLReader) Read(ctx context.Context, res *schema.Resource, basePath string) (*Result, error) {
	q := res.SQL
	src := sqlSourceName(q)

	dsn := q.DSN
	if r.Driver == "sqlite" {
		dsn = sqlitePath(basePath, dsn)
	}
	db, err := sql.Open(r.Driver, dsn)
	if err != nil {
		return sqlFailure(ctx, src, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, selectQuery(q, r.quote))
	if err != nil {
		return sqlFailure(ctx, src, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return sqlFailure(ctx, src, err)
	}

	cells := make([]sql.NullString, len(names))
	dest := make([]any, len(names))
	for i := range cells {
		dest[i] = &cells[i]
	}
	var data [][]any
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return sqlFailure(ctx, src, err)
		}
		row := make([]any, len(cells))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return sqlFailure(ctx, src, err)
	}
	return sqlResult(res, src, names, data)
}

// sqlResult maps selected columns onto the schema by name. Columns not in
// the schema are ignored.
func sqlResult(res *schema.Resource, src string, names []string, data [][]any) (*Result, error) {
	out := &Result{Headers: names, Sources: []string{src}}
	index, errs := matchHeaders(names, &res.Schema, true)
	if len(errs) > 0 {
		out.Errors = errs
		return out, nil
	}
	cols := newColumns(&res.Schema, "")
	cols.add(data, index)
	t, err := cols.table(res.Name)
	if err != nil {
		return nil, err
	}
	out.Table = t
	return out, nil
}

// sqlFailure turns a database error into a source error, unless the run
// was cancelled.
func sqlFailure(ctx context.Context, src string, err error) (*Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return &Result{
		Sources: []string{src},
		Errors:  []report.Error{&report.SourceError{Source: src, Note: err.Error()}},
	}, nil
}

func sqlSourceName(q *schema.SQLSource) string {
	if q.Table != "" {
		return q.Driver + ":" + q.Table
	}
	return q.Driver + ":query"
}

// selectQuery returns the query to run: the declared query, or a select of
// every column of the declared table. Qualified table names are quoted per
// part.
func selectQuery(q *schema.SQLSource, quote string) string {
	if q.Query != "" {
		return q.Query
	}
	parts := strings.Split(q.Table, ".")
	for i, p := range parts {
		parts[i] = quote + strings.ReplaceAll(p, quote, quote+quote) + quote
	}
	return "SELECT * FROM " + strings.Join(parts, ".")
}

// sqlitePath resolves a relative database file against the descriptor's
// base path. URIs and in-memory databases are kept.
func sqlitePath(basePath, dsn string) string {
	if dsn == "" || strings.HasPrefix(dsn, "file:") || strings.HasPrefix(dsn, ":memory:") {
		return dsn
	}
	return resolvePath(basePath, filepath.FromSlash(dsn))
}
