package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/tablecheck/internal/report"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS validation_reports (
    id          UUID PRIMARY KEY,
    package     TEXT NOT NULL,
    valid       BOOLEAN NOT NULL,
    error_count INTEGER NOT NULL,
    table_count INTEGER NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    body        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS validation_reports_created_at_idx
    ON validation_reports (created_at DESC);
`

// Postgres stores reports in PostgreSQL, one row per report with the
// document as jsonb.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a store backed by pool. Call Migrate before use.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the reports table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate validation_reports: %w", err)
	}
	return nil
}

// Save implements Store. Saving an existing id replaces the report.
func (p *Postgres) Save(ctx context.Context, doc *report.Document) error {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return fmt.Errorf("save report: invalid id %q: %w", doc.ID, err)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("save report: encode: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO validation_reports (id, package, valid, error_count, table_count, created_at, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			package = EXCLUDED.package,
			valid = EXCLUDED.valid,
			error_count = EXCLUDED.error_count,
			table_count = EXCLUDED.table_count,
			created_at = EXCLUDED.created_at,
			body = EXCLUDED.body`,
		id.String(), doc.Package, doc.Valid, doc.ErrorCount, doc.TableCount, doc.CreatedAt, string(body),
	)
	if err != nil {
		return fmt.Errorf("save report %s: %w", doc.ID, err)
	}
	return nil
}

// Get implements Store.
func (p *Postgres) Get(ctx context.Context, id string) (*report.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	var body []byte
	err := p.pool.QueryRow(ctx,
		`SELECT body::text FROM validation_reports WHERE id = $1`, id,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}

	doc, err := report.DecodeDocument(body)
	if err != nil {
		return nil, fmt.Errorf("get report %s: decode: %w", id, err)
	}
	return doc, nil
}

// List implements Store.
func (p *Postgres) List(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, package, valid, error_count, table_count, created_at
		FROM validation_reports
		ORDER BY created_at DESC
		LIMIT $1`, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var s Summary
		err := row.Scan(&s.ID, &s.Package, &s.Valid, &s.ErrorCount, &s.TableCount, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}
