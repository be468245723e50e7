// Package store persists validation reports.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/tablecheck/internal/report"
)

// ErrNotFound is returned when no report has the requested id.
var ErrNotFound = errors.New("report not found")

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 50

// Summary is the listing entry of a stored report.
type Summary struct {
	ID         string    `json:"id"`
	Package    string    `json:"package"`
	Valid      bool      `json:"valid"`
	ErrorCount int       `json:"error-count"`
	TableCount int       `json:"table-count"`
	CreatedAt  time.Time `json:"created-at"`
}

// Store saves and retrieves report documents.
type Store interface {
	Save(ctx context.Context, doc *report.Document) error
	Get(ctx context.Context, id string) (*report.Document, error)

	// List returns the most recent reports first.
	List(ctx context.Context, limit int) ([]Summary, error)
}

func summarize(d *report.Document) Summary {
	return Summary{
		ID:         d.ID,
		Package:    d.Package,
		Valid:      d.Valid,
		ErrorCount: d.ErrorCount,
		TableCount: d.TableCount,
		CreatedAt:  d.CreatedAt,
	}
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
