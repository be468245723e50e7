// Package report defines validation errors and the reports that collect
// them.
package report

import (
	"time"

	"github.com/google/uuid"
)

// Report is the result of validating one package.
type Report struct {
	ID         uuid.UUID
	Package    string
	Valid      bool
	ErrorCount int
	TableCount int

	// Time is the wall time of the run.
	Time      time.Duration
	CreatedAt time.Time

	Tables   []*TableReport
	Warnings []string
}

// TableReport is the result for one resource.
type TableReport struct {
	Resource   string
	Source     []string
	Headers    []string
	Valid      bool
	ErrorCount int
	RowCount   int
	Errors     []Error
}

// New starts an empty report.
func New(pkg string) *Report {
	return &Report{
		ID:        uuid.New(),
		Package:   pkg,
		CreatedAt: time.Now().UTC(),
	}
}

// Add appends errors to the table report.
func (t *TableReport) Add(errs ...Error) {
	t.Errors = append(t.Errors, errs...)
}

// Table returns the report for the named resource.
func (r *Report) Table(resource string) (*TableReport, bool) {
	for _, t := range r.Tables {
		if t.Resource == resource {
			return t, true
		}
	}
	return nil, false
}

// Finalize computes counts and validity. It is safe to call more than once.
func (r *Report) Finalize(elapsed time.Duration) {
	r.Time = elapsed
	r.ErrorCount = 0
	for _, t := range r.Tables {
		t.ErrorCount = len(t.Errors)
		t.Valid = t.ErrorCount == 0
		r.ErrorCount += t.ErrorCount
	}
	r.TableCount = len(r.Tables)
	r.Valid = r.ErrorCount == 0
}

// Codes counts errors per code across all tables.
func (r *Report) Codes() map[string]int {
	out := make(map[string]int)
	for _, t := range r.Tables {
		for _, e := range t.Errors {
			out[e.Code()]++
		}
	}
	return out
}
