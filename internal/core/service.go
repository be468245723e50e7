package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/tablecheck/internal/parse"
	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/store"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

// DefaultTimeout bounds a single validation run.
const DefaultTimeout = 10 * time.Minute

// DefaultWorkers is the per-run resource parallelism.
const DefaultWorkers = 4

// Observer is notified of run progress. *metrics.Collector implements it.
type Observer interface {
	RunStarted()

	// RunFinished receives a nil report when the run failed.
	RunFinished(rep *report.Report, elapsed time.Duration)
}

// Options configure a Service. Zero values select the defaults.
type Options struct {
	// MaxConcurrent and MaxWait configure the run limiter.
	MaxConcurrent int
	MaxWait       time.Duration

	// Workers bounds how many resources of one run are processed at once.
	Workers int

	// Timeout bounds a whole run.
	Timeout time.Duration

	Parse parse.Options
}

// Service validates packages. It is safe for concurrent use.
type Service struct {
	limiter  *Limiter
	store    store.Store
	observer Observer

	workers int
	timeout time.Duration
	parse   parse.Options
}

// NewService creates a service. st and obs may be nil, in which case
// reports are not persisted and runs are not observed.
func NewService(opts Options, st store.Store, obs Observer) *Service {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		limiter:  NewLimiter(opts.MaxConcurrent, opts.MaxWait),
		store:    st,
		observer: obs,
		workers:  workers,
		timeout:  timeout,
		parse:    opts.Parse,
	}
}

// Limiter exposes the run limiter for health output and shutdown.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// Store returns the report store, or nil.
func (s *Service) Store() store.Store {
	return s.store
}

// ValidateFile loads the descriptor at path and validates it. Descriptor
// problems are returned as errors wrapping the schema sentinels.
func (s *Service) ValidateFile(ctx context.Context, path string) (*report.Report, error) {
	pkg, err := schema.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if pkg.Name == "" {
		pkg.Name = path
	}
	rep, _, err := s.Validate(ctx, pkg)
	return rep, err
}

// GetReport returns a stored report.
func (s *Service) GetReport(ctx context.Context, id string) (*report.Document, error) {
	if s.store == nil {
		return nil, store.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// ListReports returns the most recent stored reports.
func (s *Service) ListReports(ctx context.Context, limit int) ([]store.Summary, error) {
	if s.store == nil {
		return []store.Summary{}, nil
	}
	return s.store.List(ctx, limit)
}

// resourceResult is the phase one outcome of one resource. table is nil
// when the resource could not be read or parsed.
type resourceResult struct {
	report *report.TableReport
	table  *table.Table
}
