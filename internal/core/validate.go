package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/tablecheck/internal/check"
	"github.com/JonMunkholm/tablecheck/internal/logging"
	"github.com/JonMunkholm/tablecheck/internal/parse"
	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/source"
	"github.com/JonMunkholm/tablecheck/internal/table"
)

// Validate checks every resource of pkg and returns the report together
// with the typed tables of the resources that parsed.
//
// Resources go through two phases. Phase one reads, parses and checks each
// resource on its own. Phase two starts once phase one is complete for all
// resources and checks foreign keys against the finished table map, so
// references between resources (including cycles) need no ordering.
//
// Data problems are part of the report. A returned error means the run
// could not complete: the limiter was full, the context ended, or the
// descriptor names something that cannot be read or parsed.
func (s *Service) Validate(ctx context.Context, pkg *schema.Package) (*report.Report, map[string]*table.Table, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rep := report.New(pkg.Name)
	logger := logging.WithFields(ctx,
		"run_id", rep.ID.String(),
		"package", pkg.Name,
		"trigger", TriggerFromContext(ctx),
	)
	ctx = logging.WithContext(ctx, logger)

	if s.observer != nil {
		s.observer.RunStarted()
	}
	logger.Debug("validation started", "resources", len(pkg.Resources))

	tables, err := s.run(ctx, pkg, rep)
	elapsed := time.Since(start)
	if err != nil {
		if s.observer != nil {
			s.observer.RunFinished(nil, elapsed)
		}
		logger.Warn("validation aborted", "error", err, "duration_ms", elapsed.Milliseconds())
		return nil, nil, err
	}

	rep.Finalize(elapsed)
	if s.observer != nil {
		s.observer.RunFinished(rep, elapsed)
	}
	if s.store != nil {
		// The run's own deadline must not cost us the report.
		if err := s.store.Save(context.WithoutCancel(ctx), rep.Document()); err != nil {
			logger.Error("save report failed", "error", err)
			rep.Warnings = append(rep.Warnings, "report was not saved: "+err.Error())
		}
	}

	logger.Info("validation completed",
		"valid", rep.Valid,
		"error_count", rep.ErrorCount,
		"tables", rep.TableCount,
		"duration_ms", elapsed.Milliseconds(),
	)
	return rep, tables, nil
}

func (s *Service) run(ctx context.Context, pkg *schema.Package, rep *report.Report) (map[string]*table.Table, error) {
	expanded := pkg.Expand()
	resources := expanded.Resources

	// Phase one. Each goroutine writes only its own slot.
	results := make([]resourceResult, len(resources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range resources {
		res := &resources[i]
		g.Go(func() error {
			r, err := s.checkResource(gctx, res, expanded.BasePath)
			if err != nil {
				return fmt.Errorf("resource %s: %w", res.Name, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables := make(map[string]*table.Table, len(resources))
	for _, r := range results {
		rep.Tables = append(rep.Tables, r.report)
		if r.table != nil {
			tables[r.report.Resource] = r.table
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase two reads tables only.
	fkErrs := make([][]report.Error, len(resources))
	g, _ = errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range resources {
		res := &resources[i]
		child, ok := tables[res.Name]
		if !ok || len(res.Schema.ForeignKeys) == 0 {
			continue
		}
		g.Go(func() error {
			fkErrs[i] = check.ForeignKeys(child, res.Schema.ForeignKeys, tables, check.ParentNone)
			return nil
		})
	}
	_ = g.Wait()

	for i, errs := range fkErrs {
		rep.Tables[i].Add(errs...)
	}
	return tables, nil
}

// checkResource runs phase one for one resource. Read and parse failures
// end the resource early with its errors recorded.
func (s *Service) checkResource(ctx context.Context, res *schema.Resource, basePath string) (resourceResult, error) {
	logger := logging.FromContext(ctx).With("resource", res.Name)
	tr := &report.TableReport{Resource: res.Name, Source: []string{}, Headers: []string{}}
	out := resourceResult{report: tr}

	read, err := source.Read(ctx, res, basePath)
	if err != nil {
		return out, err
	}
	if read.Sources != nil {
		tr.Source = read.Sources
	}
	if read.Headers != nil {
		tr.Headers = read.Headers
	}
	if len(read.Errors) > 0 {
		tr.Add(read.Errors...)
		logger.Warn("resource not readable", "errors", len(read.Errors))
		return out, nil
	}

	t := read.Table
	tr.RowCount = t.Rows()
	logger.Debug("resource read", "rows", tr.RowCount, "bytes", read.Bytes)

	// Text constraints on fields whose typed values cannot carry them.
	for i := range res.Schema.Fields {
		f := &res.Schema.Fields[i]
		if col, ok := t.Column(f.Name); ok {
			tr.Add(check.RawConstraints(col, f)...)
		}
	}

	typeErrs, err := parse.ParseTable(t, &res.Schema, s.parse)
	if err != nil {
		return out, err
	}
	if len(typeErrs) > 0 {
		tr.Add(typeErrs...)
		logger.Debug("resource has type errors", "fields", len(typeErrs))
		return out, nil
	}

	tr.Add(check.Constraints(t, &res.Schema)...)
	tr.Add(check.PrimaryKey(t, res.Schema.PrimaryKey, check.KeyOptions{SkipRequired: true})...)
	tr.Add(check.UniqueKeys(t, res.Schema.UniqueKeys, true)...)

	out.table = t
	logger.Debug("resource checked", "errors", len(tr.Errors))
	return out, nil
}
