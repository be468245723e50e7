package core

// scheduler.go re-validates configured packages on a cron schedule.
//
// Each tick validates every configured descriptor in turn. Reports are
// persisted by Validate like any other run; failures are logged and never
// stop the scheduler.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/JonMunkholm/tablecheck/internal/report"
)

// ScheduleConfig holds configuration for scheduled validation.
type ScheduleConfig struct {
	Spec     string   // Standard five-field cron expression
	Packages []string // Descriptor paths validated on each tick

	// RunOnStart validates once immediately before waiting for the first tick.
	RunOnStart bool
}

// StartScheduler validates cfg.Packages on cfg.Spec until ctx is cancelled,
// then waits for a tick in progress to finish. It returns an error only if
// the spec does not parse.
func (s *Service) StartScheduler(ctx context.Context, cfg ScheduleConfig) error {
	sched, err := cron.ParseStandard(cfg.Spec)
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", cfg.Spec, err)
	}

	slog.Info("validation scheduler started",
		"spec", cfg.Spec,
		"packages", len(cfg.Packages),
		"next_run", sched.Next(time.Now()),
	)

	// A slow tick is skipped rather than stacked.
	var mu sync.Mutex
	job := cron.FuncJob(func() {
		if !mu.TryLock() {
			slog.Warn("scheduled validation still running, skipping tick")
			return
		}
		defer mu.Unlock()
		s.runScheduled(ctx, cfg.Packages)
	})

	if cfg.RunOnStart {
		job.Run()
	}

	c := cron.New()
	c.Schedule(sched, job)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("validation scheduler stopped")
	return nil
}

// runScheduled performs one pass over the configured packages.
func (s *Service) runScheduled(ctx context.Context, paths []string) {
	start := time.Now()
	ctx = ContextWithTrigger(ctx, TriggerSchedule)

	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		rep, err := s.ValidateFile(ctx, path)
		logRun(slog.Default(), path, rep, err)
	}

	slog.Info("scheduled validation pass completed",
		"packages", len(paths),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// logRun records the outcome of one scheduled validation.
func logRun(logger *slog.Logger, path string, rep *report.Report, err error) {
	if err != nil {
		logger.Error("scheduled validation failed", "descriptor", path, "error", err)
		return
	}
	logger.Info("scheduled validation finished",
		"descriptor", path,
		"report_id", rep.ID.String(),
		"valid", rep.Valid,
		"error_count", rep.ErrorCount,
	)
}
