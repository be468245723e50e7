// Command tablecheck validates tabular data packages.
//
// Usage:
//
//	tablecheck validate [-json] [-first-invalid-number] [-first-invalid-integer] <descriptor>
//	tablecheck watch [-json] <descriptor>
//	tablecheck serve
//
// validate exits 0 when the package is valid, 1 when it is not, 2 on a
// descriptor or usage problem and 3 when the run itself failed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JonMunkholm/tablecheck/internal/config"
	"github.com/JonMunkholm/tablecheck/internal/core"
	"github.com/JonMunkholm/tablecheck/internal/logging"
	"github.com/JonMunkholm/tablecheck/internal/metrics"
	"github.com/JonMunkholm/tablecheck/internal/parse"
	"github.com/JonMunkholm/tablecheck/internal/report"
	"github.com/JonMunkholm/tablecheck/internal/store"
	"github.com/JonMunkholm/tablecheck/internal/watch"
	"github.com/JonMunkholm/tablecheck/internal/web"
)

const (
	exitValid   = 0
	exitInvalid = 1
	exitConfig  = 2
	exitFailed  = 3
)

const usage = `Usage:
  tablecheck validate [-json] [-first-invalid-number] [-first-invalid-integer] <descriptor>
  tablecheck watch [-json] <descriptor>
  tablecheck serve
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// Overload lets a local .env win over the shell environment.
	envErr := godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return exitConfig
	}
	logging.Setup(stderr, cfg.Logging.Level, cfg.Logging.Format)
	if envErr != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "validate":
		return runValidate(ctx, cfg, args[1:], stdout, stderr)
	case "watch":
		return runWatch(ctx, cfg, args[1:], stdout, stderr)
	case "serve":
		if err := runServe(ctx, cfg); err != nil {
			slog.Error("server failed", "error", err)
			return exitFailed
		}
		return exitValid
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return exitValid
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
	return exitConfig
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config) core.Options {
	return core.Options{
		MaxConcurrent: cfg.Validation.MaxConcurrent,
		MaxWait:       cfg.Validation.MaxWaitTime,
		Workers:       cfg.Validation.Workers,
		Timeout:       cfg.Validation.Timeout,
		Parse: parse.Options{
			FirstInvalidNumber:  cfg.Validation.FirstInvalidNumber,
			FirstInvalidInteger: cfg.Validation.FirstInvalidInteger,
		},
	}
}

func runValidate(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print the report as JSON")
	opts := serviceOptions(cfg)
	fs.BoolVar(&opts.Parse.FirstInvalidNumber, "first-invalid-number", opts.Parse.FirstInvalidNumber,
		"stop number parsing at the first invalid value")
	fs.BoolVar(&opts.Parse.FirstInvalidInteger, "first-invalid-integer", opts.Parse.FirstInvalidInteger,
		"stop integer parsing at the first invalid value")
	if err := fs.Parse(args); err != nil {
		return exitConfig
	}
	if fs.NArg() != 1 {
		fmt.Fprint(stderr, usage)
		return exitConfig
	}

	svc := core.NewService(opts, nil, nil)
	rep, err := svc.ValidateFile(core.ContextWithTrigger(ctx, core.TriggerCLI), fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, core.FormatUserError(err))
		slog.Debug("validation failed", "error", err)
		if core.IsConfigError(err) {
			return exitConfig
		}
		return exitFailed
	}

	if err := printReport(stdout, rep, *asJSON); err != nil {
		slog.Error("write report", "error", err)
		return exitFailed
	}
	if !rep.Valid {
		return exitInvalid
	}
	return exitValid
}

func runWatch(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print reports as JSON")
	if err := fs.Parse(args); err != nil {
		return exitConfig
	}
	if fs.NArg() != 1 {
		fmt.Fprint(stderr, usage)
		return exitConfig
	}

	svc := core.NewService(serviceOptions(cfg), nil, nil)
	w, err := watch.New(fs.Arg(0), svc, cfg.Watch.Debounce, func(rep *report.Report, err error) {
		if err != nil {
			fmt.Fprintln(stderr, core.FormatUserError(err))
			return
		}
		if err := printReport(stdout, rep, *asJSON); err != nil {
			slog.Error("write report", "error", err)
		}
	})
	if err != nil {
		slog.Error("start watcher", "error", err)
		return exitFailed
	}

	if err := w.Run(core.ContextWithTrigger(ctx, core.TriggerWatch)); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("watcher stopped", "error", err)
		return exitFailed
	}
	return exitValid
}

func runServe(ctx context.Context, cfg *config.Config) error {
	slog.Info("configuration loaded", "config", cfg.String())

	st, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc := core.NewService(serviceOptions(cfg), st, metrics.New(reg))

	if cfg.Schedule.Spec != "" {
		go func() {
			err := svc.StartScheduler(ctx, core.ScheduleConfig{
				Spec:     cfg.Schedule.Spec,
				Packages: cfg.Schedule.Packages,
			})
			if err != nil {
				slog.Error("scheduler stopped", "error", err)
			}
		}()
	}

	server := web.NewServer(ctx, svc, web.OptionsFromConfig(cfg, reg))
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(cfg.Server) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if status := svc.Limiter().Status(); status.Active > 0 {
		slog.Info("waiting for validations to complete", "active", status.Active)
		if err := svc.Limiter().WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("validations did not complete in time", "error", err)
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// openStore connects the Postgres report store, or falls back to memory
// when no database is configured.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.Store, func(), error) {
	if cfg.URL == "" {
		slog.Info("no database configured, keeping reports in memory", "capacity", cfg.MemoryReports)
		return store.NewMemory(cfg.MemoryReports), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	pg := store.NewPostgres(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	slog.Info("connected to report database", "database", poolConfig.ConnConfig.Database)
	return pg, pool.Close, nil
}
