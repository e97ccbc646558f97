package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"primeia/videogate/pkg/config"
	"primeia/videogate/pkg/ledger"
	"primeia/videogate/pkg/retention"
	"primeia/videogate/pkg/security/auth"
	"primeia/videogate/pkg/server"
	"primeia/videogate/pkg/storage"
	"primeia/videogate/pkg/telemetry/health"
	"primeia/videogate/pkg/telemetry/metrics"
	"primeia/videogate/pkg/telemetry/tracing"
)

// app is the assembled gateway. Optional components are nil when disabled.
type app struct {
	config    *config.Config
	logger    *slog.Logger
	store     *storage.Store
	metrics   *metrics.Collector
	tracer    *tracing.Tracer
	ledger    *ledger.Ledger
	scheduler *retention.Scheduler
	watcher   *storage.Watcher
	checker   *health.Checker
	server    *server.Server
}

// newApp assembles the gateway. On error every component opened so far is
// released.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{config: cfg, logger: logger}
	ready := false
	defer func() {
		if !ready {
			a.Close()
		}
	}()

	var err error

	a.store, err = storage.New(storage.Config{
		Directory:       cfg.Storage.Directory,
		CreateIfMissing: cfg.Storage.CreateIfMissing,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if cfg.Ledger.Enabled {
		a.ledger, err = ledger.Open(ledger.Config{
			Driver:      cfg.Ledger.Driver,
			Path:        cfg.Ledger.Path,
			BusyTimeout: cfg.Ledger.BusyTimeout,
			MaxRuns:     cfg.Ledger.MaxRuns,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
	}

	if cfg.Storage.Watch {
		a.watcher, err = storage.NewWatcher(storage.WatcherConfig{
			Directory:        cfg.Storage.Directory,
			DebounceInterval: cfg.Storage.WatchDebounce,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to watch storage: %w", err)
		}
	}

	if cfg.Retention.Enabled {
		a.scheduler, err = retention.NewScheduler(
			retention.NewSweeper(retention.WithLogger(logger)),
			retention.SchedulerConfig{
				Directory:  cfg.Storage.Directory,
				Window:     cfg.Retention.Window,
				Schedule:   cfg.Retention.Schedule,
				Timezone:   cfg.Retention.Timezone,
				RunOnStart: cfg.Retention.RunOnStart,
			},
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create retention scheduler: %w", err)
		}
		a.scheduler.AddObserver(a.metrics)
		a.scheduler.AddObserver(a.tracer)
		if a.ledger != nil {
			a.scheduler.AddObserver(a.ledger)
		}
		if a.watcher == nil {
			a.scheduler.AddObserver(retention.ObserverFunc(func(context.Context, retention.Run) {
				a.refreshStoredFiles()
			}))
		}
	}

	a.checker = a.newChecker()

	deps := server.Dependencies{
		Store:   a.store,
		Health:  a.checker,
		Version: health.NewVersionInfo(Version, GitCommit, BuildDate),
		Metrics: a.metrics,
		Tracer:  a.tracer,
		Logger:  logger,
	}
	if a.ledger != nil {
		deps.History = a.ledger
	}
	if a.scheduler != nil {
		deps.Schedule = a.scheduler
	}
	if cfg.Security.Token.Enabled {
		client, err := auth.NewSupabaseClient(cfg.Security.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to configure token verification: %w", err)
		}
		deps.TokenVerifier = client
	}

	a.server, err = server.New(cfg, deps)
	if err != nil {
		return nil, err
	}

	ready = true
	return a, nil
}

// newChecker registers readiness checks for storage and the ledger, and
// reports retention and storage state as readiness details.
func (a *app) newChecker() *health.Checker {
	checker := health.New(5 * time.Second)

	checker.RegisterCheck("storage", func(context.Context) error {
		return a.store.CheckWritable()
	})
	if a.ledger != nil {
		checker.RegisterCheck("ledger", health.PingCheck(a.ledger))
	}

	checker.RegisterDetail("storage", func(context.Context) any {
		detail := map[string]any{"directory": a.store.Dir()}
		if n, err := a.store.Count(); err == nil {
			detail["stored_files"] = n
		}
		return detail
	})
	if a.scheduler != nil {
		checker.RegisterDetail("retention", func(context.Context) any {
			detail := map[string]any{
				"window":   a.config.Retention.Window.String(),
				"schedule": a.config.Retention.Schedule,
			}
			if next := a.scheduler.NextRun(); next != nil {
				detail["next_run"] = next
			}
			if last := a.scheduler.LastRun(); last != nil {
				detail["last_run"] = map[string]any{
					"trigger":    last.Trigger,
					"started_at": last.StartedAt,
					"deleted":    last.Result.Deleted,
					"errors":     last.Result.Errors,
				}
			}
			return detail
		})
	}
	return checker
}

func (a *app) refreshStoredFiles() {
	n, err := a.store.Count()
	if err != nil {
		a.logger.Warn("failed to count stored files", "error", err)
		return
	}
	a.metrics.SetStoredFiles(n)
}

// Run starts the background components and serves until ctx is cancelled.
func (a *app) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Watch(ctx, a.metrics.SetStoredFiles); err != nil && ctx.Err() == nil {
				a.logger.Error("storage watcher stopped", "error", err)
			}
		}()
	} else {
		a.refreshStoredFiles()
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return err
		}
		defer a.scheduler.Stop()
	}

	return a.server.Start(ctx)
}

// Close releases the watcher and the ledger and flushes pending spans.
func (a *app) Close() {
	var errs []error
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.tracer.Shutdown(ctx))
		cancel()
	}
	if a.watcher != nil {
		errs = append(errs, a.watcher.Stop())
	}
	if a.ledger != nil {
		errs = append(errs, a.ledger.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error during cleanup", "error", err)
	}
}
