package retention

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger identifies what started a sweep.
type Trigger string

const (
	// TriggerStartup is the eager sweep performed when the scheduler starts.
	TriggerStartup Trigger = "startup"

	// TriggerSchedule is a sweep fired by the cron schedule.
	TriggerSchedule Trigger = "schedule"
)

// Run describes one completed sweep invocation.
type Run struct {
	Trigger   Trigger
	Directory string
	Window    time.Duration
	StartedAt time.Time
	Duration  time.Duration
	Result    Result
}

// SweepRunner performs a sweep. *Sweeper implements it.
type SweepRunner interface {
	Sweep(ctx context.Context, dir string, window time.Duration) Result
}

// Observer is notified after every sweep run.
type Observer interface {
	ObserveSweep(ctx context.Context, run Run)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, run Run)

// ObserveSweep calls f.
func (f ObserverFunc) ObserveSweep(ctx context.Context, run Run) {
	f(ctx, run)
}

// SchedulerConfig configures when and what the scheduler sweeps.
type SchedulerConfig struct {
	// Directory is the storage directory to sweep.
	Directory string

	// Window is the retention window; older files are deleted.
	Window time.Duration

	// Schedule is a standard 5-field cron expression.
	// Empty disables the recurring sweep.
	Schedule string

	// Timezone is the IANA location the schedule is evaluated in.
	// Empty means the process local time.
	Timezone string

	// RunOnStart sweeps once as soon as Start is called.
	RunOnStart bool
}

// Scheduler runs sweeps at start and on a cron schedule.
type Scheduler struct {
	sweeper  SweepRunner
	config   SchedulerConfig
	location *time.Location
	cron     *cron.Cron
	logger   *slog.Logger

	// mu guards the lifecycle. Sweeps never take it, so Stop can wait on
	// them while holding it.
	mu      sync.Mutex
	running bool
	started bool

	// sweepMu serializes sweeps so a new one waits for the previous one.
	sweepMu sync.Mutex

	stateMu   sync.RWMutex
	observers []Observer
	lastRun   *Run

	startup sync.WaitGroup
}

// NewScheduler validates the configuration and creates a scheduler.
func NewScheduler(sweeper SweepRunner, cfg SchedulerConfig, logger *slog.Logger) (*Scheduler, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("sweeper is required")
	}
	if cfg.Directory == "" {
		return nil, fmt.Errorf("directory is required")
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("retention window must be positive, got %s", cfg.Window)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "retention.scheduler")

	location := time.Local
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		location = loc
	}

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", cfg.Schedule, err)
		}
	}

	cl := cronLogger{logger: logger}
	return &Scheduler{
		sweeper:  sweeper,
		config:   cfg,
		location: location,
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		logger: logger,
	}, nil
}

// AddObserver registers an observer. Call before Start.
func (s *Scheduler) AddObserver(o Observer) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.observers = append(s.observers, o)
}

// Start registers the cron job, starts it, and kicks off the startup sweep
// in the background. Cancelling ctx stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true

	if s.config.Schedule != "" {
		_, err := s.cron.AddFunc(s.config.Schedule, func() {
			s.runSweep(ctx, TriggerSchedule)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule sweep: %w", err)
		}
		s.cron.Start()
		s.running = true

		s.logger.Info("retention scheduler started",
			"schedule", s.config.Schedule,
			"timezone", s.location.String(),
			"directory", s.config.Directory,
			"window", s.config.Window.String(),
		)
	} else {
		s.logger.Info("retention schedule not configured, recurring sweeps disabled")
	}

	if s.config.RunOnStart {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			s.runSweep(ctx, TriggerStartup)
		}()
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron runner and waits for in-flight sweeps to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
	s.startup.Wait()
}

// IsRunning reports whether the recurring schedule is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled sweep, or nil when nothing is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 || entries[0].Next.IsZero() {
		return nil
	}
	next := entries[0].Next
	return &next
}

// LastRun returns the most recent completed run, or nil.
func (s *Scheduler) LastRun() *Run {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.lastRun == nil {
		return nil
	}
	run := *s.lastRun
	return &run
}

// Location returns the timezone the schedule is evaluated in.
func (s *Scheduler) Location() *time.Location {
	return s.location
}

// runSweep is the single entry point for both startup and scheduled sweeps.
// A panic in the sweep or an observer is logged and swallowed.
func (s *Scheduler) runSweep(ctx context.Context, trigger Trigger) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweep invocation failed",
				"trigger", string(trigger),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	s.logger.Info("starting sweep", "trigger", string(trigger), "directory", s.config.Directory)

	started := time.Now()
	result := s.sweeper.Sweep(ctx, s.config.Directory, s.config.Window)
	run := Run{
		Trigger:   trigger,
		Directory: s.config.Directory,
		Window:    s.config.Window,
		StartedAt: started,
		Duration:  time.Since(started),
		Result:    result,
	}

	s.stateMu.Lock()
	s.lastRun = &run
	s.stateMu.Unlock()

	s.logger.Info("sweep finished",
		"trigger", string(trigger),
		"deleted", result.Deleted,
		"errors", result.Errors,
		"duration_ms", run.Duration.Milliseconds(),
	)

	s.notify(ctx, run)
}

func (s *Scheduler) notify(ctx context.Context, run Run) {
	s.stateMu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.stateMu.RUnlock()

	for _, o := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("sweep observer failed", "panic", fmt.Sprint(r))
				}
			}()
			o.ObserveSweep(ctx, run)
		}()
	}
}

// cronLogger routes cron's own logging into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
