package retention

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"
)

// Entry operations reported in EntryError.Op.
const (
	OpStat    = "stat"
	OpRemove  = "remove"
	OpReadDir = "readdir"
)

// EntryError records why a single entry (or the directory itself) could not
// be processed.
type EntryError struct {
	Name string
	Op   string
	Err  error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e EntryError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one sweep. Deleted and Errors are the contract;
// Removed and Failures carry the names behind the counts.
type Result struct {
	Deleted  int
	Errors   int
	Removed  []string
	Failures []EntryError
}

// Sweeper deletes expired files from a directory.
type Sweeper struct {
	fs     FS
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithFS replaces the host filesystem.
func WithFS(fsys FS) Option {
	return func(s *Sweeper) {
		s.fs = fsys
	}
}

// WithClock replaces time.Now as the reference for file age.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

// WithLogger sets the logger used for per-entry reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// NewSweeper creates a sweeper over the host filesystem unless overridden.
func NewSweeper(opts ...Option) *Sweeper {
	s := &Sweeper{
		fs:     OSFS{},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "retention.sweeper")
	return s
}

// Sweep runs a single sweep of dir on the host filesystem.
func Sweep(dir string, window time.Duration) Result {
	return NewSweeper().Sweep(context.Background(), dir, window)
}

// Sweep deletes every non-directory entry of dir whose age is strictly
// greater than window. It never returns an error: a missing directory yields
// a zero Result, per-entry failures are counted, and a directory that cannot
// be listed yields Errors == 1.
//
// If ctx is cancelled, entries not yet visited are left alone and the
// partial result is returned.
func (s *Sweeper) Sweep(ctx context.Context, dir string, window time.Duration) Result {
	now := s.now()

	if _, err := s.fs.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.InfoContext(ctx, "storage directory does not exist, nothing to sweep",
				"directory", dir,
			)
			return Result{}
		}
		return s.directoryFailure(ctx, dir, OpStat, err)
	}

	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return s.directoryFailure(ctx, dir, OpReadDir, err)
	}

	var result Result
	for _, entry := range entries {
		if ctx.Err() != nil {
			s.logger.WarnContext(ctx, "sweep interrupted",
				"directory", dir,
				"error", ctx.Err(),
			)
			break
		}

		name := entry.Name()
		path := filepath.Join(dir, name)

		info, err := s.fs.Stat(path)
		if err != nil {
			s.fail(ctx, &result, name, OpStat, err)
			continue
		}
		if info.IsDir() {
			continue
		}

		age := now.Sub(info.ModTime())
		if age <= window {
			continue
		}

		if err := s.fs.Remove(path); err != nil {
			s.fail(ctx, &result, name, OpRemove, err)
			continue
		}

		result.Deleted++
		result.Removed = append(result.Removed, name)
		s.logger.InfoContext(ctx, "deleted expired video",
			"file", name,
			"age_hours", int64(age.Round(time.Hour)/time.Hour),
		)
	}

	if result.Deleted > 0 || result.Errors > 0 {
		s.logger.InfoContext(ctx, "sweep completed",
			"directory", dir,
			"deleted", result.Deleted,
			"errors", result.Errors,
		)
	}

	return result
}

func (s *Sweeper) fail(ctx context.Context, result *Result, name, op string, err error) {
	result.Errors++
	result.Failures = append(result.Failures, EntryError{Name: name, Op: op, Err: err})
	s.logger.ErrorContext(ctx, "failed to process file",
		"file", name,
		"op", op,
		"error", err,
	)
}

func (s *Sweeper) directoryFailure(ctx context.Context, dir, op string, err error) Result {
	s.logger.ErrorContext(ctx, "sweep aborted",
		"directory", dir,
		"op", op,
		"error", err,
	)
	return Result{
		Errors:   1,
		Failures: []EntryError{{Name: dir, Op: op, Err: err}},
	}
}
