package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver (cgo)
	_ "modernc.org/sqlite"          // "sqlite" driver (pure Go)

	"primeia/videogate/pkg/retention"
)

// Supported database/sql driver names.
const (
	DriverCGO  = "sqlite3"
	DriverPure = "sqlite"
)

// Entry actions.
const (
	ActionDeleted = "deleted"
	ActionFailed  = "failed"
)

// ErrUnsupportedDriver is returned for a driver other than DriverCGO or DriverPure.
var ErrUnsupportedDriver = errors.New("unsupported ledger driver")

// Config configures the ledger database.
type Config struct {
	// Driver selects the SQLite implementation: "sqlite3" or "sqlite".
	Driver string

	// Path is the database file path. Parent directories are created.
	Path string

	// BusyTimeout is how long to wait for a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// MaxRuns caps how many runs are kept. Zero keeps everything.
	MaxRuns int
}

// EntryRecord is a single file outcome within a run.
type EntryRecord struct {
	Name   string `json:"name"`
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// RunRecord is a persisted sweep run.
type RunRecord struct {
	ID        string        `json:"id"`
	Trigger   string        `json:"trigger"`
	Directory string        `json:"directory"`
	Window    time.Duration `json:"-"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"-"`
	Deleted   int           `json:"deleted"`
	Errors    int           `json:"errors"`
	Entries   []EntryRecord `json:"entries,omitempty"`
}

// Ledger records sweep runs in SQLite.
type Ledger struct {
	db     *sql.DB
	config Config
	newID  func() string
	logger *slog.Logger
}

// Open opens (or creates) the ledger database and applies the schema.
func Open(cfg Config, logger *slog.Logger) (*Ledger, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverCGO
	}
	if cfg.Driver != DriverCGO && cfg.Driver != DriverPure {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ledger", "driver", cfg.Driver)

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// One connection keeps per-connection pragmas in effect and matches
	// SQLite's single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	l := &Ledger{
		db:     db,
		config: cfg,
		newID:  func() string { return uuid.NewString() },
		logger: logger,
	}

	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("ledger initialized", "path", cfg.Path, "max_runs", cfg.MaxRuns)
	return l, nil
}

func (l *Ledger) initialize() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		fmt.Sprintf("PRAGMA busy_timeout=%d;", l.config.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := l.db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := l.db.Exec(insertSchemaVersion, SchemaVersion, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	var version sql.NullInt64
	if err := l.db.QueryRow(selectSchemaVersion).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if !version.Valid || version.Int64 != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, version.Int64)
	}
	return nil
}

// Record persists run and its per-entry outcomes in one transaction and
// returns the generated run ID.
func (l *Ledger) Record(ctx context.Context, run retention.Run) (string, error) {
	id := l.newID()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, insertRun,
		id,
		string(run.Trigger),
		run.Directory,
		run.Window.Milliseconds(),
		run.StartedAt.UnixMilli(),
		run.Duration.Milliseconds(),
		run.Result.Deleted,
		run.Result.Errors,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertEntry)
	if err != nil {
		return "", fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for _, name := range run.Result.Removed {
		if _, err := stmt.ExecContext(ctx, id, name, ActionDeleted, nil); err != nil {
			return "", fmt.Errorf("failed to insert entry: %w", err)
		}
	}
	for _, f := range run.Result.Failures {
		reason := fmt.Sprintf("%s: %v", f.Op, f.Err)
		if _, err := stmt.ExecContext(ctx, id, f.Name, ActionFailed, reason); err != nil {
			return "", fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	if l.config.MaxRuns > 0 {
		if _, err := tx.ExecContext(ctx, pruneEntries, l.config.MaxRuns); err != nil {
			return "", fmt.Errorf("failed to prune entries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, pruneRuns, l.config.MaxRuns); err != nil {
			return "", fmt.Errorf("failed to prune runs: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// Recent returns up to limit runs, newest first, with their entries.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := l.db.QueryContext(ctx, selectRecentRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var runs []RunRecord
	for rows.Next() {
		var (
			r                             RunRecord
			windowMs, startedMs, duration int64
		)
		if err := rows.Scan(&r.ID, &r.Trigger, &r.Directory, &windowMs, &startedMs, &duration, &r.Deleted, &r.Errors); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Window = time.Duration(windowMs) * time.Millisecond
		r.StartedAt = time.UnixMilli(startedMs).UTC()
		r.Duration = time.Duration(duration) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	rows.Close()

	// Entries are loaded after the run cursor is closed; the pool has a
	// single connection.
	for i := range runs {
		entries, err := l.entries(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Entries = entries
	}
	return runs, nil
}

func (l *Ledger) entries(ctx context.Context, runID string) ([]EntryRecord, error) {
	rows, err := l.db.QueryContext(ctx, selectEntries, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []EntryRecord
	for rows.Next() {
		var (
			e      EntryRecord
			reason sql.NullString
		)
		if err := rows.Scan(&e.Name, &e.Action, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Reason = reason.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ObserveSweep records run, logging rather than returning failures.
func (l *Ledger) ObserveSweep(ctx context.Context, run retention.Run) {
	// Record even when the sweep was interrupted by shutdown.
	ctx = context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	id, err := l.Record(ctx, run)
	if err != nil {
		l.logger.Error("failed to record sweep run", "trigger", string(run.Trigger), "error", err)
		return
	}
	l.logger.Debug("sweep run recorded", "run_id", id)
}

// Ping checks the database connection.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
