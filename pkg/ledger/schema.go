package ledger

// SchemaVersion is the current ledger schema version.
const SchemaVersion = 1

// Timestamps are stored as unix milliseconds so both drivers agree on the
// representation.
const schema = `
CREATE TABLE IF NOT EXISTS sweep_runs (
    id TEXT PRIMARY KEY,
    "trigger" TEXT NOT NULL,
    directory TEXT NOT NULL,
    window_ms INTEGER NOT NULL,
    started_at INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    deleted INTEGER NOT NULL,
    errors INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sweep_runs_started_at ON sweep_runs(started_at DESC);

CREATE TABLE IF NOT EXISTS sweep_entries (
    run_id TEXT NOT NULL REFERENCES sweep_runs(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    action TEXT NOT NULL,
    reason TEXT
);

CREATE INDEX IF NOT EXISTS idx_sweep_entries_run_id ON sweep_entries(run_id);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

const (
	insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`
	selectSchemaVersion = `SELECT MAX(version) FROM schema_version`

	insertRun = `
		INSERT INTO sweep_runs (id, "trigger", directory, window_ms, started_at, duration_ms, deleted, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	insertEntry = `INSERT INTO sweep_entries (run_id, name, action, reason) VALUES (?, ?, ?, ?)`

	selectRecentRuns = `
		SELECT id, "trigger", directory, window_ms, started_at, duration_ms, deleted, errors
		FROM sweep_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`

	selectEntries = `SELECT name, action, reason FROM sweep_entries WHERE run_id = ? ORDER BY rowid`

	pruneEntries = `
		DELETE FROM sweep_entries WHERE run_id NOT IN (
			SELECT id FROM sweep_runs ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`

	pruneRuns = `
		DELETE FROM sweep_runs WHERE id NOT IN (
			SELECT id FROM sweep_runs ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`
)
