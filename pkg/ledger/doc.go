// Package ledger keeps a SQLite history of retention sweeps: one row per run
// and one row per file the run deleted or failed on.
//
// Both the cgo driver (github.com/mattn/go-sqlite3, driver name "sqlite3")
// and the pure Go driver (modernc.org/sqlite, driver name "sqlite") are
// linked in; Config.Driver selects one at runtime.
//
// *Ledger implements retention.Observer, so it can be attached to a
// scheduler directly:
//
//	sched.AddObserver(ledger)
package ledger
