// Package retention keeps the video storage directory bounded by deleting
// files older than a retention window.
//
// # Sweeping
//
// A sweep is one pass over a single directory level:
//
//	result := retention.Sweep("public/videos", 24*time.Hour)
//	log.Printf("deleted=%d errors=%d", result.Deleted, result.Errors)
//
// Subdirectories are skipped, never descended into or removed. A file is
// eligible when now - modtime is strictly greater than the window, so a file
// exactly as old as the window survives.
//
// Sweep never returns an error. A missing directory yields a zero result, a
// failure on a single entry is counted and the sweep continues, and a failure
// to list the directory is reported as a single error.
//
// # Scheduling
//
// The Scheduler runs the same sweep once at start and then on a cron
// schedule in a fixed timezone:
//
//	sched, err := retention.NewScheduler(sweeper, retention.SchedulerConfig{
//	    Directory:  "public/videos",
//	    Window:     24 * time.Hour,
//	    Schedule:   "0 * * * *", // minute zero of every hour
//	    Timezone:   "America/Mexico_City",
//	    RunOnStart: true,
//	}, logger)
//	if err := sched.Start(ctx); err != nil {
//	    return err
//	}
//	defer sched.Stop()
//
// A panic inside a run is recovered and logged; it never unregisters the
// cron job or stops the process. Runs are serialized, and every completed run
// is handed to the registered Observers (metrics, ledger).
package retention
