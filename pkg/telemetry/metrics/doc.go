// Package metrics provides Prometheus metrics for the video gateway.
//
// # Metrics Categories
//
//   - HTTP: request count and duration per route
//   - Upload: attempts by outcome, stored sizes, rate-limited requests
//   - Retention: sweeps, deletions, failures, duration and last run time
//   - Storage: number of videos currently stored
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	scheduler.AddObserver(collector)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Every collector owns a private registry, so tests can build as many as
// they like without duplicate-registration panics.
package metrics
