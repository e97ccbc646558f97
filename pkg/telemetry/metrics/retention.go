package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"primeia/videogate/pkg/retention"
)

// RetentionMetrics tracks retention sweeps.
//
// Metrics:
//   - videogate_retention_sweeps_total: Sweeps by trigger
//   - videogate_retention_deleted_total: Files removed
//   - videogate_retention_errors_total: Per-entry failures
//   - videogate_retention_sweep_duration_seconds: Sweep duration
//   - videogate_retention_last_sweep_timestamp_seconds: Start of the latest sweep
type RetentionMetrics struct {
	sweepsTotal   *prometheus.CounterVec
	deletedTotal  prometheus.Counter
	errorsTotal   prometheus.Counter
	sweepDuration prometheus.Histogram
	lastSweep     prometheus.Gauge
}

// NewRetentionMetrics creates and registers retention metrics with the provided registry.
func NewRetentionMetrics(namespace string, registry *prometheus.Registry) *RetentionMetrics {
	rm := &RetentionMetrics{
		sweepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "retention",
				Name:      "sweeps_total",
				Help:      "Total number of retention sweeps by trigger",
			},
			[]string{"trigger"},
		),
		deletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "retention",
				Name:      "deleted_total",
				Help:      "Total number of files removed by retention sweeps",
			},
		),
		errorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "retention",
				Name:      "errors_total",
				Help:      "Total number of entries retention sweeps failed to process",
			},
		),
		sweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "retention",
				Name:      "sweep_duration_seconds",
				Help:      "Duration of retention sweeps in seconds",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
			},
		),
		lastSweep: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "retention",
				Name:      "last_sweep_timestamp_seconds",
				Help:      "Unix time the most recent sweep started",
			},
		),
	}

	registry.MustRegister(rm.sweepsTotal, rm.deletedTotal, rm.errorsTotal, rm.sweepDuration, rm.lastSweep)
	return rm
}

// Record records a finished sweep.
func (rm *RetentionMetrics) Record(run retention.Run) {
	rm.sweepsTotal.WithLabelValues(string(run.Trigger)).Inc()
	rm.deletedTotal.Add(float64(run.Result.Deleted))
	rm.errorsTotal.Add(float64(run.Result.Errors))
	rm.sweepDuration.Observe(run.Duration.Seconds())
	rm.lastSweep.Set(float64(run.StartedAt.UnixNano()) / 1e9)
}
