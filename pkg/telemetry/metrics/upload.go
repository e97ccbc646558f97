package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// UploadMetrics tracks video uploads.
//
// Metrics:
//   - videogate_upload_total: Upload attempts by outcome
//   - videogate_upload_size_bytes: Size of stored uploads
//   - videogate_upload_rate_limited_total: Requests rejected by the rate limiter
type UploadMetrics struct {
	uploadsTotal *prometheus.CounterVec
	sizeBytes    prometheus.Histogram
	rateLimited  prometheus.Counter
}

// NewUploadMetrics creates and registers upload metrics with the provided registry.
func NewUploadMetrics(namespace string, registry *prometheus.Registry) *UploadMetrics {
	um := &UploadMetrics{
		uploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "total",
				Help:      "Total number of upload attempts by outcome",
			},
			[]string{"outcome"},
		),
		sizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "size_bytes",
				Help:      "Size of stored uploads in bytes",
				Buckets:   prometheus.ExponentialBuckets(64*1024, 4, 8), // 64KB to 1GB
			},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "rate_limited_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
		),
	}

	registry.MustRegister(um.uploadsTotal, um.sizeBytes, um.rateLimited)
	return um
}

// Record records one upload attempt.
func (um *UploadMetrics) Record(outcome string, size int64) {
	um.uploadsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeStored && size > 0 {
		um.sizeBytes.Observe(float64(size))
	}
}
