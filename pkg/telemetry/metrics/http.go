package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks requests served by the gateway.
//
// Metrics:
//   - videogate_http_requests_total: Request count by route, method, status
//   - videogate_http_request_duration_seconds: Request duration by route
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers HTTP metrics with the provided registry.
func NewHTTPMetrics(namespace string, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				// Uploads of large files dominate the tail.
				Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(hm.requestsTotal, hm.requestDuration)
	return hm
}

// Record records one completed request.
func (hm *HTTPMetrics) Record(route, method, status string, duration time.Duration) {
	hm.requestsTotal.WithLabelValues(route, method, status).Inc()
	hm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
