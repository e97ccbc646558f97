package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"primeia/videogate/pkg/config"
	"primeia/videogate/pkg/retention"
)

// Upload outcomes used as the "outcome" label.
const (
	OutcomeStored       = "stored"
	OutcomeRejected     = "rejected"
	OutcomeTooLarge     = "too_large"
	OutcomeUnsupported  = "unsupported_type"
	OutcomeStorageError = "storage_error"
)

// Collector owns every gateway metric and the registry they live in.
//
// A Collector built from a disabled config still accepts every Record call;
// the calls become no-ops so callers never need to nil-check.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	httpMetrics      *HTTPMetrics
	uploadMetrics    *UploadMetrics
	retentionMetrics *RetentionMetrics
	storageMetrics   *StorageMetrics
}

// NewCollector creates a new metrics collector. If registry is nil a fresh
// private registry is used, never the global default.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:           cfg,
		registry:         registry,
		httpMetrics:      NewHTTPMetrics(namespace, registry),
		uploadMetrics:    NewUploadMetrics(namespace, registry),
		retentionMetrics: NewRetentionMetrics(namespace, registry),
		storageMetrics:   NewStorageMetrics(namespace, registry),
	}
}

// Registry returns the registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordHTTPRequest records a completed HTTP request. route must be a fixed
// route name, never a raw path, to keep label cardinality bounded.
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.Record(route, method, strconv.Itoa(status), duration)
}

// RecordUpload records the outcome of one upload attempt. size is only
// observed for stored files.
func (c *Collector) RecordUpload(outcome string, size int64) {
	if !c.config.Enabled {
		return
	}
	c.uploadMetrics.Record(outcome, size)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (c *Collector) RecordRateLimited() {
	if !c.config.Enabled {
		return
	}
	c.uploadMetrics.rateLimited.Inc()
}

// SetStoredFiles sets the current number of stored videos.
func (c *Collector) SetStoredFiles(n int) {
	if !c.config.Enabled {
		return
	}
	c.storageMetrics.storedFiles.Set(float64(n))
}

// ObserveSweep implements retention.Observer.
func (c *Collector) ObserveSweep(_ context.Context, run retention.Run) {
	if !c.config.Enabled {
		return
	}
	c.retentionMetrics.Record(run)
}
