package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics tracks the upload directory.
type StorageMetrics struct {
	storedFiles prometheus.Gauge
}

// NewStorageMetrics creates and registers storage metrics with the provided registry.
func NewStorageMetrics(namespace string, registry *prometheus.Registry) *StorageMetrics {
	sm := &StorageMetrics{
		storedFiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "stored_files",
				Help:      "Number of videos currently in the upload directory",
			},
		),
	}

	registry.MustRegister(sm.storedFiles)
	return sm
}
