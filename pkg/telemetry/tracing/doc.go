// Package tracing records OpenTelemetry spans for gateway requests and
// retention sweeps and exports them to an OTLP collector.
//
// Tracing is off by default. When enabled:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: otel-collector:4317
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.25
//
// Incoming W3C traceparent headers are honoured, so an upload traced by the
// frontend continues in the gateway. Sweeps are reported after the fact as
// spans carrying the run's own timestamps.
package tracing
