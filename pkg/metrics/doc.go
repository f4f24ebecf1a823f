// Package metrics provides Prometheus-compatible metrics collection for the receiver.
//
// This package implements the Prometheus text exposition format (text/plain; version=0.0.4)
// without any external dependencies, using only the standard library.
//
// Supported metric types:
//   - Counter: monotonically increasing value (e.g., interaction counts)
//   - Gauge: value that can go up or down (e.g., entries held in the log)
//   - Histogram: distribution of values with configurable buckets (e.g., relay latencies)
//
// All metrics are thread-safe and can be updated from multiple goroutines.
//
// # Default Metrics
//
// The package provides pre-defined metrics for tracking receiver activity:
//
//   - recvd_interactions_total: Counter for captured interactions (labels: kind, method)
//   - recvd_relays_total: Counter for relay attempts (labels: outcome)
//   - recvd_relay_duration_seconds: Histogram for relay round-trip latency
//   - recvd_entries_stored: Gauge for entries held in the capture log
//   - recvd_admin_requests_total: Counter for admin API requests (labels: method, path, status)
//   - recvd_uptime_seconds: Gauge for receiver uptime
//
// # Usage
//
//	// Initialize the default metrics registry
//	registry := metrics.Init()
//
//	// Captured interaction
//	metrics.InteractionsTotal.WithLabels("named", "GET").Inc()
//
//	// Relay round trip
//	metrics.RelaysTotal.WithLabels("ok").Inc()
//	metrics.RelayDuration.Observe(0.123)
//
//	// Register the /metrics endpoint
//	http.Handle("/metrics", registry.Handler())
//
// Custom metrics can also be created:
//
//	registry := metrics.NewRegistry()
//	counter := registry.NewCounter("my_counter", "Description of counter", "label1", "label2")
//	counter.WithLabels("value1", "value2").Inc()
package metrics
