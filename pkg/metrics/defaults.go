package metrics

import (
	"sync"
	"time"
)

// Default metrics for the receiver.
// These are initialized by calling Init().
//
// # Label Conventions
//
// ## kind label values
//   - root: requests against / (query echo or relay)
//   - view: the HTML log view
//   - favicon: browser favicon probes
//   - named: any other path, echoed back as a label
//
// ## method label values
//
// Uppercase HTTP methods (GET, POST, PUT, DELETE, ...).
//
// ## outcome label values (for RelaysTotal)
//   - ok: relay target answered and its body was returned
//   - error: the relay attempt failed and the failure text was returned
var (
	// InteractionsTotal counts captured interactions.
	// Labels: kind, method
	InteractionsTotal *Counter

	// RelaysTotal counts relay attempts by outcome.
	// Labels: outcome (ok, error)
	RelaysTotal *Counter

	// RelayDuration tracks the duration of relay round trips in seconds.
	RelayDuration *Histogram

	// EntriesStored is a gauge of the number of entries held in the capture log.
	EntriesStored *Gauge

	// AdminRequestsTotal counts the total number of admin API requests.
	// Labels: method, path, status
	AdminRequestsTotal *Counter

	// AdminRequestDuration tracks the duration of admin API requests in seconds.
	// Labels: method, path
	AdminRequestDuration *Histogram

	// ErrorsTotal counts errors by type.
	// Labels: type (relay, body_read, audit)
	ErrorsTotal *Counter

	// UptimeSeconds is a gauge of the receiver uptime in seconds.
	UptimeSeconds *Gauge

	// RuntimeCollectorInstance is the Go runtime metrics collector.
	RuntimeCollectorInstance *RuntimeCollector

	// runtimeCollectorStop stops the runtime collector goroutine.
	runtimeCollectorStop func()

	// defaultRegistry is the global metrics registry.
	defaultRegistry *Registry

	// initOnce ensures Init() is only called once.
	initOnce sync.Once
)

// Init initializes the default metrics and returns the registry.
// This function is idempotent and safe to call multiple times.
func Init() *Registry {
	initOnce.Do(func() {
		defaultRegistry = NewRegistry()

		// Capture metrics
		InteractionsTotal = defaultRegistry.NewCounter(
			"recvd_interactions_total",
			"Total number of captured interactions",
			"kind", "method",
		)

		EntriesStored = defaultRegistry.NewGauge(
			"recvd_entries_stored",
			"Number of entries held in the capture log",
		)

		// Relay metrics
		RelaysTotal = defaultRegistry.NewCounter(
			"recvd_relays_total",
			"Total number of relay attempts by outcome",
			"outcome",
		)

		RelayDuration = defaultRegistry.NewHistogram(
			"recvd_relay_duration_seconds",
			"Duration of relay round trips in seconds",
			DefaultBuckets,
		)

		// Admin API metrics
		AdminRequestsTotal = defaultRegistry.NewCounter(
			"recvd_admin_requests_total",
			"Total number of admin API requests",
			"method", "path", "status",
		)

		AdminRequestDuration = defaultRegistry.NewHistogram(
			"recvd_admin_request_duration_seconds",
			"Duration of admin API requests in seconds",
			DefaultBuckets,
			"method", "path",
		)

		// Error metrics
		ErrorsTotal = defaultRegistry.NewCounter(
			"recvd_errors_total",
			"Total number of errors by type",
			"type",
		)

		// Uptime metric
		UptimeSeconds = defaultRegistry.NewGauge(
			"recvd_uptime_seconds",
			"Receiver uptime in seconds",
		)

		// Initialize Go runtime metrics collector (passing UptimeSeconds for it to update)
		RuntimeCollectorInstance = NewRuntimeCollector(defaultRegistry, UptimeSeconds)
		// Start collecting runtime metrics every 10 seconds
		runtimeCollectorStop = RuntimeCollectorInstance.StartCollector(10 * time.Second)
	})

	return defaultRegistry
}

// DefaultRegistry returns the default metrics registry.
// Returns nil if Init() has not been called.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Reset resets all default metrics. Useful for testing.
// This also resets the initOnce, allowing Init() to be called again.
func Reset() {
	// Stop runtime collector if running
	if runtimeCollectorStop != nil {
		runtimeCollectorStop()
		runtimeCollectorStop = nil
	}

	initOnce = sync.Once{}
	defaultRegistry = nil
	InteractionsTotal = nil
	RelaysTotal = nil
	RelayDuration = nil
	EntriesStored = nil
	AdminRequestsTotal = nil
	AdminRequestDuration = nil
	ErrorsTotal = nil
	UptimeSeconds = nil
	RuntimeCollectorInstance = nil
}
