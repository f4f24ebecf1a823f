// Route registration for the admin API.

package admin

import (
	"net/http"
)

// registerRoutes sets up all API routes. Everything is a GET: the
// capture log is append-only and the API never mutates it.
func (a *AdminAPI) registerRoutes(mux *http.ServeMux) {
	// Health check, status, and metrics
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /status", a.handleGetStatus)
	mux.Handle("GET /metrics", a.metricsRegistry.Handler())

	// Capture log
	mux.HandleFunc("GET /entries", a.handleListEntries)
	mux.HandleFunc("GET /entries/stream", a.handleStreamEntries)
	mux.HandleFunc("GET /entries/ws", a.handleWatchEntries)
	mux.HandleFunc("GET /entries/{id}", a.handleGetEntry)
}
