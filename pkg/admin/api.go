package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/leelsey/recvd/pkg/capture"
	"github.com/leelsey/recvd/pkg/config"
	"github.com/leelsey/recvd/pkg/logging"
	"github.com/leelsey/recvd/pkg/metrics"
)

// StatusSource reports the capture listener's runtime state. The
// receiver server satisfies it; the admin API only reads through it.
type StatusSource interface {
	Addr() string
	Port() int
	IsRunning() bool
	Uptime() int
	Config() *config.ReceiverConfiguration
}

// AdminAPI exposes the read-only API over the capture store.
type AdminAPI struct {
	store    capture.SubscribableStore
	receiver StatusSource

	httpServer      *http.Server
	listener        net.Listener
	port            int
	startTime       time.Time
	mu              sync.RWMutex
	running         bool
	log             *slog.Logger
	corsConfig      CORSConfig
	metricsRegistry *metrics.Registry
	version         string
	upgrader        websocket.Upgrader
}

// NewAdminAPI creates an AdminAPI on the given port. The store and the
// listener status source are wired through options; without a store the
// API serves an empty capture log.
func NewAdminAPI(port int, opts ...Option) *AdminAPI {
	api := &AdminAPI{
		port:            port,
		log:             logging.Nop(),
		metricsRegistry: metrics.Init(),
	}

	for _, opt := range opts {
		opt(api)
	}

	if api.store == nil {
		api.store = capture.NewMemoryStore()
	}
	if len(api.corsConfig.AllowedOrigins) == 0 && len(api.corsConfig.AllowedMethods) == 0 {
		api.corsConfig = DefaultCORSConfig()
	}

	api.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Non-browser clients send no Origin header.
			origin := r.Header.Get("Origin")
			return origin == "" || api.corsConfig.isOriginAllowed(origin)
		},
	}

	mux := http.NewServeMux()
	api.registerRoutes(mux)

	api.httpServer = &http.Server{
		Handler: api.withMiddleware(mux),
		// No write timeout: the stream endpoints hold the response open.
		ReadTimeout: 30 * time.Second,
	}

	return api
}

// withMiddleware wraps the mux with security headers, CORS, and request
// instrumentation. Order (outermost first): security -> CORS -> metrics.
func (a *AdminAPI) withMiddleware(handler http.Handler) http.Handler {
	instrumented := a.instrument(handler)

	corsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")

		allowOrigin := a.corsConfig.getAllowOriginValue(origin)
		if allowOrigin == "" {
			// Origin not allowed. The browser blocks the response; a
			// preflight is answered directly.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			instrumented.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", a.corsConfig.getMethods())
		w.Header().Set("Access-Control-Allow-Headers", a.corsConfig.getHeaders())
		w.Header().Set("Access-Control-Max-Age", a.corsConfig.getMaxAge())
		if a.corsConfig.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		instrumented.ServeHTTP(w, r)
	})

	return SecurityHeadersMiddleware(corsHandler)
}

// Start binds the admin listener and begins serving. Like the capture
// listener, a bind failure is returned synchronously.
func (a *AdminAPI) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("admin API is already running")
	}

	addr := fmt.Sprintf(":%d", a.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	a.listener = listener

	a.log.Info("starting admin API", "addr", listener.Addr().String())
	go func() {
		if err := a.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			a.log.Error("admin API error", "error", err)
		}
	}()

	a.running = true
	a.startTime = time.Now()
	return nil
}

// Stop gracefully shuts down the admin API. A context without a
// deadline gets a default drain timeout.
func (a *AdminAPI) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.DefaultDrainTimeout*time.Second)
		defer cancel()
	}

	err := a.httpServer.Shutdown(ctx)
	a.running = false
	a.log.Info("admin API stopped")
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Addr returns the bound address, or "" before Start.
func (a *AdminAPI) Addr() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Port returns the bound port, or the configured port before Start.
func (a *AdminAPI) Port() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.listener == nil {
		return a.port
	}
	if tcpAddr, ok := a.listener.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return a.port
}

// IsRunning returns whether the admin API is running.
func (a *AdminAPI) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Uptime returns the admin API uptime in seconds.
func (a *AdminAPI) Uptime() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.running {
		return 0
	}
	return int(time.Since(a.startTime).Seconds())
}

// MetricsRegistry returns the metrics registry backing GET /metrics.
func (a *AdminAPI) MetricsRegistry() *metrics.Registry {
	return a.metricsRegistry
}
