package receiver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/leelsey/recvd/pkg/audit"
	"github.com/leelsey/recvd/pkg/capture"
	"github.com/leelsey/recvd/pkg/config"
	"github.com/leelsey/recvd/pkg/logging"
	"github.com/leelsey/recvd/pkg/relay"
)

// Server is the capture listener. It binds the configured address,
// serves the capture surface, and drains in-flight requests on stop.
type Server struct {
	cfg         *config.ReceiverConfiguration
	store       capture.SubscribableStore
	recorder    *capture.Recorder
	relayClient *relay.Client
	handler     *Handler
	httpHandler http.Handler
	auditLog    audit.Logger
	out         io.Writer
	log         *slog.Logger

	httpServer *http.Server
	listener   net.Listener
	mu         sync.RWMutex
	running    bool
	startTime  time.Time
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStore sets the capture store. Defaults to a fresh MemoryStore.
func WithStore(store capture.SubscribableStore) ServerOption {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithAuditLogger sets the audit sink. When set, the capture surface is
// wrapped in audit middleware and relays emit audit records.
func WithAuditLogger(auditLog audit.Logger) ServerOption {
	return func(s *Server) {
		if auditLog != nil {
			s.auditLog = auditLog
		}
	}
}

// WithConsoleSink redirects the capture lines. Defaults to stdout.
func WithConsoleSink(out io.Writer) ServerOption {
	return func(s *Server) {
		if out != nil {
			s.out = out
		}
	}
}

// WithRelayClient replaces the relay client.
func WithRelayClient(client *relay.Client) ServerOption {
	return func(s *Server) {
		if client != nil {
			s.relayClient = client
		}
	}
}

// NewServer assembles a capture listener from the configuration. The
// returned server is not yet bound; call Start.
func NewServer(cfg *config.ReceiverConfiguration, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultReceiverConfiguration()
	}

	s := &Server{
		cfg: cfg,
		log: logging.Nop(),
		out: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = capture.NewMemoryStore()
	}

	recorder, err := capture.NewRecorder(s.store, s.out, capture.RecorderConfig{
		Verbose:       cfg.Verbose,
		HiddenPaths:   cfg.HiddenPaths,
		CaptureFilter: cfg.CaptureFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("recorder setup: %w", err)
	}
	s.recorder = recorder

	if s.relayClient == nil {
		relayOpts := []relay.Option{
			relay.WithLogger(s.log.With("component", "relay")),
		}
		if cfg.RelayTimeout > 0 {
			relayOpts = append(relayOpts, relay.WithTimeout(time.Duration(cfg.RelayTimeout)*time.Second))
		}
		if s.auditLog != nil {
			relayOpts = append(relayOpts, relay.WithAuditLogger(s.auditLog))
		}
		s.relayClient = relay.NewClient(relayOpts...)
	}

	s.handler = NewHandler(HandlerConfig{
		Classifier:    NewClassifier(cfg.ViewPath),
		Recorder:      recorder,
		Relay:         s.relayClient,
		Renderer:      NewRenderer(s.store, cfg.ServerName),
		QueryAliases:  cfg.QueryAliases,
		TargetAliases: cfg.TargetAliases,
		MaxBodySize:   int64(cfg.MaxBodySize),
		Logger:        s.log.With("component", "handler"),
	})

	var root http.Handler = s.handler
	if s.auditLog != nil {
		root = audit.NewMiddleware(root, s.auditLog, cfg.Audit)
	}
	s.httpHandler = root

	return s, nil
}

// Start binds the listener and begins serving. A bind failure is
// returned synchronously so the caller can exit non-zero.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}

	if s.cfg.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, s.cfg.MaxConnections)
	}
	s.listener = listener

	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.handler.SetPort(tcpAddr.Port)
	}

	s.httpServer = &http.Server{
		Handler:      s.httpHandler,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
	}

	s.log.Info("starting capture listener", "addr", listener.Addr().String())
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("capture listener error", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	return nil
}

// Stop drains in-flight requests and closes the listener. The context
// bounds the drain; when it carries no deadline the configured drain
// timeout applies.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		drain := time.Duration(s.cfg.DrainTimeout) * time.Second
		if drain <= 0 {
			drain = config.DefaultDrainTimeout * time.Second
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, drain)
		defer cancel()
	}

	err := s.httpServer.Shutdown(ctx)
	s.running = false
	s.log.Info("capture listener stopped")
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the bound listener port, or 0 before Start.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return 0
	}
	if tcpAddr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return 0
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the server uptime in seconds.
func (s *Server) Uptime() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return int(time.Since(s.startTime).Seconds())
}

// Store returns the capture store (for the admin API).
func (s *Server) Store() capture.SubscribableStore {
	return s.store
}

// Config returns the server configuration.
func (s *Server) Config() *config.ReceiverConfiguration {
	return s.cfg
}
