package receiver

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/leelsey/recvd/pkg/capture"
	"github.com/leelsey/recvd/pkg/config"
	"github.com/leelsey/recvd/pkg/httputil"
	"github.com/leelsey/recvd/pkg/logging"
	"github.com/leelsey/recvd/pkg/metrics"
	"github.com/leelsey/recvd/pkg/relay"
)

// Handler serves the capture surface. Every inbound request is recorded
// before it is answered; recording never rejects a request.
type Handler struct {
	classifier    *Classifier
	recorder      *capture.Recorder
	relay         *relay.Client
	renderer      *Renderer
	queryAliases  []string
	targetAliases []string
	maxBodySize   int64
	port          int
	log           *slog.Logger
}

// HandlerConfig assembles a Handler's collaborators.
type HandlerConfig struct {
	// Classifier routes requests. Required.
	Classifier *Classifier

	// Recorder captures every interaction. Required.
	Recorder *capture.Recorder

	// Relay forwards root queries carrying an alias pair. Required for
	// root traffic to relay; without it alias pairs echo like any query.
	Relay *relay.Client

	// Renderer produces the HTML log view. Required.
	Renderer *Renderer

	// QueryAliases are the keys resolved as the relay payload, checked
	// in order. Defaults to q, req.
	QueryAliases []string

	// TargetAliases are the keys resolved as the relay target, checked
	// in order. Defaults to p, rep.
	TargetAliases []string

	// MaxBodySize caps how much of a request body is captured.
	MaxBodySize int64

	// Logger is the operational logger.
	Logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		classifier:    cfg.Classifier,
		recorder:      cfg.Recorder,
		relay:         cfg.Relay,
		renderer:      cfg.Renderer,
		queryAliases:  cfg.QueryAliases,
		targetAliases: cfg.TargetAliases,
		maxBodySize:   cfg.MaxBodySize,
		log:           cfg.Logger,
	}
	if len(h.queryAliases) == 0 {
		h.queryAliases = []string{"q", "req"}
	}
	if len(h.targetAliases) == 0 {
		h.targetAliases = []string{"p", "rep"}
	}
	if h.maxBodySize <= 0 {
		h.maxBodySize = config.DefaultMaxBodySize
	}
	if h.log == nil {
		h.log = logging.Nop()
	}
	return h
}

// SetPort tells the handler which port the listener bound, for the
// client origin on verbose capture lines. Call before serving.
func (h *Handler) SetPort(port int) {
	h.port = port
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := h.readBody(w, r)
	decision := h.classifier.Classify(r.Method, r.URL.Path, r.URL.RawQuery)

	entry := &capture.Entry{
		Kind:         decision.Kind,
		Method:       r.Method,
		Path:         r.URL.Path,
		Label:        decision.Label,
		Body:         body,
		ClientOrigin: h.clientOrigin(r),
	}
	switch decision.Kind {
	case capture.KindRoot:
		entry.QueryValue = decision.Query.String()
	case capture.KindNamed:
		entry.QueryValue = decision.Label
	}

	h.recorder.Record(entry)

	switch decision.Kind {
	case capture.KindFavicon:
		w.WriteHeader(http.StatusNotFound)
	case capture.KindView:
		h.serveView(w)
	case capture.KindRoot:
		h.serveRoot(w, r, decision)
	default:
		httputil.WriteText(w, http.StatusOK, decision.Label)
	}
}

// serveRoot answers a root request: relay when the alias pair resolves,
// otherwise echo the parsed query as JSON, or nothing.
func (h *Handler) serveRoot(w http.ResponseWriter, r *http.Request, decision Decision) {
	if query, target, ok := h.resolveRelay(decision.Query); ok && h.relay != nil {
		result := h.relay.Forward(r.Context(), query, target)
		httputil.WriteText(w, http.StatusOK, result.Text())
		return
	}

	if decision.Query != nil {
		httputil.WriteRawJSON(w, http.StatusOK, []byte(decision.Query.String()))
		return
	}
	httputil.WriteText(w, http.StatusOK, "")
}

// serveView renders the HTML log view.
func (h *Handler) serveView(w http.ResponseWriter) {
	page, err := h.renderer.Page()
	if err != nil {
		h.log.Error("log view render failed", "error", err)
		httputil.WriteInternalError(w, "render_failed", "failed to render the log view")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// resolveRelay checks the configured alias pairs: a relay needs both a
// query key and a target key, and the target has to resolve non-empty.
// A repeated target key resolves to its first value.
func (h *Handler) resolveRelay(query *QueryMapping) (any, string, bool) {
	if query == nil {
		return nil, "", false
	}

	queryVal, hasQuery := firstAlias(query, h.queryAliases)
	targetVal, hasTarget := firstAlias(query, h.targetAliases)
	if !hasQuery || !hasTarget {
		return nil, "", false
	}

	target := firstString(targetVal)
	if target == "" {
		return nil, "", false
	}
	return queryVal, target, true
}

// firstAlias returns the value of the first alias present in the mapping.
func firstAlias(query *QueryMapping, aliases []string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := query.Get(alias); ok {
			return v, true
		}
	}
	return nil, false
}

// firstString flattens a query value to a single string.
func firstString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

// readBody captures up to maxBodySize bytes of the request body. A read
// failure keeps whatever arrived; capture never rejects a request.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		h.log.Warn("request body read failed", "path", r.URL.Path, "error", err)
		if metrics.ErrorsTotal != nil {
			if vec, verr := metrics.ErrorsTotal.WithLabels("body_read"); verr == nil {
				_ = vec.Inc()
			}
		}
	}
	return string(data)
}

// clientOrigin names the caller as "ip:port" where the port is the
// listener's, the way verbose capture lines identify their source.
func (h *Handler) clientOrigin(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return host + ":" + strconv.Itoa(h.port)
}
