package audit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys defined by this package.
type contextKey int

const traceIDKey contextKey = iota

// WithTraceID returns a context carrying the given audit trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext returns the audit trace ID stored in the context,
// or an empty string if none is present. Components that emit their own
// audit records, such as the relay client, use this to correlate their
// records with the capture request that triggered them.
func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey).(string)
	return traceID
}

// Middleware wraps an http.Handler and emits interaction.received and
// response.sent records for every request that passes through it.
type Middleware struct {
	handler    http.Handler
	logger     Logger
	config     *Config
	maxPreview int
}

// NewMiddleware creates an audit logging middleware. A nil logger is
// replaced with a NoOpLogger and a nil config with DefaultConfig.
func NewMiddleware(handler http.Handler, logger Logger, config *Config) *Middleware {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}

	maxPreview := config.MaxBodyPreviewSize
	if maxPreview <= 0 {
		maxPreview = 1024
	}

	return &Middleware{
		handler:    handler,
		logger:     logger,
		config:     config,
		maxPreview: maxPreview,
	}
}

// ServeHTTP implements http.Handler. The wrapped handler always runs,
// even when a record fails to write.
func (m *Middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	traceID := uuid.New().String()

	// Read only the preview bytes. The remainder of the body stays
	// unconsumed so the handler sees the full stream.
	var requestBodyPreview string
	var requestBodySize int64
	if r.Body != nil && r.ContentLength != 0 {
		previewBytes := make([]byte, m.maxPreview)
		n, _ := io.ReadFull(r.Body, previewBytes)

		if n > 0 {
			requestBodyPreview = string(previewBytes[:n])
			r.Body = io.NopCloser(io.MultiReader(
				bytes.NewReader(previewBytes[:n]),
				r.Body,
			))
		}

		// Size from the header, not from what was read.
		requestBodySize = r.ContentLength
	}

	requestInfo := &RequestInfo{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.RawQuery,
		BodySize:    requestBodySize,
		BodyPreview: requestBodyPreview,
		ContentType: r.Header.Get("Content-Type"),
	}
	if m.config.IncludeHeaders {
		requestInfo.Headers = r.Header.Clone()
	}

	clientInfo := &ClientInfo{
		RemoteAddr: r.RemoteAddr,
		UserAgent:  r.Header.Get("User-Agent"),
	}

	received := NewRecord(EventInteractionReceived, traceID).
		WithRequest(requestInfo).
		WithClient(clientInfo)
	if err := m.logger.Log(*received); err != nil {
		// Recording must not fail the request.
		_ = err
	}

	capture := &responseCapture{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		body:           &bytes.Buffer{},
		maxCaptureSize: m.maxPreview,
	}

	// Downstream components pick the trace ID up from the context so
	// their records correlate with this request.
	r = r.WithContext(WithTraceID(r.Context(), traceID))

	m.handler.ServeHTTP(capture, r)

	duration := time.Since(startTime)

	responseInfo := &ResponseInfo{
		StatusCode:  capture.statusCode,
		BodySize:    int64(capture.size),
		ContentType: capture.Header().Get("Content-Type"),
		DurationMs:  duration.Milliseconds(),
	}
	if capture.body.Len() > 0 {
		responseInfo.BodyPreview = capture.body.String()
	}
	if m.config.IncludeHeaders {
		responseInfo.Headers = capture.Header().Clone()
	}

	sent := NewRecord(EventResponseSent, traceID).
		WithRequest(requestInfo).
		WithResponse(responseInfo).
		WithClient(clientInfo)
	if err := m.logger.Log(*sent); err != nil {
		_ = err
	}
}

// responseCapture records status, size, and a bounded body preview while
// delegating to the underlying ResponseWriter.
type responseCapture struct {
	http.ResponseWriter
	statusCode     int
	body           *bytes.Buffer
	size           int
	maxCaptureSize int
}

func (rc *responseCapture) WriteHeader(code int) {
	rc.statusCode = code
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if rc.body.Len() < rc.maxCaptureSize {
		remaining := rc.maxCaptureSize - rc.body.Len()
		if len(b) <= remaining {
			rc.body.Write(b)
		} else {
			rc.body.Write(b[:remaining])
		}
	}
	rc.size += len(b)
	return rc.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying ResponseWriter for http.ResponseController.
func (rc *responseCapture) Unwrap() http.ResponseWriter {
	return rc.ResponseWriter
}
