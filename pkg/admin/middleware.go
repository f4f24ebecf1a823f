package admin

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leelsey/recvd/pkg/metrics"
)

// CORSConfig holds the configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is a list of origins that are allowed to make cross-origin requests.
	// If empty or contains "*", all origins are allowed.
	AllowedOrigins []string

	// AllowedMethods is a list of HTTP methods allowed for cross-origin requests.
	// Default: GET, OPTIONS
	AllowedMethods []string

	// AllowedHeaders is a list of headers that are allowed in cross-origin requests.
	// Default: Content-Type, Authorization
	AllowedHeaders []string

	// AllowCredentials indicates whether the request can include credentials like
	// cookies, authorization headers, or TLS client certificates.
	// When true, AllowedOrigins cannot contain "*" - specific origins must be listed.
	AllowCredentials bool

	// MaxAge indicates how long (in seconds) the results of a preflight request
	// can be cached. Default: 86400 (24 hours)
	MaxAge int
}

// DefaultCORSConfig returns a CORSConfig that allows all origins. The
// admin API is read-only, but production deployments should still pass
// WithCORS with explicit origins instead of the wildcard.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	}
}

// isOriginAllowed checks if the given origin is allowed based on the config.
func (c *CORSConfig) isOriginAllowed(origin string) bool {
	// If no origins specified, allow all
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" {
			return true
		}
		if allowed == origin {
			return true
		}
	}
	return false
}

// getAllowOriginValue returns the appropriate Access-Control-Allow-Origin header value.
func (c *CORSConfig) getAllowOriginValue(origin string) string {
	// If credentials are allowed, we must echo the specific origin (not *)
	if c.AllowCredentials {
		if c.isOriginAllowed(origin) && origin != "" {
			return origin
		}
		return ""
	}

	// If no origins specified or contains wildcard, return *
	if len(c.AllowedOrigins) == 0 {
		return "*"
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
	}

	// Otherwise, echo the origin if it's allowed
	if c.isOriginAllowed(origin) {
		return origin
	}
	return ""
}

// getMethods returns the allowed methods as a comma-separated string.
func (c *CORSConfig) getMethods() string {
	if len(c.AllowedMethods) == 0 {
		return "GET, OPTIONS"
	}
	return strings.Join(c.AllowedMethods, ", ")
}

// getHeaders returns the allowed headers as a comma-separated string.
func (c *CORSConfig) getHeaders() string {
	if len(c.AllowedHeaders) == 0 {
		return "Content-Type, Authorization"
	}
	return strings.Join(c.AllowedHeaders, ", ")
}

// getMaxAge returns the max age as a string.
func (c *CORSConfig) getMaxAge() string {
	if c.MaxAge <= 0 {
		return "86400"
	}
	return strconv.Itoa(c.MaxAge)
}

// SecurityHeadersMiddleware adds security headers to all responses.
// These headers help protect against common web vulnerabilities like
// clickjacking, XSS attacks, MIME type sniffing, and information leakage.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking by denying framing
		w.Header().Set("X-Frame-Options", "DENY")

		// Enable XSS filtering in browsers
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		// Control referrer information sent with requests
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Restrict resource loading to same origin
		w.Header().Set("Content-Security-Policy", "default-src 'self'")

		// Prevent caching of sensitive responses
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// statusCapturingResponseWriter wraps http.ResponseWriter to record the
// status code for logging and metrics.
type statusCapturingResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

// WriteHeader captures the status code.
func (w *statusCapturingResponseWriter) WriteHeader(code int) {
	if !w.headerWritten {
		w.statusCode = code
		w.headerWritten = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Write captures an implicit 200 on the first write.
func (w *statusCapturingResponseWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.statusCode = http.StatusOK
		w.headerWritten = true
	}
	return w.ResponseWriter.Write(b)
}

// Flush forwards to the underlying writer so the streaming endpoints
// keep working behind the wrapper.
func (w *statusCapturingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		if !w.headerWritten {
			w.statusCode = http.StatusOK
			w.headerWritten = true
		}
		f.Flush()
	}
}

// Unwrap exposes the underlying writer so http.ResponseController can
// reach interfaces like http.Flusher.
func (w *statusCapturingResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// isWebSocketUpgrade checks if the request is a WebSocket upgrade request.
func isWebSocketUpgrade(r *http.Request) bool {
	// Check Connection header
	conn := r.Header.Get("Connection")
	if !strings.Contains(strings.ToLower(conn), "upgrade") {
		return false
	}

	// Check Upgrade header
	upgrade := r.Header.Get("Upgrade")
	if strings.ToLower(upgrade) != "websocket" {
		return false
	}

	return true
}

// instrument wraps a handler with request logging and metrics.
func (a *AdminAPI) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// WebSocket upgrades hijack the connection; wrapping the
		// ResponseWriter would hide http.Hijacker from the upgrader.
		if isWebSocketUpgrade(r) {
			next.ServeHTTP(w, r)
			a.recordRequest(r.Method, r.URL.Path, http.StatusSwitchingProtocols, time.Since(start))
			return
		}

		sw := &statusCapturingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		a.log.Debug("admin request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.statusCode,
			"duration", duration,
		)
		a.recordRequest(r.Method, r.URL.Path, sw.statusCode, duration)
	})
}

// recordRequest updates the admin request metrics.
func (a *AdminAPI) recordRequest(method, path string, status int, duration time.Duration) {
	if metrics.AdminRequestsTotal != nil {
		if vec, err := metrics.AdminRequestsTotal.WithLabels(method, path, strconv.Itoa(status)); err == nil {
			_ = vec.Inc()
		}
	}
	if metrics.AdminRequestDuration != nil {
		if vec, err := metrics.AdminRequestDuration.WithLabels(method, path); err == nil {
			vec.Observe(duration.Seconds())
		}
	}
}
