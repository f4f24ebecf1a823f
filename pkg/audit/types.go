// Package audit provides audit logging infrastructure for the receiver.
// It captures detailed interaction and relay information for debugging,
// compliance, and observability purposes.
package audit

import (
	"net/http"
	"time"
)

// Event constants define the types of events that can be logged.
const (
	EventInteractionReceived = "interaction.received"
	EventResponseSent        = "response.sent"
	EventRelayForwarded      = "relay.forwarded"
	EventRelayResponse       = "relay.response"
	EventRelayFailed         = "relay.failed"
	EventError               = "error"
)

// Record represents a single audit log record capturing an event
// that occurred while handling an interaction.
type Record struct {
	// Sequence is a monotonically increasing sequence number for ordering records.
	Sequence int64 `json:"sequence"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// TraceID is a unique identifier that correlates related events
	// across a single interaction.
	TraceID string `json:"traceId"`

	// Event is the type of event being logged (e.g., "interaction.received").
	Event string `json:"event"`

	// EntryID is the capture log entry this event belongs to, if one exists.
	EntryID string `json:"entryId,omitempty"`

	// Request contains information about the incoming HTTP request.
	Request *RequestInfo `json:"request,omitempty"`

	// Response contains information about the outgoing HTTP response.
	Response *ResponseInfo `json:"response,omitempty"`

	// Relay contains information about a relay round trip.
	Relay *RelayInfo `json:"relay,omitempty"`

	// Client contains information about the client making the request.
	Client *ClientInfo `json:"client,omitempty"`

	// Error contains error details if the event represents an error.
	Error *ErrorInfo `json:"error,omitempty"`
}

// RequestInfo captures details about an incoming HTTP request.
type RequestInfo struct {
	// Method is the HTTP method (GET, POST, etc.).
	Method string `json:"method"`

	// Path is the request URL path.
	Path string `json:"path"`

	// Query is the raw query string.
	Query string `json:"query,omitempty"`

	// Headers are the request headers.
	Headers http.Header `json:"headers,omitempty"`

	// BodySize is the size of the request body in bytes.
	BodySize int64 `json:"bodySize,omitempty"`

	// BodyPreview is a truncated preview of the request body.
	// Large bodies are truncated to prevent log bloat.
	BodyPreview string `json:"bodyPreview,omitempty"`

	// ContentType is the Content-Type header value.
	ContentType string `json:"contentType,omitempty"`
}

// ResponseInfo captures details about an outgoing HTTP response.
type ResponseInfo struct {
	// StatusCode is the HTTP status code.
	StatusCode int `json:"statusCode"`

	// Headers are the response headers.
	Headers http.Header `json:"headers,omitempty"`

	// BodySize is the size of the response body in bytes.
	BodySize int64 `json:"bodySize,omitempty"`

	// BodyPreview is a truncated preview of the response body.
	BodyPreview string `json:"bodyPreview,omitempty"`

	// ContentType is the Content-Type header value.
	ContentType string `json:"contentType,omitempty"`

	// DurationMs is the time taken to produce the response in milliseconds.
	DurationMs int64 `json:"durationMs,omitempty"`
}

// RelayInfo captures details about a relay round trip.
type RelayInfo struct {
	// Target is the normalized relay target URL.
	Target string `json:"target"`

	// Query is the payload forwarded to the target.
	Query string `json:"query,omitempty"`

	// Outcome is "ok" when the target answered, "error" otherwise.
	Outcome string `json:"outcome,omitempty"`

	// StatusCode is the target's HTTP status code, when it answered.
	StatusCode int `json:"statusCode,omitempty"`

	// DurationMs is the round-trip time in milliseconds.
	DurationMs int64 `json:"durationMs,omitempty"`

	// Detail holds the failure detail when the relay did not complete.
	Detail string `json:"detail,omitempty"`
}

// ClientInfo captures details about the client making the request.
type ClientInfo struct {
	// RemoteAddr is the client's IP address and port.
	RemoteAddr string `json:"remoteAddr"`

	// UserAgent is the User-Agent header value.
	UserAgent string `json:"userAgent,omitempty"`
}

// ErrorInfo captures details about an error that occurred.
type ErrorInfo struct {
	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// NewRecord creates a new Record with the current timestamp.
func NewRecord(event string, traceID string) *Record {
	return &Record{
		Timestamp: time.Now(),
		TraceID:   traceID,
		Event:     event,
	}
}

// WithEntryID links the record to a capture log entry.
func (r *Record) WithEntryID(id string) *Record {
	r.EntryID = id
	return r
}

// WithRequest adds request information to the record.
func (r *Record) WithRequest(req *RequestInfo) *Record {
	r.Request = req
	return r
}

// WithResponse adds response information to the record.
func (r *Record) WithResponse(resp *ResponseInfo) *Record {
	r.Response = resp
	return r
}

// WithRelay adds relay information to the record.
func (r *Record) WithRelay(relay *RelayInfo) *Record {
	r.Relay = relay
	return r
}

// WithClient adds client information to the record.
func (r *Record) WithClient(client *ClientInfo) *Record {
	r.Client = client
	return r
}

// WithError adds error information to the record.
func (r *Record) WithError(errInfo *ErrorInfo) *Record {
	r.Error = errInfo
	return r
}
