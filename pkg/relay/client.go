// Package relay forwards captured root queries to remote targets.
//
// A relay is a single outbound POST carrying the query as a compact JSON
// envelope. The target is taken from the inbound request itself, so it is
// normalized before use and failures are folded into the result body
// rather than surfaced as errors.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leelsey/recvd/pkg/audit"
	"github.com/leelsey/recvd/pkg/logging"
	"github.com/leelsey/recvd/pkg/metrics"
)

const (
	// DefaultTimeout bounds a relay round trip.
	DefaultTimeout = 10 * time.Second

	// maxResponseSize caps how much of the target's response is read.
	maxResponseSize = 10 * 1024 * 1024
)

// Client issues relay requests. The zero value is not usable; create one
// with NewClient.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	auditLog   audit.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds the relay round trip. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAuditLogger sets the audit sink for relay events.
func WithAuditLogger(auditLog audit.Logger) Option {
	return func(c *Client) {
		if auditLog != nil {
			c.auditLog = auditLog
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. The client's
// timeout is overwritten with the relay timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a relay client with pooled connections and a bounded
// round-trip timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout: DefaultTimeout,
		logger:  logging.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   c.timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       30 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: c.timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
			// A redirect answer is relayed as-is, the same as any
			// other upstream response.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	c.httpClient.Timeout = c.timeout

	return c
}

// NormalizeTarget prepends "http://" when the target carries no
// http(s) scheme prefix.
func NormalizeTarget(target string) string {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return "http://" + target
	}
	return target
}

// Forward sends the query to the target as a single POST and returns the
// outcome. The target is normalized first; its scheme, host, path (or "/"
// when empty) and query string are kept. The query may be a single string
// or an ordered list when the inbound key repeated.
//
// Forward never returns an error: transport failures land in Result.Err
// and render through Result.Text.
func (c *Client) Forward(ctx context.Context, query any, target string) *Result {
	result := &Result{Target: NormalizeTarget(target)}

	outboundURL, err := buildURL(result.Target)
	if err != nil {
		result.Err = err
		c.finish(ctx, query, result)
		return result
	}

	payload, err := json.Marshal(struct {
		Query any `json:"query"`
	}{Query: query})
	if err != nil {
		result.Err = err
		c.finish(ctx, query, result)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, outboundURL, bytes.NewReader(payload))
	if err != nil {
		result.Err = err
		c.finish(ctx, query, result)
		return result
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	result.Duration = time.Since(start)
	if err != nil {
		// The url.Error wrapper repeats the target, which the failure
		// text already names.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		result.Err = err
		c.finish(ctx, query, result)
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		result.Err = err
		c.finish(ctx, query, result)
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Body = string(body)
	c.finish(ctx, query, result)
	return result
}

// buildURL parses the normalized target and rebuilds the outbound URL
// keeping scheme, host, path and query. An empty path becomes "/" and
// any fragment is dropped.
func buildURL(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u.String(), nil
}

// finish records metrics, logs, and audit events for a completed relay.
func (c *Client) finish(ctx context.Context, query any, result *Result) {
	outcome := "ok"
	if result.Err != nil {
		outcome = "error"
	}

	if metrics.RelaysTotal != nil {
		if vec, err := metrics.RelaysTotal.WithLabels(outcome); err == nil {
			_ = vec.Inc()
		}
	}
	if metrics.RelayDuration != nil && result.Duration > 0 {
		_ = metrics.RelayDuration.Observe(result.Duration.Seconds())
	}
	if metrics.ErrorsTotal != nil && result.Err != nil {
		if vec, err := metrics.ErrorsTotal.WithLabels("relay"); err == nil {
			_ = vec.Inc()
		}
	}

	if result.Err != nil {
		c.logger.Warn("relay failed",
			"target", result.Target,
			"error", result.Err,
			"duration", result.Duration)
	} else {
		c.logger.Debug("relay completed",
			"target", result.Target,
			"status", result.StatusCode,
			"duration", result.Duration)
	}

	if c.auditLog != nil {
		event := audit.EventRelayForwarded
		if result.Err != nil {
			event = audit.EventRelayFailed
		}
		info := &audit.RelayInfo{
			Target:     result.Target,
			Query:      queryText(query),
			Outcome:    outcome,
			StatusCode: result.StatusCode,
			DurationMs: result.Duration.Milliseconds(),
		}
		if result.Err != nil {
			info.Detail = result.Err.Error()
		}
		rec := audit.NewRecord(event, audit.TraceIDFromContext(ctx)).WithRelay(info)
		_ = c.auditLog.Log(*rec)
	}
}

// queryText renders the relay query for audit records: plain strings
// stay as-is, anything else is serialized compactly.
func queryText(query any) string {
	if s, ok := query.(string); ok {
		return s
	}
	data, err := json.Marshal(query)
	if err != nil {
		return ""
	}
	return string(data)
}
