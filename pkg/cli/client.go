package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/leelsey/recvd/pkg/capture"
	"github.com/leelsey/recvd/pkg/config"
)

// adminURLEnvVar overrides the default admin API URL when set.
const adminURLEnvVar = "RECVD_ADMIN_URL"

// defaultAdminURL resolves the admin API base URL: the environment
// variable wins, otherwise the default admin port on localhost.
func defaultAdminURL() string {
	if v := os.Getenv(adminURLEnvVar); v != "" {
		return v
	}
	return fmt.Sprintf("http://localhost:%d", config.DefaultAdminPort)
}

// AdminClient provides methods for communicating with the recvd admin API.
type AdminClient interface {
	// ListEntries returns captured entries with optional filtering.
	ListEntries(filter *EntryFilter) (*EntryList, error)
	// GetEntry returns a specific entry by ID.
	GetEntry(id string) (*capture.Entry, error)
	// Status returns the receiver status snapshot.
	Status() (*StatusResult, error)
	// Health checks if the admin API is reachable.
	Health() error
}

// EntryFilter specifies filtering criteria for captured entries.
type EntryFilter struct {
	Kind     string // root, named, view, favicon
	Method   string
	Path     string // path prefix
	Label    string // label substring
	CLIOnly  string // exclude (default), include, only
	JSONPath string // match against the query echo or body
	Limit    int
	Offset   int
}

// EntryList contains entry query results.
type EntryList struct {
	Entries []*capture.Entry
	Count   int
	Total   int
}

// ListenerStatus describes the capture listener as reported by the admin API.
type ListenerStatus struct {
	Running  bool   `json:"running"`
	Addr     string `json:"addr,omitempty"`
	Port     int    `json:"port,omitempty"`
	Uptime   int    `json:"uptime"`
	Verbose  bool   `json:"verbose"`
	ViewPath string `json:"viewPath,omitempty"`
}

// StatusResult contains the receiver status snapshot.
type StatusResult struct {
	Status          string          `json:"status"`
	Version         string          `json:"version"`
	AdminPort       int             `json:"adminPort"`
	Uptime          int             `json:"uptime"`
	EntryCount      int             `json:"entryCount"`
	WebVisibleCount int             `json:"webVisibleCount"`
	Listener        *ListenerStatus `json:"listener,omitempty"`
}

// APIError represents an error response from the admin API.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// adminClient implements AdminClient using HTTP.
type adminClient struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures an admin client.
type ClientOption func(*adminClient)

// WithTimeout sets the HTTP timeout for the client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *adminClient) {
		c.httpClient.Timeout = timeout
	}
}

// NewAdminClient creates a new admin API client.
// The baseURL should be the admin API base URL (e.g., "http://localhost:7311").
func NewAdminClient(baseURL string, opts ...ClientOption) AdminClient {
	c := &adminClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListEntries returns captured entries with optional filtering.
func (c *adminClient) ListEntries(filter *EntryFilter) (*EntryList, error) {
	path := "/entries"
	params := url.Values{}

	if filter != nil {
		if filter.Kind != "" {
			params.Set("kind", filter.Kind)
		}
		if filter.Method != "" {
			params.Set("method", filter.Method)
		}
		if filter.Path != "" {
			params.Set("path", filter.Path)
		}
		if filter.Label != "" {
			params.Set("label", filter.Label)
		}
		if filter.CLIOnly != "" {
			params.Set("cliOnly", filter.CLIOnly)
		}
		if filter.JSONPath != "" {
			params.Set("jsonpath", filter.JSONPath)
		}
		if filter.Limit > 0 {
			params.Set("limit", fmt.Sprintf("%d", filter.Limit))
		}
		if filter.Offset > 0 {
			params.Set("offset", fmt.Sprintf("%d", filter.Offset))
		}
	}

	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.get(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result struct {
		Entries []*capture.Entry `json:"entries"`
		Count   int              `json:"count"`
		Total   int              `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &EntryList{
		Entries: result.Entries,
		Count:   result.Count,
		Total:   result.Total,
	}, nil
}

// GetEntry returns a specific entry by ID.
func (c *adminClient) GetEntry(id string) (*capture.Entry, error) {
	resp, err := c.get("/entries/" + url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  "not_found",
			Message:    fmt.Sprintf("entry not found: %s", id),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var entry capture.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &entry, nil
}

// Status returns the receiver status snapshot.
func (c *adminClient) Status() (*StatusResult, error) {
	resp, err := c.get("/status")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result StatusResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// Health checks if the admin API is reachable.
func (c *adminClient) Health() error {
	resp, err := c.get("/health")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

func (c *adminClient) get(path string) (*http.Response, error) {
	fullURL := c.baseURL + path

	req, err := http.NewRequest(http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{
			StatusCode: 0,
			ErrorCode:  "connection_error",
			Message:    fmt.Sprintf("cannot connect to admin API at %s: %v", c.baseURL, err),
		}
	}
	return resp, nil
}

// parseError parses an error response from the API.
func (c *adminClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  errResp.Error,
			Message:    errResp.Message,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorCode:  "unknown_error",
		Message:    fmt.Sprintf("server returned status %d: %s", resp.StatusCode, string(body)),
	}
}

// FormatConnectionError returns a user-friendly error message for connection failures.
func FormatConnectionError(err error) string {
	if apiErr, ok := err.(*APIError); ok && apiErr.ErrorCode == "connection_error" {
		return fmt.Sprintf(`Error: %s

Suggestions:
  • Start the server with the admin API: recvd serve --admin
  • Check if the admin API is running on the expected port
  • Point the CLI elsewhere with --admin-url or %s`, apiErr.Message, adminURLEnvVar)
	}
	return err.Error()
}
