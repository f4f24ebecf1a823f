package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// ListEntries
// =============================================================================

func TestListEntries_CallsEntriesEndpoint(t *testing.T) {
	t.Parallel()

	var calledPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calledPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"entries": [
				{"id": "01JF8R2K3MT9QWERTYZ0123456", "seq": 2, "kind": "named", "method": "POST", "path": "/api/hook", "label": "api/hook", "body": "{\"event\":\"push\"}", "cliOnly": false},
				{"id": "01JF8R2K3MT9QWERTYZ0123455", "seq": 1, "kind": "root", "method": "GET", "path": "/", "label": "", "queryValue": "{\"q\":\"hi\"}", "cliOnly": false}
			],
			"count": 2,
			"total": 5
		}`))
	}))
	defer ts.Close()

	client := NewAdminClient(ts.URL)
	result, err := client.ListEntries(nil)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}

	if calledPath != "/entries" {
		t.Errorf("ListEntries() called %q, want /entries", calledPath)
	}
	if result.Count != 2 {
		t.Errorf("Count = %d, want 2", result.Count)
	}
	if result.Total != 5 {
		t.Errorf("Total = %d, want 5", result.Total)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(result.Entries))
	}
	if result.Entries[0].Label != "api/hook" {
		t.Errorf("Entries[0].Label = %q, want api/hook", result.Entries[0].Label)
	}
	if result.Entries[1].QueryValue != `{"q":"hi"}` {
		t.Errorf("Entries[1].QueryValue = %q", result.Entries[1].QueryValue)
	}
}

func TestListEntries_BuildsFilterQuery(t *testing.T) {
	t.Parallel()

	var calledQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calledQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"entries": [], "count": 0, "total": 0}`))
	}))
	defer ts.Close()

	client := NewAdminClient(ts.URL)
	_, err := client.ListEntries(&EntryFilter{
		Kind:     "named",
		Method:   "POST",
		Path:     "/api",
		Label:    "hook",
		CLIOnly:  "include",
		JSONPath: "$.event",
		Limit:    10,
		Offset:   5,
	})
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}

	for _, want := range []string{
		"kind=named",
		"method=POST",
		"path=%2Fapi",
		"label=hook",
		"cliOnly=include",
		"jsonpath=%24.event",
		"limit=10",
		"offset=5",
	} {
		if !strings.Contains(calledQuery, want) {
			t.Errorf("query %q missing %q", calledQuery, want)
		}
	}
}

func TestListEntries_NilFilterSendsNoQuery(t *testing.T) {
	t.Parallel()

	var calledQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calledQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"entries": [], "count": 0, "total": 0}`))
	}))
	defer ts.Close()

	client := NewAdminClient(ts.URL)
	if _, err := client.ListEntries(nil); err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if calledQuery != "" {
		t.Errorf("query = %q, want empty", calledQuery)
	}
}

// =============================================================================
// GetEntry
// =============================================================================

func TestGetEntry_CallsEntryByID(t *testing.T) {
	t.Parallel()

	var calledPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calledPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "01JF8R2K3MT9QWERTYZ0123456", "seq": 1, "kind": "root", "method": "GET", "path": "/", "label": "", "cliOnly": false}`))
	}))
	defer ts.Close()

	client := NewAdminClient(ts.URL)
	entry, err := client.GetEntry("01JF8R2K3MT9QWERTYZ0123456")
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}

	if calledPath != "/entries/01JF8R2K3MT9QWERTYZ0123456" {
		t.Errorf("GetEntry() called %q", calledPath)
	}
	if entry.Kind != "root" {
		t.Errorf("Kind = %q, want root", entry.Kind)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "not_found",
			"message": "no entry with id nope",
		})
	}))
	defer ts.Close()

	client := NewAdminClient(ts.URL)
	_, err := client.GetEntry("nope")
	if err == nil {
		t.Fatal("GetEntry() expected error")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.ErrorCode != "not_found" {
		t.Errorf("ErrorCode = %q, want not_found", apiErr.ErrorCode)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
}

// =============================================================================
// Status and Health
// =============================================================================

func TestStatus_DecodesListenerBlock(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"version": "1.0.0",
			"adminPort": 7311,
			"uptime": 120,
			"entryCount": 42,
			"webVisibleCount": 40,
			"listener": {"running": true, "addr": "0.0.0.0:80", "port": 80, "uptime": 118, "verbose": true, "viewPath": "/logs"}
		}`))
	}))
	defer ts.Close()

	client := NewAdminClient(ts.URL)
	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if status.Status != "ok" {
		t.Errorf("Status = %q, want ok", status.Status)
	}
	if status.EntryCount != 42 {
		t.Errorf("EntryCount = %d, want 42", status.EntryCount)
	}
	if status.Listener == nil {
		t.Fatal("Listener = nil, want populated")
	}
	if !status.Listener.Running {
		t.Error("Listener.Running = false, want true")
	}
	if status.Listener.ViewPath != "/logs" {
		t.Errorf("Listener.ViewPath = %q, want /logs", status.Listener.ViewPath)
	}
}

func TestStatus_NoListenerBlock(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "version": "dev", "adminPort": 7311, "uptime": 3, "entryCount": 0, "webVisibleCount": 0}`))
	}))
	defer ts.Close()

	client := NewAdminClient(ts.URL)
	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Listener != nil {
		t.Errorf("Listener = %+v, want nil", status.Listener)
	}
}

func TestHealth_OK(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "uptime": 1}`))
	}))
	defer ts.Close()

	client := NewAdminClient(ts.URL)
	if err := client.Health(); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}

func TestHealth_ServerError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "store_error", "message": "store unavailable"}`))
	}))
	defer ts.Close()

	client := NewAdminClient(ts.URL)
	err := client.Health()
	if err == nil {
		t.Fatal("Health() expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.ErrorCode != "store_error" {
		t.Errorf("ErrorCode = %q, want store_error", apiErr.ErrorCode)
	}
	if apiErr.Message != "store unavailable" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

// =============================================================================
// Error handling
// =============================================================================

func TestClient_ConnectionError(t *testing.T) {
	t.Parallel()

	// Grab a URL that refuses connections by closing the server first.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := ts.URL
	ts.Close()

	client := NewAdminClient(deadURL)
	err := client.Health()
	if err == nil {
		t.Fatal("Health() expected connection error")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.ErrorCode != "connection_error" {
		t.Errorf("ErrorCode = %q, want connection_error", apiErr.ErrorCode)
	}
	if apiErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "cannot connect to admin API") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestParseError_NonJSONBody(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream blew up"))
	}))
	defer ts.Close()

	client := NewAdminClient(ts.URL)
	err := client.Health()
	if err == nil {
		t.Fatal("Health() expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.ErrorCode != "unknown_error" {
		t.Errorf("ErrorCode = %q, want unknown_error", apiErr.ErrorCode)
	}
	if !strings.Contains(apiErr.Message, "server returned status 502") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestFormatConnectionError_AddsSuggestions(t *testing.T) {
	t.Parallel()

	err := &APIError{StatusCode: 0, ErrorCode: "connection_error", Message: "cannot connect to admin API at http://localhost:7311: refused"}
	msg := FormatConnectionError(err)

	if !strings.Contains(msg, "Suggestions:") {
		t.Errorf("message missing suggestions block: %q", msg)
	}
	if !strings.Contains(msg, "recvd serve --admin") {
		t.Errorf("message missing serve hint: %q", msg)
	}
}

func TestFormatConnectionError_PassesThroughOtherErrors(t *testing.T) {
	t.Parallel()

	err := &APIError{StatusCode: 404, ErrorCode: "not_found", Message: "entry not found: x"}
	if got := FormatConnectionError(err); got != "entry not found: x" {
		t.Errorf("FormatConnectionError() = %q", got)
	}
}

// =============================================================================
// Admin URL resolution
// =============================================================================

func TestDefaultAdminURL_Fallback(t *testing.T) {
	t.Setenv(adminURLEnvVar, "")
	if got := defaultAdminURL(); got != "http://localhost:7311" {
		t.Errorf("defaultAdminURL() = %q", got)
	}
}

func TestDefaultAdminURL_EnvOverride(t *testing.T) {
	t.Setenv(adminURLEnvVar, "http://10.0.0.9:9999")
	if got := defaultAdminURL(); got != "http://10.0.0.9:9999" {
		t.Errorf("defaultAdminURL() = %q", got)
	}
}
