package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// =============================================================================
// Middleware Tests
// =============================================================================

// TestMiddleware_NilLogger_NoPanic ensures passing nil logger doesn't panic
func TestMiddleware_NilLogger_NoPanic(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Nil logger should be replaced with NoOpLogger
	middleware := NewMiddleware(handler, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	middleware.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

// TestMiddleware_LargeRequestBody_BoundedMemory verifies body preview is limited
func TestMiddleware_LargeRequestBody_BoundedMemory(t *testing.T) {
	t.Parallel()

	const maxPreview = 256
	const bodySize = 10 * 1024 * 1024 // 10MB

	captured := &capturingLogger{}
	config := &Config{
		Enabled:            true,
		MaxBodyPreviewSize: maxPreview,
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body to ensure it was reconstructed properly
		n, err := io.Copy(io.Discard, r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if n != bodySize {
			t.Errorf("expected to read %d bytes, got %d", bodySize, n)
		}
		w.WriteHeader(http.StatusOK)
	})

	middleware := NewMiddleware(handler, captured, config)

	largeBody := make([]byte, bodySize)
	for i := range largeBody {
		largeBody[i] = byte('A' + (i % 26))
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(largeBody))
	req.ContentLength = int64(bodySize)
	rec := httptest.NewRecorder()

	middleware.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	records := captured.Records()
	if len(records) < 1 {
		t.Fatal("expected at least 1 audit record")
	}

	received := records[0]
	if received.Request == nil {
		t.Fatal("expected request info in audit record")
	}

	if len(received.Request.BodyPreview) > maxPreview {
		t.Errorf("body preview exceeded max: got %d, max %d",
			len(received.Request.BodyPreview), maxPreview)
	}
}

// TestMiddleware_LargeResponseBody_BoundedCapture verifies response capture is limited
func TestMiddleware_LargeResponseBody_BoundedCapture(t *testing.T) {
	t.Parallel()

	const maxPreview = 512
	const responseSize = 5 * 1024 * 1024 // 5MB

	captured := &capturingLogger{}
	config := &Config{
		Enabled:            true,
		MaxBodyPreviewSize: maxPreview,
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		chunk := make([]byte, 4096)
		for i := range chunk {
			chunk[i] = byte('X')
		}
		written := 0
		for written < responseSize {
			toWrite := 4096
			if written+toWrite > responseSize {
				toWrite = responseSize - written
			}
			w.Write(chunk[:toWrite])
			written += toWrite
		}
	})

	middleware := NewMiddleware(handler, captured, config)

	req := httptest.NewRequest(http.MethodGet, "/large", nil)
	rec := httptest.NewRecorder()

	middleware.ServeHTTP(rec, req)

	// Full response must still reach the client
	if rec.Body.Len() != responseSize {
		t.Errorf("expected response size %d, got %d", responseSize, rec.Body.Len())
	}

	records := captured.Records()
	if len(records) < 2 {
		t.Fatalf("expected 2 audit records, got %d", len(records))
	}

	sent := records[1]
	if sent.Response == nil {
		t.Fatal("expected response info in audit record")
	}

	if len(sent.Response.BodyPreview) > maxPreview {
		t.Errorf("response body preview exceeded max: got %d, max %d",
			len(sent.Response.BodyPreview), maxPreview)
	}

	// BodySize tracks the full size, not the preview
	if sent.Response.BodySize != int64(responseSize) {
		t.Errorf("expected BodySize %d, got %d", responseSize, sent.Response.BodySize)
	}
}

// TestMiddleware_NilConfig_UsesDefaults verifies nil config uses defaults
func TestMiddleware_NilConfig_UsesDefaults(t *testing.T) {
	t.Parallel()

	captured := &capturingLogger{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := NewMiddleware(handler, captured, nil)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	middleware.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

// TestMiddleware_RequestBodyReconstructed verifies body is still readable by handler
func TestMiddleware_RequestBodyReconstructed(t *testing.T) {
	t.Parallel()

	const requestBody = "test request body content"
	var handlerReceivedBody string

	captured := &capturingLogger{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		handlerReceivedBody = string(body)
		w.WriteHeader(http.StatusOK)
	})

	middleware := NewMiddleware(handler, captured, nil)

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(requestBody))
	req.ContentLength = int64(len(requestBody))
	rec := httptest.NewRecorder()

	middleware.ServeHTTP(rec, req)

	if handlerReceivedBody != requestBody {
		t.Errorf("handler received body %q, expected %q", handlerReceivedBody, requestBody)
	}
}

// TestMiddleware_CapturesStatusCode verifies status code is captured
func TestMiddleware_CapturesStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"200 OK", http.StatusOK},
		{"201 Created", http.StatusCreated},
		{"400 Bad Request", http.StatusBadRequest},
		{"404 Not Found", http.StatusNotFound},
		{"500 Internal Server Error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			captured := &capturingLogger{}
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			middleware := NewMiddleware(handler, captured, nil)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			middleware.ServeHTTP(rec, req)

			records := captured.Records()
			if len(records) < 2 {
				t.Fatalf("expected 2 records, got %d", len(records))
			}

			sent := records[1]
			if sent.Response == nil {
				t.Fatal("expected response info")
			}
			if sent.Response.StatusCode != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, sent.Response.StatusCode)
			}
		})
	}
}

// TestMiddleware_NoWriteHeader_Defaults200 verifies default status when WriteHeader not called
func TestMiddleware_NoWriteHeader_Defaults200(t *testing.T) {
	t.Parallel()

	captured := &capturingLogger{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("response without explicit status"))
	})

	middleware := NewMiddleware(handler, captured, nil)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	middleware.ServeHTTP(rec, req)

	records := captured.Records()
	if len(records) < 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	sent := records[1]
	if sent.Response.StatusCode != http.StatusOK {
		t.Errorf("expected default status 200, got %d", sent.Response.StatusCode)
	}
}

// TestMiddleware_TraceIDCorrelation verifies both records share one trace ID
// and that the handler sees the same ID through the request context
func TestMiddleware_TraceIDCorrelation(t *testing.T) {
	t.Parallel()

	captured := &capturingLogger{}
	var contextTraceID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contextTraceID = TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	middleware := NewMiddleware(handler, captured, nil)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	middleware.ServeHTTP(rec, req)

	records := captured.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if records[0].TraceID == "" {
		t.Fatal("expected non-empty trace ID")
	}
	if records[0].TraceID != records[1].TraceID {
		t.Errorf("trace IDs differ: %q vs %q", records[0].TraceID, records[1].TraceID)
	}
	if contextTraceID != records[0].TraceID {
		t.Errorf("context trace ID %q does not match record trace ID %q",
			contextTraceID, records[0].TraceID)
	}
}

// TestTraceIDFromContext_Missing returns empty string when no trace ID is set
func TestTraceIDFromContext_Missing(t *testing.T) {
	t.Parallel()

	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty trace ID, got %q", got)
	}
}

// =============================================================================
// FileLogger Tests
// =============================================================================

// TestFileLogger_WriteAndClose tests basic write then close
func TestFileLogger_WriteAndClose(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "audit.log")

	logger, err := NewFileLogger(logPath)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}

	rec := NewRecord(EventInteractionReceived, "trace-123")
	rec.Request = &RequestInfo{
		Method: "GET",
		Path:   "/hello",
	}

	if err := logger.Log(*rec); err != nil {
		t.Fatalf("failed to log record: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var logged Record
	if err := json.Unmarshal(data, &logged); err != nil {
		t.Fatalf("failed to unmarshal log record: %v", err)
	}

	if logged.TraceID != "trace-123" {
		t.Errorf("expected trace ID 'trace-123', got '%s'", logged.TraceID)
	}
	if logged.Event != EventInteractionReceived {
		t.Errorf("expected event '%s', got '%s'", EventInteractionReceived, logged.Event)
	}
	if logged.Sequence != 1 {
		t.Errorf("expected sequence 1, got %d", logged.Sequence)
	}
}

// TestFileLogger_LogAfterClose_ReturnsError ensures logging after close returns error
func TestFileLogger_LogAfterClose_ReturnsError(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "audit.log")

	logger, err := NewFileLogger(logPath)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	rec := NewRecord(EventInteractionReceived, "trace-after-close")
	err = logger.Log(*rec)

	if err == nil {
		t.Error("expected error when logging after close, got nil")
	}

	if !strings.Contains(err.Error(), "logger is closed") {
		t.Errorf("expected 'logger is closed' error, got: %v", err)
	}
}

// TestFileLogger_ConcurrentWrites tests concurrent write safety
func TestFileLogger_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "concurrent.log")

	logger, err := NewFileLogger(logPath)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}
	defer logger.Close()

	const numWriters = 50
	const recordsPerWriter = 20

	var wg sync.WaitGroup
	errCh := make(chan error, numWriters*recordsPerWriter)

	for i := 0; i < numWriters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < recordsPerWriter; j++ {
				rec := NewRecord(EventInteractionReceived, "trace-concurrent")
				rec.Request = &RequestInfo{
					Method: "GET",
					Path:   "/concurrent",
				}
				if err := logger.Log(*rec); err != nil {
					errCh <- err
				}
			}
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent write error: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	expectedLines := numWriters * recordsPerWriter

	if len(lines) != expectedLines {
		t.Errorf("expected %d log lines, got %d", expectedLines, len(lines))
	}

	// Each line must be valid JSON with a unique sequence number
	sequences := make(map[int64]bool)
	for i, line := range lines {
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
			continue
		}
		if sequences[rec.Sequence] {
			t.Errorf("duplicate sequence number: %d", rec.Sequence)
		}
		sequences[rec.Sequence] = true
	}
}

// TestFileLogger_DoubleClose tests closing twice doesn't error
func TestFileLogger_DoubleClose(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "double-close.log")

	logger, err := NewFileLogger(logPath)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("second close should not error, got: %v", err)
	}
}

// =============================================================================
// NoOpLogger Tests
// =============================================================================

// TestNoOpLogger_LogReturnsNil verifies no-op behavior
func TestNoOpLogger_LogReturnsNil(t *testing.T) {
	t.Parallel()

	logger := &NoOpLogger{}

	rec := NewRecord(EventInteractionReceived, "trace-noop")
	if err := logger.Log(*rec); err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("expected nil error on close, got: %v", err)
	}
}

// =============================================================================
// MultiWriter Tests
// =============================================================================

// TestMultiWriter_FanOut verifies records are written to all loggers
func TestMultiWriter_FanOut(t *testing.T) {
	t.Parallel()

	logger1 := &capturingLogger{}
	logger2 := &capturingLogger{}
	logger3 := &capturingLogger{}

	multi := NewMultiWriter(logger1, logger2, logger3)

	rec := NewRecord(EventInteractionReceived, "trace-multi")
	if err := multi.Log(*rec); err != nil {
		t.Fatalf("failed to log: %v", err)
	}

	for i, logger := range []*capturingLogger{logger1, logger2, logger3} {
		records := logger.Records()
		if len(records) != 1 {
			t.Errorf("logger %d: expected 1 record, got %d", i, len(records))
		}
	}
}

// TestMultiWriter_NilLoggersFiltered verifies nil loggers are filtered out
func TestMultiWriter_NilLoggersFiltered(t *testing.T) {
	t.Parallel()

	logger1 := &capturingLogger{}
	multi := NewMultiWriter(nil, logger1, nil, nil)

	if multi.Len() != 1 {
		t.Errorf("expected 1 logger after filtering nils, got %d", multi.Len())
	}

	rec := NewRecord(EventInteractionReceived, "trace-filter")
	if err := multi.Log(*rec); err != nil {
		t.Fatalf("failed to log: %v", err)
	}

	if len(logger1.Records()) != 1 {
		t.Error("expected record to be logged")
	}
}

// TestMultiWriter_ContinuesOnError verifies all loggers get the record even if some fail
func TestMultiWriter_ContinuesOnError(t *testing.T) {
	t.Parallel()

	logger1 := &capturingLogger{}
	logger2 := &capturingLogger{}

	multi := NewMultiWriter(logger1, &failingLogger{}, logger2)

	rec := NewRecord(EventInteractionReceived, "trace-error")
	err := multi.Log(*rec)

	if err == nil {
		t.Fatal("expected error from failing logger")
	}

	// The sentinel must survive the MultiError wrapping
	if !errors.Is(err, errLogFailed) {
		t.Errorf("expected errors.Is to find the underlying failure, got: %v", err)
	}

	if len(logger1.Records()) != 1 {
		t.Error("logger1 should have received record")
	}
	if len(logger2.Records()) != 1 {
		t.Error("logger2 should have received record")
	}
}

// TestMultiWriter_Remove verifies removed loggers stop receiving records
func TestMultiWriter_Remove(t *testing.T) {
	t.Parallel()

	logger1 := &capturingLogger{}
	logger2 := &capturingLogger{}

	multi := NewMultiWriter(logger1, logger2)
	multi.Remove(logger1)

	if multi.Len() != 1 {
		t.Fatalf("expected 1 logger after remove, got %d", multi.Len())
	}

	rec := NewRecord(EventInteractionReceived, "trace-remove")
	if err := multi.Log(*rec); err != nil {
		t.Fatalf("failed to log: %v", err)
	}

	if len(logger1.Records()) != 0 {
		t.Error("removed logger should not receive records")
	}
	if len(logger2.Records()) != 1 {
		t.Error("remaining logger should receive records")
	}
}

// TestMultiWriter_ConcurrentAddRemove tests concurrent modifications
func TestMultiWriter_ConcurrentAddRemove(t *testing.T) {
	t.Parallel()

	multi := NewMultiWriter()

	var wg sync.WaitGroup
	const iterations = 100

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			multi.Add(&NoOpLogger{})
		}()
	}

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := NewRecord(EventInteractionReceived, "trace")
			multi.Log(*rec)
		}()
	}

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			multi.Len()
		}()
	}

	wg.Wait()
	// No race = pass
}

// =============================================================================
// Config Tests
// =============================================================================

// TestConfig_Validate tests config validation
func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		config    *Config
		wantError bool
	}{
		{
			name:      "disabled config is always valid",
			config:    &Config{Enabled: false, Level: "invalid"},
			wantError: false,
		},
		{
			name:      "valid debug level",
			config:    &Config{Enabled: true, Level: LevelDebug},
			wantError: false,
		},
		{
			name:      "valid info level",
			config:    &Config{Enabled: true, Level: LevelInfo},
			wantError: false,
		},
		{
			name:      "valid empty level defaults to info",
			config:    &Config{Enabled: true, Level: ""},
			wantError: false,
		},
		{
			name:      "invalid level",
			config:    &Config{Enabled: true, Level: "invalid"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

// TestConfig_ShouldLog tests level filtering
func TestConfig_ShouldLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		configLvl string
		eventLvl  string
		wantLog   bool
	}{
		{"debug logs debug", LevelDebug, LevelDebug, true},
		{"debug logs info", LevelDebug, LevelInfo, true},
		{"debug logs error", LevelDebug, LevelError, true},
		{"info skips debug", LevelInfo, LevelDebug, false},
		{"info logs info", LevelInfo, LevelInfo, true},
		{"error skips info", LevelError, LevelInfo, false},
		{"error logs error", LevelError, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			config := &Config{Enabled: true, Level: tt.configLvl}
			got := config.ShouldLog(tt.eventLvl)
			if got != tt.wantLog {
				t.Errorf("ShouldLog(%s) = %v, want %v", tt.eventLvl, got, tt.wantLog)
			}
		})
	}
}

// TestConfig_ShouldLog_Disabled verifies disabled config never logs
func TestConfig_ShouldLog_Disabled(t *testing.T) {
	t.Parallel()

	config := &Config{Enabled: false, Level: LevelDebug}

	if config.ShouldLog(LevelError) {
		t.Error("disabled config should not log anything")
	}
}

// =============================================================================
// Record Builder Tests
// =============================================================================

// TestRecord_BuilderChain verifies fluent builder pattern
func TestRecord_BuilderChain(t *testing.T) {
	t.Parallel()

	rec := NewRecord(EventRelayResponse, "trace-123").
		WithEntryID("01HX3Q5DBVJ4Y6W8ZK2M9N0P7R").
		WithRequest(&RequestInfo{Method: "GET", Path: "/"}).
		WithResponse(&ResponseInfo{StatusCode: 200}).
		WithRelay(&RelayInfo{Target: "http://example.com", Outcome: "ok"}).
		WithClient(&ClientInfo{RemoteAddr: "127.0.0.1"}).
		WithError(&ErrorInfo{Code: "relay_failed", Message: "connection refused"})

	if rec.TraceID != "trace-123" {
		t.Errorf("expected trace ID 'trace-123', got '%s'", rec.TraceID)
	}
	if rec.EntryID != "01HX3Q5DBVJ4Y6W8ZK2M9N0P7R" {
		t.Errorf("entry ID not set correctly, got '%s'", rec.EntryID)
	}
	if rec.Request == nil || rec.Request.Method != "GET" {
		t.Error("request not set correctly")
	}
	if rec.Response == nil || rec.Response.StatusCode != 200 {
		t.Error("response not set correctly")
	}
	if rec.Relay == nil || rec.Relay.Target != "http://example.com" {
		t.Error("relay not set correctly")
	}
	if rec.Client == nil || rec.Client.RemoteAddr != "127.0.0.1" {
		t.Error("client not set correctly")
	}
	if rec.Error == nil || rec.Error.Code != "relay_failed" {
		t.Error("error not set correctly")
	}
}

// =============================================================================
// Test Helpers
// =============================================================================

// capturingLogger captures all logged records for test verification
type capturingLogger struct {
	mu      sync.Mutex
	records []Record
}

func (l *capturingLogger) Log(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *capturingLogger) Close() error {
	return nil
}

func (l *capturingLogger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]Record, len(l.records))
	copy(result, l.records)
	return result
}

var errLogFailed = errors.New("intentional failure")

// failingLogger always returns an error
type failingLogger struct{}

func (l *failingLogger) Log(rec Record) error {
	return errLogFailed
}

func (l *failingLogger) Close() error {
	return nil
}
