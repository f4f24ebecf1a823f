package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		// Lowercase
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},

		// Uppercase
		{"DEBUG", LevelDebug},
		{"INFO", LevelInfo},
		{"WARN", LevelWarn},
		{"WARNING", LevelWarn},
		{"ERROR", LevelError},

		// Mixed case
		{"Debug", LevelDebug},
		{"Info", LevelInfo},
		{"Warn", LevelWarn},
		{"Warning", LevelWarn},
		{"Error", LevelError},
		{"dEbUg", LevelDebug},

		// Empty string defaults to Info
		{"", LevelInfo},

		// Unrecognized defaults to Info
		{"trace", LevelInfo},
		{"fatal", LevelInfo},
		{"unknown", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"Json", FormatJSON},
		{"text", FormatText},
		{"TEXT", FormatText},
		{"", FormatText},
		{"yaml", FormatText}, // unrecognized defaults to text
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseFormat(tt.input)
			if result != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewHandler_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	logger.Info("listener started", "port", 80)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (output=%q)", err, buf.String())
	}
	if record["msg"] != "listener started" {
		t.Errorf("msg = %v, want %q", record["msg"], "listener started")
	}
	if record["port"] != float64(80) {
		t.Errorf("port = %v, want 80", record["port"])
	}
}

func TestNewHandler_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})

	logger.Info("listener started", "port", 80)

	out := buf.String()
	if !strings.Contains(out, "listener started") || !strings.Contains(out, "port=80") {
		t.Errorf("text output missing fields: %q", out)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("records below the configured level leaked: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("record at the configured level missing: %q", out)
	}
}

func TestNop_Discards(t *testing.T) {
	// Must not panic and must accept all levels
	logger := Nop()
	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")
}

func TestMultiHandler_FansOut(t *testing.T) {
	var text, jsonOut bytes.Buffer
	h := NewMultiHandler(
		NewHandler(Config{Level: LevelInfo, Format: FormatText, Output: &text}),
		NewHandler(Config{Level: LevelInfo, Format: FormatJSON, Output: &jsonOut}),
	)
	logger := slog.New(h)

	logger.Info("captured", "method", "GET", "label", "ping")

	if !strings.Contains(text.String(), "captured") {
		t.Errorf("text handler missed record: %q", text.String())
	}
	var record map[string]any
	if err := json.Unmarshal(jsonOut.Bytes(), &record); err != nil {
		t.Fatalf("json handler output invalid: %v", err)
	}
	if record["method"] != "GET" {
		t.Errorf("json record method = %v, want GET", record["method"])
	}
}

func TestMultiHandler_RespectsPerHandlerLevels(t *testing.T) {
	var debugOut, warnOut bytes.Buffer
	h := NewMultiHandler(
		NewHandler(Config{Level: LevelDebug, Format: FormatText, Output: &debugOut}),
		NewHandler(Config{Level: LevelWarn, Format: FormatText, Output: &warnOut}),
	)
	logger := slog.New(h)

	logger.Debug("noise")

	if !strings.Contains(debugOut.String(), "noise") {
		t.Error("debug handler should receive debug records")
	}
	if warnOut.Len() != 0 {
		t.Errorf("warn handler should drop debug records, got %q", warnOut.String())
	}
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(NewHandler(Config{Level: LevelInfo, Format: FormatText, Output: &buf}))
	logger := slog.New(h).With("component", "receiver")

	logger.Info("ready")

	if !strings.Contains(buf.String(), "component=receiver") {
		t.Errorf("attrs not propagated through multi handler: %q", buf.String())
	}
}
