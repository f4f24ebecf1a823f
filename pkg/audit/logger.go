package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// Logger defines the interface for audit logging implementations.
type Logger interface {
	// Log records an audit record. Implementations must be thread-safe.
	Log(rec Record) error

	// Close releases any resources held by the logger.
	Close() error
}

// NoOpLogger is a Logger that discards all records.
// Use this when audit logging is disabled.
type NoOpLogger struct{}

// Log discards the record. Always returns nil.
func (l *NoOpLogger) Log(_ Record) error {
	return nil
}

// Close is a no-op. Always returns nil.
func (l *NoOpLogger) Close() error {
	return nil
}

// Ensure NoOpLogger implements Logger.
var _ Logger = (*NoOpLogger)(nil)

// FileLogger writes audit records as JSON lines to a file.
type FileLogger struct {
	file     *os.File
	encoder  *json.Encoder
	sequence atomic.Int64
	mu       sync.Mutex
}

// NewFileLogger creates a new FileLogger that writes to the specified path.
// The file is created if it doesn't exist, or appended to if it does.
func NewFileLogger(path string) (*FileLogger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to open log file: %w", err)
	}

	return &FileLogger{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// Log writes an audit record to the file as a JSON line.
// The record's Sequence field is set automatically.
func (l *FileLogger) Log(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("audit: logger is closed")
	}

	rec.Sequence = l.sequence.Add(1)

	if err := l.encoder.Encode(rec); err != nil {
		return fmt.Errorf("audit: failed to encode record: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	// Sync to ensure all data is written
	if err := l.file.Sync(); err != nil {
		// Log but don't fail - we still want to close
		_ = err
	}

	err := l.file.Close()
	l.file = nil
	return err
}

// Ensure FileLogger implements Logger.
var _ Logger = (*FileLogger)(nil)

// StdoutLogger writes audit records as JSON lines to stdout.
// Useful for containerized deployments where logs are collected from stdout.
type StdoutLogger struct {
	encoder  *json.Encoder
	sequence atomic.Int64
	mu       sync.Mutex
}

// NewStdoutLogger creates a new StdoutLogger.
func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{
		encoder: json.NewEncoder(os.Stdout),
	}
}

// Log writes an audit record to stdout as a JSON line.
func (l *StdoutLogger) Log(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec.Sequence = l.sequence.Add(1)

	if err := l.encoder.Encode(rec); err != nil {
		return fmt.Errorf("audit: failed to encode record: %w", err)
	}

	return nil
}

// Close is a no-op for stdout logger.
func (l *StdoutLogger) Close() error {
	return nil
}

// Ensure StdoutLogger implements Logger.
var _ Logger = (*StdoutLogger)(nil)

// NewLogger creates an appropriate Logger based on the configuration.
// Returns a NoOpLogger if audit logging is disabled.
func NewLogger(config *Config) (Logger, error) {
	if config == nil || !config.Enabled {
		return &NoOpLogger{}, nil
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.OutputFile != "" {
		return NewFileLogger(config.OutputFile)
	}
	return NewStdoutLogger(), nil
}
