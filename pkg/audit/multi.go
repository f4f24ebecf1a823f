package audit

import (
	"strings"
	"sync"
)

// MultiWriter fans audit records out to multiple loggers.
// A failing destination does not stop delivery to the others.
type MultiWriter struct {
	mu      sync.RWMutex
	loggers []Logger
}

// NewMultiWriter creates a MultiWriter over the given loggers.
// Nil loggers are skipped.
func NewMultiWriter(loggers ...Logger) *MultiWriter {
	mw := &MultiWriter{}
	for _, l := range loggers {
		if l != nil {
			mw.loggers = append(mw.loggers, l)
		}
	}
	return mw
}

// Add registers an additional logger.
func (mw *MultiWriter) Add(l Logger) {
	if l == nil {
		return
	}
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.loggers = append(mw.loggers, l)
}

// Remove unregisters a logger. It compares by identity.
func (mw *MultiWriter) Remove(l Logger) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	for i, existing := range mw.loggers {
		if existing == l {
			mw.loggers = append(mw.loggers[:i], mw.loggers[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered loggers.
func (mw *MultiWriter) Len() int {
	mw.mu.RLock()
	defer mw.mu.RUnlock()
	return len(mw.loggers)
}

// Log delivers the record to every registered logger. Errors are
// collected into a MultiError rather than aborting the fan-out.
func (mw *MultiWriter) Log(rec Record) error {
	mw.mu.RLock()
	loggers := make([]Logger, len(mw.loggers))
	copy(loggers, mw.loggers)
	mw.mu.RUnlock()

	var errs []error
	for _, l := range loggers {
		if err := l.Log(rec); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &MultiError{Errors: errs}
	}
	return nil
}

// Close closes every registered logger.
func (mw *MultiWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	var errs []error
	for _, l := range mw.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	mw.loggers = nil

	if len(errs) > 0 {
		return &MultiError{Errors: errs}
	}
	return nil
}

var _ Logger = (*MultiWriter)(nil)

// MultiError aggregates errors from multiple loggers.
type MultiError struct {
	Errors []error
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("multiple audit errors:")
	for _, err := range e.Errors {
		sb.WriteString(" ")
		sb.WriteString(err.Error())
		sb.WriteString(";")
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// Unwrap returns the underlying errors for errors.Is and errors.As.
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
