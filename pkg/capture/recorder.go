package capture

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/leelsey/recvd/pkg/metrics"
)

// RecorderConfig tunes how interactions are recorded.
type RecorderConfig struct {
	// Verbose keeps the client origin on entries. When false the origin
	// is discarded before recording.
	Verbose bool

	// HiddenPaths are doublestar globs. Entries whose path matches any
	// of them are demoted to CLI-only.
	HiddenPaths []string

	// CaptureFilter is an optional boolean expression over the
	// variables method, path, label, and query. Matching entries are
	// demoted to CLI-only.
	CaptureFilter string
}

// Recorder turns classified interactions into capture entries. Every
// entry is written to the console sink and appended to the store; the
// store decides nothing, it just holds what the recorder hands it.
type Recorder struct {
	store  Store
	out    io.Writer
	outMu  sync.Mutex
	cfg    RecorderConfig
	filter *vm.Program
}

// NewRecorder creates a Recorder writing console lines to out and
// entries to store. The capture filter, when set, is compiled here.
func NewRecorder(store Store, out io.Writer, cfg RecorderConfig) (*Recorder, error) {
	r := &Recorder{
		store: store,
		out:   out,
		cfg:   cfg,
	}

	if cfg.CaptureFilter != "" {
		program, err := expr.Compile(cfg.CaptureFilter, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("capture filter does not compile: %w", err)
		}
		r.filter = program
	}

	return r, nil
}

// Record captures one interaction: the console line is always written,
// the entry is appended to the store, and CLI-only demotion is applied
// for view/favicon traffic, hidden paths, and capture-filter matches.
// The returned entry is the stored one, with ID and sequence assigned.
func (r *Recorder) Record(entry *Entry) *Entry {
	if entry == nil {
		return nil
	}

	// Stamp before formatting so the console line and the stored entry
	// agree on the capture time.
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if !r.cfg.Verbose {
		entry.ClientOrigin = ""
	}

	if entry.Kind == KindView || entry.Kind == KindFavicon {
		entry.CLIOnly = true
	}
	if !entry.CLIOnly && r.matchesHidden(entry.Path) {
		entry.CLIOnly = true
	}
	if !entry.CLIOnly && r.matchesFilter(entry) {
		entry.CLIOnly = true
	}

	r.outMu.Lock()
	fmt.Fprintln(r.out, CLILine(entry))
	r.outMu.Unlock()

	r.store.Append(entry)

	if metrics.InteractionsTotal != nil {
		if vec, err := metrics.InteractionsTotal.WithLabels(entry.Kind, entry.Method); err == nil {
			_ = vec.Inc()
		}
	}
	if metrics.EntriesStored != nil {
		_ = metrics.EntriesStored.Set(float64(r.store.Count()))
	}

	return entry
}

// matchesHidden reports whether the path matches any hidden-path glob.
// Patterns were validated at configuration load, bad ones are skipped.
func (r *Recorder) matchesHidden(path string) bool {
	for _, pattern := range r.cfg.HiddenPaths {
		ok, err := doublestar.Match(pattern, path)
		if err != nil {
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// matchesFilter runs the capture filter against the entry. Evaluation
// errors count as no match so a broken filter never hides traffic.
func (r *Recorder) matchesFilter(entry *Entry) bool {
	if r.filter == nil {
		return false
	}

	env := map[string]interface{}{
		"method": entry.Method,
		"path":   entry.Path,
		"label":  entry.Label,
		"query":  entry.QueryValue,
	}

	result, err := expr.Run(r.filter, env)
	if err != nil {
		return false
	}

	matched, ok := result.(bool)
	return ok && matched
}
