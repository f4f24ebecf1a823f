// Package capture provides the receiver's interaction log: the entry
// model, the append-only store, and the recorder that feeds it.
//
// This package serves operators who need to see what traffic reached
// the receiver. It is distinct from operational logging (which uses
// log/slog for platform debugging): the console capture lines and the
// web-visible log are the product, not diagnostics.
//
// # Core Types
//
// Entry is the central type representing one captured interaction. Its
// Kind classifies the route (root, view, favicon, named) and CLIOnly
// marks entries excluded from the web view.
//
// # Store Interface
//
// Store defines capture history storage: appending, querying by ID or
// filter, and reading the web-visible sequence in insertion order.
// MemoryStore is the in-memory implementation; it never evicts.
//
// # Recorder
//
// The Recorder is the single write path. It prints the console line,
// applies CLI-only demotion (view and favicon traffic, hidden-path
// globs, the capture filter), and appends to the store:
//
//	store := capture.NewMemoryStore()
//	rec, _ := capture.NewRecorder(store, os.Stdout, capture.RecorderConfig{})
//	rec.Record(&capture.Entry{
//	    Kind:   capture.KindNamed,
//	    Method: "GET",
//	    Path:   "/ping",
//	    Label:  "ping",
//	})
//
// # Package Design
//
// Entries are immutable once appended and keep their relative position
// forever. The store is the only state shared across request workers;
// appends are serialized, reads may proceed concurrently.
package capture
