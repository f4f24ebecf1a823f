package capture

import "time"

// Kind constants classify captured interactions by route.
const (
	// KindRoot marks a request to the root path, the relay candidate.
	KindRoot = "root"
	// KindView marks a request to the log view path.
	KindView = "view"
	// KindFavicon marks a request for /favicon.ico.
	KindFavicon = "favicon"
	// KindNamed marks a request to any other path.
	KindNamed = "named"
)

// Entry captures a single inbound interaction. Entries are immutable once
// appended to a store; the store only grows for the life of the process.
type Entry struct {
	// ID is a ULID, unique per entry and sortable by arrival time.
	ID string `json:"id"`

	// Seq is the store-assigned insertion sequence number, starting at 1.
	Seq int64 `json:"seq"`

	// Timestamp is when the interaction was captured.
	Timestamp time.Time `json:"timestamp"`

	// Kind is the route classification (root, view, favicon, named).
	Kind string `json:"kind"`

	// Method is the HTTP method ("GET", "POST", ...).
	Method string `json:"method"`

	// Path is the request URL path as received.
	Path string `json:"path"`

	// Label is the display name derived from the path: root maps to an
	// empty label, any other path maps to the path with its leading
	// slash stripped.
	Label string `json:"label"`

	// QueryValue is the serialized query mapping for root requests, or
	// the path segment for named routes. Empty when not meaningful.
	QueryValue string `json:"queryValue,omitempty"`

	// Body is the captured request body text, when one was carried.
	Body string `json:"body,omitempty"`

	// ClientOrigin identifies the caller (address:port). Populated only
	// when the receiver runs in verbose mode.
	ClientOrigin string `json:"clientOrigin,omitempty"`

	// CLIOnly marks entries that are kept out of the web-visible log.
	// View and favicon traffic is always CLI-only, and hidden-path or
	// capture-filter matches are demoted to CLI-only as well.
	CLIOnly bool `json:"cliOnly"`
}
