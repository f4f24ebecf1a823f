package capture

// Appender is the minimal sink interface for recording entries.
// The recorder writes through this; anything that can append an entry
// can serve as a capture sink.
type Appender interface {
	Append(entry *Entry)
}

// Store defines the interface for capture history storage.
// Implementations hold entries for inspection via the log view and the
// admin API. Store embeds Appender, so any Store can be used as a sink.
type Store interface {
	Appender

	// Get retrieves an entry by ID. Returns nil when absent.
	Get(id string) *Entry

	// List returns entries newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// WebVisible returns the web-visible entries in insertion order.
	// CLI-only entries are excluded.
	WebVisible() []*Entry

	// Count returns the total number of stored entries, CLI-only included.
	Count() int
}

// Filter defines criteria for filtering capture history.
type Filter struct {
	// Kind filters by route classification (root, view, favicon, named).
	Kind string

	// Method filters by HTTP method.
	Method string

	// Path filters by path prefix.
	Path string

	// CLIOnly filters by web visibility when non-nil.
	CLIOnly *bool

	// Limit is the maximum number of entries to return.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

// Subscriber is a channel that receives new entries.
// Used for real-time updates in the admin streaming endpoints.
type Subscriber chan *Entry

// SubscribableStore extends Store with subscription support.
type SubscribableStore interface {
	Store

	// Subscribe registers a subscriber to receive new entries.
	// Returns a channel that will receive entries and an unsubscribe function.
	Subscribe() (Subscriber, func())
}
