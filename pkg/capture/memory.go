package capture

import (
	"strings"
	"sync"
	"time"

	"github.com/leelsey/recvd/internal/id"
)

// MemoryStore implements SubscribableStore with an in-memory append-only
// slice. There is no eviction: entries live until the process exits.
type MemoryStore struct {
	entries     []*Entry
	nextSeq     int64
	mu          sync.RWMutex
	subscribers map[Subscriber]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[Subscriber]struct{}),
	}
}

// Append records an entry, assigning its sequence number and, when unset,
// its ID and timestamp. The entry must not be mutated afterwards.
func (s *MemoryStore) Append(entry *Entry) {
	if entry == nil {
		return
	}

	s.mu.Lock()

	s.nextSeq++
	entry.Seq = s.nextSeq

	if entry.ID == "" {
		entry.ID = id.ULID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	// Notify subscribers without blocking the writer.
	s.subMu.RLock()
	for sub := range s.subscribers {
		select {
		case sub <- entry:
		default:
			// Drop if subscriber is slow
		}
	}
	s.subMu.RUnlock()
}

// Get retrieves an entry by ID.
func (s *MemoryStore) Get(entryID string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ID == entryID {
			return entry
		}
	}
	return nil
}

// List returns entries newest first, optionally filtered.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if filter != nil && !matchesFilter(entry, filter) {
			continue
		}
		result = append(result, entry)
	}

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []*Entry{}
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}

	return result
}

// matchesFilter checks if an entry matches all filter criteria.
func matchesFilter(entry *Entry, filter *Filter) bool {
	if filter.Kind != "" && entry.Kind != filter.Kind {
		return false
	}
	if filter.Method != "" && entry.Method != filter.Method {
		return false
	}
	if filter.Path != "" && !strings.HasPrefix(entry.Path, filter.Path) {
		return false
	}
	if filter.CLIOnly != nil && entry.CLIOnly != *filter.CLIOnly {
		return false
	}
	return true
}

// WebVisible returns the web-visible entries in insertion order.
func (s *MemoryStore) WebVisible() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.CLIOnly {
			continue
		}
		result = append(result, entry)
	}
	return result
}

// Count returns the total number of stored entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe registers a subscriber to receive new entries.
// Returns the channel and an unsubscribe function that closes it.
func (s *MemoryStore) Subscribe() (Subscriber, func()) {
	ch := make(Subscriber, 100) // Buffer to prevent blocking

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	unsubscribe := func() {
		s.subMu.Lock()
		delete(s.subscribers, ch)
		s.subMu.Unlock()
		close(ch)
	}

	return ch, unsubscribe
}

var _ SubscribableStore = (*MemoryStore)(nil)
