package geocode

import (
	"sync"
	"time"
)

// Store is the memoization cache behind the resolver. A stored nil value is
// a negative entry: the lookup was attempted and confirmed unresolvable, so
// it must not be retried.
type Store interface {
	Get(key string) (*Coordinates, bool)
	Set(key string, coords *Coordinates)
	Clear()
}

type storeEntry struct {
	coords   *Coordinates
	storedAt time.Time
}

// MemoryStore is a mutex-guarded in-memory Store. With the zero options it
// matches the historical behavior: unbounded and without expiry, entries
// live for the process lifetime.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]storeEntry
	order      []string
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// StoreOptions bounds the MemoryStore. MaxEntries <= 0 means unbounded;
// TTL <= 0 means entries never expire.
type StoreOptions struct {
	MaxEntries int
	TTL        time.Duration
}

// NewMemoryStore creates a MemoryStore with the given bounds.
func NewMemoryStore(opts StoreOptions) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]storeEntry),
		maxEntries: opts.MaxEntries,
		ttl:        opts.TTL,
		now:        time.Now,
	}
}

func (s *MemoryStore) Get(key string) (*Coordinates, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(entry.storedAt) > s.ttl {
		delete(s.entries, key)
		return nil, false
	}
	return entry.coords, true
}

func (s *MemoryStore) Set(key string, coords *Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
			s.evictOldestLocked()
		}
		s.order = append(s.order, key)
	}
	s.entries[key] = storeEntry{coords: coords, storedAt: s.now()}
}

// evictOldestLocked drops the oldest inserted live entry. The order slice
// may contain keys already removed by TTL expiry; those are skipped.
func (s *MemoryStore) evictOldestLocked() {
	for len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		if _, ok := s.entries[oldest]; ok {
			delete(s.entries, oldest)
			return
		}
	}
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]storeEntry)
	s.order = nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
