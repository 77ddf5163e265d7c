package profile

import "sync"

// DefaultCapacity is the per-source history bound used when none is
// configured.
const DefaultCapacity = 10

// Store keeps the bounded profile history for every tracked source. It is
// the single authority for drift baselines. Access is serialized per
// source; distinct sources never contend beyond the registry lookup.
type Store struct {
	mu       sync.RWMutex
	capacity int
	sources  map[string]*history
}

// history is one source's bounded FIFO of past profiles.
type history struct {
	mu      sync.Mutex
	entries []*Profile
}

// NewStore creates a Store with the given per-source capacity. A
// non-positive capacity falls back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		sources:  make(map[string]*history),
	}
}

// Capacity returns the per-source history bound.
func (s *Store) Capacity() int {
	return s.capacity
}

// Record appends a profile to its source's history, evicting the oldest
// entry beyond capacity, and returns a snapshot of the updated history in
// insertion order. Concurrent records for the same source serialize; both
// persist.
func (s *Store) Record(sourceID string, p *Profile) []*Profile {
	h := s.source(sourceID)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, p)
	if len(h.entries) > s.capacity {
		h.entries = h.entries[len(h.entries)-s.capacity:]
	}
	return snapshot(h.entries)
}

// History returns a snapshot of the source's history, oldest first. It
// never fails: an unknown source yields an empty slice.
func (s *Store) History(sourceID string) []*Profile {
	s.mu.RLock()
	h, ok := s.sources[sourceID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return snapshot(h.entries)
}

// Latest returns the most recent profile for the source, or nil.
func (s *Store) Latest(sourceID string) *Profile {
	hist := s.History(sourceID)
	if len(hist) == 0 {
		return nil
	}
	return hist[len(hist)-1]
}

// Reset drops the source's history entirely.
func (s *Store) Reset(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, sourceID)
}

// source returns the history for sourceID, creating it on first use.
func (s *Store) source(sourceID string) *history {
	s.mu.RLock()
	h, ok := s.sources[sourceID]
	s.mu.RUnlock()
	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.sources[sourceID]; ok {
		return h
	}
	h = &history{}
	s.sources[sourceID] = h
	return h
}

func snapshot(entries []*Profile) []*Profile {
	out := make([]*Profile, len(entries))
	copy(out, entries)
	return out
}
