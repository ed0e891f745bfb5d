package consensus

import "sync"

// observationStore is a bounded FIFO of observations. Eviction is by
// insertion order only, never by age.
type observationStore struct {
	mu       sync.Mutex
	items    []Observation
	capacity int
}

func newObservationStore(capacity int) *observationStore {
	return &observationStore{
		items:    make([]Observation, 0, capacity),
		capacity: capacity,
	}
}

// appendLocked requires s.mu to be held.
func (s *observationStore) appendLocked(obs Observation) {
	if len(s.items) >= s.capacity {
		copy(s.items, s.items[1:])
		s.items = s.items[:len(s.items)-1]
	}
	s.items = append(s.items, obs)
}

func (s *observationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// recentLocked returns up to n observations, most recent first.
func (s *observationStore) recentLocked(n int) []Observation {
	if n > len(s.items) {
		n = len(s.items)
	}
	out := make([]Observation, 0, n)
	for i := len(s.items) - 1; i >= len(s.items)-n; i-- {
		out = append(out, s.items[i])
	}
	return out
}
