// Package state holds the latest readings for the reporting layer.
// The store is the single mutual-exclusion boundary between the
// polling side and the REST/WebSocket reporting side.
package state

import (
	"sync"

	"github.com/cbowes/flowmeterd/internal/types"
)

// subscriberBuffer is the per-subscriber channel depth. A slow
// WebSocket client drops readings rather than stalling the poll side.
const subscriberBuffer = 16

// Store keeps the most recent reading per meter and fans new readings
// out to subscribers. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	latest      map[string]types.Reading
	subscribers map[chan types.Reading]struct{}
}

// NewStore creates an empty reading store
func NewStore() *Store {
	return &Store{
		latest:      make(map[string]types.Reading),
		subscribers: make(map[chan types.Reading]struct{}),
	}
}

// Update records a new reading and broadcasts it to all subscribers
func (s *Store) Update(r types.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest[r.MeterName] = r

	for ch := range s.subscribers {
		select {
		case ch <- r:
		default:
			// Subscriber is not keeping up; skip it for this reading.
		}
	}
}

// Latest returns the most recent reading for the named meter
func (s *Store) Latest(meterName string) (types.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.latest[meterName]
	return r, ok
}

// All returns the most recent reading from every meter
func (s *Store) All() []types.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := make([]types.Reading, 0, len(s.latest))
	for _, r := range s.latest {
		readings = append(readings, r)
	}
	return readings
}

// Subscribe returns a channel that receives every future reading.
// Callers must Unsubscribe when done.
func (s *Store) Subscribe() chan types.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan types.Reading, subscriberBuffer)
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber channel and closes it
func (s *Store) Unsubscribe(ch chan types.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}
