package store

import (
	"context"
	"sync"
	"time"

	"github.com/engagekit/onsite/internal/throttle"
)

// MemoryMarkerStore is an in-memory throttle marker store.
type MemoryMarkerStore struct {
	mu      sync.RWMutex
	markers map[string]time.Time
}

// NewMemoryMarkerStore creates an in-memory throttle marker store.
func NewMemoryMarkerStore() *MemoryMarkerStore {
	return &MemoryMarkerStore{
		markers: make(map[string]time.Time),
	}
}

func (s *MemoryMarkerStore) LastFetch(_ context.Context, visitorID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.markers[visitorID]

	return t, ok, nil
}

func (s *MemoryMarkerStore) SetLastFetch(_ context.Context, visitorID string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers[visitorID] = t

	return nil
}

var _ throttle.Store = (*MemoryMarkerStore)(nil)
