package store

import (
	"context"
	"sync"
	"time"

	"github.com/engagekit/onsite/internal/notification"
)

// MemoryRecordStores is an in-memory notification.StoreProvider for
// tests and single-node development.
type MemoryRecordStores struct {
	mu       sync.RWMutex
	visitors map[string]map[string]notification.Record // visitorId -> commId -> record
}

// NewMemoryRecordStores creates an in-memory record store provider.
func NewMemoryRecordStores() *MemoryRecordStores {
	return &MemoryRecordStores{
		visitors: make(map[string]map[string]notification.Record),
	}
}

func (s *MemoryRecordStores) Open(visitorID string) notification.Store {
	return &memoryRecordStore{
		provider:  s,
		visitorID: visitorID,
	}
}

// Prune drops expired and exhausted records across all visitors.
func (s *MemoryRecordStores) Prune(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned int

	for visitorID, records := range s.visitors {
		for commID, record := range records {
			if record.Expired(now) || record.Exhausted() {
				delete(records, commID)

				pruned++
			}
		}

		if len(records) == 0 {
			delete(s.visitors, visitorID)
		}
	}

	return pruned, nil
}

type memoryRecordStore struct {
	provider  *MemoryRecordStores
	visitorID string
}

// Records are stored and returned by value so callers never alias the
// map's contents; a mutation only lands through Upsert.
func (m *memoryRecordStore) Upsert(_ context.Context, record *notification.Record) error {
	m.provider.mu.Lock()
	defer m.provider.mu.Unlock()

	records, ok := m.provider.visitors[m.visitorID]
	if !ok {
		records = make(map[string]notification.Record)
		m.provider.visitors[m.visitorID] = records
	}

	records[record.CommID] = *record

	return nil
}

func (m *memoryRecordStore) All(_ context.Context) ([]*notification.Record, error) {
	m.provider.mu.RLock()
	defer m.provider.mu.RUnlock()

	records := make([]*notification.Record, 0, len(m.provider.visitors[m.visitorID]))

	for _, record := range m.provider.visitors[m.visitorID] {
		copied := record
		records = append(records, &copied)
	}

	return records, nil
}

func (m *memoryRecordStore) Delete(_ context.Context, commID string) error {
	m.provider.mu.Lock()
	defer m.provider.mu.Unlock()

	delete(m.provider.visitors[m.visitorID], commID)

	return nil
}

func (m *memoryRecordStore) Teardown(_ context.Context) error {
	m.provider.mu.Lock()
	defer m.provider.mu.Unlock()

	delete(m.provider.visitors, m.visitorID)

	return nil
}

var (
	_ notification.StoreProvider = (*MemoryRecordStores)(nil)
	_ notification.Pruner        = (*MemoryRecordStores)(nil)
)
