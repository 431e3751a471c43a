package notification_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/engagekit/onsite/internal/notification"
)

var errMock = errors.New("mock error")

// mockStore is a configurable test double for notification.Store.
type mockStore struct {
	records    []*notification.Record
	allErr     error
	upsertErr  error
	deleteErr  error
	upserted   []*notification.Record
	deleted    []string
	tornDown   bool
	teardownEr error
}

func (m *mockStore) Upsert(_ context.Context, record *notification.Record) error {
	if m.upsertErr != nil {
		return fmt.Errorf("%w: %v", notification.ErrStorage, m.upsertErr)
	}

	m.upserted = append(m.upserted, record)

	return nil
}

func (m *mockStore) All(_ context.Context) ([]*notification.Record, error) {
	if m.allErr != nil {
		return nil, fmt.Errorf("%w: %v", notification.ErrStorage, m.allErr)
	}

	return m.records, nil
}

func (m *mockStore) Delete(_ context.Context, commID string) error {
	if m.deleteErr != nil {
		return fmt.Errorf("%w: %v", notification.ErrStorage, m.deleteErr)
	}

	m.deleted = append(m.deleted, commID)

	return nil
}

func (m *mockStore) Teardown(_ context.Context) error {
	if m.teardownEr != nil {
		return fmt.Errorf("%w: %v", notification.ErrStorage, m.teardownEr)
	}

	m.tornDown = true

	return nil
}
