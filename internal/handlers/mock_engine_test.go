package handlers_test

import (
	"context"
	"errors"

	"github.com/engagekit/onsite/internal/ack"
	"github.com/engagekit/onsite/internal/messaging"
	"github.com/engagekit/onsite/internal/notification"
)

var errMock = errors.New("mock error")

// mockEngine is a test double for handlers.Engine.
type mockEngine struct {
	record    *notification.Record
	sessions  []notification.Session
	loggedOut []string
}

func (m *mockEngine) PageLoad(_ context.Context, session notification.Session) *notification.Record {
	m.sessions = append(m.sessions, session)

	return m.record
}

func (m *mockEngine) Logout(_ context.Context, visitorID string) {
	m.loggedOut = append(m.loggedOut, visitorID)
}

type mockDispatcher struct {
	acks []ack.Ack
	err  error
}

func (m *mockDispatcher) Acknowledge(_ context.Context, a ack.Ack) error {
	m.acks = append(m.acks, a)

	return m.err
}

// capturePublish records published events and can be configured to fail.
type capturePublish[T any] struct {
	events []*T
	err    error
}

func (c *capturePublish[T]) fn() messaging.Publish[T] {
	return func(event *T) error {
		if c.err != nil {
			return c.err
		}

		c.events = append(c.events, event)

		return nil
	}
}
