package store

import (
	"context"
	"sync"

	"github.com/engagekit/onsite/internal/push"
)

// MemoryPushStore is an in-memory push subscription store.
type MemoryPushStore struct {
	mu     sync.RWMutex
	subs   map[string]push.Subscription // token -> subscription
	tokens map[string]map[string]bool   // visitorId -> token set
}

// NewMemoryPushStore creates an in-memory push subscription store.
func NewMemoryPushStore() *MemoryPushStore {
	return &MemoryPushStore{
		subs:   make(map[string]push.Subscription),
		tokens: make(map[string]map[string]bool),
	}
}

func (s *MemoryPushStore) Save(_ context.Context, sub *push.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.subs[sub.Token]; ok && existing.VisitorID != sub.VisitorID {
		delete(s.tokens[existing.VisitorID], sub.Token)
	}

	s.subs[sub.Token] = *sub

	if s.tokens[sub.VisitorID] == nil {
		s.tokens[sub.VisitorID] = make(map[string]bool)
	}

	s.tokens[sub.VisitorID][sub.Token] = true

	return nil
}

func (s *MemoryPushStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[token]
	if !ok {
		return nil
	}

	delete(s.subs, token)
	delete(s.tokens[sub.VisitorID], token)

	return nil
}

func (s *MemoryPushStore) ByVisitor(_ context.Context, visitorID string) ([]*push.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]*push.Subscription, 0, len(s.tokens[visitorID]))

	for token := range s.tokens[visitorID] {
		sub := s.subs[token]
		subs = append(subs, &sub)
	}

	return subs, nil
}

func (s *MemoryPushStore) DeleteByVisitor(_ context.Context, visitorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token := range s.tokens[visitorID] {
		delete(s.subs, token)
	}

	delete(s.tokens, visitorID)

	return nil
}

var _ push.Store = (*MemoryPushStore)(nil)
