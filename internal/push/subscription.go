// Package push keeps per-visitor push subscription bookkeeping. Provider
// registration and message delivery happen outside this service; the
// records here only tie tokens to visitors so logout can clean them up.
package push

import (
	"context"
	"time"
)

// Subscription ties one push token to a visitor.
type Subscription struct {
	VisitorID string    `json:"visitorId"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists push subscriptions, keyed by token.
type Store interface {
	// Save inserts or replaces a subscription by token.
	Save(ctx context.Context, sub *Subscription) error

	// Delete removes a subscription by token. Missing tokens are a no-op.
	Delete(ctx context.Context, token string) error

	// ByVisitor returns every subscription registered for the visitor.
	ByVisitor(ctx context.Context, visitorID string) ([]*Subscription, error)

	// DeleteByVisitor removes all of the visitor's subscriptions.
	DeleteByVisitor(ctx context.Context, visitorID string) error
}
