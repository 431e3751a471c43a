package bridge

import (
	"context"
	"fmt"

	"github.com/engagekit/onsite/internal/ack"
	"github.com/engagekit/onsite/internal/notification"
	"github.com/engagekit/onsite/internal/push"
	"go.uber.org/zap"
)

// Engine is the slice of the notification engine the worker drives from
// control messages.
type Engine interface {
	FetchFromRemote(ctx context.Context, session notification.Session)
	ShowFromStore(ctx context.Context, session notification.Session) *notification.Record
	Logout(ctx context.Context, visitorID string)
}

// Handlers adapts consumed control messages onto the engine and the
// acknowledgement dispatcher. Each handler is the boundary of one
// triggered task: the engine swallows its own failures, and anything
// returned from here is logged and dropped by the consumer.
type Handlers struct {
	engine        Engine
	acks          ack.Dispatcher
	subscriptions push.Store
	logger        *zap.Logger
}

// NewHandlers creates the worker-side message handlers.
func NewHandlers(engine Engine, acks ack.Dispatcher, subscriptions push.Store, logger *zap.Logger) *Handlers {
	return &Handlers{
		engine:        engine,
		acks:          acks,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// HandleFetchFromAPI runs the throttled remote-fetch half of the
// lifecycle for one visitor.
func (h *Handlers) HandleFetchFromAPI(ctx context.Context, msg *FetchFromAPIMessage) error {
	h.engine.FetchFromRemote(ctx, notification.Session{
		VisitorID:   msg.VisitorID,
		Credentials: msg.Credentials,
		PageURL:     msg.URL,
	})

	return nil
}

// HandleFetchFromStore runs a selection pass over the visitor's stored
// records for the given page.
func (h *Handlers) HandleFetchFromStore(ctx context.Context, msg *FetchFromStoreMessage) error {
	h.engine.ShowFromStore(ctx, notification.Session{
		VisitorID: msg.VisitorID,
		PageURL:   msg.URL,
		Mobile:    msg.Mobile,
	})

	return nil
}

// HandleAck forwards one relayed acknowledgement to the remote endpoint.
func (h *Handlers) HandleAck(ctx context.Context, msg *AckMessage) error {
	if !ack.ValidEvent(msg.Event) {
		return fmt.Errorf("unknown ack event %q", msg.Event)
	}

	return h.acks.Acknowledge(ctx, ack.Ack{
		CDID:   msg.CDID,
		CommID: msg.CommID,
		Event:  msg.Event,
	})
}

// HandleLogout tears down the visitor's record store and drops their
// push subscriptions. The throttle marker survives logout.
func (h *Handlers) HandleLogout(ctx context.Context, msg *LogoutMessage) error {
	h.engine.Logout(ctx, msg.VisitorID)

	if err := h.subscriptions.DeleteByVisitor(ctx, msg.VisitorID); err != nil {
		h.logger.Error("failed to drop push subscriptions",
			zap.String("visitorId", msg.VisitorID),
			zap.Error(err),
		)
	}

	return nil
}
