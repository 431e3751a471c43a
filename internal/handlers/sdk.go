package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/engagekit/onsite/internal/ack"
	"github.com/engagekit/onsite/internal/bridge"
	"github.com/engagekit/onsite/internal/messaging"
	"github.com/engagekit/onsite/internal/notification"
	"github.com/engagekit/onsite/internal/push"
	"github.com/engagekit/onsite/internal/tracking"
	"go.uber.org/zap"
)

// Engine is the slice of the notification engine the API drives
// directly.
type Engine interface {
	PageLoad(ctx context.Context, session notification.Session) *notification.Record
	Logout(ctx context.Context, visitorID string)
}

// SDKHandler serves the embedded snippet's calls. Everything behind it is
// best-effort: a broker or engine failure is logged and the page gets its
// 2xx regardless, so a notification hiccup never breaks a shop page.
type SDKHandler struct {
	engine        Engine
	acks          ack.Dispatcher
	subscriptions push.Store
	publishEvent  messaging.Publish[tracking.Event]
	publishFetch  messaging.Publish[bridge.FetchFromAPIMessage]
	publishLogout messaging.Publish[bridge.LogoutMessage]
	newVisitorID  func() string
	logger        *zap.Logger
}

// NewSDKHandler creates the SDK handler.
func NewSDKHandler(
	engine Engine,
	acks ack.Dispatcher,
	subscriptions push.Store,
	publishEvent messaging.Publish[tracking.Event],
	publishFetch messaging.Publish[bridge.FetchFromAPIMessage],
	publishLogout messaging.Publish[bridge.LogoutMessage],
	newVisitorID func() string,
	logger *zap.Logger,
) *SDKHandler {
	return &SDKHandler{
		engine:        engine,
		acks:          acks,
		subscriptions: subscriptions,
		publishEvent:  publishEvent,
		publishFetch:  publishFetch,
		publishLogout: publishLogout,
		newVisitorID:  newVisitorID,
		logger:        logger,
	}
}

// Sync runs the full notification lifecycle for one page view. First
// visits get a visitor ID issued here; all state is namespaced by it.
func (h *SDKHandler) Sync(ctx context.Context, req *SyncRequest) (*SyncResponse, error) {
	visitorID := req.Body.VisitorID
	if visitorID == "" {
		visitorID = h.newVisitorID()
	}

	record := h.engine.PageLoad(ctx, notification.Session{
		VisitorID:   visitorID,
		Credentials: req.Body.Credentials,
		PageURL:     req.Body.URL,
		Mobile:      req.Body.Mobile,
	})

	resp := &SyncResponse{}
	resp.Body.VisitorID = visitorID
	resp.Body.Notification = record

	return resp, nil
}

// Prefetch relays a background refresh of the visitor's notifications to
// the worker.
func (h *SDKHandler) Prefetch(_ context.Context, req *PrefetchRequest) (*struct{}, error) {
	err := h.publishFetch(&bridge.FetchFromAPIMessage{
		Purpose:     bridge.PurposeFetchAPI,
		VisitorID:   req.Body.VisitorID,
		URL:         req.Body.URL,
		Credentials: req.Body.Credentials,
	})
	if err != nil {
		h.logger.Error("failed to relay prefetch",
			zap.String("visitorId", req.Body.VisitorID),
			zap.Error(err),
		)
	}

	return &struct{}{}, nil
}

// TrackEvent ingests one lifecycle event and publishes it toward the
// collection pipeline. Accepted regardless of broker outcome.
func (h *SDKHandler) TrackEvent(ctx context.Context, req *TrackEventRequest) (*struct{}, error) {
	meta := RequestMetaFromContext(ctx)

	event := &tracking.Event{
		VisitorID:  req.Body.VisitorID,
		Name:       req.Body.Event,
		URL:        req.Body.URL,
		Payload:    req.Body.Payload,
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
		OccurredAt: time.Now(),
	}

	if err := h.publishEvent(event); err != nil {
		h.logger.Error("failed to publish tracked event",
			zap.String("event", event.Name),
			zap.Error(err),
		)
	}

	return &struct{}{}, nil
}

// RecordInteraction acknowledges a shown or clicked interaction reported
// by the rendering layer.
func (h *SDKHandler) RecordInteraction(ctx context.Context, req *InteractionRequest) (*struct{}, error) {
	a := ack.Ack{
		CDID:   req.Body.CDID,
		CommID: req.Body.CommID,
		Event:  req.Body.Event,
	}

	if err := h.acks.Acknowledge(ctx, a); err != nil {
		h.logger.Error("failed to dispatch acknowledgement",
			zap.String("commId", a.CommID),
			zap.String("event", a.Event),
			zap.Error(err),
		)
	}

	return &struct{}{}, nil
}

// RegisterPush records a push subscription token for the visitor.
func (h *SDKHandler) RegisterPush(ctx context.Context, req *RegisterPushRequest) (*struct{}, error) {
	sub := &push.Subscription{
		VisitorID: req.Body.VisitorID,
		Token:     req.Body.Token,
		Platform:  req.Body.Platform,
		CreatedAt: time.Now(),
	}

	if err := h.subscriptions.Save(ctx, sub); err != nil {
		h.logger.Error("failed to save push subscription",
			zap.String("visitorId", sub.VisitorID),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to save subscription")
	}

	return &struct{}{}, nil
}

// UnregisterPush removes a push subscription by token.
func (h *SDKHandler) UnregisterPush(ctx context.Context, req *UnregisterPushRequest) (*struct{}, error) {
	if err := h.subscriptions.Delete(ctx, req.Token); err != nil {
		h.logger.Error("failed to delete push subscription",
			zap.String("token", req.Token),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to delete subscription")
	}

	return &struct{}{}, nil
}

// Logout tears down the visitor's record store and push subscriptions,
// then relays the logout to the other contexts. The throttle marker
// deliberately survives.
func (h *SDKHandler) Logout(ctx context.Context, req *LogoutRequest) (*struct{}, error) {
	visitorID := req.Body.VisitorID

	h.engine.Logout(ctx, visitorID)

	if err := h.subscriptions.DeleteByVisitor(ctx, visitorID); err != nil {
		h.logger.Error("failed to drop push subscriptions",
			zap.String("visitorId", visitorID),
			zap.Error(err),
		)
	}

	err := h.publishLogout(&bridge.LogoutMessage{
		Type:      bridge.TypeLogout,
		VisitorID: visitorID,
	})
	if err != nil {
		h.logger.Error("failed to relay logout",
			zap.String("visitorId", visitorID),
			zap.Error(err),
		)
	}

	return &struct{}{}, nil
}
