package handlers_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/engagekit/onsite/internal/ack"
	"github.com/engagekit/onsite/internal/bridge"
	"github.com/engagekit/onsite/internal/handlers"
	"github.com/engagekit/onsite/internal/notification"
	"github.com/engagekit/onsite/internal/store"
	"github.com/engagekit/onsite/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	handler       *handlers.SDKHandler
	engine        *mockEngine
	acks          *mockDispatcher
	subscriptions *store.MemoryPushStore
	events        *capturePublish[tracking.Event]
	fetches       *capturePublish[bridge.FetchFromAPIMessage]
	logouts       *capturePublish[bridge.LogoutMessage]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		engine:        &mockEngine{},
		acks:          &mockDispatcher{},
		subscriptions: store.NewMemoryPushStore(),
		events:        &capturePublish[tracking.Event]{},
		fetches:       &capturePublish[bridge.FetchFromAPIMessage]{},
		logouts:       &capturePublish[bridge.LogoutMessage]{},
	}

	f.handler = handlers.NewSDKHandler(
		f.engine,
		f.acks,
		f.subscriptions,
		f.events.fn(),
		f.fetches.fn(),
		f.logouts.fn(),
		func() string { return "issued-visitor-id" },
		zap.NewNop(),
	)

	return f
}

func TestSDKHandler_Sync(t *testing.T) {
	t.Run("issues a visitor ID on first visit", func(t *testing.T) {
		f := newFixture(t)

		req := &handlers.SyncRequest{}
		req.Body.URL = "https://shop.example.com/"

		resp, err := f.handler.Sync(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "issued-visitor-id", resp.Body.VisitorID)
		require.Len(t, f.engine.sessions, 1)
		assert.Equal(t, "issued-visitor-id", f.engine.sessions[0].VisitorID)
	})

	t.Run("keeps a returning visitor's ID", func(t *testing.T) {
		f := newFixture(t)

		req := &handlers.SyncRequest{}
		req.Body.VisitorID = "visitor-1"
		req.Body.URL = "https://shop.example.com/checkout"
		req.Body.Credentials = "jane@example.com"
		req.Body.Mobile = true

		resp, err := f.handler.Sync(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "visitor-1", resp.Body.VisitorID)
		require.Len(t, f.engine.sessions, 1)
		assert.Equal(t, notification.Session{
			VisitorID:   "visitor-1",
			Credentials: "jane@example.com",
			PageURL:     "https://shop.example.com/checkout",
			Mobile:      true,
		}, f.engine.sessions[0])
	})

	t.Run("returns the notification chosen by the engine", func(t *testing.T) {
		f := newFixture(t)
		f.engine.record = &notification.Record{CommID: "comm-1", CDID: "campaign-1"}

		req := &handlers.SyncRequest{}
		req.Body.VisitorID = "visitor-1"
		req.Body.URL = "https://shop.example.com/"

		resp, err := f.handler.Sync(context.Background(), req)

		require.NoError(t, err)
		require.NotNil(t, resp.Body.Notification)
		assert.Equal(t, "comm-1", resp.Body.Notification.CommID)
	})

	t.Run("omits the notification when none is eligible", func(t *testing.T) {
		f := newFixture(t)

		req := &handlers.SyncRequest{}
		req.Body.VisitorID = "visitor-1"
		req.Body.URL = "https://shop.example.com/"

		resp, err := f.handler.Sync(context.Background(), req)

		require.NoError(t, err)
		assert.Nil(t, resp.Body.Notification)
	})
}

func TestSDKHandler_Prefetch(t *testing.T) {
	t.Run("relays a fetch message to the worker", func(t *testing.T) {
		f := newFixture(t)

		req := &handlers.PrefetchRequest{}
		req.Body.VisitorID = "visitor-1"
		req.Body.URL = "https://shop.example.com/"
		req.Body.Credentials = "jane@example.com"

		_, err := f.handler.Prefetch(context.Background(), req)

		require.NoError(t, err)
		require.Len(t, f.fetches.events, 1)
		assert.Equal(t, bridge.PurposeFetchAPI, f.fetches.events[0].Purpose)
		assert.Equal(t, "visitor-1", f.fetches.events[0].VisitorID)
		assert.Equal(t, "jane@example.com", f.fetches.events[0].Credentials)
	})

	t.Run("still accepts when publishing fails", func(t *testing.T) {
		f := newFixture(t)
		f.fetches.err = errMock

		req := &handlers.PrefetchRequest{}
		req.Body.VisitorID = "visitor-1"
		req.Body.URL = "https://shop.example.com/"

		_, err := f.handler.Prefetch(context.Background(), req)

		assert.NoError(t, err)
	})
}

func TestSDKHandler_TrackEvent(t *testing.T) {
	t.Run("publishes the event with request metadata", func(t *testing.T) {
		f := newFixture(t)

		ctx := handlers.ContextWithRequestMeta(context.Background(), handlers.RequestMeta{
			ClientIP:  "203.0.113.9",
			UserAgent: "Mozilla/5.0",
			Referrer:  "https://shop.example.com/",
		})

		req := &handlers.TrackEventRequest{}
		req.Body.VisitorID = "visitor-1"
		req.Body.Event = "add-to-cart"
		req.Body.URL = "https://shop.example.com/product/42"
		req.Body.Payload = json.RawMessage(`{"sku":"42"}`)

		_, err := f.handler.TrackEvent(ctx, req)

		require.NoError(t, err)
		require.Len(t, f.events.events, 1)

		event := f.events.events[0]
		assert.Equal(t, "add-to-cart", event.Name)
		assert.Equal(t, "visitor-1", event.VisitorID)
		assert.Equal(t, "203.0.113.9", event.ClientIP)
		assert.Equal(t, "Mozilla/5.0", event.UserAgent)
		assert.Equal(t, "https://shop.example.com/", event.Referrer)
		assert.JSONEq(t, `{"sku":"42"}`, string(event.Payload))
		assert.False(t, event.OccurredAt.IsZero())
	})

	t.Run("still accepts when publishing fails", func(t *testing.T) {
		f := newFixture(t)
		f.events.err = errMock

		req := &handlers.TrackEventRequest{}
		req.Body.Event = "page-load"

		_, err := f.handler.TrackEvent(context.Background(), req)

		assert.NoError(t, err)
	})
}

func TestSDKHandler_RecordInteraction(t *testing.T) {
	t.Run("dispatches the acknowledgement", func(t *testing.T) {
		f := newFixture(t)

		req := &handlers.InteractionRequest{}
		req.Body.CDID = "campaign-1"
		req.Body.CommID = "comm-1"
		req.Body.Event = ack.EventClicked

		_, err := f.handler.RecordInteraction(context.Background(), req)

		require.NoError(t, err)
		require.Len(t, f.acks.acks, 1)
		assert.Equal(t, ack.Ack{CDID: "campaign-1", CommID: "comm-1", Event: ack.EventClicked}, f.acks.acks[0])
	})

	t.Run("still accepts when dispatch fails", func(t *testing.T) {
		f := newFixture(t)
		f.acks.err = errMock

		req := &handlers.InteractionRequest{}
		req.Body.CDID = "campaign-1"
		req.Body.CommID = "comm-1"
		req.Body.Event = ack.EventShown

		_, err := f.handler.RecordInteraction(context.Background(), req)

		assert.NoError(t, err)
	})
}

func TestSDKHandler_Push(t *testing.T) {
	t.Run("registers a subscription", func(t *testing.T) {
		f := newFixture(t)

		req := &handlers.RegisterPushRequest{}
		req.Body.VisitorID = "visitor-1"
		req.Body.Token = "token-1"
		req.Body.Platform = "web"

		_, err := f.handler.RegisterPush(context.Background(), req)

		require.NoError(t, err)

		subs, err := f.subscriptions.ByVisitor(context.Background(), "visitor-1")
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "token-1", subs[0].Token)
		assert.Equal(t, "web", subs[0].Platform)
	})

	t.Run("unregisters a subscription by token", func(t *testing.T) {
		f := newFixture(t)

		reg := &handlers.RegisterPushRequest{}
		reg.Body.VisitorID = "visitor-1"
		reg.Body.Token = "token-1"

		_, err := f.handler.RegisterPush(context.Background(), reg)
		require.NoError(t, err)

		_, err = f.handler.UnregisterPush(context.Background(), &handlers.UnregisterPushRequest{Token: "token-1"})
		require.NoError(t, err)

		subs, err := f.subscriptions.ByVisitor(context.Background(), "visitor-1")
		require.NoError(t, err)
		assert.Empty(t, subs)
	})
}

func TestSDKHandler_Logout(t *testing.T) {
	t.Run("tears down visitor state and relays the logout", func(t *testing.T) {
		f := newFixture(t)

		reg := &handlers.RegisterPushRequest{}
		reg.Body.VisitorID = "visitor-1"
		reg.Body.Token = "token-1"

		_, err := f.handler.RegisterPush(context.Background(), reg)
		require.NoError(t, err)

		req := &handlers.LogoutRequest{}
		req.Body.VisitorID = "visitor-1"

		_, err = f.handler.Logout(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, []string{"visitor-1"}, f.engine.loggedOut)

		subs, err := f.subscriptions.ByVisitor(context.Background(), "visitor-1")
		require.NoError(t, err)
		assert.Empty(t, subs)

		require.Len(t, f.logouts.events, 1)
		assert.Equal(t, bridge.TypeLogout, f.logouts.events[0].Type)
		assert.Equal(t, "visitor-1", f.logouts.events[0].VisitorID)
	})

	t.Run("still accepts when the relay fails", func(t *testing.T) {
		f := newFixture(t)
		f.logouts.err = errMock

		req := &handlers.LogoutRequest{}
		req.Body.VisitorID = "visitor-1"

		_, err := f.handler.Logout(context.Background(), req)

		assert.NoError(t, err)
		assert.Equal(t, []string{"visitor-1"}, f.engine.loggedOut)
	})
}
