package handlers

import (
	"encoding/json"

	"github.com/engagekit/onsite/internal/notification"
)

// SyncRequest is the page-load call of the embedded snippet.
type SyncRequest struct {
	Body struct {
		VisitorID   string `doc:"Visitor ID from a previous sync, empty on first visit" example:"V1StGXR8Z5jdHi6B" json:"visitorId,omitempty"`
		URL         string `doc:"Current page URL"                                      example:"https://shop.example.com/checkout" json:"url" minLength:"1"`
		Credentials string `doc:"Email or phone number identifying the shopper"         example:"jane@example.com" json:"credentials,omitempty"`
		Mobile      bool   `doc:"Whether the page renders on a mobile viewport"         json:"mobile,omitempty"`
	}
}

// SyncResponse carries the visitor ID and the notification chosen for
// this page view, if any.
type SyncResponse struct {
	Body struct {
		VisitorID    string               `doc:"Visitor ID to carry on subsequent calls" json:"visitorId"`
		Notification *notification.Record `doc:"Notification to render, absent when none is eligible" json:"notification,omitempty"`
	}
}

// PrefetchRequest asks the worker to refresh the visitor's stored
// notifications in the background.
type PrefetchRequest struct {
	Body struct {
		VisitorID   string `doc:"Visitor ID" json:"visitorId" minLength:"1"`
		URL         string `doc:"Current page URL" json:"url" minLength:"1"`
		Credentials string `doc:"Email or phone number identifying the shopper" json:"credentials,omitempty"`
	}
}

// TrackEventRequest is one e-commerce lifecycle event from a page.
type TrackEventRequest struct {
	Body struct {
		VisitorID string          `doc:"Visitor ID" json:"visitorId,omitempty"`
		Event     string          `doc:"Event name" example:"add-to-cart" json:"event" minLength:"1"`
		URL       string          `doc:"Page URL the event happened on" json:"url,omitempty"`
		Payload   json.RawMessage `doc:"Opaque event payload" json:"payload,omitempty"`
	}
}

// InteractionRequest reports a user interaction with a rendered
// notification.
type InteractionRequest struct {
	Body struct {
		CDID   string `doc:"Campaign identifier"      json:"CDID" minLength:"1"`
		CommID string `doc:"Communication identifier" json:"commId" minLength:"1"`
		Event  string `doc:"Interaction kind"         enum:"shown,clicked" json:"event"`
	}
}

// RegisterPushRequest records a push subscription token for a visitor.
type RegisterPushRequest struct {
	Body struct {
		VisitorID string `doc:"Visitor ID" json:"visitorId" minLength:"1"`
		Token     string `doc:"Push subscription token" json:"token" minLength:"1"`
		Platform  string `doc:"Originating platform" example:"web" json:"platform,omitempty"`
	}
}

// UnregisterPushRequest removes a push subscription by token.
type UnregisterPushRequest struct {
	Token string `doc:"Push subscription token" path:"token"`
}

// LogoutRequest ends a visitor's session.
type LogoutRequest struct {
	Body struct {
		VisitorID string `doc:"Visitor ID" json:"visitorId" minLength:"1"`
	}
}
