// Package bridge owns the inter-context wire contract between the
// page-facing API, the background worker, and the rendering layer. The
// message shapes and purpose markers here are the protocol; everything
// else adapts them onto the notification engine.
package bridge

import "github.com/engagekit/onsite/internal/notification"

// Topics the control plane runs on.
const (
	TopicShow       = "notification.show"
	TopicFetchAPI   = "notification.fetch.api"
	TopicFetchStore = "notification.fetch.store"
	TopicAck        = "notification.ack"
	TopicLogout     = "session.logout"
)

// Purpose markers carried inside each message body.
const (
	PurposeShow       = "show-on-site-notification"
	PurposeFetchAPI   = "fetch-notification-from-api"
	PurposeFetchStore = "fetch-notification-from-indexed-db"
	PurposeAck        = "send-ack-to-api"
	TypeLogout        = "logout"
)

// ShowMessage hands a chosen record to the rendering layer.
type ShowMessage struct {
	Purpose   string               `json:"purpose"`
	VisitorID string               `json:"visitorId"`
	Mobile    bool                 `json:"mobile"`
	Data      *notification.Record `json:"data"`
}

// FetchFromAPIMessage asks the worker to pull fresh notifications from
// the remote source into the visitor's store.
type FetchFromAPIMessage struct {
	Purpose     string `json:"purpose"`
	VisitorID   string `json:"visitorId"`
	URL         string `json:"url"`
	Credentials string `json:"credentials,omitempty"`
}

// FetchFromStoreMessage asks the worker to run a selection pass over the
// visitor's stored records for the given page.
type FetchFromStoreMessage struct {
	Purpose   string `json:"purpose"`
	VisitorID string `json:"visitorId"`
	URL       string `json:"url"`
	Mobile    bool   `json:"mobile,omitempty"`
}

// AckMessage carries one acknowledgement toward the remote endpoint.
type AckMessage struct {
	Purpose string `json:"purpose"`
	CDID    string `json:"CDID"`
	CommID  string `json:"commId"`
	Event   string `json:"event"`
}

// LogoutMessage signals that the visitor's session ended and their
// record store must be torn down.
type LogoutMessage struct {
	Type      string `json:"type"`
	VisitorID string `json:"visitorId"`
}
