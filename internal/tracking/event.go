// Package tracking forwards e-commerce lifecycle events to the remote
// collection endpoint. Delivery is fire-and-forget: no retry, no
// deduplication, no ordering guarantee.
package tracking

import (
	"encoding/json"
	"time"
)

// TopicEventTracked carries ingested events from the API to the worker.
const TopicEventTracked = "events.tracked"

// Event is one e-commerce lifecycle event as ingested from a page,
// stamped with request metadata before publishing. Payload is opaque to
// this service and travels untouched to the collection endpoint.
type Event struct {
	VisitorID  string          `json:"visitorId,omitempty"`
	Name       string          `json:"event"`
	URL        string          `json:"url,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	ClientIP   string          `json:"clientIp,omitempty"`
	UserAgent  string          `json:"userAgent,omitempty"`
	Referrer   string          `json:"referrer,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}
