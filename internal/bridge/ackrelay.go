package bridge

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/engagekit/onsite/internal/ack"
	"github.com/engagekit/onsite/internal/messaging"
)

// AckRelay satisfies ack.Dispatcher by publishing onto the ack control
// topic instead of calling the remote endpoint. The server wires this so
// page-facing requests never block on the vendor; the worker owns the
// direct client.
type AckRelay struct {
	publish messaging.Publish[AckMessage]
}

// NewAckRelay creates a relay publishing on the ack topic.
func NewAckRelay(publisher message.Publisher) *AckRelay {
	return &AckRelay{
		publish: messaging.NewPublishFunc[AckMessage](publisher, TopicAck),
	}
}

func (r *AckRelay) Acknowledge(_ context.Context, a ack.Ack) error {
	return r.publish(&AckMessage{
		Purpose: PurposeAck,
		CDID:    a.CDID,
		CommID:  a.CommID,
		Event:   a.Event,
	})
}

var _ ack.Dispatcher = (*AckRelay)(nil)
