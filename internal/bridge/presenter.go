package bridge

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/engagekit/onsite/internal/messaging"
	"github.com/engagekit/onsite/internal/notification"
)

// Presenter publishes chosen records toward the rendering layer. The
// renderer lives in another context entirely; the show topic is the only
// channel between them.
type Presenter struct {
	publish messaging.Publish[ShowMessage]
}

// NewPresenter creates a presenter publishing on the show topic.
func NewPresenter(publisher message.Publisher) *Presenter {
	return &Presenter{
		publish: messaging.NewPublishFunc[ShowMessage](publisher, TopicShow),
	}
}

func (p *Presenter) Present(_ context.Context, visitorID string, record *notification.Record, mobile bool) error {
	return p.publish(&ShowMessage{
		Purpose:   PurposeShow,
		VisitorID: visitorID,
		Mobile:    mobile,
		Data:      record,
	})
}

var _ notification.Presenter = (*Presenter)(nil)
