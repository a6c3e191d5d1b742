package nats

import (
	"context"
	"fmt"

	"github.com/abgdnv/stitchnstyle/pkg/messaging"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsPublisher writes events to JetStream. Events that carry a message id are
// deduplicated by the stream within its duplicate window.
type NatsPublisher struct {
	js jetstream.JetStream
}

func NewNatsPublisher(js jetstream.JetStream) *NatsPublisher {
	return &NatsPublisher{js: js}
}

func (p *NatsPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Subject(), err)
	}
	var opts []jetstream.PublishOpt
	if id, ok := event.(messaging.Identified); ok {
		opts = append(opts, jetstream.WithMsgID(id.MessageID()))
	}
	if _, err := p.js.Publish(ctx, event.Subject(), data, opts...); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Subject(), err)
	}
	return nil
}
