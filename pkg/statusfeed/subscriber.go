package statusfeed

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/runshine/secflow-console/pkg/events"
)

// Subscriber feeds status reports arriving on the message bus to a Syncer.
// Execution platforms that already speak Kafka publish raw report payloads on
// the node status topic instead of the Redis stream.
type Subscriber struct {
	subscriber message.Subscriber
	syncer     *Syncer
	logger     *slog.Logger
}

// NewSubscriber creates a new bus subscriber.
func NewSubscriber(sub message.Subscriber, syncer *Syncer, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		subscriber: sub,
		syncer:     syncer,
		logger:     logger.With("module", "statusfeed_subscriber", "topic", events.NodeStatusTopic),
	}
}

// Listen consumes the node status topic until the context ends. Rejected
// reports are acked and dropped; storage failures nack for redelivery.
func (s *Subscriber) Listen(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, events.NodeStatusTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			err := s.syncer.Apply(ctx, msg.Payload)

			switch {
			case err == nil:
				msg.Ack()
			case IsInvalidReport(err) || IsIllegalTransition(err):
				s.logger.WarnContext(ctx, "Dropping rejected status report",
					"message_id", msg.UUID, "error", err)
				msg.Ack()
			default:
				s.logger.ErrorContext(ctx, "Failed to apply status report",
					"message_id", msg.UUID, "error", err)
				msg.Nack()
			}
		}
	}()

	return nil
}
