package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/runshine/secflow-console/pkg/channels/gochannel"
	"github.com/runshine/secflow-console/pkg/channels/kafka"
	"github.com/runshine/secflow-console/pkg/eventbus"
)

// NewEventBus creates an event bus for the given provider. The gochannel
// provider is in-process only and meant for local development.
func NewEventBus(provider, serviceName string, logger *slog.Logger) eventbus.EventBus {
	pub, sub, err := NewChannel(provider, serviceName, logger)
	if err != nil {
		panic(fmt.Errorf("failed to create %s pub/sub: %w", provider, err))
	}

	return eventbus.NewWatermillEventBus(pub, sub)
}

// NewChannel creates the raw watermill publisher/subscriber pair for the
// given provider.
func NewChannel(provider, serviceName string, logger *slog.Logger) (message.Publisher, message.Subscriber, error) {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)

		return pub, sub, err
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))

		return pub, sub, err
	default:
		return nil, nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
