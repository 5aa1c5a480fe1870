package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/vuhnger/backend/models"
)

// NewGoChannelPubSub creates an in-process pub/sub backed by Watermill's
// GoChannel transport.
func NewGoChannelPubSub(logger watermill.LoggerAdapter, bufferSize int) models.PubSub {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	if bufferSize <= 0 {
		bufferSize = 100
	}

	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: int64(bufferSize),
			Persistent:          false,
		},
		logger,
	)

	return NewWatermillPubSub(goChannel, goChannel)
}

// RefreshEvent is the payload published on the stats/credentials topics.
type RefreshEvent struct {
	Source    string    `json:"source"`
	StatsType string    `json:"stats_type,omitempty"`
	At        time.Time `json:"at"`
}

// Publish marshals event and publishes it on topic. Publishing failures are
// logged and swallowed: the event bus is advisory and must not fail a
// refresh that already committed.
func Publish(ctx context.Context, bus models.PubSub, logger *slog.Logger, topic string, event RefreshEvent) {
	if bus == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to marshal event", slog.String("topic", topic), slog.Any("error", err))
		return
	}

	msg := &models.Message{
		UUID:    uuid.NewString(),
		Payload: payload,
		Metadata: map[string]string{
			"source": event.Source,
		},
	}

	if err := bus.Publish(ctx, topic, msg); err != nil {
		logger.Error("failed to publish event", slog.String("topic", topic), slog.Any("error", err))
	}
}

// LogSubscriber consumes a topic and logs each event, giving operators a
// trace of refresh activity. It returns when ctx is cancelled.
func LogSubscriber(ctx context.Context, bus models.PubSub, logger *slog.Logger, topic string) error {
	ch, err := bus.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range ch {
			logger.Info("event",
				slog.String("topic", topic),
				slog.String("source", msg.Metadata["source"]),
				slog.String("uuid", msg.UUID),
			)
		}
	}()

	return nil
}
