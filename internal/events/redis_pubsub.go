package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/vuhnger/backend/models"
)

// redisConsumerGroup keeps replicas sharing one consumer group so each
// refresh event is handled once.
const redisConsumerGroup = "backend"

// NewRedisStreamPubSub creates a Redis Streams backed pub/sub, for
// deployments where refresh events should survive a restart or fan out
// across replicas.
func NewRedisStreamPubSub(redisURL string, logger watermill.LoggerAdapter) (models.PubSub, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	if logger == nil {
		logger = watermill.NopLogger{}
	}

	client := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client:     client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}

	subscriber, err := redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: redisConsumerGroup,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis subscriber: %w", err)
	}

	return NewWatermillPubSub(publisher, subscriber), nil
}
