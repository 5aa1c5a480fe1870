package models

import (
	"context"
)

// Message represents a message in the pub/sub system.
type Message struct {
	UUID     string
	Payload  []byte
	Metadata map[string]string
}

// PubSub is a generic publish-subscribe interface. The concrete
// implementation adapts a Watermill transport.
type PubSub interface {
	// Publish sends a message to the specified topic.
	Publish(ctx context.Context, topic string, msg *Message) error

	// Subscribe returns a channel that receives messages from the specified
	// topic. The channel is closed when the subscription is cancelled.
	Subscribe(ctx context.Context, topic string) (<-chan *Message, error)

	// Close closes the pub/sub and cleans up resources.
	Close() error
}
