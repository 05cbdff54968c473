package messaging

import (
	"context"
)

// Broker publishes scheduling events to downstream consumers.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
