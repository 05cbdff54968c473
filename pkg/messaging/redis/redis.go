package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/scheduling-api/pkg/circuitbreaker"
	"github.com/clinicore/scheduling-api/pkg/messaging"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// Broker publishes through redis pub/sub. Publishes go through a
// circuit breaker so a dead redis does not stall the outbox loop.
type Broker struct {
	client *redis.Client
	cb     *circuitbreaker.CircuitBreaker
}

func NewBroker(cfg Config) (*Broker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "redis-broker",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     5 * time.Second,
	})

	return &Broker{client: client, cb: cb}, nil
}

// Client exposes the underlying connection for health checks.
func (b *Broker) Client() *redis.Client {
	return b.client
}

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.cb.Execute(func() error {
		return b.client.Publish(ctx, channel, payload).Err()
	})
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	pubsub := b.client.Subscribe(ctx, channel)
	msgChan := make(chan []byte, 100)

	go func() {
		defer func() {
			pubsub.Close()
			close(msgChan)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Warn().Err(err).Str("channel", channel).Msg("redis receive failed")
					continue
				}
				msgChan <- []byte(msg.Payload)
			}
		}
	}()

	return msgChan, nil
}

func (b *Broker) Close() error {
	return b.client.Close()
}

var _ messaging.Broker = (*Broker)(nil)
