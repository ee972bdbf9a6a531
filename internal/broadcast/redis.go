package broadcast

import (
	"context"
	"fmt"

	"cargo-tracker/internal/domain/gps"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

// RedisPublisher is the subset of *redis.Client used for fan-out.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Redis publishes updates on a pub/sub channel so other processes can relay them.
type Redis struct {
	client  RedisPublisher
	channel string
}

func NewRedis(client RedisPublisher, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

func (b *Redis) Broadcast(ctx context.Context, update *gps.LocationUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal tracking update: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish to %s: %w", b.channel, err)
	}
	return nil
}
