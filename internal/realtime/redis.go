package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
)

// RedisBroker shares events between processes over Redis pub/sub. Published
// events travel through Redis and come back to every instance, including
// the publisher, where Run hands them to local subscribers.
type RedisBroker struct {
	client *redis.Client
	hub    *Hub
}

// NewRedisBroker connects to the Redis server at url
// (redis://[user:password@]host:port/db).
func NewRedisBroker(ctx context.Context, url string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisBroker{client: client, hub: NewHub()}, nil
}

func channelFor(groupID string) string {
	return constants.RedisChannelPrefix + groupID
}

func (b *RedisBroker) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelFor(e.GroupID), payload).Err()
}

func (b *RedisBroker) Subscribe(groupID string) (<-chan Event, func()) {
	return b.hub.Subscribe(groupID)
}

// Run relays group events from Redis to local subscribers until ctx is done.
func (b *RedisBroker) Run(ctx context.Context) error {
	ps := b.client.PSubscribe(ctx, constants.RedisChannelPrefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to group events: %w", err)
	}

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				logger.Warn("Dropping malformed group event", "channel", msg.Channel, "error", err)
				continue
			}
			if e.GroupID == "" {
				e.GroupID = strings.TrimPrefix(msg.Channel, constants.RedisChannelPrefix)
			}
			b.hub.deliver(e)
		}
	}
}

func (b *RedisBroker) Close() error {
	b.hub.Close()
	return b.client.Close()
}
