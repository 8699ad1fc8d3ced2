package events

import (
	"context"
	"encoding/json"

	"anonpair/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher is the part of *redis.Client used by RedisSink.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink publishes every event as JSON on one Pub/Sub channel.
type RedisSink struct {
	Client  RedisPublisher
	Channel string
}

func NewRedisSink(client RedisPublisher, channel string) *RedisSink {
	return &RedisSink{Client: client, Channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, ev models.LifecycleEvent) error {
	msgBytes, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Client.Publish(ctx, s.Channel, string(msgBytes)).Err()
}
