// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBus is an optional alternative to Bus for deployments running more
// than one engine process: events published by one process's ingestion
// pipeline reach webhook Managers running in every other process,
// something the in-process Bus's channel fan-out can't do across
// process boundaries. It speaks the same Event payload, just over a
// Redis Pub/Sub channel instead of Go channels.
type RedisBus struct {
	client  *redis.Client
	channel string
}

// NewRedisBus wraps an existing redis client, following the teacher's
// own client-wrapping idiom (internal/cache's RedisClient) rather than
// owning connection setup itself. All events share one channel; Kind
// lets subscribers filter after receiving.
func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	return &RedisBus{client: client, channel: channel}
}

// Emit fills in EventID/Timestamp if unset, then publishes event as JSON
// to the bus's Redis channel. Unlike Bus.Emit, this can fail — the
// network call to Redis is a real suspension point — so callers that
// want at-least-once cross-process delivery must check the error.
func (b *RedisBus) Emit(ctx context.Context, event Event) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.client.Publish(ctx, b.channel, payload).Err()
}

// RedisSubscription is a live cross-process subscriber handle, mirroring
// Subscription's Events-channel shape.
type RedisSubscription struct {
	Events chan Event

	pubsub *redis.PubSub
}

// Subscribe opens a Redis Pub/Sub subscription on the bus's channel and
// starts delivering decoded events to the returned subscription's
// Events channel. Call Unsubscribe when done listening.
func (b *RedisBus) Subscribe(ctx context.Context) (*RedisSubscription, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &RedisSubscription{
		Events: make(chan Event, DefaultSubscriberBuffer),
		pubsub: pubsub,
	}
	go sub.loop()
	return sub, nil
}

func (s *RedisSubscription) loop() {
	defer close(s.Events)
	for msg := range s.pubsub.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			continue
		}
		select {
		case s.Events <- event:
		default:
			// Subscriber is lagging; drop rather than block the Redis reader.
		}
	}
}

// Unsubscribe closes the underlying Redis subscription, which in turn
// stops loop and closes Events.
func (s *RedisSubscription) Unsubscribe() error {
	return s.pubsub.Close()
}
