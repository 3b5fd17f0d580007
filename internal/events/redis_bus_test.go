// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisBus(t *testing.T) *RedisBus {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisBus(client, "rook.events")
}

func TestRedisBusDeliversEmittedEventToSubscriber(t *testing.T) {
	bus := newTestRedisBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, bus.Emit(ctx, Event{
		Kind:     KindCreated,
		MemoryID: "mem-1",
		Created:  &CreatedPayload{Content: "remember the launch date"},
	}))

	select {
	case got := <-sub.Events:
		assert.Equal(t, KindCreated, got.Kind)
		assert.Equal(t, "mem-1", got.MemoryID)
		assert.NotEmpty(t, got.EventID)
		assert.False(t, got.Timestamp.IsZero())
		require.NotNil(t, got.Created)
		assert.Equal(t, "remember the launch date", got.Created.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestRedisBusFansOutToMultipleSubscribers(t *testing.T) {
	bus := newTestRedisBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer sub1.Unsubscribe()

	sub2, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer sub2.Unsubscribe()

	require.NoError(t, bus.Emit(ctx, Event{Kind: KindDeleted, MemoryID: "mem-2"}))

	for _, sub := range []*RedisSubscription{sub1, sub2} {
		select {
		case got := <-sub.Events:
			assert.Equal(t, "mem-2", got.MemoryID)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestRedisSubscriptionUnsubscribeClosesEventsChannel(t *testing.T) {
	bus := newTestRedisBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, sub.Unsubscribe())

	select {
	case _, ok := <-sub.Events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
