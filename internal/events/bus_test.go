// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusBasicDelivery(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Unsubscribe()

	bus.Emit(Event{Kind: KindCreated, MemoryID: "mem-1"})

	select {
	case got := <-sub.Events:
		assert.Equal(t, "mem-1", got.MemoryID)
		assert.NotEmpty(t, got.EventID)
		assert.False(t, got.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event, got none")
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := NewBus()
	sub1 := bus.Subscribe()
	sub2 := bus.Subscribe()
	defer sub1.Unsubscribe()
	defer sub2.Unsubscribe()

	bus.Emit(Event{Kind: KindAccessed, MemoryID: "mem-1"})

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case got := <-sub.Events:
			assert.Equal(t, "mem-1", got.MemoryID)
		case <-time.After(time.Second):
			t.Fatal("expected event on every subscriber")
		}
	}
}

func TestBusNoSubscribersNoPanic(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() {
		bus.Emit(Event{Kind: KindCreated, MemoryID: "mem-1"})
	})
}

func TestBusSubscriberCount(t *testing.T) {
	bus := NewBus()
	assert.Equal(t, 0, bus.SubscriberCount())

	sub1 := bus.Subscribe()
	assert.Equal(t, 1, bus.SubscriberCount())

	sub2 := bus.Subscribe()
	assert.Equal(t, 2, bus.SubscriberCount())

	sub1.Unsubscribe()
	assert.Equal(t, 1, bus.SubscriberCount())

	sub2.Unsubscribe()
	require.Equal(t, 0, bus.SubscriberCount())
}
