// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSubscriberBuffer is each subscriber's channel capacity. A
// subscriber that falls behind this many unconsumed events starts
// missing events rather than blocking the emitter, mirroring the
// reference implementation's broadcast-channel semantics.
const DefaultSubscriberBuffer = 1024

// Bus fans memory lifecycle events out to subscribers. Emission is
// fire-and-forget and never blocks: a subscriber whose channel is full
// simply misses the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
}

// NewBus builds an empty event bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]chan Event)}
}

// Subscription is a live subscriber handle. Consume Events until it's
// closed; call Unsubscribe when done listening.
type Subscription struct {
	Events chan Event

	bus *Bus
	id  int
}

// Subscribe registers a new subscriber and returns its handle.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, DefaultSubscriberBuffer)
	b.subscribers[id] = ch
	return &Subscription{Events: ch, bus: b, id: id}
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if ch, ok := s.bus.subscribers[s.id]; ok {
		delete(s.bus.subscribers, s.id)
		close(ch)
	}
}

// Emit fills in EventID/Timestamp if unset, then delivers event to every
// subscriber without blocking.
func (b *Bus) Emit(event Event) {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is lagging; drop rather than block the emitter.
		}
	}
}

// SubscriberCount reports how many subscriptions are currently active.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
