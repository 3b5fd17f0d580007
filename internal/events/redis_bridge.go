// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package events

import (
	"context"
	"sync"

	"github.com/BangRocket/rook/internal/logging"
)

// RedisBridge republishes every event the local Bus emits onto a
// RedisBus, giving webhook Managers running in other processes the same
// delivery Manager.Start already gives in-process subscribers. It is a
// Start/Stop lifecycle like Manager, Sweep, and intentions.Scheduler so
// pkg/scheduler.Coordinator can supervise it alongside them.
type RedisBridge struct {
	Local *Bus
	Redis *RedisBus

	sub    *Subscription
	stopWg sync.WaitGroup
}

// NewRedisBridge builds a bridge forwarding local's events onto redisBus.
func NewRedisBridge(local *Bus, redisBus *RedisBus) *RedisBridge {
	return &RedisBridge{Local: local, Redis: redisBus}
}

// Start subscribes to Local and forwards every event to Redis until ctx
// is canceled or Stop is called.
func (b *RedisBridge) Start(ctx context.Context) {
	b.sub = b.Local.Subscribe()
	b.stopWg.Add(1)
	go func() {
		defer b.stopWg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-b.sub.Events:
				if !ok {
					return
				}
				if err := b.Redis.Emit(ctx, event); err != nil {
					logging.FromContext(ctx).WithError(err).Warn("redis event bridge publish failed")
				}
			}
		}
	}()
}

// Stop unsubscribes from Local and waits for the forwarding goroutine to
// exit.
func (b *RedisBridge) Stop() {
	if b.sub != nil {
		b.sub.Unsubscribe()
	}
	b.stopWg.Wait()
}
