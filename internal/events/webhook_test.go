// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookConfigEventsFilter(t *testing.T) {
	cfg := NewWebhookConfig("http://example.com/hook").WithEvents(KindCreated, KindDeleted)

	assert.True(t, cfg.ShouldReceive(KindCreated))
	assert.True(t, cfg.ShouldReceive(KindDeleted))
	assert.False(t, cfg.ShouldReceive(KindUpdated))
	assert.False(t, cfg.ShouldReceive(KindAccessed))
}

func TestWebhookConfigEmptyEventsReceivesAll(t *testing.T) {
	cfg := NewWebhookConfig("http://example.com/hook")

	assert.True(t, cfg.ShouldReceive(KindCreated))
	assert.True(t, cfg.ShouldReceive(KindUpdated))
	assert.True(t, cfg.ShouldReceive(KindDeleted))
	assert.True(t, cfg.ShouldReceive(KindAccessed))
}

func TestWebhookConfigDisabledReceivesNothing(t *testing.T) {
	cfg := NewWebhookConfig("http://example.com/hook")
	cfg.Enabled = false

	assert.False(t, cfg.ShouldReceive(KindCreated))
}

func TestRetryPolicyDefault(t *testing.T) {
	p := DefaultRetryPolicy()

	assert.Equal(t, 5, p.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, p.InitialDelay)
	assert.Equal(t, 30*time.Second, p.MaxDelay)
	assert.Equal(t, 2.0, p.Multiplier)
}

func TestRetryPolicyDelayGrowsAndCaps(t *testing.T) {
	p := DefaultRetryPolicy()

	assert.Equal(t, 100*time.Millisecond, p.delayForAttempt(0))
	assert.Equal(t, 200*time.Millisecond, p.delayForAttempt(1))
	assert.Equal(t, 400*time.Millisecond, p.delayForAttempt(2))
	assert.Equal(t, 30*time.Second, p.delayForAttempt(20))
}

func TestSignatureVerification(t *testing.T) {
	payload := []byte(`{"event_id":"abc"}`)
	sig := SignPayload(payload, "shared-secret")

	assert.True(t, VerifySignature(payload, "shared-secret", sig))
	assert.False(t, VerifySignature(payload, "wrong-secret", sig))
	assert.False(t, VerifySignature([]byte(`{"event_id":"xyz"}`), "shared-secret", sig))
}

func TestSignPayloadEmptySecretYieldsEmptySignature(t *testing.T) {
	assert.Equal(t, "", SignPayload([]byte("payload"), ""))
}

func TestDeliverySucceedsOnFirstAttempt(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		assert.Equal(t, string(KindCreated), r.Header.Get("X-Rook-Event"))
		assert.NotEmpty(t, r.Header.Get("X-Rook-Signature"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := NewWebhookConfig(server.URL)
	cfg.Secret = "topsecret"
	delivery := NewDelivery(cfg)

	err := delivery.Deliver(context.Background(), Event{Kind: KindCreated, MemoryID: "mem-1"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), received.Load())
}

func TestDeliveryRetriesOnServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := NewWebhookConfig(server.URL)
	cfg.RetryPolicy = RetryPolicy{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2.0}
	delivery := NewDelivery(cfg)

	err := delivery.Deliver(context.Background(), Event{Kind: KindUpdated})
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDeliveryDoesNotRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := NewWebhookConfig(server.URL)
	cfg.RetryPolicy = RetryPolicy{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2.0}
	delivery := NewDelivery(cfg)

	err := delivery.Deliver(context.Background(), Event{Kind: KindDeleted})
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDeliverySkipsUnsubscribedEventKind(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := NewWebhookConfig(server.URL).WithEvents(KindCreated)
	delivery := NewDelivery(cfg)

	err := delivery.Deliver(context.Background(), Event{Kind: KindDeleted})
	require.NoError(t, err)
	assert.Equal(t, int32(0), attempts.Load())
}

func TestManagerDeliversBusEventsToAllWebhooks(t *testing.T) {
	var count1, count2 atomic.Int32
	server1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count1.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server1.Close()
	server2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count2.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server2.Close()

	bus := NewBus()
	manager := NewManager(bus)
	manager.AddWebhook(NewWebhookConfig(server1.URL))
	manager.AddWebhook(NewWebhookConfig(server2.URL))

	ctx, cancel := context.WithCancel(context.Background())
	manager.Start(ctx)
	defer cancel()

	bus.Emit(Event{Kind: KindCreated, MemoryID: "mem-1"})

	require.Eventually(t, func() bool {
		return count1.Load() == 1 && count2.Load() == 1
	}, time.Second, 5*time.Millisecond)

	assert.Len(t, manager.ListWebhooks(), 2)
}

func TestManagerRemoveWebhookStopsDelivery(t *testing.T) {
	var count atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	bus := NewBus()
	manager := NewManager(bus)
	cfg := NewWebhookConfig(server.URL)
	manager.AddWebhook(cfg)
	manager.RemoveWebhook(cfg.ID)

	ctx, cancel := context.WithCancel(context.Background())
	manager.Start(ctx)
	defer cancel()

	bus.Emit(Event{Kind: KindCreated, MemoryID: "mem-1"})
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(0), count.Load())
	assert.Empty(t, manager.ListWebhooks())
}
