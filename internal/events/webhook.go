// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BangRocket/rook/internal/logging"
)

// RetryPolicy configures the exponential backoff applied to transient
// (network error or 5xx) delivery failures.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy matches the reference implementation's defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

func (p RetryPolicy) delayForAttempt(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// WebhookConfig is one external endpoint subscribed to the event bus.
type WebhookConfig struct {
	ID          string
	URL         string
	Secret      string
	Events      map[Kind]struct{} // empty means every event type
	RetryPolicy RetryPolicy
	Timeout     time.Duration
	Enabled     bool
}

// NewWebhookConfig builds an enabled webhook with default timeout and
// retry policy, subscribed to every event type until WithEvents narrows
// it.
func NewWebhookConfig(url string) WebhookConfig {
	return WebhookConfig{
		ID:          uuid.New().String(),
		URL:         url,
		RetryPolicy: DefaultRetryPolicy(),
		Timeout:     30 * time.Second,
		Enabled:     true,
	}
}

// WithEvents narrows delivery to the given event kinds.
func (c WebhookConfig) WithEvents(kinds ...Kind) WebhookConfig {
	c.Events = make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		c.Events[k] = struct{}{}
	}
	return c
}

// ShouldReceive reports whether this webhook is enabled and subscribed
// to kind.
func (c WebhookConfig) ShouldReceive(kind Kind) bool {
	if !c.Enabled {
		return false
	}
	if len(c.Events) == 0 {
		return true
	}
	_, ok := c.Events[kind]
	return ok
}

// deliveryError distinguishes a transient failure (worth retrying) from
// a permanent one (a 4xx response, or a request that can't be built).
type deliveryError struct {
	transient bool
	err       error
}

func (e *deliveryError) Error() string { return e.err.Error() }
func (e *deliveryError) Unwrap() error { return e.err }

// Delivery pushes events to a single webhook endpoint over HTTP, signing
// the payload with HMAC-SHA256 when a secret is configured and retrying
// transient failures with exponential backoff.
type Delivery struct {
	Config WebhookConfig
	Client *http.Client
}

// NewDelivery builds a Delivery with an http.Client timeout matching the
// webhook's configured Timeout.
func NewDelivery(config WebhookConfig) *Delivery {
	return &Delivery{
		Config: config,
		Client: &http.Client{Timeout: config.Timeout},
	}
}

// Deliver POSTs event to the webhook's URL, retrying transient failures
// per Config.RetryPolicy. A permanent failure (4xx) returns immediately
// without retry.
func (d *Delivery) Deliver(ctx context.Context, event Event) error {
	if !d.Config.ShouldReceive(event.Kind) {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}
	signature := SignPayload(payload, d.Config.Secret)

	var lastErr error
	for attempt := 0; attempt <= d.Config.RetryPolicy.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.Config.RetryPolicy.delayForAttempt(attempt - 1)):
			}
		}

		err := d.deliverOnce(ctx, payload, signature, event.Kind)
		if err == nil {
			return nil
		}
		lastErr = err

		var de *deliveryError
		if !errors.As(err, &de) || !de.transient {
			return err
		}
	}
	return lastErr
}

func (d *Delivery) deliverOnce(ctx context.Context, payload []byte, signature string, kind Kind) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Config.URL, bytes.NewReader(payload))
	if err != nil {
		return &deliveryError{transient: false, err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Rook-Signature", signature)
	req.Header.Set("X-Rook-Event", string(kind))
	req.Header.Set("X-Rook-Delivery", uuid.New().String())

	resp, err := d.Client.Do(req)
	if err != nil {
		return &deliveryError{transient: true, err: fmt.Errorf("network error: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return &deliveryError{transient: true, err: fmt.Errorf("server error: %d", resp.StatusCode)}
	default:
		return &deliveryError{transient: false, err: fmt.Errorf("client error: %d", resp.StatusCode)}
	}
}

// SignPayload computes the X-Rook-Signature header value for payload
// under secret, or the empty string if secret is unset.
func SignPayload(payload []byte, secret string) string {
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature is the HMAC-SHA256 of
// payload under secret, comparing in constant time.
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := SignPayload(payload, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// Manager delivers every event on a Bus to every configured webhook
// concurrently, logging delivery failures without propagating them (a
// single broken endpoint must not affect the others or the bus).
type Manager struct {
	Bus *Bus

	mu       sync.RWMutex
	webhooks map[string]*Delivery

	sub    *Subscription
	stopWg sync.WaitGroup
}

// NewManager builds a Manager over bus.
func NewManager(bus *Bus) *Manager {
	return &Manager{Bus: bus, webhooks: make(map[string]*Delivery)}
}

// AddWebhook registers a webhook for delivery.
func (m *Manager) AddWebhook(config WebhookConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhooks[config.ID] = NewDelivery(config)
}

// RemoveWebhook unregisters a webhook by ID.
func (m *Manager) RemoveWebhook(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.webhooks, id)
}

// ListWebhooks returns the currently registered webhook configs.
func (m *Manager) ListWebhooks() []WebhookConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	configs := make([]WebhookConfig, 0, len(m.webhooks))
	for _, d := range m.webhooks {
		configs = append(configs, d.Config)
	}
	return configs
}

// Start subscribes to the bus and delivers every event to every
// registered webhook concurrently, until ctx is canceled or Stop is
// called.
func (m *Manager) Start(ctx context.Context) {
	m.sub = m.Bus.Subscribe()
	m.stopWg.Add(1)
	go func() {
		defer m.stopWg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-m.sub.Events:
				if !ok {
					return
				}
				m.deliverToAll(ctx, event)
			}
		}
	}()
}

// Stop unsubscribes from the bus and waits for in-flight deliveries
// from the last received event to finish.
func (m *Manager) Stop() {
	if m.sub != nil {
		m.sub.Unsubscribe()
	}
	m.stopWg.Wait()
}

func (m *Manager) deliverToAll(ctx context.Context, event Event) {
	m.mu.RLock()
	deliveries := make([]*Delivery, 0, len(m.webhooks))
	for _, d := range m.webhooks {
		deliveries = append(deliveries, d)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, d := range deliveries {
		wg.Add(1)
		go func(d *Delivery) {
			defer wg.Done()
			if err := d.Deliver(ctx, event); err != nil {
				logging.FromContext(ctx).WithError(err).WithField("webhook_url", d.Config.URL).
					Error("webhook delivery failed")
			}
		}(d)
	}
	wg.Wait()
}
