// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package intentions

import (
	"context"
	"time"

	"github.com/BangRocket/rook/internal/logging"
	"github.com/BangRocket/rook/internal/types"
)

// TimeStore is the slice of persistence the scheduler needs: loading
// time-based intentions and recording a fire.
type TimeStore interface {
	ListByTriggerKind(ctx context.Context, scope types.Scope, kind string) ([]*types.Intention, error)
	RecordFired(ctx context.Context, scope types.Scope, fired types.FiredIntention) error
	MarkFired(ctx context.Context, scope types.Scope, intentionID string, at time.Time) error
}

// Scheduler polls for TimeElapsed and ScheduledTime triggers on an
// interval, firing each that has become due. No cron-scheduling library
// is wired in: no pack example carries one, and checking every active
// time-based intention every PollInterval is sufficient at the intention
// counts this engine targets (see DESIGN.md).
type Scheduler struct {
	Store        TimeStore
	Scopes       []types.Scope
	PollInterval time.Duration

	stopChan chan struct{}
}

// NewScheduler builds a Scheduler polling once per minute.
func NewScheduler(store TimeStore, scopes []types.Scope) *Scheduler {
	return &Scheduler{
		Store:        store,
		Scopes:       scopes,
		PollInterval: time.Minute,
		stopChan:     make(chan struct{}),
	}
}

// Start runs the scheduler until Stop is called or ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.PollInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				if err := s.RunOnce(ctx, time.Now()); err != nil {
					logging.FromContext(ctx).WithError(err).Error("intention scheduler poll failed")
				}
			}
		}
	}()
}

// Stop halts the running scheduler goroutine.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// RunOnce evaluates every TimeElapsed and ScheduledTime intention across
// every configured scope against at, firing and persisting the ones that
// are due.
func (s *Scheduler) RunOnce(ctx context.Context, at time.Time) error {
	for _, scope := range s.Scopes {
		if err := s.checkKind(ctx, scope, "time_elapsed", at); err != nil {
			return err
		}
		if err := s.checkKind(ctx, scope, "scheduled_time", at); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) checkKind(ctx context.Context, scope types.Scope, kind string, at time.Time) error {
	intentions, err := s.Store.ListByTriggerKind(ctx, scope, kind)
	if err != nil {
		return err
	}

	for _, intention := range intentions {
		if !intention.CanFire(at) {
			continue
		}
		reason, due := s.evaluate(intention, at)
		if !due {
			continue
		}

		fired := types.FiredIntention{
			IntentionID: intention.ID,
			FiredAt:     at,
			Reason:      reason,
			Result:      types.ActionResult{Success: true},
		}
		if err := s.Store.RecordFired(ctx, scope, fired); err != nil {
			return err
		}
		if err := s.Store.MarkFired(ctx, scope, intention.ID, at); err != nil {
			return err
		}
	}
	return nil
}

// evaluate reports whether intention is due at 'at', and the reason to
// record if so.
func (s *Scheduler) evaluate(intention *types.Intention, at time.Time) (types.TriggerReason, bool) {
	switch trigger := intention.Trigger.(type) {
	case types.TimeElapsed:
		reference := intention.CreatedAt
		if trigger.ReferenceTime != nil {
			reference = *trigger.ReferenceTime
		} else if trigger.Recurring && intention.LastFiredAt != nil {
			reference = *intention.LastFiredAt
		}
		elapsed := at.Sub(reference)
		if elapsed < trigger.Duration {
			return types.TriggerReason{}, false
		}
		return types.TriggerReason{Kind: "time_elapsed", ElapsedSeconds: elapsed.Seconds()}, true

	case types.ScheduledTime:
		if at.Before(trigger.ScheduledAt) {
			return types.TriggerReason{}, false
		}
		if intention.LastFiredAt != nil && !intention.LastFiredAt.Before(trigger.ScheduledAt) {
			// Already fired for this scheduled instant; only cron-recurring
			// schedules are expected to have a later ScheduledAt to chase,
			// and this engine doesn't evaluate cron expressions (no cron
			// library wired in, see DESIGN.md).
			return types.TriggerReason{}, false
		}
		return types.TriggerReason{Kind: "scheduled_time", ScheduledAt: trigger.ScheduledAt}, true

	default:
		return types.TriggerReason{}, false
	}
}
