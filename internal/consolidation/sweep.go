// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package consolidation

import (
	"context"
	"time"

	"github.com/BangRocket/rook/internal/fsrs"
	"github.com/BangRocket/rook/internal/logging"
	"github.com/BangRocket/rook/internal/types"
)

// DefaultPromotionAmount is how much storage strength a memory gains
// when a synaptic tag consolidates, capped so no single sweep can push
// a memory's storage strength up by more than this in one pass.
const DefaultPromotionAmount = 0.15

// TagStore persists the synaptic tags a scope currently has pending
// consolidation.
type TagStore interface {
	ListTags(ctx context.Context, scope types.Scope) ([]*SynapticTag, error)
	PutTag(ctx context.Context, scope types.Scope, tag *SynapticTag) error
	DeleteTag(ctx context.Context, scope types.Scope, memoryID string) error
}

// MemoryUpdater is the slice of the memory store the sweep needs: the
// active memory set to check for archival, and the ability to promote
// storage strength or archive a memory.
type MemoryUpdater interface {
	ListActiveMemories(ctx context.Context, scope types.Scope) ([]*types.Memory, error)
	PromoteStorageStrength(ctx context.Context, scope types.Scope, memoryID string, delta float64) error
	Archive(ctx context.Context, scope types.Scope, memoryID string, at time.Time) error
}

// Sweep periodically decays synaptic tags, promotes memories whose tags
// have consolidated, and archives memories that have fallen below the
// FSRS retrievability floor. Modeled on the teacher's own periodic
// repository sync: a ticker-driven goroutine with a stop channel.
type Sweep struct {
	Scopes          []types.Scope
	Tags            TagStore
	Memories        MemoryUpdater
	Scheduler       *fsrs.Scheduler
	Interval        time.Duration
	PromotionAmount float64

	ArchivalRetrievability float64
	ArchivalMinAge         time.Duration

	stopChan chan struct{}
}

// NewSweep builds a Sweep with the spec.md §4.J and §4.C defaults: a one
// hour interval, +0.15 promotion cap, retrievability floor of 0.1, and a
// 30 day minimum age before archival.
func NewSweep(scopes []types.Scope, tags TagStore, memories MemoryUpdater, scheduler *fsrs.Scheduler) *Sweep {
	return &Sweep{
		Scopes:                 scopes,
		Tags:                   tags,
		Memories:               memories,
		Scheduler:              scheduler,
		Interval:               time.Hour,
		PromotionAmount:        DefaultPromotionAmount,
		ArchivalRetrievability: 0.1,
		ArchivalMinAge:         30 * 24 * time.Hour,
		stopChan:               make(chan struct{}),
	}
}

// Start runs the sweep on Interval until Stop is called or ctx is
// canceled.
func (s *Sweep) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
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
					logging.FromContext(ctx).WithError(err).Error("consolidation sweep failed")
				}
			}
		}
	}()
}

// Stop halts the running sweep goroutine.
func (s *Sweep) Stop() {
	close(s.stopChan)
}

// RunOnce executes a single sweep pass across every configured scope: tag
// consolidation followed by archival.
func (s *Sweep) RunOnce(ctx context.Context, at time.Time) error {
	for _, scope := range s.Scopes {
		if err := s.consolidateTags(ctx, scope, at); err != nil {
			return err
		}
		if err := s.archiveStale(ctx, scope, at); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sweep) consolidateTags(ctx context.Context, scope types.Scope, at time.Time) error {
	tags, err := s.Tags.ListTags(ctx, scope)
	if err != nil {
		return err
	}

	for _, tag := range tags {
		if !tag.IsValidAt(at, DefaultValidityThreshold) {
			if err := s.Tags.DeleteTag(ctx, scope, tag.MemoryID); err != nil {
				return err
			}
			continue
		}
		if !tag.CanConsolidate(at) {
			continue
		}

		delta := s.PromotionAmount
		if delta <= 0 {
			delta = DefaultPromotionAmount
		}
		if err := s.Memories.PromoteStorageStrength(ctx, scope, tag.MemoryID, delta); err != nil {
			return err
		}
		if err := s.Tags.DeleteTag(ctx, scope, tag.MemoryID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sweep) archiveStale(ctx context.Context, scope types.Scope, at time.Time) error {
	memories, err := s.Memories.ListActiveMemories(ctx, scope)
	if err != nil {
		return err
	}

	for _, m := range memories {
		if !s.Scheduler.ShouldArchive(m, at, s.ArchivalRetrievability, s.ArchivalMinAge) {
			continue
		}
		if err := s.Memories.Archive(ctx, scope, m.ID, at); err != nil {
			return err
		}
	}
	return nil
}
