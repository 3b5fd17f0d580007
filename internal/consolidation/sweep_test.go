// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package consolidation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BangRocket/rook/internal/fsrs"
	"github.com/BangRocket/rook/internal/types"
)

type fakeTagStore struct {
	tags map[string]*SynapticTag
}

func newFakeTagStore(tags ...*SynapticTag) *fakeTagStore {
	m := make(map[string]*SynapticTag, len(tags))
	for _, t := range tags {
		m[t.MemoryID] = t
	}
	return &fakeTagStore{tags: m}
}

func (f *fakeTagStore) ListTags(ctx context.Context, scope types.Scope) ([]*SynapticTag, error) {
	out := make([]*SynapticTag, 0, len(f.tags))
	for _, t := range f.tags {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTagStore) PutTag(ctx context.Context, scope types.Scope, tag *SynapticTag) error {
	f.tags[tag.MemoryID] = tag
	return nil
}

func (f *fakeTagStore) DeleteTag(ctx context.Context, scope types.Scope, memoryID string) error {
	delete(f.tags, memoryID)
	return nil
}

type fakeMemoryUpdater struct {
	memories map[string]*types.Memory
	promoted map[string]float64
	archived map[string]bool
}

func newFakeMemoryUpdater(memories ...*types.Memory) *fakeMemoryUpdater {
	m := make(map[string]*types.Memory, len(memories))
	for _, mem := range memories {
		m[mem.ID] = mem
	}
	return &fakeMemoryUpdater{memories: m, promoted: map[string]float64{}, archived: map[string]bool{}}
}

func (f *fakeMemoryUpdater) ListActiveMemories(ctx context.Context, scope types.Scope) ([]*types.Memory, error) {
	out := make([]*types.Memory, 0, len(f.memories))
	for _, m := range f.memories {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMemoryUpdater) PromoteStorageStrength(ctx context.Context, scope types.Scope, memoryID string, delta float64) error {
	f.promoted[memoryID] += delta
	return nil
}

func (f *fakeMemoryUpdater) Archive(ctx context.Context, scope types.Scope, memoryID string, at time.Time) error {
	f.archived[memoryID] = true
	return nil
}

func TestSweepPromotesConsolidatedTags(t *testing.T) {
	now := time.Now()
	tag := NewSynapticTag("m1", 1.0, now.Add(-time.Minute))
	tag.SetPRPAvailable(now.Add(-time.Minute))

	tags := newFakeTagStore(tag)
	memories := newFakeMemoryUpdater(&types.Memory{ID: "m1", CreatedAt: now.Add(-time.Hour)})

	sweep := NewSweep([]types.Scope{{}}, tags, memories, fsrs.New())
	require.NoError(t, sweep.RunOnce(context.Background(), now))

	assert.Equal(t, DefaultPromotionAmount, memories.promoted["m1"])
	assert.NotContains(t, tags.tags, "m1")
}

func TestSweepDropsExpiredTagsWithoutPromotion(t *testing.T) {
	now := time.Now()
	tag := NewSynapticTag("m1", 1.0, now.Add(-10*time.Hour))

	tags := newFakeTagStore(tag)
	memories := newFakeMemoryUpdater(&types.Memory{ID: "m1", CreatedAt: now.Add(-time.Hour)})

	sweep := NewSweep([]types.Scope{{}}, tags, memories, fsrs.New())
	require.NoError(t, sweep.RunOnce(context.Background(), now))

	assert.Zero(t, memories.promoted["m1"])
	assert.NotContains(t, tags.tags, "m1")
}

func TestSweepLeavesValidUnPRPedTagsAlone(t *testing.T) {
	now := time.Now()
	tag := NewSynapticTag("m1", 1.0, now.Add(-time.Minute))

	tags := newFakeTagStore(tag)
	memories := newFakeMemoryUpdater(&types.Memory{ID: "m1", CreatedAt: now.Add(-time.Hour)})

	sweep := NewSweep([]types.Scope{{}}, tags, memories, fsrs.New())
	require.NoError(t, sweep.RunOnce(context.Background(), now))

	assert.Zero(t, memories.promoted["m1"])
	assert.Contains(t, tags.tags, "m1")
}

func TestSweepArchivesStaleMemories(t *testing.T) {
	now := time.Now()
	stale := &types.Memory{
		ID:                "old",
		CreatedAt:         now.Add(-60 * 24 * time.Hour),
		LastReviewedAt:    now.Add(-60 * 24 * time.Hour),
		Stability:         1.0,
		RetrievalStrength: 0.1,
		IsKey:             false,
	}

	memories := newFakeMemoryUpdater(stale)
	sweep := NewSweep([]types.Scope{{}}, newFakeTagStore(), memories, fsrs.New())
	require.NoError(t, sweep.RunOnce(context.Background(), now))

	assert.True(t, memories.archived["old"])
}

func TestSweepNeverArchivesKeyMemories(t *testing.T) {
	now := time.Now()
	stale := &types.Memory{
		ID:             "key1",
		CreatedAt:      now.Add(-60 * 24 * time.Hour),
		LastReviewedAt: now.Add(-60 * 24 * time.Hour),
		Stability:      1.0,
		IsKey:          true,
	}

	memories := newFakeMemoryUpdater(stale)
	sweep := NewSweep([]types.Scope{{}}, newFakeTagStore(), memories, fsrs.New())
	require.NoError(t, sweep.RunOnce(context.Background(), now))

	assert.False(t, memories.archived["key1"])
}
