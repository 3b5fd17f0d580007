// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package intentions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BangRocket/rook/internal/types"
)

type fakeIntentionStore struct {
	byKind map[string][]*types.Intention
	fired  []types.FiredIntention
}

func (f *fakeIntentionStore) ListByTriggerKind(ctx context.Context, scope types.Scope, kind string) ([]*types.Intention, error) {
	return f.byKind[kind], nil
}

func (f *fakeIntentionStore) RecordFired(ctx context.Context, scope types.Scope, fired types.FiredIntention) error {
	f.fired = append(f.fired, fired)
	return nil
}

func TestCheckerFiresOnKeywordMatch(t *testing.T) {
	intention := types.NewIntention(types.Scope{}, "rust mention", types.KeywordMention{Keywords: []string{"rust"}})
	store := &fakeIntentionStore{byKind: map[string][]*types.Intention{"keyword_mention": {intention}}}

	c := New(store, nil)
	require.NoError(t, c.Refresh(context.Background(), types.Scope{}))

	fired, err := c.Check(context.Background(), types.Scope{}, "I love Rust programming", "")
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, "keyword", fired[0].Reason.Kind)
	assert.Equal(t, "rust", fired[0].Reason.MatchedKeyword)
	assert.Len(t, store.fired, 1)
}

func TestCheckerSkipsUnrelatedMessages(t *testing.T) {
	intention := types.NewIntention(types.Scope{}, "rust mention", types.KeywordMention{Keywords: []string{"rust"}})
	store := &fakeIntentionStore{byKind: map[string][]*types.Intention{"keyword_mention": {intention}}}

	c := New(store, nil)
	require.NoError(t, c.Refresh(context.Background(), types.Scope{}))

	fired, err := c.Check(context.Background(), types.Scope{}, "I love Go programming", "")
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestCheckerExactMatchRequiresWholeWord(t *testing.T) {
	intention := types.NewIntention(types.Scope{}, "go mention", types.KeywordMention{Keywords: []string{"go"}, ExactMatch: true})
	store := &fakeIntentionStore{byKind: map[string][]*types.Intention{"keyword_mention": {intention}}}

	c := New(store, nil)
	require.NoError(t, c.Refresh(context.Background(), types.Scope{}))

	fired, err := c.Check(context.Background(), types.Scope{}, "I'm going for a walk", "")
	require.NoError(t, err)
	assert.Empty(t, fired)

	fired, err = c.Check(context.Background(), types.Scope{}, "let's go now", "")
	require.NoError(t, err)
	assert.Len(t, fired, 1)
}

func TestCheckerRespectsMaxFires(t *testing.T) {
	maxFires := 1
	intention := types.NewIntention(types.Scope{}, "once", types.KeywordMention{Keywords: []string{"once"}})
	intention.MaxFires = &maxFires
	intention.FireCount = 1
	store := &fakeIntentionStore{byKind: map[string][]*types.Intention{"keyword_mention": {intention}}}

	c := New(store, nil)
	require.NoError(t, c.Refresh(context.Background(), types.Scope{}))

	fired, err := c.Check(context.Background(), types.Scope{}, "only once please", "")
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestExtractContextShortMessage(t *testing.T) {
	assert.Equal(t, "Rust is great", extractContext("Rust is great", "Rust"))
}

func TestExtractContextLongMessage(t *testing.T) {
	msg := "I've been learning about Rust programming and really enjoying it."
	ctx := extractContext(msg, "Rust")
	assert.Contains(t, ctx, "Rust")
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	assert.InDelta(t, 1.0, cosineSimilarity(a, b), 0.001)

	c := []float32{0, 1, 0}
	assert.InDelta(t, 0.0, cosineSimilarity(a, c), 0.001)
}

func TestCosineSimilarityEdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{0, 0}))
}
