// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/BangRocket/rook/internal/contradiction"
	"github.com/BangRocket/rook/internal/fsrs"
	"github.com/BangRocket/rook/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate() *Gate {
	detector := contradiction.NewWithLayers(&contradiction.KeywordNegationLayer{}, &contradiction.TemporalOverlapLayer{})
	return New(nil, detector, fsrs.New(), nil)
}

func TestEvaluateCreatesWhenNoNeighbors(t *testing.T) {
	g := newTestGate()
	d, err := g.Evaluate(context.Background(), "Robin enjoys painting", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DecisionCreate, d.Kind)
	assert.Equal(t, 1.0, d.PredictionError)
}

func TestEvaluateSkipsNearDuplicateWithoutContradiction(t *testing.T) {
	g := newTestGate()
	existing := &types.Memory{Content: "Robin enjoys painting"}
	d, err := g.Evaluate(context.Background(), "Robin enjoys painting landscapes", nil, []Candidate{
		{Memory: existing, Similarity: 0.97},
	})
	require.NoError(t, err)
	assert.Equal(t, DecisionSkip, d.Kind)
}

func TestEvaluateSupersedesOnHighSimilarityContradiction(t *testing.T) {
	g := newTestGate()
	existing := &types.Memory{Content: "Robin likes tea"}
	d, err := g.Evaluate(context.Background(), "Robin dislikes tea", nil, []Candidate{
		{Memory: existing, Similarity: 0.90},
	})
	require.NoError(t, err)
	assert.Equal(t, DecisionSupersede, d.Kind)
	assert.Same(t, existing, d.MatchedMemory)
}

func TestEvaluateUpdatesOnMidSimilarityNoContradiction(t *testing.T) {
	g := newTestGate()
	existing := &types.Memory{Content: "Robin enjoys painting"}
	d, err := g.Evaluate(context.Background(), "Robin enjoys painting and sketching", nil, []Candidate{
		{Memory: existing, Similarity: 0.85},
	})
	require.NoError(t, err)
	assert.Equal(t, DecisionUpdate, d.Kind)
}

func TestEvaluateCreatesBelowReviseThreshold(t *testing.T) {
	g := newTestGate()
	existing := &types.Memory{Content: "Robin enjoys painting"}
	d, err := g.Evaluate(context.Background(), "Robin's favorite city is Kyoto", nil, []Candidate{
		{Memory: existing, Similarity: 0.3},
	})
	require.NoError(t, err)
	assert.Equal(t, DecisionCreate, d.Kind)
}

func TestSeedMemoryScalesStabilityWithPredictionError(t *testing.T) {
	g := newTestGate()
	low := Decision{PredictionError: 0.1}
	high := Decision{PredictionError: 0.9}

	now := time.Now()
	lowMem := g.SeedMemory(types.Scope{}, "x", nil, low, now)
	highMem := g.SeedMemory(types.Scope{}, "x", nil, high, now)

	assert.Greater(t, highMem.Stability, lowMem.Stability)
}
