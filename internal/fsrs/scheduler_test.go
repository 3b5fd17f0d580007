// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package fsrs

import (
	"testing"
	"time"

	"github.com/BangRocket/rook/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrievabilityDecaysWithElapsedTime(t *testing.T) {
	s := New()
	r0 := s.Retrievability(0, 10)
	r1 := s.Retrievability(5, 10)
	r2 := s.Retrievability(20, 10)

	assert.Equal(t, 1.0, r0)
	assert.Greater(t, r1, r2)
	assert.Greater(t, r1, 0.0)
	assert.Less(t, r2, r1)
}

func TestRetrievabilityZeroStability(t *testing.T) {
	s := New()
	assert.Equal(t, 0.0, s.Retrievability(5, 0))
}

func TestInitialStabilityScalesWithPredictionError(t *testing.T) {
	s := New()
	low := s.InitialStability(2.0, 0.1, 1.5)
	high := s.InitialStability(2.0, 0.9, 1.5)
	assert.Greater(t, high, low)
	assert.Greater(t, low, 2.0)
}

func TestReviewGoodIncreasesStability(t *testing.T) {
	s := New()
	m := &types.Memory{
		Stability:      5,
		Difficulty:     5,
		LastReviewedAt: time.Now().Add(-10 * 24 * time.Hour),
	}
	res := s.Review(m, time.Now(), GradeGood)
	assert.Greater(t, res.Stability, m.Stability)
}

func TestReviewGradeOrderingEasyBeatsGoodBeatsHard(t *testing.T) {
	s := New()
	lastReviewedAt := time.Now().Add(-10 * 24 * time.Hour)
	fixture := func() *types.Memory {
		return &types.Memory{Stability: 5, Difficulty: 5, LastReviewedAt: lastReviewedAt}
	}

	now := time.Now()
	hard := s.Review(fixture(), now, GradeHard)
	good := s.Review(fixture(), now, GradeGood)
	easy := s.Review(fixture(), now, GradeEasy)

	assert.Greater(t, easy.Stability, good.Stability, "Easy must gain more stability than Good")
	assert.Greater(t, good.Stability, hard.Stability, "Good must gain more stability than Hard")
}

func TestReviewAgainTakesLapsePath(t *testing.T) {
	s := New()
	m := &types.Memory{
		Stability:      20,
		Difficulty:     5,
		LastReviewedAt: time.Now().Add(-10 * 24 * time.Hour),
	}
	res := s.Review(m, time.Now(), GradeAgain)
	assert.Less(t, res.Stability, m.Stability)
}

func TestReviewStorageStrengthHasDiminishingReturns(t *testing.T) {
	s := New()
	m := &types.Memory{Stability: 5, Difficulty: 5, LastReviewedAt: time.Now().Add(-5 * 24 * time.Hour)}

	first := s.Review(m, time.Now(), GradeGood)
	m.Stability, m.Difficulty, m.StorageStrength, m.RetrievalStrength = first.Stability, first.Difficulty, first.StorageStrength, first.RetrievalStrength
	m.LastReviewedAt = time.Now().Add(-5 * 24 * time.Hour)

	second := s.Review(m, time.Now(), GradeGood)

	firstGain := first.StorageStrength
	secondGain := second.StorageStrength - first.StorageStrength
	assert.Greater(t, firstGain, secondGain, "each successive review should add less storage strength than the last")
}

func TestReviewRetrievalStrengthDampedByStorageStrength(t *testing.T) {
	s := New()
	fresh := &types.Memory{Stability: 5, Difficulty: 5, LastReviewedAt: time.Now().Add(-5 * 24 * time.Hour)}
	seasoned := &types.Memory{Stability: 5, Difficulty: 5, StorageStrength: 5, LastReviewedAt: time.Now().Add(-5 * 24 * time.Hour)}

	freshResult := s.Review(fresh, time.Now(), GradeGood)
	seasonedResult := s.Review(seasoned, time.Now(), GradeGood)

	assert.Greater(t, freshResult.RetrievalStrength, seasonedResult.RetrievalStrength-seasoned.RetrievalStrength)
}

func TestShouldArchiveRespectsKeyFlag(t *testing.T) {
	s := New()
	m := &types.Memory{
		Stability:      0.5,
		CreatedAt:      time.Now().Add(-60 * 24 * time.Hour),
		LastReviewedAt: time.Now().Add(-60 * 24 * time.Hour),
		IsKey:          true,
	}
	assert.False(t, s.ShouldArchive(m, time.Now(), 0.1, 30*24*time.Hour))

	m.IsKey = false
	assert.True(t, s.ShouldArchive(m, time.Now(), 0.1, 30*24*time.Hour))
}

func TestShouldArchiveRespectsMinAge(t *testing.T) {
	s := New()
	m := &types.Memory{
		Stability:      0.01,
		CreatedAt:      time.Now().Add(-5 * 24 * time.Hour),
		LastReviewedAt: time.Now().Add(-5 * 24 * time.Hour),
	}
	require.False(t, s.ShouldArchive(m, time.Now(), 0.1, 30*24*time.Hour))
}

func TestGradeForSignal(t *testing.T) {
	g, ok := GradeFor(SignalExplicitForget)
	require.True(t, ok)
	assert.Equal(t, GradeAgain, g)

	_, ok = GradeFor(SignalMarkedKey)
	assert.False(t, ok)
}

func TestStrengthSignalProcessorDrain(t *testing.T) {
	p := NewStrengthSignalProcessor()
	p.Enqueue("mem-1", SignalReinforced)
	p.Enqueue("mem-2", SignalIgnored)
	assert.Equal(t, 2, p.Len())

	drained := p.Drain()
	assert.Len(t, drained, 2)
	assert.Equal(t, 0, p.Len())
}
