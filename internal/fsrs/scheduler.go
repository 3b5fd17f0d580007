// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package fsrs implements the FSRS-6 strength scheduler (spec.md
// component C): stability/difficulty updates on review, the dual
// retrieval/storage strength model, and archival decisions.
package fsrs

import (
	"math"
	"time"

	"github.com/BangRocket/rook/internal/types"
)

// Grade is the review outcome fed into a stability/difficulty update.
type Grade int

const (
	GradeAgain Grade = 1
	GradeHard  Grade = 2
	GradeGood  Grade = 3
	GradeEasy  Grade = 4
)

// Scheduler applies the FSRS-6 formulas against a Weights vector.
type Scheduler struct {
	Weights types.Weights
}

// New returns a Scheduler using the reference weight vector.
func New() *Scheduler {
	return &Scheduler{Weights: types.DefaultWeights}
}

// NewWithWeights returns a Scheduler using a caller-supplied (e.g.
// per-scope fitted) weight vector.
func NewWithWeights(w types.Weights) *Scheduler {
	return &Scheduler{Weights: w}
}

// Retrievability evaluates R(t,S) = (1 + f*t/S)^(-w20) for elapsed days t.
func (s *Scheduler) Retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	if elapsedDays <= 0 {
		return 1
	}
	decay := s.Weights.At(20)
	factor := math.Pow(0.9, -1/decay) - 1
	return math.Pow(1+factor*elapsedDays/stability, -decay)
}

// InitialStability returns the seed stability for a freshly created
// memory: base * (1 + predictionError * surpriseBoost), from spec.md
// §4.F. predictionError is 1 - maxSimilarity against existing memories.
func (s *Scheduler) InitialStability(base, predictionError, surpriseBoost float64) float64 {
	return base * (1 + predictionError*surpriseBoost)
}

// InitialDifficulty returns the seed difficulty for a freshly created
// memory from its first grade, matching the FSRS-6 D0(G) = w4 - e^(w5*(G-1)) + 1 form.
func (s *Scheduler) InitialDifficulty(g Grade) float64 {
	d := s.Weights.At(4) - math.Exp(s.Weights.At(5)*(float64(g)-1)) + 1
	return clampDifficulty(d)
}

func clampDifficulty(d float64) float64 {
	if d < 1 {
		return 1
	}
	if d > 10 {
		return 10
	}
	return d
}

// nextDifficulty applies the FSRS-6 difficulty update with mean reversion
// toward D0(Easy): D' = D - w6*(G-3), then reverted a fraction w7 toward
// D0(4).
func (s *Scheduler) nextDifficulty(d float64, g Grade) float64 {
	next := d - s.Weights.At(6)*(float64(g)-3)
	target := s.InitialDifficulty(GradeEasy)
	reverted := s.Weights.At(7)*target + (1-s.Weights.At(7))*next
	return clampDifficulty(reverted)
}

// gradeMultiplier m(G) scales the stability gain by review outcome, using
// weights w16 (hard penalty, <1) and w15 (easy bonus, >1) around the
// neutral Good grade.
func (s *Scheduler) gradeMultiplier(g Grade) float64 {
	switch g {
	case GradeHard:
		return s.Weights.At(16)
	case GradeEasy:
		return s.Weights.At(15)
	default:
		return 1.0
	}
}

// ReviewResult is the outcome of applying a grade to a memory's strength
// state.
type ReviewResult struct {
	Stability         float64
	Difficulty        float64
	RetrievalStrength float64
	StorageStrength   float64
}

// Review applies a Grade at review time to the given strength state,
// implementing the stability update, the lapse path for Again, and the
// dual-strength damping rule.
func (s *Scheduler) Review(m *types.Memory, at time.Time, grade Grade) ReviewResult {
	elapsedDays := at.Sub(m.LastReviewedAt).Hours() / 24.0
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	r := s.Retrievability(elapsedDays, m.Stability)
	d := s.nextDifficulty(m.Difficulty, grade)

	var newStability float64
	if grade == GradeAgain {
		newStability = s.lapseStability(m.Stability, d, r)
	} else {
		newStability = s.reviewStability(m.Stability, d, r, grade)
	}

	gain := newStability - m.Stability
	if gain < 0 {
		gain = 0
	}

	// Dual strength: storage strength accumulates with diminishing
	// returns; retrieval strength is damped by existing storage strength
	// per the paradox rule (Open Question i in spec.md, resolved in
	// SPEC_FULL.md's component design section).
	storageGain := gain / (1 + m.StorageStrength)
	newStorage := clampAtLeastZero(m.StorageStrength + storageGain)

	dampedGain := gain / (1 + m.StorageStrength)
	newRetrieval := types.Clamp01(m.RetrievalStrength + dampedGain/(1+m.RetrievalStrength))

	return ReviewResult{
		Stability:         newStability,
		Difficulty:        d,
		RetrievalStrength: newRetrieval,
		StorageStrength:   newStorage,
	}
}

// reviewStability implements S' = S*(1 + w8*e^(11-D)*S^(-w9)*(e^((1-R)*w10)-1)*m(G)).
func (s *Scheduler) reviewStability(stability, difficulty, r float64, g Grade) float64 {
	if stability <= 0 {
		stability = 0.1
	}
	factor := s.Weights.At(8) *
		math.Exp(11-difficulty) *
		math.Pow(stability, -s.Weights.At(9)) *
		(math.Exp((1-r)*s.Weights.At(10)) - 1) *
		s.gradeMultiplier(g)
	next := stability * (1 + factor)
	if next < stability {
		return stability
	}
	return next
}

// lapseStability implements the distinct Again path, applying a sharp
// stability drop scaled by difficulty and retrievability rather than the
// growth formula used for Hard/Good/Easy.
func (s *Scheduler) lapseStability(stability, difficulty, r float64) float64 {
	next := s.Weights.At(11) *
		math.Pow(difficulty, -s.Weights.At(12)) *
		(math.Pow(stability+1, s.Weights.At(13)) - 1) *
		math.Exp((1-r)*s.Weights.At(14))
	if next > stability {
		return stability
	}
	if next < 0.1 {
		return 0.1
	}
	return next
}

func clampAtLeastZero(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// ShouldArchive reports whether a memory meets the archival rule from
// spec.md §4.C: retrievability below threshold and age at least minAge,
// unless the memory is marked key.
func (s *Scheduler) ShouldArchive(m *types.Memory, at time.Time, threshold float64, minAge time.Duration) bool {
	if m.IsKey {
		return false
	}
	if at.Sub(m.CreatedAt) < minAge {
		return false
	}
	r := m.Retrievability(at, s.Weights)
	return r < threshold
}
