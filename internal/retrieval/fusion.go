// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package retrieval implements the hybrid retriever (spec.md component
// I, §4.I): vector seed, keyword search, spreading activation, score
// fusion, FSRS weighting, optional rerank, and dedup across four modes.
package retrieval

import "sort"

// Ranked is one (id, score) pair in a ranked list.
type Ranked struct {
	ID    string
	Score float64
}

// RRF combines multiple pre-ranked lists with Reciprocal Rank Fusion:
// robust against score-scale mismatches across retrieval signals because
// it only uses rank position, not the underlying score.
type RRF struct {
	K float64
}

// DefaultRRF returns the literature-standard k=60.
func DefaultRRF() RRF { return RRF{K: 60} }

// Fuse combines ranked lists (each already sorted descending by score)
// into one ranking by summing 1/(k+rank+1) contributions per list.
func (r RRF) Fuse(rankedLists ...[]Ranked) []Ranked {
	scores := make(map[string]float64)
	for _, list := range rankedLists {
		for rank, item := range list {
			scores[item.ID] += 1.0 / (r.K + float64(rank) + 1.0)
		}
	}
	return sortedRanked(scores)
}

// FusionInputs are the normalized [0,1] per-signal scores for one memory
// going into LinearFusion.
type FusionInputs struct {
	Vector           float64
	FSRSRetrievability float64
	Activation       float64
	KeywordNormalized float64
}

// LinearFusion combines normalized per-signal scores with tunable
// weights. Used by Precise and Cognitive modes, where RRF's rank-only
// view would discard the extra precision of comparable [0,1] scores.
type LinearFusion struct {
	VectorWeight  float64
	FSRSWeight    float64
	ActivationWeight float64
	KeywordWeight float64
}

// DefaultLinearFusion is the balanced ("Standard"-flavored) weight set.
func DefaultLinearFusion() LinearFusion {
	return LinearFusion{VectorWeight: 0.4, FSRSWeight: 0.2, ActivationWeight: 0.2, KeywordWeight: 0.2}
}

// CognitiveLinearFusion emphasizes FSRS retrievability for human-like
// retrieval and drops keyword matching entirely.
func CognitiveLinearFusion() LinearFusion {
	return LinearFusion{VectorWeight: 0.4, FSRSWeight: 0.4, ActivationWeight: 0.2, KeywordWeight: 0.0}
}

// PreciseLinearFusion balances all four signals for maximum accuracy.
func PreciseLinearFusion() LinearFusion {
	return LinearFusion{VectorWeight: 0.35, FSRSWeight: 0.2, ActivationWeight: 0.2, KeywordWeight: 0.25}
}

// Fuse computes the weighted sum of inputs, clamped to [0,1].
func (f LinearFusion) Fuse(in FusionInputs) float64 {
	score := in.Vector*f.VectorWeight +
		in.FSRSRetrievability*f.FSRSWeight +
		in.Activation*f.ActivationWeight +
		in.KeywordNormalized*f.KeywordWeight
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// FuseBatch fuses a batch of (id, inputs) pairs, returning them sorted
// by fused score descending.
func (f LinearFusion) FuseBatch(batch map[string]FusionInputs) []Ranked {
	scores := make(map[string]float64, len(batch))
	for id, in := range batch {
		scores[id] = f.Fuse(in)
	}
	return sortedRanked(scores)
}

func sortedRanked(scores map[string]float64) []Ranked {
	results := make([]Ranked, 0, len(scores))
	for id, score := range scores {
		results = append(results, Ranked{ID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}
