// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ingestion implements the ingestion gate (spec.md component F,
// §4.F): given a candidate fact and its most-similar existing memories,
// decide to Skip, Create, Update, or Supersede.
package ingestion

import (
	"context"
	"time"

	"github.com/BangRocket/rook/internal/contradiction"
	"github.com/BangRocket/rook/internal/fsrs"
	"github.com/BangRocket/rook/internal/types"
)

// DecisionKind names which of the four gate outcomes was reached.
type DecisionKind string

const (
	DecisionSkip       DecisionKind = "skip"
	DecisionCreate     DecisionKind = "create"
	DecisionUpdate     DecisionKind = "update"
	DecisionSupersede  DecisionKind = "supersede"
)

// Decision is the gate's result for one candidate fact.
type Decision struct {
	Kind             DecisionKind
	MaxSimilarity    float64
	MatchedMemory    *types.Memory
	MergedContent    string
	PredictionError  float64
}

// Thresholds are the gate's configurable boundaries, defaulting to the
// literal values in spec.md §4.F.
type Thresholds struct {
	SkipAt   float64 // sim >= SkipAt and no contradiction -> Skip
	ReviseAt float64 // ReviseAt <= sim < SkipAt -> Update or Supersede
}

// DefaultThresholds returns spec.md's literal 0.95/0.80 boundary table.
func DefaultThresholds() Thresholds {
	return Thresholds{SkipAt: 0.95, ReviseAt: 0.80}
}

// Gate is the ingestion gate.
type Gate struct {
	Embedder     types.Embedder
	Detector     *contradiction.Detector
	Scheduler    *fsrs.Scheduler
	Merger       ContentMerger
	Thresholds   Thresholds
	BaseStability float64
	SurpriseBoost float64
}

// ContentMerger produces merged content for an Update decision, typically
// backed by a LanguageModel prompt.
type ContentMerger interface {
	Merge(ctx context.Context, existing, candidate string) (string, error)
}

// New builds a Gate with spec.md's default thresholds.
func New(embedder types.Embedder, detector *contradiction.Detector, scheduler *fsrs.Scheduler, merger ContentMerger) *Gate {
	return &Gate{
		Embedder:      embedder,
		Detector:      detector,
		Scheduler:     scheduler,
		Merger:        merger,
		Thresholds:    DefaultThresholds(),
		BaseStability: 2.0,
		SurpriseBoost: 1.5,
	}
}

// Candidate is one similarity-ranked existing memory the gate compares
// the incoming fact against.
type Candidate struct {
	Memory     *types.Memory
	Similarity float64
}

// Evaluate runs the gate against a candidate fact given its most-similar
// existing memories (already ranked descending by Similarity by the
// caller's vector search).
func (g *Gate) Evaluate(ctx context.Context, content string, embedding []float32, neighbors []Candidate) (Decision, error) {
	if len(neighbors) == 0 {
		return Decision{
			Kind:            DecisionCreate,
			PredictionError: 1.0,
		}, nil
	}

	top := neighbors[0]
	maxSim := top.Similarity

	candidateMemory := &types.Memory{Content: content, Embedding: embedding}
	contradictsTop := false
	if top.Similarity >= g.Thresholds.ReviseAt {
		result, err := g.Detector.Detect(ctx, candidateMemory, top.Memory)
		if err != nil {
			return Decision{}, err
		}
		contradictsTop = result.Contradicts()
	}

	predictionError := 1 - maxSim

	switch {
	case maxSim >= g.Thresholds.SkipAt && !contradictsTop:
		return Decision{
			Kind:            DecisionSkip,
			MaxSimilarity:   maxSim,
			MatchedMemory:   top.Memory,
			PredictionError: predictionError,
		}, nil

	case maxSim >= g.Thresholds.ReviseAt && contradictsTop:
		return Decision{
			Kind:            DecisionSupersede,
			MaxSimilarity:   maxSim,
			MatchedMemory:   top.Memory,
			PredictionError: predictionError,
		}, nil

	case maxSim >= g.Thresholds.ReviseAt && !contradictsTop:
		merged := content
		if g.Merger != nil {
			m, err := g.Merger.Merge(ctx, top.Memory.Content, content)
			if err == nil && m != "" {
				merged = m
			}
		}
		return Decision{
			Kind:            DecisionUpdate,
			MaxSimilarity:   maxSim,
			MatchedMemory:   top.Memory,
			MergedContent:   merged,
			PredictionError: predictionError,
		}, nil

	default:
		return Decision{
			Kind:            DecisionCreate,
			MaxSimilarity:   maxSim,
			PredictionError: predictionError,
		}, nil
	}
}

// SeedMemory builds the initial strength state for a Create decision,
// applying the prediction-error-scaled stability seed from spec.md §4.F.
func (g *Gate) SeedMemory(scope types.Scope, content string, embedding []float32, decision Decision, at time.Time) *types.Memory {
	stability := g.Scheduler.InitialStability(g.BaseStability, decision.PredictionError, g.SurpriseBoost)
	difficulty := g.Scheduler.InitialDifficulty(fsrs.GradeGood)

	return &types.Memory{
		Scope:          scope,
		Content:        content,
		Embedding:      embedding,
		Stability:      stability,
		Difficulty:     difficulty,
		Version:        1,
		CreatedAt:      at,
		UpdatedAt:      at,
		LastReviewedAt: at,
	}
}
