// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package contradiction implements the four-layer contradiction detector
// (spec.md component E, §4.E): embedding-opposition, keyword/negation,
// temporal date-overlap, and an LLM-only-when-needed fallback. Layers run
// in order and short-circuit on the first non-abstain verdict.
package contradiction

import (
	"context"

	"github.com/BangRocket/rook/internal/types"
)

// Verdict is a single layer's judgement.
type Verdict int

const (
	VerdictAbstain Verdict = iota
	VerdictContradicts
	VerdictNoContradiction
)

// Layer is one stage of the cascade.
type Layer interface {
	Name() string
	Evaluate(ctx context.Context, candidate, existing *types.Memory) (Verdict, error)
}

// Detector runs the four-layer cascade in order.
type Detector struct {
	layers []Layer
}

// New builds a Detector from the standard four layers: embedding
// opposition, keyword/negation, temporal overlap, then an LLM fallback
// that only runs when the first three abstain and either the existing
// memory is key or the candidate carries a correction cue.
func New(embedder types.Embedder, llm types.LanguageModel) *Detector {
	return &Detector{layers: []Layer{
		&EmbeddingOppositionLayer{Embedder: embedder, SameTopicFloor: 0.6},
		&KeywordNegationLayer{},
		&TemporalOverlapLayer{},
		&LLMFallbackLayer{LLM: llm},
	}}
}

// NewWithLayers builds a Detector from a caller-supplied layer sequence,
// used by tests to isolate a subset of the cascade.
func NewWithLayers(layers ...Layer) *Detector {
	return &Detector{layers: layers}
}

// Result records which layer produced the final verdict.
type Result struct {
	Verdict    Verdict
	LayerName  string
}

// Contradicts reports whether verdict is VerdictContradicts.
func (r Result) Contradicts() bool { return r.Verdict == VerdictContradicts }

// Detect runs the cascade against a candidate/existing memory pair,
// stopping at the first layer that doesn't abstain.
func (d *Detector) Detect(ctx context.Context, candidate, existing *types.Memory) (Result, error) {
	for _, layer := range d.layers {
		v, err := layer.Evaluate(ctx, candidate, existing)
		if err != nil {
			return Result{}, err
		}
		if v != VerdictAbstain {
			return Result{Verdict: v, LayerName: layer.Name()}, nil
		}
	}
	return Result{Verdict: VerdictNoContradiction, LayerName: "default"}, nil
}
