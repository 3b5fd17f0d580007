// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package contradiction

import (
	"context"
	"math"

	"github.com/BangRocket/rook/internal/types"
)

// EmbeddingOppositionLayer flags a pair as contradicting when both
// memories sit on the same topic (embedding similarity at or above
// SameTopicFloor) yet an opposition vector — the difference between the
// two embeddings compared against a bank of known-opposite phrase pairs —
// crosses OppositionThreshold. Without a fitted opposition bank it falls
// back to abstaining on the polarity question and returns
// VerdictAbstain, leaving the decision to a later layer.
type EmbeddingOppositionLayer struct {
	Embedder          types.Embedder
	SameTopicFloor    float64
	OppositionVectors [][]float32
	OppositionThreshold float64
}

func (l *EmbeddingOppositionLayer) Name() string { return "embedding_opposition" }

func (l *EmbeddingOppositionLayer) Evaluate(ctx context.Context, candidate, existing *types.Memory) (Verdict, error) {
	if len(candidate.Embedding) == 0 || len(existing.Embedding) == 0 {
		return VerdictAbstain, nil
	}

	sim := cosineSimilarity(candidate.Embedding, existing.Embedding)
	if sim < l.SameTopicFloor {
		// Different topics entirely; this layer has nothing to say.
		return VerdictAbstain, nil
	}

	if len(l.OppositionVectors) == 0 {
		return VerdictAbstain, nil
	}

	diff := make([]float32, len(candidate.Embedding))
	for i := range diff {
		diff[i] = candidate.Embedding[i] - existing.Embedding[i]
	}

	threshold := l.OppositionThreshold
	if threshold == 0 {
		threshold = 0.7
	}

	for _, opp := range l.OppositionVectors {
		if cosineSimilarity(diff, opp) >= threshold {
			return VerdictContradicts, nil
		}
	}

	return VerdictAbstain, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
