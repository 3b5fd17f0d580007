// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package contradiction

import (
	"context"
	"testing"
	"time"

	"github.com/BangRocket/rook/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordNegationLayerDetectsOpposition(t *testing.T) {
	layer := &KeywordNegationLayer{}
	a := &types.Memory{Content: "Alex likes pineapple on pizza"}
	b := &types.Memory{Content: "Alex dislikes pineapple on pizza"}

	v, err := layer.Evaluate(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, VerdictContradicts, v)
}

func TestKeywordNegationLayerAbstainsOnUnrelatedSubjects(t *testing.T) {
	layer := &KeywordNegationLayer{}
	a := &types.Memory{Content: "Sam likes jazz music"}
	b := &types.Memory{Content: "Alex dislikes modern art"}

	v, err := layer.Evaluate(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, VerdictAbstain, v)
}

func TestTemporalOverlapLayerDetectsOverlappingExclusiveState(t *testing.T) {
	layer := &TemporalOverlapLayer{}
	now := time.Now()
	a := &types.Memory{Content: "Jordan lives in Seattle", CreatedAt: now.Add(-48 * time.Hour), UpdatedAt: now}
	b := &types.Memory{Content: "Jordan lives in Austin", CreatedAt: now.Add(-24 * time.Hour), UpdatedAt: now}

	v, err := layer.Evaluate(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, VerdictContradicts, v)
}

func TestTemporalOverlapLayerAbstainsWithoutSharedPredicate(t *testing.T) {
	layer := &TemporalOverlapLayer{}
	a := &types.Memory{Content: "Jordan likes hiking"}
	b := &types.Memory{Content: "Jordan lives in Austin"}

	v, err := layer.Evaluate(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, VerdictAbstain, v)
}

func TestEmbeddingOppositionLayerAbstainsWithoutOppositionBank(t *testing.T) {
	layer := &EmbeddingOppositionLayer{SameTopicFloor: 0.6}
	a := &types.Memory{Embedding: []float32{1, 0, 0}}
	b := &types.Memory{Embedding: []float32{0.9, 0.1, 0}}

	v, err := layer.Evaluate(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, VerdictAbstain, v)
}

type fakeLLM struct {
	response string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	return f.response, nil
}
func (f *fakeLLM) ModelName() string { return "fake" }

func TestLLMFallbackLayerGatedByCorrectionCueOrKeyFlag(t *testing.T) {
	llm := &fakeLLM{response: `{"contradicts": true}`}
	layer := &LLMFallbackLayer{LLM: llm}

	noCue := &types.Memory{Content: "Taylor works remotely now"}
	existing := &types.Memory{Content: "Taylor works in the office", IsKey: false}
	v, err := layer.Evaluate(context.Background(), noCue, existing)
	require.NoError(t, err)
	assert.Equal(t, VerdictAbstain, v, "should not call the LLM without a correction cue or a key existing memory")

	withCue := &types.Memory{Content: "Actually, Taylor works remotely now"}
	v, err = layer.Evaluate(context.Background(), withCue, existing)
	require.NoError(t, err)
	assert.Equal(t, VerdictContradicts, v)
}

func TestDetectorCascadeShortCircuits(t *testing.T) {
	d := NewWithLayers(&KeywordNegationLayer{}, &TemporalOverlapLayer{})
	a := &types.Memory{Content: "Robin likes tea"}
	b := &types.Memory{Content: "Robin dislikes tea"}

	result, err := d.Detect(context.Background(), b, a)
	require.NoError(t, err)
	assert.True(t, result.Contradicts())
	assert.Equal(t, "keyword_negation", result.LayerName)
}

func TestDetectorDefaultsToNoContradictionWhenAllAbstain(t *testing.T) {
	d := NewWithLayers(&KeywordNegationLayer{}, &TemporalOverlapLayer{})
	a := &types.Memory{Content: "Robin enjoys painting"}
	b := &types.Memory{Content: "Robin enjoys hiking"}

	result, err := d.Detect(context.Background(), b, a)
	require.NoError(t, err)
	assert.False(t, result.Contradicts())
}
