// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	return f.response, f.err
}
func (f *fakeLLM) ModelName() string { return "fake" }

func TestExtractParsesWrappedFacts(t *testing.T) {
	e := New(&fakeLLM{response: `{"facts": [{"content": "likes pizza"}, {"content": "lives in SF"}]}`})
	facts, err := e.Extract(context.Background(), "I like pizza and I live in SF")
	require.NoError(t, err)
	assert.Len(t, facts, 2)
	assert.Equal(t, "likes pizza", facts[0].Content)
}

func TestExtractStripsCodeFence(t *testing.T) {
	e := New(&fakeLLM{response: "```json\n{\"facts\": [{\"content\": \"prefers remote work\"}]}\n```"})
	facts, err := e.Extract(context.Background(), "something")
	require.NoError(t, err)
	assert.Len(t, facts, 1)
	assert.Equal(t, "prefers remote work", facts[0].Content)
}

func TestExtractEmptyFacts(t *testing.T) {
	e := New(&fakeLLM{response: `{"facts": []}`})
	facts, err := e.Extract(context.Background(), "nothing notable")
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestExtractMalformedResponseYieldsNoFacts(t *testing.T) {
	e := New(&fakeLLM{response: "not json at all"})
	facts, err := e.Extract(context.Background(), "something")
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestExtractNoLLMConfigured(t *testing.T) {
	e := New(nil)
	facts, err := e.Extract(context.Background(), "something")
	require.NoError(t, err)
	assert.Nil(t, facts)
}

func TestExtractBlankTextSkipsCall(t *testing.T) {
	e := New(&fakeLLM{response: `{"facts": [{"content": "should not see this"}]}`})
	facts, err := e.Extract(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, facts)
}
