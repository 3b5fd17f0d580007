// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ingestion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BangRocket/rook/internal/types"
)

// LLMMerger is the default ContentMerger: it asks the language model to
// fold a new, non-contradicting candidate fact into the existing
// memory's content, producing a single consolidated statement.
type LLMMerger struct {
	LLM types.LanguageModel
}

// NewLLMMerger builds a ContentMerger backed by llm.
func NewLLMMerger(llm types.LanguageModel) *LLMMerger {
	return &LLMMerger{LLM: llm}
}

// Merge produces merged content for an Update decision. If the
// underlying model call fails or returns an unparseable response, Merge
// falls back to appending candidate to existing rather than failing the
// whole ingestion call.
func (m *LLMMerger) Merge(ctx context.Context, existing, candidate string) (string, error) {
	if m.LLM == nil {
		return existing + "\n" + candidate, nil
	}

	prompt := fmt.Sprintf(`Combine statement B into statement A, producing one consolidated statement that preserves every fact from both without contradiction or repetition.
A: %q
B: %q
Respond with JSON: {"merged": "..."}`, existing, candidate)

	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"merged": map[string]any{"type": "string"}},
		"required":   []string{"merged"},
	}

	raw, err := m.LLM.Generate(ctx, prompt, schema)
	if err != nil {
		return existing + "\n" + candidate, nil
	}

	var parsed struct {
		Merged string `json:"merged"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed.Merged == "" {
		return existing + "\n" + candidate, nil
	}

	return parsed.Merged, nil
}
