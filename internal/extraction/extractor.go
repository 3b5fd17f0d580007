// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package extraction implements the fact extractor (spec.md component
// D): turning a conversational turn or note into atomic fact
// candidates via an LLM call, parsed leniently from a JSON contract.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/BangRocket/rook/internal/types"
)

var (
	codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	thinkTagRe  = regexp.MustCompile("(?s)<think>.*?</think>")
)

// Fact is one atomic fact candidate pulled from the source text.
type Fact struct {
	Content    string  `json:"content"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type factsResponse struct {
	Facts []Fact `json:"facts"`
}

// Extractor turns free text into atomic fact candidates via a
// LanguageModel call.
type Extractor struct {
	LLM types.LanguageModel
}

// New builds an Extractor.
func New(llm types.LanguageModel) *Extractor {
	return &Extractor{LLM: llm}
}

// Extract asks the model for every atomic, independently verifiable
// fact in text and returns them. A malformed response yields an empty
// slice and a logged-by-caller nil error rather than failing the whole
// ingest call, matching spec.md §5's fact-extraction timeout policy.
func (e *Extractor) Extract(ctx context.Context, text string) ([]Fact, error) {
	if e.LLM == nil || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf(`Extract every atomic, independently verifiable fact stated or implied in this text.
Text: %q
Respond with JSON: {"facts": [{"content": "...", "category": "...", "confidence": 0.0-1.0}]}
Each fact must stand alone without needing the others for context. Return an empty array if there are none.`, text)

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"facts": map[string]any{"type": "array"},
		},
	}

	raw, err := e.LLM.Generate(ctx, prompt, schema)
	if err != nil {
		return nil, fmt.Errorf("fact extraction call failed: %w", err)
	}

	facts, ok := parseFacts(raw)
	if !ok {
		return nil, nil
	}
	return facts, nil
}

// parseFacts cleans code fences and think tags from an LLM response and
// decodes the facts JSON contract, tolerating both the documented
// {"facts": [...]} shape and a bare top-level array.
func parseFacts(response string) ([]Fact, bool) {
	cleaned := cleanResponse(response)
	if cleaned == "" {
		return nil, true
	}

	var wrapped factsResponse
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil && wrapped.Facts != nil {
		return wrapped.Facts, true
	}

	var bare []Fact
	if err := json.Unmarshal([]byte(cleaned), &bare); err == nil {
		return bare, true
	}

	return nil, false
}

func cleanResponse(content string) string {
	content = strings.TrimSpace(content)
	if m := codeFenceRe.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}
	content = thinkTagRe.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}
