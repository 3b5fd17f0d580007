// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package contradiction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BangRocket/rook/internal/types"
)

// correctionCues are phrasings a candidate memory carries when the
// speaker is explicitly correcting something, the signal spec.md §4.E
// names as one of the two gates (alongside is_key) that allow the LLM
// layer to run at all.
var correctionCues = []string{
	"actually", "correction", "i was wrong", "that's not right",
	"to clarify", "let me correct", "no longer", "used to",
}

// LLMFallbackLayer only runs when layers 1-3 all abstained and either the
// existing memory is marked key or the candidate carries a correction
// cue, matching spec.md §4.E's gating rule for the expensive path.
type LLMFallbackLayer struct {
	LLM types.LanguageModel
}

func (l *LLMFallbackLayer) Name() string { return "llm_fallback" }

func (l *LLMFallbackLayer) Evaluate(ctx context.Context, candidate, existing *types.Memory) (Verdict, error) {
	if l.LLM == nil {
		return VerdictAbstain, nil
	}
	if !existing.IsKey && !hasCorrectionCue(candidate.Content) {
		return VerdictAbstain, nil
	}

	prompt := fmt.Sprintf(`Determine whether statement B contradicts statement A.
A: %q
B: %q
Respond with JSON: {"contradicts": true|false}`, existing.Content, candidate.Content)

	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"contradicts": map[string]any{"type": "boolean"}},
		"required":   []string{"contradicts"},
	}

	raw, err := l.LLM.Generate(ctx, prompt, schema)
	if err != nil {
		return VerdictAbstain, err
	}

	var parsed struct {
		Contradicts bool `json:"contradicts"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		// Malformed response: abstain rather than fail the whole ingest
		// call, matching the lenient-parse policy used elsewhere for
		// LLM-contract output (§5's fact-extraction timeout policy).
		return VerdictAbstain, nil
	}

	if parsed.Contradicts {
		return VerdictContradicts, nil
	}
	return VerdictNoContradiction, nil
}

func hasCorrectionCue(content string) bool {
	lower := strings.ToLower(content)
	for _, cue := range correctionCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}
