// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package contradiction

import (
	"context"
	"strings"

	"github.com/BangRocket/rook/internal/types"
)

// negationPair is a fixed pattern of two phrasings that assert opposite
// facts about the same predicate: "likes X" / "dislikes X", "is X" /
// "is not X". This is a small, general table rather than the closed set
// of domain-specific patterns a narrower implementation might hardcode,
// so it generalizes across any subject the two memories happen to share.
type negationPair struct {
	positive string
	negative string
}

var negationPairs = []negationPair{
	{"likes", "dislikes"},
	{"like", "dislike"},
	{"loves", "hates"},
	{"love", "hate"},
	{"is", "is not"},
	{"is", "isn't"},
	{"was", "was not"},
	{"was", "wasn't"},
	{"can", "cannot"},
	{"can", "can't"},
	{"does", "does not"},
	{"does", "doesn't"},
	{"prefers", "avoids"},
	{"always", "never"},
	{"lives in", "moved away from"},
	{"works at", "left"},
	{"married to", "divorced from"},
}

// KeywordNegationLayer looks for a shared subject phrase where one memory
// uses a positive-form predicate from negationPairs and the other uses
// its negative-form counterpart.
type KeywordNegationLayer struct{}

func (l *KeywordNegationLayer) Name() string { return "keyword_negation" }

func (l *KeywordNegationLayer) Evaluate(ctx context.Context, candidate, existing *types.Memory) (Verdict, error) {
	a := strings.ToLower(candidate.Content)
	b := strings.ToLower(existing.Content)

	for _, pair := range negationPairs {
		aHasPos, aHasNeg := strings.Contains(a, pair.positive), strings.Contains(a, pair.negative)
		bHasPos, bHasNeg := strings.Contains(b, pair.positive), strings.Contains(b, pair.negative)

		// One memory must use the positive form and NOT the negative
		// form (to avoid "is not" matching the "is" pattern too), and
		// the other must use the negative form exclusively.
		aPure := aHasPos && !aHasNeg
		bPure := bHasPos && !bHasNeg

		if (aPure && bHasNeg) || (bPure && aHasNeg) {
			if shareSubject(a, b, pair) {
				return VerdictContradicts, nil
			}
		}
	}

	return VerdictAbstain, nil
}

// shareSubject makes a cheap check that the two sentences are about the
// same thing: at least one non-stopword token in common outside of the
// negation phrase itself. This keeps the layer from firing on two
// memories that merely both mention "is"/"is not" about unrelated topics.
func shareSubject(a, b string, pair negationPair) bool {
	aTokens := contentTokens(strings.NewReplacer(pair.positive, "", pair.negative, "").Replace(a))
	bTokens := contentTokens(strings.NewReplacer(pair.positive, "", pair.negative, "").Replace(b))

	seen := make(map[string]bool, len(aTokens))
	for _, tok := range aTokens {
		seen[tok] = true
	}
	for _, tok := range bTokens {
		if seen[tok] {
			return true
		}
	}
	return false
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "to": true,
	"of": true, "in": true, "on": true, "at": true, "for": true, "with": true,
	"i": true, "he": true, "she": true, "it": true, "they": true, "we": true,
	"my": true, "his": true, "her": true, "their": true, "our": true,
}

func contentTokens(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'")
		if f == "" || stopwords[f] || len(f) < 3 {
			continue
		}
		out = append(out, f)
	}
	return out
}
