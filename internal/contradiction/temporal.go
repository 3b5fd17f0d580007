// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package contradiction

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/BangRocket/rook/internal/types"
)

// exclusivePredicates names states a subject can only occupy one of at a
// time; two memories asserting different values under the same predicate,
// with overlapping validity windows, contradict.
var exclusivePredicates = []string{"lives in", "works at", "is married to", "is based in", "is employed by"}

var dateRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)

// TemporalOverlapLayer flags a pair as contradicting when both assert an
// exclusive-predicate state, with different values, over overlapping date
// ranges. Memories with no extractable date default to
// [CreatedAt, UpdatedAt) as the validity window, or [CreatedAt, now) when
// UpdatedAt is unset.
type TemporalOverlapLayer struct{}

func (l *TemporalOverlapLayer) Name() string { return "temporal_overlap" }

func (l *TemporalOverlapLayer) Evaluate(ctx context.Context, candidate, existing *types.Memory) (Verdict, error) {
	predicate, ok := sharedExclusivePredicate(candidate.Content, existing.Content)
	if !ok {
		return VerdictAbstain, nil
	}
	_ = predicate

	aStart, aEnd := validityWindow(candidate)
	bStart, bEnd := validityWindow(existing)

	if !overlaps(aStart, aEnd, bStart, bEnd) {
		return VerdictAbstain, nil
	}

	// Same exclusive predicate, overlapping windows: this only
	// contradicts if the values differ, which the caller (the ingestion
	// gate, which already computed embedding similarity) is better
	// placed to judge for near-duplicate phrasing. Here only byte-identical
	// contents are excluded; any other pair asserts contradiction.
	if candidate.Content == existing.Content {
		return VerdictAbstain, nil
	}

	return VerdictContradicts, nil
}

func sharedExclusivePredicate(a, b string) (string, bool) {
	al, bl := strings.ToLower(a), strings.ToLower(b)
	for _, p := range exclusivePredicates {
		if strings.Contains(al, p) && strings.Contains(bl, p) {
			return p, true
		}
	}
	return "", false
}

// validityWindow extracts an explicit YYYY-MM-DD date from content, if
// present, and treats it as an open-ended window starting there;
// otherwise falls back to [CreatedAt, UpdatedAt-or-now).
func validityWindow(m *types.Memory) (time.Time, time.Time) {
	if match := dateRe.FindString(m.Content); match != "" {
		if t, err := time.Parse("2006-01-02", match); err == nil {
			return t, time.Now().AddDate(100, 0, 0)
		}
	}
	end := m.UpdatedAt
	if end.IsZero() {
		end = time.Now()
	}
	return m.CreatedAt, end
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
