// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package types

import (
	"math"
	"time"
)

// Memory is a single stored fact plus its strength state. Content is
// immutable once created except through Update/Supersede, which mint a
// new VersionRecord rather than mutating history.
type Memory struct {
	ID       string `json:"id"`
	Scope    Scope  `json:"scope"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`

	// FSRS-6 strength state.
	Stability         float64 `json:"stability"`
	Difficulty        float64 `json:"difficulty"`
	RetrievalStrength float64 `json:"retrieval_strength"`
	StorageStrength   float64 `json:"storage_strength"`

	IsKey bool `json:"is_key"`

	Embedding []float32 `json:"-"`

	Version      int     `json:"version"`
	SupersededBy *string `json:"superseded_by,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastReviewedAt time.Time  `json:"last_reviewed_at"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	AccessedAt     *time.Time `json:"accessed_at,omitempty"`
	AccessCount    int        `json:"access_count"`

	Tags     []string       `json:"tags,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Active reports whether the memory is live: not superseded, not archived.
func (m *Memory) Active() bool {
	return m.SupersededBy == nil && m.ArchivedAt == nil
}

// Retrievability returns R(t, S), the FSRS-6 forgetting curve evaluated at
// elapsed time t since LastReviewedAt. It is a read-only projection, never
// stored, so that changing the weight vector never invalidates history.
func (m *Memory) Retrievability(at time.Time, weights Weights) float64 {
	if m.Stability <= 0 {
		return 0
	}
	t := at.Sub(m.LastReviewedAt).Hours() / 24.0
	if t <= 0 {
		return 1
	}
	return retrievability(t, m.Stability, weights)
}

// retrievability implements R(t,S) = (1 + f*t/S)^(-w20), f = 0.9^(-1/w20) - 1.
func retrievability(t, s float64, w Weights) float64 {
	decay := w.At(20)
	factor := math.Pow(0.9, -1/decay) - 1
	return math.Pow(1+factor*t/s, -decay)
}
