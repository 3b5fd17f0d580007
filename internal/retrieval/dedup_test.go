// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicateKeepsDistinctResults(t *testing.T) {
	d := NewDeduplicator()
	results := d.Deduplicate([]Candidate{
		{ID: "a", Score: 1.0, Embedding: []float32{1, 0, 0}},
		{ID: "b", Score: 0.8, Embedding: []float32{0, 1, 0}},
		{ID: "c", Score: 0.6, Embedding: []float32{0, 0, 1}},
	})
	assert.Len(t, results, 3)
}

func TestDeduplicateRemovesExactDuplicate(t *testing.T) {
	d := &Deduplicator{Config: DedupConfig{SimilarityThreshold: 0.99}}
	results := d.Deduplicate([]Candidate{
		{ID: "a", Score: 1.0, Embedding: []float32{1, 0, 0}},
		{ID: "b", Score: 0.8, Embedding: []float32{1, 0, 0}},
		{ID: "c", Score: 0.6, Embedding: []float32{0, 1, 0}},
	})
	assert.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
}

func TestDeduplicateRemovesNearDuplicate(t *testing.T) {
	d := &Deduplicator{Config: DedupConfig{SimilarityThreshold: 0.95}}
	results := d.Deduplicate([]Candidate{
		{ID: "a", Score: 1.0, Embedding: []float32{1, 0, 0}},
		{ID: "b", Score: 0.8, Embedding: []float32{0.99, 0.1, 0}},
		{ID: "c", Score: 0.6, Embedding: []float32{0, 1, 0}},
	})
	assert.Len(t, results, 2)
}

func TestDeduplicateKeepsResultsWithoutEmbeddings(t *testing.T) {
	d := NewDeduplicator()
	results := d.Deduplicate([]Candidate{
		{ID: "a", Score: 1.0},
		{ID: "b", Score: 0.8, Embedding: []float32{1, 0, 0}},
	})
	assert.Len(t, results, 2)
}

func TestDeduplicateEmptyAndSingle(t *testing.T) {
	d := NewDeduplicator()
	assert.Empty(t, d.Deduplicate(nil))
	assert.Len(t, d.Deduplicate([]Candidate{{ID: "a", Score: 1.0, Embedding: []float32{1, 0}}}), 1)
}
