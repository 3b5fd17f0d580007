// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRRFSingleList(t *testing.T) {
	rrf := DefaultRRF()
	results := rrf.Fuse([]Ranked{{ID: "a", Score: 1.0}, {ID: "b", Score: 0.8}, {ID: "c", Score: 0.5}})

	assert.Equal(t, "a", results[0].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Greater(t, results[1].Score, results[2].Score)
}

func TestRRFMultipleListsEqualizeRank(t *testing.T) {
	rrf := DefaultRRF()
	results := rrf.Fuse(
		[]Ranked{{ID: "a", Score: 1.0}, {ID: "b", Score: 0.5}},
		[]Ranked{{ID: "b", Score: 1.0}, {ID: "a", Score: 0.5}},
	)

	scores := map[string]float64{}
	for _, r := range results {
		scores[r.ID] = r.Score
	}
	assert.InDelta(t, scores["a"], scores["b"], 0.01)
}

func TestLinearFusionWeightedSum(t *testing.T) {
	f := DefaultLinearFusion()
	score := f.Fuse(FusionInputs{Vector: 0.8, FSRSRetrievability: 0.6, Activation: 0.5, KeywordNormalized: 0.7})
	// 0.8*0.4 + 0.6*0.2 + 0.5*0.2 + 0.7*0.2 = 0.68
	assert.InDelta(t, 0.68, score, 0.01)
}

func TestCognitiveFusionDropsKeyword(t *testing.T) {
	f := CognitiveLinearFusion()
	assert.GreaterOrEqual(t, f.FSRSWeight, 0.4)
	assert.Less(t, f.KeywordWeight, 0.01)
}

func TestFuseBatchRanksHigherVectorFirst(t *testing.T) {
	f := DefaultLinearFusion()
	results := f.FuseBatch(map[string]FusionInputs{
		"a": {Vector: 0.9},
		"b": {Vector: 0.5},
	})
	assert.Equal(t, "a", results[0].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}
