// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package consolidation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsNovelEvent(t *testing.T) {
	b := NewBehavioralTagger()
	assert.True(t, b.IsNovelEvent(0.7))
	assert.True(t, b.IsNovelEvent(0.9))
	assert.False(t, b.IsNovelEvent(0.69))
}

func TestTaggingWindowAsymmetric(t *testing.T) {
	b := NewBehavioralTagger()
	novel := time.Now()
	start, end := b.TaggingWindow(novel)
	assert.Equal(t, novel.Add(-30*time.Minute), start)
	assert.Equal(t, novel.Add(2*time.Hour), end)
}

func TestApplyPRPBoostExcludesNovelMemory(t *testing.T) {
	b := NewBehavioralTagger()
	novel := time.Now()
	self := NewSynapticTag("novel-memory", 1.0, novel)
	other := NewSynapticTag("other-memory", 1.0, novel.Add(-10*time.Minute))

	boosted := b.ApplyPRPBoost([]*SynapticTag{self, other}, novel, "novel-memory")

	assert.Equal(t, []string{"other-memory"}, boosted)
	assert.False(t, self.PRPAvailable)
	assert.True(t, other.PRPAvailable)
}

func TestApplyPRPBoostSkipsOutsideWindow(t *testing.T) {
	b := NewBehavioralTagger()
	novel := time.Now()
	tooEarly := NewSynapticTag("m1", 1.0, novel.Add(-time.Hour))
	tooLate := NewSynapticTag("m2", 1.0, novel.Add(3*time.Hour))

	boosted := b.ApplyPRPBoost([]*SynapticTag{tooEarly, tooLate}, novel, "")

	assert.Empty(t, boosted)
	assert.False(t, tooEarly.PRPAvailable)
	assert.False(t, tooLate.PRPAvailable)
}

func TestApplyPRPBoostSkipsDecayedTags(t *testing.T) {
	b := NewBehavioralTagger()
	novel := time.Now()
	decayed := NewSynapticTag("m1", 0.01, novel.Add(-20*time.Minute))

	boosted := b.ApplyPRPBoost([]*SynapticTag{decayed}, novel, "")

	assert.Empty(t, boosted)
	assert.False(t, decayed.PRPAvailable)
}

func TestApplyPRPBoostSkipsAlreadyBoosted(t *testing.T) {
	b := NewBehavioralTagger()
	novel := time.Now()
	already := NewSynapticTag("m1", 1.0, novel.Add(-time.Minute))
	already.SetPRPAvailable(novel.Add(-time.Second))

	boosted := b.ApplyPRPBoost([]*SynapticTag{already}, novel, "")

	assert.Empty(t, boosted)
}
