// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package consolidation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSynapticTagStrengthDecaysAtTau(t *testing.T) {
	start := time.Now()
	tag := NewSynapticTag("m1", 1.0, start)
	got := tag.StrengthAt(start.Add(DefaultTau))
	assert.InDelta(t, 0.3679, got, 0.001)
}

func TestSynapticTagStrengthAtZeroElapsed(t *testing.T) {
	start := time.Now()
	tag := NewSynapticTag("m1", 0.8, start)
	assert.InDelta(t, 0.8, tag.StrengthAt(start), 1e-9)
}

func TestSynapticTagStrengthBeforeTaggedAtIsZero(t *testing.T) {
	start := time.Now()
	tag := NewSynapticTag("m1", 1.0, start)
	assert.Equal(t, 0.0, tag.StrengthAt(start.Add(-time.Minute)))
}

func TestSynapticTagIsValidAtThreshold(t *testing.T) {
	start := time.Now()
	tag := NewSynapticTag("m1", 1.0, start)
	assert.True(t, tag.IsValidAt(start.Add(30*time.Minute), DefaultValidityThreshold))
	assert.False(t, tag.IsValidAt(start.Add(6*time.Hour), DefaultValidityThreshold))
}

func TestSynapticTagCanConsolidateRequiresPRP(t *testing.T) {
	start := time.Now()
	tag := NewSynapticTag("m1", 1.0, start)
	assert.False(t, tag.CanConsolidate(start.Add(time.Minute)))

	tag.SetPRPAvailable(start.Add(time.Minute))
	assert.True(t, tag.CanConsolidate(start.Add(time.Minute)))
	assert.False(t, tag.CanConsolidate(start.Add(10*time.Hour)))
}

func TestNewSynapticTagClampsInitialStrength(t *testing.T) {
	start := time.Now()
	over := NewSynapticTag("m1", 1.5, start)
	assert.Equal(t, 1.0, over.InitialStrength)
	under := NewSynapticTag("m2", -0.5, start)
	assert.Equal(t, 0.0, under.InitialStrength)
}
