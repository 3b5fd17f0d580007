// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModeCapabilities(t *testing.T) {
	assert.False(t, ModeQuick.UsesKeyword())
	assert.False(t, ModeQuick.UsesActivation())
	assert.False(t, ModeQuick.UsesFSRS())
	assert.False(t, ModeQuick.UsesRerank())

	assert.True(t, ModeStandard.UsesKeyword())
	assert.True(t, ModeStandard.UsesActivation())
	assert.False(t, ModeStandard.UsesFSRS())
	assert.False(t, ModeStandard.UsesRerank())

	assert.True(t, ModePrecise.UsesKeyword())
	assert.True(t, ModePrecise.UsesActivation())
	assert.True(t, ModePrecise.UsesFSRS())
	assert.True(t, ModePrecise.UsesRerank())

	assert.False(t, ModeCognitive.UsesKeyword())
	assert.True(t, ModeCognitive.UsesActivation())
	assert.True(t, ModeCognitive.UsesFSRS())
	assert.False(t, ModeCognitive.UsesRerank())
}

func TestConfigPresets(t *testing.T) {
	quick := Quick(10)
	assert.Equal(t, ModeQuick, quick.Mode)
	assert.False(t, quick.EnableDedup)
	assert.Equal(t, 1, quick.OversampleFactor)

	standard := Standard(10)
	assert.Equal(t, ModeStandard, standard.Mode)
	assert.True(t, standard.EnableDedup)

	precise := Precise(10)
	assert.Equal(t, ModePrecise, precise.Mode)
	assert.Equal(t, 3, precise.OversampleFactor)

	cognitive := Cognitive(10)
	assert.Equal(t, ModeCognitive, cognitive.Mode)
}
