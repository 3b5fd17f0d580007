// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package retrieval

import "github.com/BangRocket/rook/internal/graph/activation"

// Mode selects which signals the pipeline combines and how, per spec.md
// §4.I's four-mode table.
type Mode string

const (
	ModeQuick     Mode = "quick"
	ModeStandard  Mode = "standard"
	ModePrecise   Mode = "precise"
	ModeCognitive Mode = "cognitive"
)

// UsesKeyword reports whether Mode queries the full-text index.
func (m Mode) UsesKeyword() bool { return m == ModeStandard || m == ModePrecise }

// UsesActivation reports whether Mode runs spreading activation.
func (m Mode) UsesActivation() bool { return m != ModeQuick }

// UsesFSRS reports whether Mode applies FSRS retrievability weighting.
func (m Mode) UsesFSRS() bool { return m == ModePrecise || m == ModeCognitive }

// UsesRerank reports whether Mode calls the reranker (stage 8).
func (m Mode) UsesRerank() bool { return m == ModePrecise }

// FSRSWeightStrength scales how strongly FSRS retrievability multiplies
// the fused score; Cognitive mode leans harder on it per spec.md §4.I
// stage 7 ("stronger" in Cognitive mode).
func (m Mode) FSRSWeightStrength() float64 {
	if m == ModeCognitive {
		return 1.0
	}
	return 0.5
}

// Config bundles every tunable the pipeline consults for a given mode.
type Config struct {
	Mode              Mode
	Limit             int
	MaxKeyMemories    int
	MaxSemantic       int
	OversampleFactor  int
	CategoryBoost     float64
	RRF               RRF
	Linear            LinearFusion
	Dedup             DedupConfig
	EnableDedup       bool
	Spreading         activation.Config
}

// DefaultConfig is Standard mode with spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeStandard,
		Limit:            10,
		MaxKeyMemories:   15,
		MaxSemantic:      35,
		OversampleFactor: 2,
		CategoryBoost:    1.2,
		RRF:              DefaultRRF(),
		Linear:           DefaultLinearFusion(),
		Dedup:            DefaultDedupConfig(),
		EnableDedup:      true,
		Spreading:        activation.DefaultConfig(),
	}
}

// Quick returns a Config for Quick mode: vector search only, no dedup,
// no oversampling, matching the speed-optimized reference preset.
func Quick(limit int) Config {
	c := DefaultConfig()
	c.Mode = ModeQuick
	c.Limit = limit
	c.EnableDedup = false
	c.OversampleFactor = 1
	return c
}

// Standard returns a Config for Standard mode.
func Standard(limit int) Config {
	c := DefaultConfig()
	c.Limit = limit
	return c
}

// Precise returns a Config for Precise mode: linear fusion over all
// signals plus reranking, with wider oversampling for accuracy.
func Precise(limit int) Config {
	c := DefaultConfig()
	c.Mode = ModePrecise
	c.Limit = limit
	c.Linear = PreciseLinearFusion()
	c.OversampleFactor = 3
	return c
}

// Cognitive returns a Config for Cognitive mode: FSRS-dominant linear
// fusion with a wider spreading-activation search.
func Cognitive(limit int) Config {
	c := DefaultConfig()
	c.Mode = ModeCognitive
	c.Limit = limit
	c.Linear = CognitiveLinearFusion()
	c.Spreading.MaxDepth = c.Spreading.MaxDepth + 1
	c.Spreading.FiringThreshold = c.Spreading.FiringThreshold * 0.5
	return c
}
