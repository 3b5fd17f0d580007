// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package consolidation implements the consolidation engine (spec.md
// component J): synaptic tagging with exponential decay, behavioral
// tagging around novel events, and a periodic sweep that promotes
// tagged memories into storage strength and runs archival.
package consolidation

import (
	"math"
	"time"
)

// DefaultTau is the synaptic tag's exponential decay time constant,
// matching the ~60 minute figure spec.md §4.J and the originating
// research both use.
const DefaultTau = 60 * time.Minute

// DefaultValidityThreshold is the strength below which a tag is treated
// as expired.
const DefaultValidityThreshold = 0.1

// SynapticTag marks a memory for potential consolidation after a
// learning event. Strength decays exponentially; if plasticity-related
// proteins become available before the tag decays below threshold, the
// periodic sweep promotes the memory's storage strength.
type SynapticTag struct {
	MemoryID        string
	InitialStrength float64
	Tau             time.Duration
	TaggedAt        time.Time
	PRPAvailable    bool
	PRPAvailableAt  *time.Time
}

// NewSynapticTag creates a tag at time at with the default tau, clamping
// initialStrength to [0,1].
func NewSynapticTag(memoryID string, initialStrength float64, at time.Time) *SynapticTag {
	if initialStrength < 0 {
		initialStrength = 0
	}
	if initialStrength > 1 {
		initialStrength = 1
	}
	return &SynapticTag{
		MemoryID:        memoryID,
		InitialStrength: initialStrength,
		Tau:             DefaultTau,
		TaggedAt:        at,
	}
}

// StrengthAt implements S(t) = S0 * e^(-t/tau); t before TaggedAt yields 0.
func (t *SynapticTag) StrengthAt(at time.Time) float64 {
	elapsed := at.Sub(t.TaggedAt)
	if elapsed < 0 {
		return 0
	}
	tau := t.Tau
	if tau <= 0 {
		tau = DefaultTau
	}
	return t.InitialStrength * math.Exp(-elapsed.Minutes()/tau.Minutes())
}

// IsValidAt reports whether the tag's strength at at meets threshold.
func (t *SynapticTag) IsValidAt(at time.Time, threshold float64) bool {
	return t.StrengthAt(at) >= threshold
}

// CanConsolidate reports whether the tag is both still valid (at at,
// against DefaultValidityThreshold) and has PRPs available.
func (t *SynapticTag) CanConsolidate(at time.Time) bool {
	return t.IsValidAt(at, DefaultValidityThreshold) && t.PRPAvailable
}

// SetPRPAvailable marks PRPs available at the given time.
func (t *SynapticTag) SetPRPAvailable(at time.Time) {
	t.PRPAvailable = true
	taggedAt := at
	t.PRPAvailableAt = &taggedAt
}
