// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package consolidation

import "time"

// BehavioralTagConfig parameterizes the asymmetric window around a novel
// event within which nearby synaptic tags get their PRPs boosted, and
// the novelty threshold that decides whether an event counts as novel
// in the first place.
type BehavioralTagConfig struct {
	WindowBefore     time.Duration
	WindowAfter      time.Duration
	NoveltyThreshold float64
	MinTagStrength   float64
}

// DefaultBehavioralTagConfig matches spec.md §4.J: a novel event boosts
// tags formed up to 30 minutes before it and up to 2 hours after,
// mirroring how a surprising event in the original research strengthens
// nearby, otherwise-decaying memory traces.
func DefaultBehavioralTagConfig() BehavioralTagConfig {
	return BehavioralTagConfig{
		WindowBefore:     30 * time.Minute,
		WindowAfter:      2 * time.Hour,
		NoveltyThreshold: 0.7,
		MinTagStrength:   0.05,
	}
}

// BehavioralTagger detects novel events and boosts PRP availability on
// synaptic tags that fall within the resulting behavioral tagging
// window.
type BehavioralTagger struct {
	Config BehavioralTagConfig
}

// NewBehavioralTagger builds a BehavioralTagger with the default configuration.
func NewBehavioralTagger() *BehavioralTagger {
	return &BehavioralTagger{Config: DefaultBehavioralTagConfig()}
}

// IsNovelEvent reports whether an encoding-surprise score is high enough
// to trigger behavioral tagging.
func (b *BehavioralTagger) IsNovelEvent(encodingSurprise float64) bool {
	return encodingSurprise >= b.Config.NoveltyThreshold
}

// TaggingWindow returns the [start, end) interval around a novel event,
// from WindowBefore before it to WindowAfter after it, within which
// existing synaptic tags are eligible for a PRP boost.
func (b *BehavioralTagger) TaggingWindow(novelEventTime time.Time) (start, end time.Time) {
	return novelEventTime.Add(-b.Config.WindowBefore), novelEventTime.Add(b.Config.WindowAfter)
}

// ApplyPRPBoost marks PRPs available, at novelEventTime, on every tag in
// tags whose TaggedAt falls within the tagging window, whose current
// strength (at novelEventTime) is still at least MinTagStrength, that
// isn't already PRP-boosted, and that doesn't belong to the novel event's
// own memory (a memory doesn't behaviorally tag itself). Returns the
// memory IDs that were boosted.
func (b *BehavioralTagger) ApplyPRPBoost(tags []*SynapticTag, novelEventTime time.Time, excludeMemoryID string) []string {
	start, end := b.TaggingWindow(novelEventTime)

	var boosted []string
	for _, tag := range tags {
		if tag.PRPAvailable {
			continue
		}
		if tag.MemoryID == excludeMemoryID {
			continue
		}
		if tag.TaggedAt.Before(start) || !tag.TaggedAt.Before(end) {
			continue
		}
		if tag.StrengthAt(novelEventTime) < b.Config.MinTagStrength {
			continue
		}
		tag.SetPRPAvailable(novelEventTime)
		boosted = append(boosted, tag.MemoryID)
	}
	return boosted
}
