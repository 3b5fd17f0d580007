// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package fsrs

// StrengthSignal is an externally observed event that should influence a
// memory's strength without a caller having to know the FSRS grade
// vocabulary. Supplemented from the reference implementation's
// strength-signal surface, which spec.md's component table gestures at
// ("review outcome") without naming a caller-facing API for it.
type StrengthSignal string

const (
	SignalExplicitRecall StrengthSignal = "explicit_recall"
	SignalExplicitForget StrengthSignal = "explicit_forget"
	SignalReinforced     StrengthSignal = "reinforced"
	SignalContradicted   StrengthSignal = "contradicted"
	SignalReferenced     StrengthSignal = "referenced"
	SignalIgnored        StrengthSignal = "ignored"
	SignalMarkedKey      StrengthSignal = "marked_key"
)

// GradeFor maps a StrengthSignal onto the Grade it drives through Review.
// SignalMarkedKey carries no grade; callers should set Memory.IsKey
// directly and skip the review step.
func GradeFor(sig StrengthSignal) (Grade, bool) {
	switch sig {
	case SignalExplicitRecall, SignalReinforced:
		return GradeEasy, true
	case SignalReferenced:
		return GradeGood, true
	case SignalIgnored:
		return GradeHard, true
	case SignalExplicitForget, SignalContradicted:
		return GradeAgain, true
	default:
		return 0, false
	}
}

// PendingSignal is one queued strength update, held by a
// StrengthSignalProcessor until Drain rather than applied synchronously.
// The consolidation sweep does not drain the processor.
type PendingSignal struct {
	MemoryID string
	Signal   StrengthSignal
}

// StrengthSignalProcessor batches externally triggered strength updates.
type StrengthSignalProcessor struct {
	pending []PendingSignal
}

// NewStrengthSignalProcessor returns an empty processor.
func NewStrengthSignalProcessor() *StrengthSignalProcessor {
	return &StrengthSignalProcessor{}
}

// Enqueue records a signal for the given memory to be applied on the next
// Drain.
func (p *StrengthSignalProcessor) Enqueue(memoryID string, sig StrengthSignal) {
	p.pending = append(p.pending, PendingSignal{MemoryID: memoryID, Signal: sig})
}

// Drain returns and clears all queued signals.
func (p *StrengthSignalProcessor) Drain() []PendingSignal {
	out := p.pending
	p.pending = nil
	return out
}

// Len reports how many signals are queued.
func (p *StrengthSignalProcessor) Len() int {
	return len(p.pending)
}
