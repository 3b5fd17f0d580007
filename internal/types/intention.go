// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package types

import "time"

// TriggerCondition is a sealed interface for the ways an Intention can
// fire. KeywordMention and TopicDiscussed/TimeElapsed/ScheduledTime mirror
// the reference trigger set; UserMentioned and ContextEntered extend it
// for callers that key intentions off which participant or channel is
// active rather than off memory content.
type TriggerCondition interface {
	isTrigger()
}

// KeywordMention fires when the bloom-filter prefilter and, on a hit, an
// exact substring check both confirm one of Keywords appears in a message.
type KeywordMention struct {
	Keywords   []string
	ExactMatch bool
}

func (KeywordMention) isTrigger() {}

// TopicDiscussed fires when a message's embedding similarity to Topic (or
// TopicEmbedding, if precomputed) meets Threshold.
type TopicDiscussed struct {
	Topic          string
	TopicEmbedding []float32
	Threshold      float64
}

func (TopicDiscussed) isTrigger() {}

// TimeElapsed fires once Duration has passed after ReferenceTime, or after
// the intention's CreatedAt when ReferenceTime is nil. When Recurring and
// ReferenceTime is nil, each later fire measures Duration from the last
// fire; a non-recurring one is deactivated after it fires.
type TimeElapsed struct {
	Duration      time.Duration
	Recurring     bool
	ReferenceTime *time.Time
}

func (TimeElapsed) isTrigger() {}

// ScheduledTime fires once at ScheduledAt. Cron and Timezone are stored
// but not evaluated by intentions.Scheduler.
type ScheduledTime struct {
	ScheduledAt time.Time
	Cron        string
	Timezone    string
}

func (ScheduledTime) isTrigger() {}

// UserMentioned fires when UserID appears as a participant in the current
// turn. Not present in the reference trigger set; added because a memory
// engine embedded in a multi-user assistant needs a per-participant hook
// the reference implementation's single-user trigger set has no room for.
type UserMentioned struct {
	UserID string
}

func (UserMentioned) isTrigger() {}

// ContextEntered fires when the conversation enters the named channel or
// context identifier (a Slack channel, a project workspace). Added for
// the same reason as UserMentioned.
type ContextEntered struct {
	Channel string
}

func (ContextEntered) isTrigger() {}

// IntentionAction is a sealed interface for what happens when a trigger
// fires. intentions.Checker and intentions.Scheduler record each fire
// with a successful ActionResult; neither runs the action itself.
type IntentionAction interface {
	isAction()
}

// SurfaceMemory asks for the linked memory to be surfaced, carrying a
// multiplicative Boost.
type SurfaceMemory struct {
	Boost float64
}

func (SurfaceMemory) isAction() {}

// Notify names a webhook target (WebhookURL) and the Payload for it.
type Notify struct {
	WebhookURL string
	Payload    map[string]any
}

func (Notify) isAction() {}

// Callback invokes a caller-registered handler identified by CallbackID.
type Callback struct {
	CallbackID string
	Args       map[string]any
}

func (Callback) isAction() {}

// Log carries a Message for the engine's structured log.
type Log struct {
	Message string
}

func (Log) isAction() {}

// DefaultSurfaceBoost is the boost SurfaceMemory carries when constructed
// via NewIntention without an explicit action.
const DefaultSurfaceBoost = 1.5

// Intention is a standing rule: when Trigger matches, Action runs.
type Intention struct {
	ID       string
	Scope    Scope
	Name     string
	MemoryID *string

	Trigger TriggerCondition
	Action  IntentionAction

	ExpiresAt *time.Time
	Active    bool

	CreatedAt    time.Time
	LastFiredAt  *time.Time
	FireCount    int
	MaxFires     *int
	Metadata     map[string]any
}

// NewIntention constructs an active intention with the default
// SurfaceMemory action, matching the reference implementation's default.
func NewIntention(scope Scope, name string, trigger TriggerCondition) *Intention {
	return &Intention{
		Scope:     scope,
		Name:      name,
		Trigger:   trigger,
		Action:    SurfaceMemory{Boost: DefaultSurfaceBoost},
		Active:    true,
		CreatedAt: time.Now(),
	}
}

// IsExpired reports whether ExpiresAt has passed as of at.
func (i *Intention) IsExpired(at time.Time) bool {
	return i.ExpiresAt != nil && at.After(*i.ExpiresAt)
}

// CanFire reports whether the intention is eligible to fire at 'at': it
// must be active, unexpired, and under MaxFires if that cap is set.
func (i *Intention) CanFire(at time.Time) bool {
	if !i.Active || i.IsExpired(at) {
		return false
	}
	if i.MaxFires != nil && i.FireCount >= *i.MaxFires {
		return false
	}
	return true
}

// TriggerReason records why an intention fired, for FiredIntention.Reason.
type TriggerReason struct {
	Kind            string // "keyword", "topic", "time_elapsed", "scheduled_time", "user_mentioned", "context_entered"
	MatchedKeyword  string
	Context         string
	Similarity      float64
	Topic           string
	ElapsedSeconds  float64
	ScheduledAt     time.Time
}

// ActionResult is the outcome of running an Intention's Action.
type ActionResult struct {
	Success bool
	Skipped bool
	Details string
	Error   string
}

// FiredIntention is the audit record persisted through the intention
// store's RecordFired each time an intention fires. It is not published
// on the event bus.
type FiredIntention struct {
	IntentionID string
	FiredAt     time.Time
	Reason      TriggerReason
	Result      ActionResult
}
