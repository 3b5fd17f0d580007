// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/BangRocket/rook/internal/rookerr"
	"github.com/BangRocket/rook/internal/types"
)

// Trigger/action kind discriminators, matching the strings
// internal/intentions.Checker and Scheduler pass to ListByTriggerKind.
const (
	triggerKeywordMention = "keyword_mention"
	triggerTopicDiscussed = "topic_discussed"
	triggerTimeElapsed    = "time_elapsed"
	triggerScheduledTime  = "scheduled_time"
	triggerUserMentioned  = "user_mentioned"
	triggerContextEntered = "context_entered"

	actionSurfaceMemory = "surface_memory"
	actionNotify        = "notify"
	actionCallback      = "callback"
	actionLog           = "log"
)

// IntentionStore implements both internal/intentions.IntentionStore and
// internal/intentions.TimeStore: the checker and scheduler need the same
// persistence shape, just different trigger kinds.
type IntentionStore struct {
	DB *gorm.DB
}

// NewIntentionStore wraps db.
func NewIntentionStore(db *gorm.DB) *IntentionStore {
	return &IntentionStore{DB: db}
}

func triggerKind(t types.TriggerCondition) string {
	switch t.(type) {
	case types.KeywordMention:
		return triggerKeywordMention
	case types.TopicDiscussed:
		return triggerTopicDiscussed
	case types.TimeElapsed:
		return triggerTimeElapsed
	case types.ScheduledTime:
		return triggerScheduledTime
	case types.UserMentioned:
		return triggerUserMentioned
	case types.ContextEntered:
		return triggerContextEntered
	default:
		return ""
	}
}

func actionKind(a types.IntentionAction) string {
	switch a.(type) {
	case types.SurfaceMemory:
		return actionSurfaceMemory
	case types.Notify:
		return actionNotify
	case types.Callback:
		return actionCallback
	case types.Log:
		return actionLog
	default:
		return ""
	}
}

func decodeTrigger(kind, payload string) (types.TriggerCondition, error) {
	switch kind {
	case triggerKeywordMention:
		return unmarshalJSON[types.KeywordMention](payload), nil
	case triggerTopicDiscussed:
		return unmarshalJSON[types.TopicDiscussed](payload), nil
	case triggerTimeElapsed:
		return unmarshalJSON[types.TimeElapsed](payload), nil
	case triggerScheduledTime:
		return unmarshalJSON[types.ScheduledTime](payload), nil
	case triggerUserMentioned:
		return unmarshalJSON[types.UserMentioned](payload), nil
	case triggerContextEntered:
		return unmarshalJSON[types.ContextEntered](payload), nil
	default:
		return nil, rookerr.New(rookerr.KindInternal, fmt.Sprintf("unknown trigger kind %q", kind))
	}
}

func decodeAction(kind, payload string) (types.IntentionAction, error) {
	switch kind {
	case actionSurfaceMemory:
		return unmarshalJSON[types.SurfaceMemory](payload), nil
	case actionNotify:
		return unmarshalJSON[types.Notify](payload), nil
	case actionCallback:
		return unmarshalJSON[types.Callback](payload), nil
	case actionLog:
		return unmarshalJSON[types.Log](payload), nil
	default:
		return nil, rookerr.New(rookerr.KindInternal, fmt.Sprintf("unknown action kind %q", kind))
	}
}

func intentionToRow(i *types.Intention) (IntentionRow, error) {
	tk := triggerKind(i.Trigger)
	ak := actionKind(i.Action)
	if tk == "" {
		return IntentionRow{}, rookerr.New(rookerr.KindInvalidInput, "intention has no recognized trigger type")
	}
	if ak == "" {
		return IntentionRow{}, rookerr.New(rookerr.KindInvalidInput, "intention has no recognized action type")
	}
	return IntentionRow{
		ID:           i.ID,
		TenantID:     i.Scope.TenantID,
		AgentID:      i.Scope.AgentID,
		UserID:       i.Scope.UserID,
		Name:         i.Name,
		MemoryID:     i.MemoryID,
		TriggerKind:  tk,
		TriggerJSON:  marshalJSON(i.Trigger),
		ActionKind:   ak,
		ActionJSON:   marshalJSON(i.Action),
		ExpiresAt:    i.ExpiresAt,
		Active:       i.Active,
		CreatedAt:    i.CreatedAt,
		LastFiredAt:  i.LastFiredAt,
		FireCount:    i.FireCount,
		MaxFires:     i.MaxFires,
		MetadataJSON: marshalJSON(i.Metadata),
	}, nil
}

func rowToIntention(r IntentionRow) (*types.Intention, error) {
	trigger, err := decodeTrigger(r.TriggerKind, r.TriggerJSON)
	if err != nil {
		return nil, err
	}
	action, err := decodeAction(r.ActionKind, r.ActionJSON)
	if err != nil {
		return nil, err
	}
	return &types.Intention{
		ID:          r.ID,
		Scope:       types.Scope{TenantID: r.TenantID, AgentID: r.AgentID, UserID: r.UserID},
		Name:        r.Name,
		MemoryID:    r.MemoryID,
		Trigger:     trigger,
		Action:      action,
		ExpiresAt:   r.ExpiresAt,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
		LastFiredAt: r.LastFiredAt,
		FireCount:   r.FireCount,
		MaxFires:    r.MaxFires,
		Metadata:    unmarshalJSON[map[string]any](r.MetadataJSON),
	}, nil
}

// Put persists a new or updated intention. Not part of either narrow
// interface the checker/scheduler declare, but needed by whatever admin
// surface creates intentions in the first place.
func (s *IntentionStore) Put(ctx context.Context, intention *types.Intention) error {
	if intention.ID == "" {
		intention.ID = newID()
	}
	row, err := intentionToRow(intention)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Save(&row).Error
}

// ListByTriggerKind implements intentions.IntentionStore and
// intentions.TimeStore, returning only active intentions. Expired rows
// are not filtered here; callers check expiry through Intention.CanFire.
func (s *IntentionStore) ListByTriggerKind(ctx context.Context, scope types.Scope, kind string) ([]*types.Intention, error) {
	var rows []IntentionRow
	err := scoped(s.DB.WithContext(ctx), scope).
		Where("trigger_kind = ? AND active = ?", kind, true).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*types.Intention, 0, len(rows))
	for _, r := range rows {
		intention, err := rowToIntention(r)
		if err != nil {
			return nil, err
		}
		out = append(out, intention)
	}
	return out, nil
}

// RecordFired implements intentions.IntentionStore and intentions.TimeStore,
// appending an audit row and bumping the intention's fire count.
func (s *IntentionStore) RecordFired(ctx context.Context, scope types.Scope, fired types.FiredIntention) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := FiredIntentionRow{
			IntentionID: fired.IntentionID,
			FiredAt:     fired.FiredAt,
			ReasonJSON:  marshalJSON(fired.Reason),
			ResultJSON:  marshalJSON(fired.Result),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return scoped(tx, scope).Model(&IntentionRow{}).Where("id = ?", fired.IntentionID).
			Updates(map[string]any{
				"fire_count":    gorm.Expr("fire_count + 1"),
				"last_fired_at": fired.FiredAt,
			}).Error
	})
}

// MarkFired implements intentions.TimeStore: the scheduler calls this
// separately from RecordFired so a TimeElapsed/ScheduledTime trigger can
// be re-armed (or retired, if not Recurring) without duplicating the
// audit-log write.
func (s *IntentionStore) MarkFired(ctx context.Context, scope types.Scope, intentionID string, at time.Time) error {
	var row IntentionRow
	if err := scoped(s.DB.WithContext(ctx), scope).Where("id = ?", intentionID).First(&row).Error; err != nil {
		return err
	}
	updates := map[string]any{"last_fired_at": at}
	if row.TriggerKind == triggerTimeElapsed && !unmarshalJSON[types.TimeElapsed](row.TriggerJSON).Recurring {
		updates["active"] = false
	}
	return scoped(s.DB.WithContext(ctx), scope).Model(&IntentionRow{}).
		Where("id = ?", intentionID).Updates(updates).Error
}
