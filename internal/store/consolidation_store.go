// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BangRocket/rook/internal/consolidation"
	"github.com/BangRocket/rook/internal/types"
)

// TagStore implements consolidation.TagStore.
type TagStore struct {
	DB *gorm.DB
}

// NewTagStore wraps db.
func NewTagStore(db *gorm.DB) *TagStore {
	return &TagStore{DB: db}
}

func tagToRow(scope types.Scope, tag *consolidation.SynapticTag) SynapticTagRow {
	return SynapticTagRow{
		MemoryID:        tag.MemoryID,
		TenantID:        scope.TenantID,
		AgentID:         scope.AgentID,
		UserID:          scope.UserID,
		InitialStrength: tag.InitialStrength,
		TauSeconds:      tag.Tau.Seconds(),
		TaggedAt:        tag.TaggedAt,
		PRPAvailable:    tag.PRPAvailable,
		PRPAvailableAt:  tag.PRPAvailableAt,
	}
}

func rowToTag(r SynapticTagRow) *consolidation.SynapticTag {
	return &consolidation.SynapticTag{
		MemoryID:        r.MemoryID,
		InitialStrength: r.InitialStrength,
		Tau:             time.Duration(r.TauSeconds * float64(time.Second)),
		TaggedAt:        r.TaggedAt,
		PRPAvailable:    r.PRPAvailable,
		PRPAvailableAt:  r.PRPAvailableAt,
	}
}

// ListTags implements consolidation.TagStore.
func (s *TagStore) ListTags(ctx context.Context, scope types.Scope) ([]*consolidation.SynapticTag, error) {
	var rows []SynapticTagRow
	if err := scoped(s.DB.WithContext(ctx), scope).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*consolidation.SynapticTag, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToTag(r))
	}
	return out, nil
}

// PutTag implements consolidation.TagStore, upserting on MemoryID.
func (s *TagStore) PutTag(ctx context.Context, scope types.Scope, tag *consolidation.SynapticTag) error {
	row := tagToRow(scope, tag)
	return s.DB.WithContext(ctx).Save(&row).Error
}

// DeleteTag implements consolidation.TagStore.
func (s *TagStore) DeleteTag(ctx context.Context, scope types.Scope, memoryID string) error {
	return scoped(s.DB.WithContext(ctx), scope).Where("memory_id = ?", memoryID).Delete(&SynapticTagRow{}).Error
}
