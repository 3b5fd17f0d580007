// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/BangRocket/rook/internal/types"
)

// HistoryStore implements types.HistoryStore as an append-only log
// separate from MemoryRow, so a deployment can keep the operational
// memory table small and let the audit trail grow unbounded on its own
// storage tier.
type HistoryStore struct {
	DB *gorm.DB
}

// NewHistoryStore wraps db.
func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{DB: db}
}

func versionToRow(v *types.VersionRecord) VersionRow {
	return VersionRow{
		ID:        v.ID,
		MemoryID:  v.MemoryID,
		Version:   v.Version,
		Content:   v.Content,
		Kind:      string(v.Kind),
		ChangedAt: v.ChangedAt,
		Note:      v.Note,
	}
}

func rowToVersion(r VersionRow) *types.VersionRecord {
	return &types.VersionRecord{
		ID:        r.ID,
		MemoryID:  r.MemoryID,
		Version:   r.Version,
		Content:   r.Content,
		Kind:      types.ChangeKind(r.Kind),
		ChangedAt: r.ChangedAt,
		Note:      r.Note,
	}
}

// Append implements types.HistoryStore.
func (h *HistoryStore) Append(ctx context.Context, record *types.VersionRecord) error {
	if record.ID == "" {
		record.ID = newID()
	}
	row := versionToRow(record)
	return h.DB.WithContext(ctx).Create(&row).Error
}

// List implements types.HistoryStore, returning versions oldest-first.
func (h *HistoryStore) List(ctx context.Context, memoryID string) ([]*types.VersionRecord, error) {
	var rows []VersionRow
	if err := h.DB.WithContext(ctx).Where("memory_id = ?", memoryID).Order("version ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*types.VersionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToVersion(r))
	}
	return out, nil
}
