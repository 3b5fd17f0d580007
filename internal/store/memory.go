// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/BangRocket/rook/internal/rookerr"
	"github.com/BangRocket/rook/internal/types"
)

// MemoryStore is the default relational adapter backing memory
// persistence: retrieval's KeyMemoryLister/MemoryFetcher/AccessRecorder
// and consolidation's MemoryUpdater, plus the CRUD the ingestion gate's
// caller needs.
type MemoryStore struct {
	DB *gorm.DB
}

// NewMemoryStore wraps db.
func NewMemoryStore(db *gorm.DB) *MemoryStore {
	return &MemoryStore{DB: db}
}

func memoryToRow(m *types.Memory) MemoryRow {
	return MemoryRow{
		ID:                m.ID,
		TenantID:          m.Scope.TenantID,
		AgentID:           m.Scope.AgentID,
		UserID:            m.Scope.UserID,
		Content:           m.Content,
		Category:          m.Category,
		Stability:         m.Stability,
		Difficulty:        m.Difficulty,
		RetrievalStrength: m.RetrievalStrength,
		StorageStrength:   m.StorageStrength,
		IsKey:             m.IsKey,
		Version:           m.Version,
		SupersededBy:      m.SupersededBy,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		LastReviewedAt:    m.LastReviewedAt,
		ArchivedAt:        m.ArchivedAt,
		AccessedAt:        m.AccessedAt,
		AccessCount:       m.AccessCount,
		TagsJSON:          marshalJSON(m.Tags),
		MetadataJSON:      marshalJSON(m.Metadata),
	}
}

func rowToMemory(r MemoryRow) *types.Memory {
	return &types.Memory{
		ID:                r.ID,
		Scope:             types.Scope{TenantID: r.TenantID, AgentID: r.AgentID, UserID: r.UserID},
		Content:           r.Content,
		Category:          r.Category,
		Stability:         r.Stability,
		Difficulty:        r.Difficulty,
		RetrievalStrength: r.RetrievalStrength,
		StorageStrength:   r.StorageStrength,
		IsKey:             r.IsKey,
		Version:           r.Version,
		SupersededBy:      r.SupersededBy,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		LastReviewedAt:    r.LastReviewedAt,
		ArchivedAt:        r.ArchivedAt,
		AccessedAt:        r.AccessedAt,
		AccessCount:       r.AccessCount,
		Tags:              unmarshalJSON[[]string](r.TagsJSON),
		Metadata:          unmarshalJSON[map[string]any](r.MetadataJSON),
	}
}

// Create inserts a new memory.
func (s *MemoryStore) Create(ctx context.Context, m *types.Memory) error {
	row := memoryToRow(m)
	return s.DB.WithContext(ctx).Create(&row).Error
}

// Get fetches one memory by ID, scoped.
func (s *MemoryStore) Get(ctx context.Context, scope types.Scope, id string) (*types.Memory, error) {
	var row MemoryRow
	err := scoped(s.DB.WithContext(ctx), scope).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, rookerr.New(rookerr.KindNotFound, fmt.Sprintf("memory %s not found", id))
	}
	if err != nil {
		return nil, err
	}
	return rowToMemory(row), nil
}

// Update persists every mutable field of m (content, strength state,
// tags/metadata, supersession). pkg/engine appends the matching
// VersionRecord via HistoryStore after Update succeeds.
func (s *MemoryStore) Update(ctx context.Context, m *types.Memory) error {
	row := memoryToRow(m)
	return s.DB.WithContext(ctx).Model(&MemoryRow{}).Where("id = ?", m.ID).Updates(&row).Error
}

// Supersede marks oldID as superseded by newID.
func (s *MemoryStore) Supersede(ctx context.Context, scope types.Scope, oldID, newID string, at time.Time) error {
	return scoped(s.DB.WithContext(ctx), scope).Model(&MemoryRow{}).Where("id = ?", oldID).
		Updates(map[string]any{"superseded_by": newID, "updated_at": at}).Error
}

// ListKeyMemories implements retrieval.KeyMemoryLister.
func (s *MemoryStore) ListKeyMemories(ctx context.Context, scope types.Scope, limit int) ([]*types.Memory, error) {
	var rows []MemoryRow
	q := scoped(s.DB.WithContext(ctx), scope).
		Where("is_key = ? AND superseded_by IS NULL AND archived_at IS NULL", true).
		Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToMemories(rows), nil
}

// GetMemories implements retrieval.MemoryFetcher.
func (s *MemoryStore) GetMemories(ctx context.Context, scope types.Scope, ids []string) (map[string]*types.Memory, error) {
	if len(ids) == 0 {
		return map[string]*types.Memory{}, nil
	}
	var rows []MemoryRow
	if err := scoped(s.DB.WithContext(ctx), scope).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]*types.Memory, len(rows))
	for _, r := range rows {
		out[r.ID] = rowToMemory(r)
	}
	return out, nil
}

// RecordAccess implements retrieval.AccessRecorder, bumping
// accessed_at/access_count for every id. Best-effort: the update's error
// is dropped, neither logged nor returned.
func (s *MemoryStore) RecordAccess(ctx context.Context, scope types.Scope, ids []string, at time.Time) {
	if len(ids) == 0 {
		return
	}
	scoped(s.DB.WithContext(ctx), scope).Model(&MemoryRow{}).Where("id IN ?", ids).
		Updates(map[string]any{"accessed_at": at, "access_count": gorm.Expr("access_count + 1")})
}

// ListActiveMemories implements consolidation.MemoryUpdater.
func (s *MemoryStore) ListActiveMemories(ctx context.Context, scope types.Scope) ([]*types.Memory, error) {
	var rows []MemoryRow
	if err := scoped(s.DB.WithContext(ctx), scope).
		Where("superseded_by IS NULL AND archived_at IS NULL").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToMemories(rows), nil
}

// PromoteStorageStrength implements consolidation.MemoryUpdater.
func (s *MemoryStore) PromoteStorageStrength(ctx context.Context, scope types.Scope, memoryID string, delta float64) error {
	return scoped(s.DB.WithContext(ctx), scope).Model(&MemoryRow{}).Where("id = ?", memoryID).
		Update("storage_strength", gorm.Expr("storage_strength + ?", delta)).Error
}

// Archive implements consolidation.MemoryUpdater.
func (s *MemoryStore) Archive(ctx context.Context, scope types.Scope, memoryID string, at time.Time) error {
	return scoped(s.DB.WithContext(ctx), scope).Model(&MemoryRow{}).Where("id = ?", memoryID).
		Update("archived_at", at).Error
}

// ListDistinctScopes returns every scope with at least one memory row,
// the seed list pkg/engine uses to drive the consolidation sweep and the
// intentions scheduler across tenants without a separate scope registry.
func (s *MemoryStore) ListDistinctScopes(ctx context.Context) ([]types.Scope, error) {
	var rows []struct {
		TenantID string
		AgentID  string
		UserID   string
	}
	if err := s.DB.WithContext(ctx).Model(&MemoryRow{}).
		Distinct("tenant_id", "agent_id", "user_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	scopes := make([]types.Scope, 0, len(rows))
	for _, r := range rows {
		scopes = append(scopes, types.Scope{TenantID: r.TenantID, AgentID: r.AgentID, UserID: r.UserID})
	}
	return scopes, nil
}

func rowsToMemories(rows []MemoryRow) []*types.Memory {
	out := make([]*types.Memory, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToMemory(r))
	}
	return out
}
