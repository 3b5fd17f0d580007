// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/BangRocket/rook/internal/types"
)

// FullTextIndex implements types.FullTextIndex with a case-insensitive
// substring scan rather than a real inverted index. SQLite's FTS5
// virtual table would need the cgo mattn/go-sqlite3 driver, which
// conflicts with the pure-Go glebarez/sqlite driver the rest of this
// package standardizes on; a scoring engine like blevesearch/bleve never
// appears as an actual dependency anywhere in the reference pack, only
// referenced through an abstract interface in unrelated example code.
// This adapter exists so the retriever's keyword mode has somewhere to
// go; a deployment that needs real BM25 ranking should swap in a
// dedicated FullTextIndex backed by one of those.
type FullTextIndex struct {
	DB *gorm.DB
}

// NewFullTextIndex wraps db.
func NewFullTextIndex(db *gorm.DB) *FullTextIndex {
	return &FullTextIndex{DB: db}
}

// Index implements types.FullTextIndex.
func (f *FullTextIndex) Index(ctx context.Context, scope types.Scope, id, content string) error {
	row := FullTextRow{
		ID:       id,
		TenantID: scope.TenantID,
		AgentID:  scope.AgentID,
		UserID:   scope.UserID,
		Content:  content,
	}
	return f.DB.WithContext(ctx).Save(&row).Error
}

// Search implements types.FullTextIndex. Every scoped row is scanned and
// scored by matched-term count, since a LIKE query can't rank relevance
// on its own.
func (f *FullTextIndex) Search(ctx context.Context, scope types.Scope, query string, limit int) ([]types.VectorSearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	q := scoped(f.DB.WithContext(ctx), scope)
	for _, term := range terms {
		q = q.Or("LOWER(content) LIKE ?", "%"+term+"%")
	}

	var rows []FullTextRow
	if err := scoped(f.DB.WithContext(ctx), scope).Where(q).Find(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]types.VectorSearchResult, 0, len(rows))
	for _, r := range rows {
		lower := strings.ToLower(r.Content)
		var matched int
		for _, term := range terms {
			if strings.Contains(lower, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		results = append(results, types.VectorSearchResult{
			ID:       r.ID,
			Score:    float64(matched) / float64(len(terms)),
			MemoryID: r.ID,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Delete implements types.FullTextIndex.
func (f *FullTextIndex) Delete(ctx context.Context, scope types.Scope, id string) error {
	return scoped(f.DB.WithContext(ctx), scope).Where("id = ?", id).Delete(&FullTextRow{}).Error
}
