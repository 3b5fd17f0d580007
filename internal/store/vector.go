// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"

	"github.com/BangRocket/rook/internal/types"
)

// VectorStore is the default types.VectorStore adapter: sqlite-vec KNN
// when the vec0 virtual table loaded successfully, a brute-force cosine
// scan over EmbeddingRow otherwise. This mirrors the teacher's own
// VectorSearch.searchWithVec/searchFallback split
// (internal/embeddings/search.go) exactly, generalized from a
// slug-keyed single-tenant store to a scope-partitioned one.
type VectorStore struct {
	db         *gorm.DB
	useVec     bool
	dimensions int
}

// NewVectorStore builds a VectorStore, probing for sqlite-vec support and
// falling back to the metadata-table scan when the vec0 virtual table
// can't be created (e.g. the pure-Go glebarez/sqlite driver has no
// sqlite-vec extension loaded).
func NewVectorStore(db *gorm.DB, dimensions int) *VectorStore {
	if dimensions <= 0 {
		dimensions = 1536
	}
	vs := &VectorStore{db: db, dimensions: dimensions}
	vs.useVec = tryCreateVecTable(db, dimensions) == nil
	return vs
}

func tryCreateVecTable(db *gorm.DB, dimensions int) error {
	sql := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS rook_vec_embeddings USING vec0(
		id TEXT PRIMARY KEY,
		embedding FLOAT[%d]
	)`, dimensions)
	return db.Exec(sql).Error
}

// Upsert implements types.VectorStore.
func (v *VectorStore) Upsert(ctx context.Context, scope types.Scope, id string, vector []float32, payload map[string]any) error {
	memoryID, _ := payload["memory_id"].(string)
	row := EmbeddingRow{
		ID:          id,
		TenantID:    scope.TenantID,
		AgentID:     scope.AgentID,
		UserID:      scope.UserID,
		MemoryID:    memoryID,
		Vector:      float32SliceToBlob(vector),
		PayloadJSON: marshalJSON(payload),
	}
	if err := v.db.WithContext(ctx).Save(&row).Error; err != nil {
		return err
	}

	if v.useVec {
		if err := v.upsertVec(ctx, id, vector); err != nil {
			// Metadata row is authoritative; vec table is a search
			// accelerator only, so a write failure here degrades to
			// the fallback scan rather than failing the call.
			v.useVec = false
		}
	}
	return nil
}

func (v *VectorStore) upsertVec(ctx context.Context, id string, vector []float32) error {
	if err := v.db.WithContext(ctx).Exec("DELETE FROM rook_vec_embeddings WHERE id = ?", id).Error; err != nil {
		return err
	}
	return v.db.WithContext(ctx).Exec("INSERT INTO rook_vec_embeddings (id, embedding) VALUES (?, ?)",
		id, float32SliceToBlob(vector)).Error
}

// Search implements types.VectorStore.
func (v *VectorStore) Search(ctx context.Context, scope types.Scope, vector []float32, limit int, filter types.Filter) ([]types.VectorSearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if v.useVec && filter == nil {
		results, err := v.searchVec(ctx, scope, vector, limit)
		if err == nil {
			return results, nil
		}
		v.useVec = false
	}
	return v.searchFallback(ctx, scope, vector, limit, filter)
}

func (v *VectorStore) searchVec(ctx context.Context, scope types.Scope, vector []float32, limit int) ([]types.VectorSearchResult, error) {
	type vecHit struct {
		ID       string
		Distance float64
	}
	var hits []vecHit
	err := v.db.WithContext(ctx).Raw(`
		SELECT ve.id, ve.distance
		FROM rook_vec_embeddings ve
		INNER JOIN rook_embeddings e ON e.id = ve.id
		WHERE ve.embedding MATCH ? AND ve.k = ? AND e.tenant_id = ? AND e.agent_id = ? AND e.user_id = ?
		ORDER BY ve.distance
	`, float32SliceToBlob(vector), limit, scope.TenantID, scope.AgentID, scope.UserID).Scan(&hits).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	rows, err := v.loadEmbeddingRows(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]EmbeddingRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	results := make([]types.VectorSearchResult, 0, len(hits))
	for _, h := range hits {
		row, ok := byID[h.ID]
		if !ok {
			continue
		}
		results = append(results, embeddingRowToResult(row, 1.0/(1.0+h.Distance)))
	}
	return results, nil
}

func (v *VectorStore) searchFallback(ctx context.Context, scope types.Scope, vector []float32, limit int, filter types.Filter) ([]types.VectorSearchResult, error) {
	q := scoped(v.db.WithContext(ctx), scope)
	var err error
	q, err = applyFilter(q, filter)
	if err != nil {
		return nil, err
	}

	var rows []EmbeddingRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]types.VectorSearchResult, 0, len(rows))
	for _, r := range rows {
		candidate := blobToFloat32Slice(r.Vector)
		if candidate == nil {
			continue
		}
		results = append(results, embeddingRowToResult(r, cosineSimilarity(vector, candidate)))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Delete implements types.VectorStore.
func (v *VectorStore) Delete(ctx context.Context, scope types.Scope, id string) error {
	if err := scoped(v.db.WithContext(ctx), scope).Where("id = ?", id).Delete(&EmbeddingRow{}).Error; err != nil {
		return err
	}
	if v.useVec {
		_ = v.db.WithContext(ctx).Exec("DELETE FROM rook_vec_embeddings WHERE id = ?", id).Error
	}
	return nil
}

// Get implements types.VectorStore.
func (v *VectorStore) Get(ctx context.Context, scope types.Scope, id string) (*types.VectorSearchResult, error) {
	var row EmbeddingRow
	err := scoped(v.db.WithContext(ctx), scope).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	result := embeddingRowToResult(row, 0)
	return &result, nil
}

func (v *VectorStore) loadEmbeddingRows(ctx context.Context, ids []string) ([]EmbeddingRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []EmbeddingRow
	err := v.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func embeddingRowToResult(row EmbeddingRow, score float64) types.VectorSearchResult {
	return types.VectorSearchResult{
		ID:       row.ID,
		Score:    score,
		Payload:  unmarshalJSON[map[string]any](row.PayloadJSON),
		MemoryID: row.MemoryID,
	}
}

// cosineSimilarity matches the teacher's embeddings.cosineSimilarity,
// generalized to float64 scores since types.VectorSearchResult.Score is
// float64 rather than the teacher's float32.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// float32SliceToBlob and blobToFloat32Slice match the teacher's
// embeddings.Float32SliceToBlob/BlobToFloat32Slice binary layout exactly
// (little-endian, 4 bytes per component) so the two packages could share
// a database without a conversion step.
func float32SliceToBlob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func blobToFloat32Slice(b []byte) []float32 {
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
