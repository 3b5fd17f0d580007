// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/BangRocket/rook/internal/types"
)

// GraphStore is the default relational adjacency-list adapter for
// types.GraphStore, backing the knowledge graph (component G) and the
// spreading-activation reader (component H).
type GraphStore struct {
	DB *gorm.DB
}

// NewGraphStore wraps db.
func NewGraphStore(db *gorm.DB) *GraphStore {
	return &GraphStore{DB: db}
}

func nodeToRow(n *types.GraphNode) GraphNodeRow {
	return GraphNodeRow{
		ID:             n.ID,
		TenantID:       n.Scope.TenantID,
		AgentID:        n.Scope.AgentID,
		UserID:         n.Scope.UserID,
		Name:           n.Name,
		EntityType:     n.EntityType,
		PropertiesJSON: marshalJSON(n.Properties),
		CreatedAt:      n.CreatedAt,
	}
}

func rowToNode(r GraphNodeRow, embedding []float32) *types.GraphNode {
	return &types.GraphNode{
		ID:         r.ID,
		Scope:      types.Scope{TenantID: r.TenantID, AgentID: r.AgentID, UserID: r.UserID},
		Name:       r.Name,
		EntityType: r.EntityType,
		Embedding:  embedding,
		Properties: unmarshalJSON[map[string]any](r.PropertiesJSON),
		CreatedAt:  r.CreatedAt,
	}
}

func edgeToRow(e *types.GraphEdge) GraphEdgeRow {
	return GraphEdgeRow{
		ID:        e.ID,
		TenantID:  e.Scope.TenantID,
		AgentID:   e.Scope.AgentID,
		UserID:    e.Scope.UserID,
		SourceID:  e.SourceID,
		TargetID:  e.TargetID,
		Relation:  string(e.Relation),
		Weight:    e.Weight,
		MemoryID:  e.MemoryID,
		CreatedAt: e.CreatedAt,
	}
}

func rowToEdge(r GraphEdgeRow) *types.GraphEdge {
	return &types.GraphEdge{
		ID:        r.ID,
		Scope:     types.Scope{TenantID: r.TenantID, AgentID: r.AgentID, UserID: r.UserID},
		SourceID:  r.SourceID,
		TargetID:  r.TargetID,
		Relation:  types.RelationType(r.Relation),
		Weight:    r.Weight,
		MemoryID:  r.MemoryID,
		CreatedAt: r.CreatedAt,
	}
}

// InsertNode implements types.GraphStore. The node's embedding is stored
// alongside it in the vector store by the caller (the fact extractor),
// not here: GraphNodeRow has no vector column, matching the teacher's
// separation between its relational models and its embeddings package.
func (g *GraphStore) InsertNode(ctx context.Context, node *types.GraphNode) error {
	row := nodeToRow(node)
	return g.DB.WithContext(ctx).Create(&row).Error
}

// FindOrMergeNode implements types.GraphStore: an exact name+type match
// within scope is reused; otherwise a new node is inserted. Embedding
// similarity merge (for near-duplicate entity names) is intentionally
// not performed here — that judgment belongs to the fact extractor,
// which has the embedding and a similarity threshold; this adapter only
// guarantees the mechanical get-or-create.
func (g *GraphStore) FindOrMergeNode(ctx context.Context, scope types.Scope, name, entityType string, embedding []float32) (*types.GraphNode, error) {
	var row GraphNodeRow
	err := scoped(g.DB.WithContext(ctx), scope).
		Where("name = ? AND entity_type = ?", name, entityType).First(&row).Error
	if err == nil {
		return rowToNode(row, embedding), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	node := &types.GraphNode{
		Scope:      scope,
		Name:       name,
		EntityType: entityType,
		Embedding:  embedding,
	}
	if node.ID == "" {
		node.ID = newID()
	}
	if err := g.InsertNode(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// InsertEdge implements types.GraphStore.
func (g *GraphStore) InsertEdge(ctx context.Context, edge *types.GraphEdge) error {
	row := edgeToRow(edge)
	return g.DB.WithContext(ctx).Create(&row).Error
}

// IterateOutgoing implements types.GraphStore.
func (g *GraphStore) IterateOutgoing(ctx context.Context, scope types.Scope, nodeID string) ([]*types.GraphEdge, error) {
	var rows []GraphEdgeRow
	if err := scoped(g.DB.WithContext(ctx), scope).Where("source_id = ?", nodeID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToEdges(rows), nil
}

// IterateIncoming implements types.GraphStore.
func (g *GraphStore) IterateIncoming(ctx context.Context, scope types.Scope, nodeID string) ([]*types.GraphEdge, error) {
	var rows []GraphEdgeRow
	if err := scoped(g.DB.WithContext(ctx), scope).Where("target_id = ?", nodeID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToEdges(rows), nil
}

// DeleteByMemoryID implements types.GraphStore, removing every edge the
// ingestion gate attached to memoryID (e.g. on Supersede/delete). Nodes
// are left in place since other memories' edges may still reference
// them.
func (g *GraphStore) DeleteByMemoryID(ctx context.Context, scope types.Scope, memoryID string) error {
	return scoped(g.DB.WithContext(ctx), scope).Where("memory_id = ?", memoryID).Delete(&GraphEdgeRow{}).Error
}

// GetNode implements types.GraphStore.
func (g *GraphStore) GetNode(ctx context.Context, scope types.Scope, nodeID string) (*types.GraphNode, error) {
	var row GraphNodeRow
	err := scoped(g.DB.WithContext(ctx), scope).Where("id = ?", nodeID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rowToNode(row, nil), nil
}

func rowsToEdges(rows []GraphEdgeRow) []*types.GraphEdge {
	out := make([]*types.GraphEdge, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToEdge(r))
	}
	return out
}
