// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package store implements the default GORM-backed adapters for every
// capability interface in internal/types plus the narrow store
// interfaces internal/consolidation and internal/intentions declare:
// a relational memory/graph/history store, a vector store that prefers
// sqlite-vec or Qdrant when available and falls back to an in-memory
// brute-force cosine scan otherwise, and a LIKE-based full-text index.
package store

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// MemoryRow is the GORM row backing types.Memory.
type MemoryRow struct {
	ID       string `gorm:"primaryKey"`
	TenantID string `gorm:"index:idx_memory_scope"`
	AgentID  string `gorm:"index:idx_memory_scope"`
	UserID   string `gorm:"index:idx_memory_scope"`
	Content  string `gorm:"type:text;not null"`
	Category string `gorm:"index"`

	Stability         float64
	Difficulty        float64
	RetrievalStrength float64
	StorageStrength   float64

	IsKey bool `gorm:"index"`

	Version      int
	SupersededBy *string `gorm:"index"`

	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
	LastReviewedAt time.Time
	ArchivedAt     *time.Time `gorm:"index"`
	AccessedAt     *time.Time
	AccessCount    int

	TagsJSON     string `gorm:"column:tags;type:text"`
	MetadataJSON string `gorm:"column:metadata;type:text"`
}

// TableName names the memories table.
func (MemoryRow) TableName() string { return "rook_memories" }

// GraphNodeRow is the GORM row backing types.GraphNode.
type GraphNodeRow struct {
	ID         string `gorm:"primaryKey"`
	TenantID   string `gorm:"index:idx_node_scope"`
	AgentID    string `gorm:"index:idx_node_scope"`
	UserID     string `gorm:"index:idx_node_scope"`
	Name       string `gorm:"index"`
	EntityType string `gorm:"index"`

	PropertiesJSON string `gorm:"column:properties;type:text"`
	CreatedAt      time.Time
}

// TableName names the graph nodes table.
func (GraphNodeRow) TableName() string { return "rook_graph_nodes" }

// GraphEdgeRow is the GORM row backing types.GraphEdge.
type GraphEdgeRow struct {
	ID       string `gorm:"primaryKey"`
	TenantID string `gorm:"index:idx_edge_scope"`
	AgentID  string `gorm:"index:idx_edge_scope"`
	UserID   string `gorm:"index:idx_edge_scope"`
	SourceID string `gorm:"index"`
	TargetID string `gorm:"index"`
	Relation string
	Weight   float64
	MemoryID *string `gorm:"index"`

	CreatedAt time.Time
}

// TableName names the graph edges table.
func (GraphEdgeRow) TableName() string { return "rook_graph_edges" }

// VersionRow is the GORM row backing types.VersionRecord.
type VersionRow struct {
	ID        string `gorm:"primaryKey"`
	MemoryID  string `gorm:"index"`
	Version   int
	Content   string `gorm:"type:text"`
	Kind      string
	ChangedAt time.Time `gorm:"index"`
	Note      string
}

// TableName names the version history table.
func (VersionRow) TableName() string { return "rook_versions" }

// EmbeddingRow stores a memory's embedding vector alongside its payload,
// mirroring the teacher's Embedding metadata table (internal/embeddings/models.go).
type EmbeddingRow struct {
	ID       string `gorm:"primaryKey"`
	TenantID string `gorm:"index:idx_embedding_scope"`
	AgentID  string `gorm:"index:idx_embedding_scope"`
	UserID   string `gorm:"index:idx_embedding_scope"`
	MemoryID string `gorm:"index"`
	Vector   []byte `gorm:"type:blob;not null"`

	PayloadJSON string    `gorm:"column:payload;type:text"`
	CreatedAt   time.Time
}

// TableName names the vector fallback table.
func (EmbeddingRow) TableName() string { return "rook_embeddings" }

// FullTextRow backs the LIKE-based FullTextIndex adapter.
type FullTextRow struct {
	ID       string `gorm:"primaryKey"`
	TenantID string `gorm:"index:idx_fulltext_scope"`
	AgentID  string `gorm:"index:idx_fulltext_scope"`
	UserID   string `gorm:"index:idx_fulltext_scope"`
	Content  string `gorm:"type:text"`
}

// TableName names the full-text table.
func (FullTextRow) TableName() string { return "rook_fulltext" }

// SynapticTagRow backs internal/consolidation.TagStore.
type SynapticTagRow struct {
	MemoryID        string `gorm:"primaryKey"`
	TenantID        string `gorm:"index:idx_tag_scope"`
	AgentID         string `gorm:"index:idx_tag_scope"`
	UserID          string `gorm:"index:idx_tag_scope"`
	InitialStrength float64
	TauSeconds      float64
	TaggedAt        time.Time
	PRPAvailable    bool
	PRPAvailableAt  *time.Time
}

// TableName names the synaptic tags table.
func (SynapticTagRow) TableName() string { return "rook_synaptic_tags" }

// IntentionRow backs internal/intentions.IntentionStore/TimeStore.
// Trigger and Action are polymorphic (types.TriggerCondition/IntentionAction)
// so they're stored as a discriminator plus a JSON payload.
type IntentionRow struct {
	ID       string `gorm:"primaryKey"`
	TenantID string `gorm:"index:idx_intention_scope"`
	AgentID  string `gorm:"index:idx_intention_scope"`
	UserID   string `gorm:"index:idx_intention_scope"`
	Name     string
	MemoryID *string

	TriggerKind string `gorm:"index"`
	TriggerJSON string `gorm:"type:text"`
	ActionKind  string
	ActionJSON  string `gorm:"type:text"`

	ExpiresAt *time.Time
	Active    bool `gorm:"index"`

	CreatedAt   time.Time
	LastFiredAt *time.Time
	FireCount   int
	MaxFires    *int

	MetadataJSON string `gorm:"column:metadata;type:text"`
}

// TableName names the intentions table.
func (IntentionRow) TableName() string { return "rook_intentions" }

// FiredIntentionRow is the audit record backing IntentionStore.RecordFired.
type FiredIntentionRow struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	IntentionID string `gorm:"index"`
	FiredAt     time.Time
	ReasonJSON  string `gorm:"column:reason;type:text"`
	ResultJSON  string `gorm:"column:result;type:text"`
}

// TableName names the fired-intentions audit table.
func (FiredIntentionRow) TableName() string { return "rook_fired_intentions" }

// AllModels lists every row type for AutoMigrate, grounded on the
// teacher's database.AllModels.
func AllModels() []any {
	return []any{
		&MemoryRow{},
		&GraphNodeRow{},
		&GraphEdgeRow{},
		&VersionRow{},
		&EmbeddingRow{},
		&FullTextRow{},
		&SynapticTagRow{},
		&IntentionRow{},
		&FiredIntentionRow{},
	}
}

// Migrate runs AutoMigrate for every row type.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}

func marshalJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func unmarshalJSON[T any](s string) T {
	var v T
	if s == "" {
		return v
	}
	_ = json.Unmarshal([]byte(s), &v)
	return v
}
