// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package types

import "context"

// LanguageModel is the capability interface the fact extractor,
// contradiction detector's layer 4, ingestion gate's Update-content-merge,
// and knowledge-graph entity extraction call through. Every method takes
// context.Context first since it is a suspension point (§5).
type LanguageModel interface {
	// Generate produces a single completion for prompt under a JSON
	// response contract; schema, when non-nil, is a JSON Schema the
	// caller expects the response to validate against.
	Generate(ctx context.Context, prompt string, schema map[string]any) (string, error)
	ModelName() string
}

// EmbeddingAction hints to the embedder why a vector is being requested,
// letting providers with asymmetric query/document embeddings (a common
// production optimization) choose the right encoder.
type EmbeddingAction string

const (
	EmbedForAdd    EmbeddingAction = "add"
	EmbedForSearch EmbeddingAction = "search"
	EmbedForUpdate EmbeddingAction = "update"
)

// Embedder is the capability interface backing similarity comparisons
// throughout ingestion, contradiction detection, and retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string, action EmbeddingAction) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, action EmbeddingAction) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// VectorSearchResult is one hit from VectorStore.Search.
type VectorSearchResult struct {
	ID       string
	Score    float64
	Payload  map[string]any
	MemoryID string
}

// VectorStore is the capability interface for nearest-neighbor lookup over
// memory embeddings. The default adapter (internal/store) backs it with
// sqlite-vec when available and a brute-force cosine fallback otherwise,
// matching the reference implementation's own fallback behavior.
type VectorStore interface {
	Upsert(ctx context.Context, scope Scope, id string, vector []float32, payload map[string]any) error
	Search(ctx context.Context, scope Scope, vector []float32, limit int, filter Filter) ([]VectorSearchResult, error)
	Delete(ctx context.Context, scope Scope, id string) error
	Get(ctx context.Context, scope Scope, id string) (*VectorSearchResult, error)
}

// GraphStore is the capability interface backing the knowledge graph
// (component G) and the store spreading activation (component H) reads
// from.
type GraphStore interface {
	InsertNode(ctx context.Context, node *GraphNode) error
	FindOrMergeNode(ctx context.Context, scope Scope, name, entityType string, embedding []float32) (*GraphNode, error)
	InsertEdge(ctx context.Context, edge *GraphEdge) error
	IterateOutgoing(ctx context.Context, scope Scope, nodeID string) ([]*GraphEdge, error)
	IterateIncoming(ctx context.Context, scope Scope, nodeID string) ([]*GraphEdge, error)
	DeleteByMemoryID(ctx context.Context, scope Scope, memoryID string) error
	GetNode(ctx context.Context, scope Scope, nodeID string) (*GraphNode, error)
}

// Reranker is the capability interface for the hybrid retriever's optional
// rerank stage (§4.I stage 8).
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []string, limit int) ([]int, error)
	ModelName() string
}

// FullTextIndex is the capability interface backing the retriever's
// keyword/BM25 mode.
type FullTextIndex interface {
	Index(ctx context.Context, scope Scope, id, content string) error
	Search(ctx context.Context, scope Scope, query string, limit int) ([]VectorSearchResult, error)
	Delete(ctx context.Context, scope Scope, id string) error
}

// HistoryStore is the capability interface backing VersionRecord
// persistence, independent of the primary Memory store so a caller can
// keep bounded-size operational storage separate from an unbounded audit
// log.
type HistoryStore interface {
	Append(ctx context.Context, record *VersionRecord) error
	List(ctx context.Context, memoryID string) ([]*VersionRecord, error)
}
