// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package graph implements the knowledge graph component (spec.md
// component G, §4.G): an LLM entity-extraction pass over accepted
// memories, find-or-merge node resolution, and edge insertion from
// extracted (subject, relation, object) triples plus memory→category
// attachment edges.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BangRocket/rook/internal/types"
	"github.com/google/uuid"
)

// Triple is one extracted (subject, relation, object) fact.
type Triple struct {
	Subject      string `json:"subject"`
	SubjectType  string `json:"subject_type"`
	Relation     string `json:"relation"`
	Object       string `json:"object"`
	ObjectType   string `json:"object_type"`
}

// extraction is the LLM's structured response contract.
type extraction struct {
	Triples []Triple `json:"triples"`
}

// KnowledgeGraph orchestrates entity extraction and graph maintenance on
// top of a GraphStore and Embedder. Node merge policy lives in the
// GraphStore adapter, which is the layer with query access to decide
// whether a matching node already exists. The bundled adapters merge only
// on an exact name and type match within the scope; names are not
// normalized and embedding similarity is not consulted.
type KnowledgeGraph struct {
	Store    types.GraphStore
	Embedder types.Embedder
	LLM      types.LanguageModel
}

// New builds a KnowledgeGraph.
func New(store types.GraphStore, embedder types.Embedder, llm types.LanguageModel) *KnowledgeGraph {
	return &KnowledgeGraph{Store: store, Embedder: embedder, LLM: llm}
}

// AttachMemory runs entity extraction over an accepted memory's content
// and materializes the resulting nodes and edges, plus a category
// attachment edge when the memory carries a non-empty category.
func (g *KnowledgeGraph) AttachMemory(ctx context.Context, m *types.Memory) error {
	if g.LLM == nil {
		return nil
	}

	triples, err := g.extractTriples(ctx, m.Content)
	if err != nil {
		return fmt.Errorf("entity extraction failed: %w", err)
	}

	for _, t := range triples {
		if err := g.attachTriple(ctx, m, t); err != nil {
			return err
		}
	}

	if m.Category != "" {
		if err := g.attachCategory(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

func (g *KnowledgeGraph) extractTriples(ctx context.Context, content string) ([]Triple, error) {
	prompt := fmt.Sprintf(`Extract entities and relationships from this text as (subject, relation, object) triples.
Text: %q
Respond with JSON: {"triples": [{"subject": "...", "subject_type": "...", "relation": "...", "object": "...", "object_type": "..."}]}
Return an empty array if no clear entities are present.`, content)

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"triples": map[string]any{"type": "array"},
		},
	}

	raw, err := g.LLM.Generate(ctx, prompt, schema)
	if err != nil {
		return nil, err
	}

	var parsed extraction
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		// Lenient: an unparseable extraction contributes nothing rather
		// than failing memory ingestion over a graph-enrichment error.
		return nil, nil
	}
	return parsed.Triples, nil
}

func (g *KnowledgeGraph) attachTriple(ctx context.Context, m *types.Memory, t Triple) error {
	subjEmb, objEmb := g.embedOrNil(ctx, t.Subject), g.embedOrNil(ctx, t.Object)

	subject, err := g.Store.FindOrMergeNode(ctx, m.Scope, t.Subject, t.SubjectType, subjEmb)
	if err != nil {
		return fmt.Errorf("resolve subject node %q: %w", t.Subject, err)
	}
	object, err := g.Store.FindOrMergeNode(ctx, m.Scope, t.Object, t.ObjectType, objEmb)
	if err != nil {
		return fmt.Errorf("resolve object node %q: %w", t.Object, err)
	}

	memoryID := m.ID
	edge := &types.GraphEdge{
		ID:        uuid.NewString(),
		Scope:     m.Scope,
		SourceID:  subject.ID,
		TargetID:  object.ID,
		Relation:  relationFromTriple(t.Relation),
		Weight:    1.0,
		MemoryID:  &memoryID,
		CreatedAt: time.Now(),
	}
	return g.Store.InsertEdge(ctx, edge)
}

func (g *KnowledgeGraph) attachCategory(ctx context.Context, m *types.Memory) error {
	catNode, err := g.Store.FindOrMergeNode(ctx, m.Scope, m.Category, "category", nil)
	if err != nil {
		return fmt.Errorf("resolve category node %q: %w", m.Category, err)
	}
	memoryID := m.ID
	edge := &types.GraphEdge{
		ID:        uuid.NewString(),
		Scope:     m.Scope,
		SourceID:  memoryID,
		TargetID:  catNode.ID,
		Relation:  types.RelationRelatedTo,
		Weight:    1.0,
		MemoryID:  &memoryID,
		CreatedAt: time.Now(),
	}
	return g.Store.InsertEdge(ctx, edge)
}

func (g *KnowledgeGraph) embedOrNil(ctx context.Context, text string) []float32 {
	if g.Embedder == nil || text == "" {
		return nil
	}
	vec, err := g.Embedder.Embed(ctx, text, types.EmbedForAdd)
	if err != nil {
		return nil
	}
	return vec
}

func relationFromTriple(raw string) types.RelationType {
	rt := types.RelationType(raw)
	if types.IsValidRelationType(rt) {
		return rt
	}
	return types.RelationRelatedTo
}

// DeleteMemory cascades the deletion of a superseded or archived memory's
// graph edges, leaving shared entity nodes in place for other memories'
// edges to reference.
func (g *KnowledgeGraph) DeleteMemory(ctx context.Context, scope types.Scope, memoryID string) error {
	return g.Store.DeleteByMemoryID(ctx, scope, memoryID)
}
