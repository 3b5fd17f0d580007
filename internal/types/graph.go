// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package types

import "time"

// GraphNode is an entity extracted from accepted memories: a person,
// project, place, or other named thing the fact extractor identified.
type GraphNode struct {
	ID         string         `json:"id"`
	Scope      Scope          `json:"scope"`
	Name       string         `json:"name"`
	EntityType string         `json:"entity_type"`
	Embedding  []float32      `json:"-"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// RelationType names the kind of directed relationship an edge carries,
// either a memory-to-memory link the ingestion gate produced or an
// entity-to-entity triple the fact extractor produced.
type RelationType string

const (
	RelationContradicts RelationType = "contradicts"
	RelationSupersedes  RelationType = "supersedes"
	RelationElaborates  RelationType = "elaborates"
	RelationRelatedTo   RelationType = "related_to"
)

// ValidRelationTypes returns every built-in relation type. Entity-triple
// relations extracted by the LLM fall back to RelationRelatedTo when they
// don't match one of these.
func ValidRelationTypes() []RelationType {
	return []RelationType{RelationContradicts, RelationSupersedes, RelationElaborates, RelationRelatedTo}
}

// IsValidRelationType reports whether rt is one of ValidRelationTypes.
func IsValidRelationType(rt RelationType) bool {
	for _, valid := range ValidRelationTypes() {
		if rt == valid {
			return true
		}
	}
	return false
}

// GraphEdge is a directed, weighted edge between two GraphNodes, or between
// a GraphNode and the Memory it was attached to (MemoryID set).
type GraphEdge struct {
	ID       string       `json:"id"`
	Scope    Scope        `json:"scope"`
	SourceID string       `json:"source_id"`
	TargetID string       `json:"target_id"`
	Relation RelationType `json:"relation"`
	Weight   float64      `json:"weight"`
	MemoryID *string      `json:"memory_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
