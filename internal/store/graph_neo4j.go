// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/BangRocket/rook/internal/types"
)

// Neo4jGraphStore implements types.GraphStore against a real graph
// database, a production-scale alternative to GraphStore's relational
// adjacency-list table for deployments whose knowledge graph has outgrown
// what a SQL join can traverse efficiently. Nodes carry a :Entity label
// plus scope/name/entity_type properties; edges are generic
// :RELATES_TO relationships carrying the relation/weight/memory_id the
// relational adapter stores as columns.
type Neo4jGraphStore struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jGraphStore opens a driver against uri and verifies connectivity.
func NewNeo4jGraphStore(ctx context.Context, uri, username, password string) (*Neo4jGraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}
	return &Neo4jGraphStore{driver: driver}, nil
}

// Close releases the driver's connection pool.
func (g *Neo4jGraphStore) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

func (g *Neo4jGraphStore) session(ctx context.Context) neo4j.SessionWithContext {
	return g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
}

// InsertNode implements types.GraphStore.
func (g *Neo4jGraphStore) InsertNode(ctx context.Context, node *types.GraphNode) error {
	session := g.session(ctx)
	defer session.Close(ctx)

	if node.ID == "" {
		node.ID = newID()
	}
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			CREATE (n:Entity {id: $id, tenant_id: $tenant_id, agent_id: $agent_id, user_id: $user_id,
				name: $name, entity_type: $entity_type, created_at: $created_at})
		`, map[string]any{
			"id": node.ID, "tenant_id": node.Scope.TenantID, "agent_id": node.Scope.AgentID,
			"user_id": node.Scope.UserID, "name": node.Name, "entity_type": node.EntityType,
			"created_at": node.CreatedAt.Unix(),
		})
	})
	return err
}

// FindOrMergeNode implements types.GraphStore using Cypher's native
// MERGE, the same get-or-create guarantee the relational adapter builds
// out of a SELECT-then-INSERT.
func (g *Neo4jGraphStore) FindOrMergeNode(ctx context.Context, scope types.Scope, name, entityType string, embedding []float32) (*types.GraphNode, error) {
	session := g.session(ctx)
	defer session.Close(ctx)

	id := newID()
	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MERGE (n:Entity {tenant_id: $tenant_id, agent_id: $agent_id, user_id: $user_id,
				name: $name, entity_type: $entity_type})
			ON CREATE SET n.id = $id, n.created_at = $created_at
			RETURN n.id AS id, n.created_at AS created_at
		`, map[string]any{
			"tenant_id": scope.TenantID, "agent_id": scope.AgentID, "user_id": scope.UserID,
			"name": name, "entity_type": entityType, "id": id, "created_at": time.Now().Unix(),
		})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return record.AsMap(), nil
	})
	if err != nil {
		return nil, err
	}

	row := result.(map[string]any)
	nodeID, _ := row["id"].(string)
	return &types.GraphNode{
		ID:         nodeID,
		Scope:      scope,
		Name:       name,
		EntityType: entityType,
		Embedding:  embedding,
	}, nil
}

// InsertEdge implements types.GraphStore.
func (g *Neo4jGraphStore) InsertEdge(ctx context.Context, edge *types.GraphEdge) error {
	session := g.session(ctx)
	defer session.Close(ctx)

	if edge.ID == "" {
		edge.ID = newID()
	}
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (source:Entity {id: $source_id}), (target:Entity {id: $target_id})
			CREATE (source)-[r:RELATES_TO {id: $id, tenant_id: $tenant_id, agent_id: $agent_id,
				user_id: $user_id, relation: $relation, weight: $weight, memory_id: $memory_id,
				created_at: $created_at}]->(target)
		`, map[string]any{
			"source_id": edge.SourceID, "target_id": edge.TargetID, "id": edge.ID,
			"tenant_id": edge.Scope.TenantID, "agent_id": edge.Scope.AgentID, "user_id": edge.Scope.UserID,
			"relation": string(edge.Relation), "weight": edge.Weight, "memory_id": edge.MemoryID,
			"created_at": edge.CreatedAt.Unix(),
		})
	})
	return err
}

// IterateOutgoing implements types.GraphStore.
func (g *Neo4jGraphStore) IterateOutgoing(ctx context.Context, scope types.Scope, nodeID string) ([]*types.GraphEdge, error) {
	return g.queryEdges(ctx, scope, `
		MATCH (:Entity {id: $node_id})-[r:RELATES_TO]->(:Entity)
		WHERE r.tenant_id = $tenant_id AND r.agent_id = $agent_id AND r.user_id = $user_id
		RETURN r
	`, nodeID)
}

// IterateIncoming implements types.GraphStore.
func (g *Neo4jGraphStore) IterateIncoming(ctx context.Context, scope types.Scope, nodeID string) ([]*types.GraphEdge, error) {
	return g.queryEdges(ctx, scope, `
		MATCH (:Entity)-[r:RELATES_TO]->(:Entity {id: $node_id})
		WHERE r.tenant_id = $tenant_id AND r.agent_id = $agent_id AND r.user_id = $user_id
		RETURN r
	`, nodeID)
}

func (g *Neo4jGraphStore) queryEdges(ctx context.Context, scope types.Scope, cypher, nodeID string) ([]*types.GraphEdge, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{
			"node_id": nodeID, "tenant_id": scope.TenantID, "agent_id": scope.AgentID, "user_id": scope.UserID,
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		edges := make([]*types.GraphEdge, 0, len(records))
		for _, rec := range records {
			rel, ok := rec.Get("r")
			if !ok {
				continue
			}
			edges = append(edges, relationshipToEdge(rel.(neo4j.Relationship)))
		}
		return edges, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*types.GraphEdge), nil
}

func relationshipToEdge(rel neo4j.Relationship) *types.GraphEdge {
	props := rel.Props
	id, _ := props["id"].(string)
	relation, _ := props["relation"].(string)
	weight, _ := props["weight"].(float64)
	var memoryID *string
	if v, ok := props["memory_id"].(string); ok && v != "" {
		memoryID = &v
	}
	return &types.GraphEdge{
		ID:       id,
		Relation: types.RelationType(relation),
		Weight:   weight,
		MemoryID: memoryID,
	}
}

// DeleteByMemoryID implements types.GraphStore.
func (g *Neo4jGraphStore) DeleteByMemoryID(ctx context.Context, scope types.Scope, memoryID string) error {
	session := g.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH ()-[r:RELATES_TO {memory_id: $memory_id}]->()
			WHERE r.tenant_id = $tenant_id AND r.agent_id = $agent_id AND r.user_id = $user_id
			DELETE r
		`, map[string]any{
			"memory_id": memoryID, "tenant_id": scope.TenantID, "agent_id": scope.AgentID, "user_id": scope.UserID,
		})
	})
	return err
}

// GetNode implements types.GraphStore.
func (g *Neo4jGraphStore) GetNode(ctx context.Context, scope types.Scope, nodeID string) (*types.GraphNode, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n:Entity {id: $id})
			WHERE n.tenant_id = $tenant_id AND n.agent_id = $agent_id AND n.user_id = $user_id
			RETURN n.name AS name, n.entity_type AS entity_type
		`, map[string]any{
			"id": nodeID, "tenant_id": scope.TenantID, "agent_id": scope.AgentID, "user_id": scope.UserID,
		})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, nil
		}
		return record.AsMap(), nil
	})
	if err != nil || result == nil {
		return nil, nil
	}

	row := result.(map[string]any)
	name, _ := row["name"].(string)
	entityType, _ := row["entity_type"].(string)
	return &types.GraphNode{ID: nodeID, Scope: scope, Name: name, EntityType: entityType}, nil
}
