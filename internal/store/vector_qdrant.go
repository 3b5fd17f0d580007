// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/BangRocket/rook/internal/types"
)

// QdrantConfig configures the production-scale VectorStore alternative
// to the embedded sqlite-vec/brute-force default.
type QdrantConfig struct {
	Host           string
	Port           int
	APIKey         string
	CollectionName string
	Dimensions     uint64
}

// QdrantVectorStore implements types.VectorStore against a Qdrant
// collection, one collection per Rook deployment with scope encoded as
// point payload fields filtered on at query time.
type QdrantVectorStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantVectorStore connects to Qdrant and ensures the collection
// exists, creating it with cosine distance if it doesn't.
func NewQdrantVectorStore(ctx context.Context, cfg QdrantConfig) (*QdrantVectorStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	exists, err := client.CollectionExists(ctx, cfg.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("checking qdrant collection: %w", err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: cfg.CollectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     cfg.Dimensions,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("creating qdrant collection: %w", err)
		}
	}

	return &QdrantVectorStore{client: client, collection: cfg.CollectionName}, nil
}

// Upsert implements types.VectorStore.
func (q *QdrantVectorStore) Upsert(ctx context.Context, scope types.Scope, id string, vector []float32, payload map[string]any) error {
	fields := qdrantPayload(scope, payload)
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: fields,
			},
		},
	})
	return err
}

// Search implements types.VectorStore. filter is ignored beyond the
// mandatory scope partition: translating the Filter DSL into Qdrant's
// payload filter grammar is left to a dedicated translator when a
// deployment actually needs it (see DESIGN.md).
func (q *QdrantVectorStore) Search(ctx context.Context, scope types.Scope, vector []float32, limit int, filter types.Filter) ([]types.VectorSearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	lim := uint64(limit)

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         qdrantScopeFilter(scope),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	results := make([]types.VectorSearchResult, 0, len(points))
	for _, p := range points {
		payload := qdrantValueMapToGo(p.GetPayload())
		memoryID, _ := payload["memory_id"].(string)
		results = append(results, types.VectorSearchResult{
			ID:       p.GetId().GetUuid(),
			Score:    float64(p.GetScore()),
			Payload:  payload,
			MemoryID: memoryID,
		})
	}
	return results, nil
}

// Delete implements types.VectorStore.
func (q *QdrantVectorStore) Delete(ctx context.Context, scope types.Scope, id string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id)),
	})
	return err
}

// Get implements types.VectorStore.
func (q *QdrantVectorStore) Get(ctx context.Context, scope types.Scope, id string) (*types.VectorSearchResult, error) {
	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	payload := qdrantValueMapToGo(points[0].GetPayload())
	memoryID, _ := payload["memory_id"].(string)
	return &types.VectorSearchResult{ID: id, Payload: payload, MemoryID: memoryID}, nil
}

func qdrantPayload(scope types.Scope, payload map[string]any) map[string]*qdrant.Value {
	fields := make(map[string]*qdrant.Value, len(payload)+3)
	fields["tenant_id"] = qdrant.NewValueString(scope.TenantID)
	fields["agent_id"] = qdrant.NewValueString(scope.AgentID)
	fields["user_id"] = qdrant.NewValueString(scope.UserID)
	for k, v := range payload {
		if s, ok := v.(string); ok {
			fields[k] = qdrant.NewValueString(s)
		}
	}
	return fields
}

func qdrantScopeFilter(scope types.Scope) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("tenant_id", scope.TenantID),
			qdrant.NewMatch("agent_id", scope.AgentID),
			qdrant.NewMatch("user_id", scope.UserID),
		},
	}
}

func qdrantValueMapToGo(m map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.GetStringValue()
	}
	return out
}
