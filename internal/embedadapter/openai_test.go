// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package embedadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BangRocket/rook/internal/types"
)

func TestEmbedBatchReturnsVectorsInRequestOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{0.4, 0.5}},
				{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2}},
			},
			"model": "text-embedding-3-small",
		})
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "text-embedding-3-small", 2)
	vectors, err := client.EmbedBatch(context.Background(), []string{"a", "b"}, types.EmbedForAdd)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.4, 0.5}, vectors[1])
}

func TestEmbedSingleTextReturnsFirstVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{1, 2, 3}}},
		})
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "text-embedding-3-small", 3)
	vector, err := client.Embed(context.Background(), "hello", types.EmbedForSearch)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vector)
}

func TestEmbedBatchReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "text-embedding-3-small", 0)
	_, err := client.EmbedBatch(context.Background(), []string{"a"}, types.EmbedForAdd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestEmbedBatchEmptyInputShortCircuits(t *testing.T) {
	client := New("http://unreachable.invalid", "test-key", "text-embedding-3-small", 0)
	vectors, err := client.EmbedBatch(context.Background(), nil, types.EmbedForAdd)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestDimensionAndModelName(t *testing.T) {
	client := New("http://localhost", "key", "text-embedding-3-small", 1536)
	assert.Equal(t, 1536, client.Dimension())
	assert.Equal(t, "text-embedding-3-small", client.ModelName())
}
