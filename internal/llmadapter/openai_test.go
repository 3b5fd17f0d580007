// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package llmadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReturnsMessageContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "extract facts", body.Messages[0].Content)
		assert.Nil(t, body.ResponseFormat)

		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: `{"facts":[]}`}}},
		})
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "gpt-4o-mini")
	out, err := client.Generate(context.Background(), "extract facts", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"facts":[]}`, out)
}

func TestGenerateSendsStrictJSONSchemaWhenProvided(t *testing.T) {
	schema := map[string]any{"type": "object"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotNil(t, body.ResponseFormat)
		assert.Equal(t, "json_schema", body.ResponseFormat.Type)
		assert.True(t, body.ResponseFormat.JSONSchema.Strict)

		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Content: "{}"}}},
		})
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "gpt-4o-mini")
	_, err := client.Generate(context.Background(), "prompt", schema)
	require.NoError(t, err)
}

func TestGenerateReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "overloaded"},
		})
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "gpt-4o-mini")
	_, err := client.Generate(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestGenerateReturnsErrorOnNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "gpt-4o-mini")
	_, err := client.Generate(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestModelName(t *testing.T) {
	client := New("http://localhost", "key", "gpt-4o-mini")
	assert.Equal(t, "gpt-4o-mini", client.ModelName())
}
