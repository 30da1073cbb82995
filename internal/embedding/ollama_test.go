// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

func newOllamaServer(t *testing.T, installed ...string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			models := make([]map[string]string, len(installed))
			for i, name := range installed {
				models[i] = map[string]string{"name": name}
			}
			json.NewEncoder(w).Encode(map[string]any{"models": models})
		case "/api/embeddings":
			var req ollamaEmbedRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if req.Model != "all-minilm" {
				http.Error(w, fmt.Sprintf(`{"error":"model %q not found"}`, req.Model), http.StatusNotFound)
				return
			}
			if req.Prompt == "odd" {
				fmt.Fprint(w, `{"embedding":[1,2]}`)
				return
			}
			// A three-dimensional vector derived from the prompt length.
			n := float32(len(req.Prompt))
			json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{n, 1, 0}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestOllamaEngine_Embed(t *testing.T) {
	ts := newOllamaServer(t, "all-minilm:latest")
	e := NewOllamaEngine(types.EmbeddingConfig{Endpoint: ts.URL + "/", Model: "all-minilm"})

	assert.Equal(t, 0, e.Dimensions())
	v, err := e.Embed(context.Background(), "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 1, 0}, v)
	assert.Equal(t, 3, e.Dimensions())
	assert.Equal(t, "ollama:all-minilm", e.Name())

	_, err = e.Embed(context.Background(), "odd")
	assert.ErrorContains(t, err, "expected 3")
}

func TestOllamaEngine_EmbedBatch(t *testing.T) {
	ts := newOllamaServer(t)
	e := NewOllamaEngine(types.EmbeddingConfig{Endpoint: ts.URL})

	vs, err := e.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vs, 3)
	assert.Equal(t, float32(2), vs[1][0])
}

func TestOllamaEngine_MissingModel(t *testing.T) {
	ts := newOllamaServer(t, "llama3:8b")
	e := NewOllamaEngine(types.EmbeddingConfig{Endpoint: ts.URL, Model: "nomic-embed-text"})

	err := e.HealthCheck(context.Background())
	assert.ErrorIs(t, err, ErrModelMissing)

	_, err = e.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, ErrModelMissing)
}

func TestOllamaEngine_HealthCheck(t *testing.T) {
	ts := newOllamaServer(t, "all-minilm:latest")
	e := NewOllamaEngine(types.EmbeddingConfig{Endpoint: ts.URL, Model: "all-minilm"})
	assert.NoError(t, e.HealthCheck(context.Background()))

	down := NewOllamaEngine(types.EmbeddingConfig{Endpoint: "http://127.0.0.1:1"})
	err := down.HealthCheck(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrModelMissing)
}

func TestHasModel(t *testing.T) {
	installed := []string{"all-minilm:latest", "olmo2:7b-instruct-q4_K_M"}
	assert.True(t, HasModel(installed, "all-minilm"))
	assert.True(t, HasModel(installed, "all-minilm:latest"))
	assert.True(t, HasModel(installed, "olmo2:7b-instruct-q4_K_M"))
	assert.False(t, HasModel(installed, "olmo2:13b"))
	assert.False(t, HasModel(installed, "all"))
	assert.False(t, HasModel(nil, "all-minilm"))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 1}, []float32{-1, -1}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity(nil, nil))
}
