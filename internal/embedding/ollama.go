// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

const (
	defaultEndpoint = "http://localhost:11434"
	defaultModel    = "all-minilm"
)

// OllamaEngine generates embeddings with a local Ollama server.
type OllamaEngine struct {
	endpoint string
	model    string
	client   *http.Client

	mu   sync.Mutex
	dims int
}

// NewOllamaEngine creates an engine for cfg. Empty fields take the
// defaults.
func NewOllamaEngine(cfg types.EmbeddingConfig) *OllamaEngine {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &OllamaEngine{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates the embedding of text. The first successful call fixes
// Dimensions; a later vector of a different length is an error.
func (e *OllamaEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s (%s)", ErrModelMissing, e.model, strings.TrimSpace(string(msg)))
		}
		return nil, fmt.Errorf("ollama returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding for model %s", e.model)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dims == 0 {
		e.dims = len(out.Embedding)
	} else if e.dims != len(out.Embedding) {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(out.Embedding), e.dims)
	}
	return out.Embedding, nil
}

// EmbedBatch embeds texts sequentially; Ollama has no batch endpoint.
func (e *OllamaEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

// Dimensions returns the vector length seen so far, or 0 before the first
// embedding.
func (e *OllamaEngine) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dims
}

// Name returns "ollama:<model>".
func (e *OllamaEngine) Name() string {
	return "ollama:" + e.model
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// HealthCheck verifies that the server is reachable and has the model
// installed. A missing model yields ErrModelMissing.
func (e *OllamaEngine) HealthCheck(ctx context.Context) error {
	installed, err := ListModels(ctx, e.client, e.endpoint)
	if err != nil {
		return err
	}
	if !HasModel(installed, e.model) {
		return fmt.Errorf("%w: %s (pull it with `ollama pull %s`)", ErrModelMissing, e.model, e.model)
	}
	return nil
}

// ListModels returns the names of the models installed on an Ollama
// server.
func ListModels(ctx context.Context, client *http.Client, endpoint string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(endpoint, "/")+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama unreachable at %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned HTTP %d listing models", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}
	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

// HasModel reports whether model is among installed. A model without a
// tag matches any tag of the same name.
func HasModel(installed []string, model string) bool {
	for _, name := range installed {
		if name == model {
			return true
		}
		if !strings.Contains(model, ":") && strings.HasPrefix(name, model+":") {
			return true
		}
	}
	return false
}
