// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chat answers questions with a local language model, optionally
// grounding the prompt in chunks retrieved from the index.
package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/a3d3-chat/internal/embedding"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// Token is one streamed piece of generated text. A Token with a non-nil
// Err is the last value sent on its channel.
type Token struct {
	Text string
	Err  error
}

// Generator produces a completion for a prompt as a stream of tokens. The
// channel is closed when generation ends.
type Generator interface {
	Generate(ctx context.Context, prompt string) (<-chan Token, error)
}

// OllamaGenerator streams completions from a local Ollama server.
type OllamaGenerator struct {
	endpoint string
	model    string
	options  ollamaOptions
	client   *http.Client
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// NewOllamaGenerator creates a generator for cfg. Requests carry no
// client timeout; generation is bounded by the caller's context.
func NewOllamaGenerator(cfg types.ChatConfig) *OllamaGenerator {
	defaults := types.DefaultPipelineConfig().Chat
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaults.Endpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaults.Model
	}
	return &OllamaGenerator{
		endpoint: endpoint,
		model:    model,
		options: ollamaOptions{
			Temperature: cfg.Temperature,
			NumCtx:      cfg.ContextSize,
			NumPredict:  cfg.MaxTokens,
		},
		client: &http.Client{},
	}
}

// Model returns the generation model name.
func (g *OllamaGenerator) Model() string { return g.model }

// HealthCheck verifies that the server is reachable and has the model
// installed.
func (g *OllamaGenerator) HealthCheck(ctx context.Context) error {
	installed, err := embedding.ListModels(ctx, g.client, g.endpoint)
	if err != nil {
		return err
	}
	if !embedding.HasModel(installed, g.model) {
		return fmt.Errorf("%w: %s (pull it with `ollama pull %s`)", embedding.ErrModelMissing, g.model, g.model)
	}
	return nil
}

// Generate posts prompt to /api/generate and streams the newline-delimited
// JSON response. Errors before the first byte are returned directly;
// later errors arrive as the final Token.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (<-chan Token, error) {
	body, err := json.Marshal(generateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  true,
		Options: g.options,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s (%s)", embedding.ErrModelMissing, g.model, strings.TrimSpace(string(msg)))
		}
		return nil, fmt.Errorf("ollama returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	tokens := make(chan Token)
	go func() {
		defer close(tokens)
		defer resp.Body.Close()
		send := func(t Token) bool {
			select {
			case tokens <- t:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk generateResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				send(Token{Err: fmt.Errorf("decoding stream: %w", err)})
				return
			}
			if chunk.Error != "" {
				send(Token{Err: fmt.Errorf("ollama: %s", chunk.Error)})
				return
			}
			if chunk.Response != "" && !send(Token{Text: chunk.Response}) {
				return
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			send(Token{Err: fmt.Errorf("reading stream: %w", err)})
			return
		}
		send(Token{Err: fmt.Errorf("stream ended before completion")})
	}()
	return tokens, nil
}
