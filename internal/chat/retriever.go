// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/a3d3-chat/internal/embedding"
	"github.com/pdiddy/a3d3-chat/internal/index"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// Retriever finds the chunks most useful for answering a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]types.RetrievedChunk, error)
}

// IndexRetriever embeds the question and selects chunks from the index by
// maximal marginal relevance. If the embedding server fails it falls back
// to a keyword query.
type IndexRetriever struct {
	Store  *index.Store
	Engine embedding.Engine
	K      int
	FetchK int
	Lambda float64
	Logger *zap.Logger
}

// NewIndexRetriever creates a retriever with the search settings of cfg.
func NewIndexRetriever(store *index.Store, engine embedding.Engine, cfg types.ChatConfig, logger *zap.Logger) *IndexRetriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexRetriever{
		Store:  store,
		Engine: engine,
		K:      cfg.TopK,
		FetchK: cfg.FetchK,
		Lambda: cfg.MMRLambda,
		Logger: logger,
	}
}

// Retrieve returns up to K chunks for question.
func (r *IndexRetriever) Retrieve(ctx context.Context, question string) ([]types.RetrievedChunk, error) {
	vector, err := r.Engine.Embed(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("embedding question: %w", err)
		}
		r.Logger.Warn("embedding failed, falling back to keyword search", zap.Error(err))
		return r.Store.Keyword(ctx, question, r.K)
	}
	return r.Store.SearchMMR(ctx, vector, r.K, r.FetchK, r.Lambda)
}
