// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pdiddy/a3d3-chat/internal/chunk"
	"github.com/pdiddy/a3d3-chat/internal/clean"
	"github.com/pdiddy/a3d3-chat/internal/embedding"
	"github.com/pdiddy/a3d3-chat/internal/loader"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// ErrNoDocuments is returned by Build when neither directory yields text.
var ErrNoDocuments = errors.New("no documents to index")

// BuildResult holds counts from an index build.
type BuildResult struct {
	Files     loader.BatchResult
	Documents int
	Chunks    int
	Dims      int
}

// Build loads the PDFs and HTML pages named by cfg, cleans and chunks
// them, and rebuilds the collection with engine. It then writes
// export.yaml next to the database.
func Build(ctx context.Context, cfg types.IndexConfig, engine embedding.Engine, logger *zap.Logger, w io.Writer) (BuildResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var result BuildResult

	docs, files, err := loader.LoadAll(cfg.PDFDir, cfg.HTMLDir, logger, w)
	result.Files = files
	if err != nil {
		return result, err
	}
	if len(docs) == 0 {
		return result, fmt.Errorf("%w in %s or %s", ErrNoDocuments, cfg.PDFDir, cfg.HTMLDir)
	}

	docs = clean.Documents(docs)
	result.Documents = len(docs)

	size, overlap := cfg.ChunkSize, cfg.ChunkOverlap
	if size == 0 {
		size, overlap = chunk.DefaultSize, chunk.DefaultOverlap
	}
	splitter, err := chunk.NewSplitter(size, overlap)
	if err != nil {
		return result, err
	}
	chunks := splitter.SplitDocuments(docs)
	result.Chunks = len(chunks)
	fmt.Fprintf(w, "Split %d documents into %d chunks\n", len(docs), len(chunks))

	store, err := Open(cfg)
	if err != nil {
		return result, err
	}
	defer store.Close()

	summary, err := store.Rebuild(ctx, chunks, engine, cfg.Embedding.BatchSize, w)
	if err != nil {
		return result, err
	}
	result.Dims = summary.Dims
	logger.Info("collection rebuilt",
		zap.String("collection", store.collection),
		zap.String("engine", engine.Name()),
		zap.Int("chunks", summary.Chunks),
		zap.Int("dims", summary.Dims))

	path, err := store.ExportYAML(ctx)
	if err != nil {
		logger.Warn("export failed", zap.Error(err))
		fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
	} else {
		fmt.Fprintf(w, "Exported %s\n", path)
	}

	fmt.Fprintf(w, "\nIndex summary: %d chunks from %d documents (%d dimensions)\n",
		result.Chunks, result.Documents, result.Dims)
	return result, nil
}
