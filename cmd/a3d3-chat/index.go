// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/a3d3-chat/internal/embedding"
	"github.com/pdiddy/a3d3-chat/internal/index"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the chunk index from downloaded PDFs and pages",
	Long: `Index loads every PDF page and HTML page, removes boilerplate, splits the
text into overlapping chunks and embeds them with the Ollama embedding
model. The collection in the store directory is replaced as a whole; a
failed build leaves the previous index in place. A YAML export of the
chunks is written next to the database.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("pdf-dir", "", "directory of PDFs (default data/pdfs)")
	indexCmd.Flags().String("html-dir", "", "directory of HTML pages (default data/htmls)")
	indexCmd.Flags().String("store-dir", "", "index directory (default rag)")
	indexCmd.Flags().String("collection", "", "collection name (default a3d3-knowledge)")
	indexCmd.Flags().Int("chunk-size", 0, "chunk size in characters (default 1000)")
	indexCmd.Flags().Int("chunk-overlap", 0, "chunk overlap in characters (default 150)")
	indexCmd.Flags().String("ollama", "", "Ollama base URL (default http://localhost:11434)")
	indexCmd.Flags().String("embed-model", "", "embedding model (default all-minilm)")
	indexCmd.Flags().Int("batch-size", 0, "chunks per embedding batch (default 32)")
	registerFlags(indexCmd, map[string]string{
		"pdf-dir":       "index.pdf_dir",
		"html-dir":      "index.html_dir",
		"store-dir":     "index.store_dir",
		"collection":    "index.collection",
		"chunk-size":    "index.chunk_size",
		"chunk-overlap": "index.chunk_overlap",
		"ollama":        "index.embedding.endpoint",
		"embed-model":   "index.embedding.model",
		"batch-size":    "index.embedding.batch_size",
	})

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig().Index
	engine := embedding.NewOllamaEngine(cfg.Embedding)
	_, err := index.Build(cmd.Context(), cfg, engine, logger, cmd.OutOrStdout())
	return err
}
