// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/a3d3-chat/internal/embedding"
	"github.com/pdiddy/a3d3-chat/internal/index"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Query the chunk index without generating an answer",
	Long: `Search embeds the query and prints the chunks the chat command would
place in its prompt. Use --keyword for a full-text query that needs no
embedding server, and --similarity to rank by similarity alone instead of
maximal marginal relevance.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("store-dir", "", "index directory (default rag)")
	searchCmd.Flags().String("collection", "", "collection name (default a3d3-knowledge)")
	searchCmd.Flags().String("ollama", "", "Ollama base URL for embeddings")
	searchCmd.Flags().String("embed-model", "", "embedding model (default all-minilm)")
	searchCmd.Flags().Int("k", 0, "number of chunks (default 2)")
	searchCmd.Flags().Int("fetch-k", 0, "MMR candidate pool (default 20)")
	searchCmd.Flags().Float64("lambda", 0, "MMR relevance weight between 0 and 1 (default 0.5)")
	searchCmd.Flags().Bool("keyword", false, "full-text search instead of embeddings")
	searchCmd.Flags().Bool("similarity", false, "rank by cosine similarity only")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	registerFlags(searchCmd, map[string]string{
		"store-dir":   "index.store_dir",
		"collection":  "index.collection",
		"ollama":      "index.embedding.endpoint",
		"embed-model": "index.embedding.model",
		"k":           "chat.top_k",
		"fetch-k":     "chat.fetch_k",
		"lambda":      "chat.mmr_lambda",
	})

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	if err := checkChatConfig(cfg.Chat); err != nil {
		return err
	}
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	store, err := index.Open(cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	var results []types.RetrievedChunk
	if keyword, _ := cmd.Flags().GetBool("keyword"); keyword {
		results, err = store.Keyword(ctx, query, cfg.Chat.TopK)
	} else {
		engine := embedding.NewOllamaEngine(cfg.Index.Embedding)
		vector, embedErr := engine.Embed(ctx, query)
		if embedErr != nil {
			return fmt.Errorf("embedding query: %w", embedErr)
		}
		if similarity, _ := cmd.Flags().GetBool("similarity"); similarity {
			results, err = store.Search(ctx, vector, cfg.Chat.TopK)
		} else {
			results, err = store.SearchMMR(ctx, vector, cfg.Chat.TopK, cfg.Chat.FetchK, cfg.Chat.MMRLambda)
		}
	}
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatSearchOutput(w io.Writer, results []types.RetrievedChunk, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-6s  %-30s  %-4s  %s\n", "Rank", "Score", "Source", "Page", "Content")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range results {
		content := strings.Join(strings.Fields(r.Content), " ")
		if len([]rune(content)) > 60 {
			content = string([]rune(content)[:57]) + "..."
		}
		source := filepath.Base(r.Metadata.Source)
		if len(source) > 30 {
			source = source[:27] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-6.3f  %-30s  %-4d  %s\n", i+1, r.Score, source, r.Metadata.Page, content)
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}
