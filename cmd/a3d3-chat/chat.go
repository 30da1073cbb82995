// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/a3d3-chat/internal/chat"
	"github.com/pdiddy/a3d3-chat/internal/embedding"
	"github.com/pdiddy/a3d3-chat/internal/index"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about A3D3 in an interactive session",
	Long: `Chat reads questions from standard input and streams answers from the
local language model. With retrieval on, the most relevant and mutually
diverse chunks of the index are listed and placed in the prompt.

Type /rag on or /rag off to toggle retrieval and /quit to leave. Without
a built index the session starts with retrieval off.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("ollama", "", "Ollama base URL (default http://localhost:11434)")
	chatCmd.Flags().String("model", "", "generation model (default olmo2:7b-instruct-q4_K_M)")
	chatCmd.Flags().Float64("temperature", 0, "sampling temperature (default 0.8)")
	chatCmd.Flags().Int("max-tokens", 0, "maximum tokens per answer (default 512)")
	chatCmd.Flags().Int("k", 0, "chunks placed in the prompt (default 2)")
	chatCmd.Flags().Bool("rag", true, "start with retrieval on")
	chatCmd.Flags().String("store-dir", "", "index directory (default rag)")
	chatCmd.Flags().String("collection", "", "collection name (default a3d3-knowledge)")
	chatCmd.Flags().String("embed-model", "", "embedding model (default all-minilm)")
	registerFlags(chatCmd, map[string]string{
		"ollama":      "chat.endpoint",
		"model":       "chat.model",
		"temperature": "chat.temperature",
		"max-tokens":  "chat.max_tokens",
		"k":           "chat.top_k",
		"rag":         "chat.use_rag",
		"store-dir":   "index.store_dir",
		"collection":  "index.collection",
		"embed-model": "index.embedding.model",
	})

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	if err := checkChatConfig(cfg.Chat); err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	generator := chat.NewOllamaGenerator(cfg.Chat)
	if err := generator.HealthCheck(ctx); err != nil {
		return fmt.Errorf("generation model %s: %w", generator.Model(), err)
	}

	var retriever chat.Retriever
	useRAG := cfg.Chat.UseRAG
	store, err := index.Open(cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	info, err := store.Info(ctx)
	if err == nil && info.Chunks == 0 {
		err = index.ErrEmptyCollection
	}
	switch {
	case errors.Is(err, index.ErrEmptyCollection):
		logger.Warn("no index found; retrieval disabled", zap.String("store", cfg.Index.StoreDir))
		useRAG = false
	case err != nil:
		return err
	default:
		logger.Info("index loaded",
			zap.String("collection", info.Name),
			zap.String("engine", info.Engine),
			zap.Int("chunks", info.Chunks))
		engine := embedding.NewOllamaEngine(cfg.Index.Embedding)
		if info.Engine != engine.Name() {
			logger.Warn("index was built with a different embedding model",
				zap.String("index", info.Engine), zap.String("configured", engine.Name()))
		}
		if err := engine.HealthCheck(ctx); err != nil {
			logger.Warn("embedding model unavailable; retrieval falls back to keyword search", zap.Error(err))
		}
		retriever = chat.NewIndexRetriever(store, engine, cfg.Chat, logger)
	}

	session := chat.NewSession(generator, retriever, useRAG, logger)
	return session.REPL(ctx, cmd.InOrStdin(), out)
}
