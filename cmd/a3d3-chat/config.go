package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/a3d3-chat/internal/secrets"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// pipelineConfig returns the defaults overlaid with secrets, then with
// every key viper knows from the config file, the environment or a changed
// flag.
func pipelineConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()
	secrets.Apply(loadedSecrets, &cfg)

	setString("crawl.sitemap_index", &cfg.Crawl.SitemapIndex)
	setInt("crawl.max_sitemaps", &cfg.Crawl.MaxSitemaps)
	setInt("crawl.workers", &cfg.Crawl.Workers)
	setDuration("crawl.delay", &cfg.Crawl.Delay)
	setDuration("crawl.timeout", &cfg.Crawl.Timeout)
	setString("crawl.user_agent", &cfg.Crawl.UserAgent)
	setString("crawl.html_dir", &cfg.Crawl.HTMLDir)
	setString("crawl.manifest_path", &cfg.Crawl.ManifestPath)
	setBool("crawl.respect_robots", &cfg.Crawl.RespectRobots)
	setInt("crawl.retry.max_retries", &cfg.Crawl.Retry.MaxRetries)
	setDuration("crawl.retry.base_delay", &cfg.Crawl.Retry.BaseDelay)

	setString("award.award_id", &cfg.Award.AwardID)
	setString("award.manifest_path", &cfg.Award.ManifestPath)
	setDuration("award.timeout", &cfg.Award.Timeout)
	setString("award.user_agent", &cfg.Award.UserAgent)

	setString("acquisition.pdf_dir", &cfg.Acquisition.PDFDir)
	setString("acquisition.failed_path", &cfg.Acquisition.FailedPath)
	setString("acquisition.email", &cfg.Acquisition.Email)
	setDuration("acquisition.download_delay", &cfg.Acquisition.DownloadDelay)
	setDuration("acquisition.timeout", &cfg.Acquisition.Timeout)
	setString("acquisition.user_agent", &cfg.Acquisition.UserAgent)
	setBool("acquisition.retry_failed", &cfg.Acquisition.RetryFailed)

	setString("index.pdf_dir", &cfg.Index.PDFDir)
	setString("index.html_dir", &cfg.Index.HTMLDir)
	setString("index.store_dir", &cfg.Index.StoreDir)
	setString("index.collection", &cfg.Index.Collection)
	setInt("index.chunk_size", &cfg.Index.ChunkSize)
	setInt("index.chunk_overlap", &cfg.Index.ChunkOverlap)
	setString("index.embedding.endpoint", &cfg.Index.Embedding.Endpoint)
	setString("index.embedding.model", &cfg.Index.Embedding.Model)
	setInt("index.embedding.batch_size", &cfg.Index.Embedding.BatchSize)

	setString("chat.endpoint", &cfg.Chat.Endpoint)
	setString("chat.model", &cfg.Chat.Model)
	setFloat("chat.temperature", &cfg.Chat.Temperature)
	setInt("chat.context_size", &cfg.Chat.ContextSize)
	setInt("chat.max_tokens", &cfg.Chat.MaxTokens)
	setInt("chat.top_k", &cfg.Chat.TopK)
	setInt("chat.fetch_k", &cfg.Chat.FetchK)
	setFloat("chat.mmr_lambda", &cfg.Chat.MMRLambda)
	setBool("chat.use_rag", &cfg.Chat.UseRAG)

	return cfg
}

// checkChatConfig rejects retrieval settings the index cannot use.
func checkChatConfig(cfg types.ChatConfig) error {
	if !(cfg.MMRLambda >= 0 && cfg.MMRLambda <= 1) {
		return fmt.Errorf("chat.mmr_lambda must be between 0 and 1, got %v", cfg.MMRLambda)
	}
	return nil
}

func setString(key string, dst *string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func setInt(key string, dst *int) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func setFloat(key string, dst *float64) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

func setBool(key string, dst *bool) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

func setDuration(key string, dst *time.Duration) {
	if viper.IsSet(key) {
		*dst = viper.GetDuration(key)
	}
}

// flagKeys maps each command's flags to the config keys they override.
// Several commands share keys, so only the running command is bound.
var flagKeys = map[*cobra.Command]map[string]string{}

func registerFlags(cmd *cobra.Command, keys map[string]string) {
	flagKeys[cmd] = keys
}

func bindFlags(cmd *cobra.Command) error {
	for flag, key := range flagKeys[cmd] {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(pipelineConfig())
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
