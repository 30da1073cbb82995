// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the a3d3-chat CLI. Each pipeline
// stage is a subcommand: web, papers, index and chat.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/a3d3-chat/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is built by the root command before any subcommand runs.
	logger = zap.NewNop()

	// loadedSecrets holds values loaded from the secrets directory at startup.
	loadedSecrets map[string]string
)

// rootCmd is the base command for the a3d3-chat CLI.
var rootCmd = &cobra.Command{
	Use:   "a3d3-chat",
	Short: "Retrieval-augmented chat over A3D3 publications and web pages",
	Long: `a3d3-chat collects the A3D3 website and the papers of its NSF award,
indexes their text for retrieval, and answers questions with a local
language model.

Run the stages in order: web and papers download sources into data/,
index builds the chunk index in rag/, and chat starts a conversation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		logger = l

		if err := bindFlags(cmd); err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Info("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./a3d3-chat.yaml or ~/.config/a3d3-chat/a3d3-chat.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of secret files (unpaywall-email, user-agent)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("a3d3-chat")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "a3d3-chat"))
		}
	}

	viper.SetEnvPrefix("A3D3_CHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
