// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials and contact details from a directory of
// plain-text files. Each file in the directory is one secret: the filename
// is the key name and the trimmed file contents are the value.
//
// Recognised keys: unpaywall-email, user-agent.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// Key names understood by Apply.
const (
	UnpaywallEmail = "unpaywall-email"
	UserAgent      = "user-agent"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("key", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies recognised secrets into cfg, overriding configured values.
// It returns the keys it used.
func Apply(secrets map[string]string, cfg *types.PipelineConfig) []string {
	var used []string
	if email, ok := secrets[UnpaywallEmail]; ok {
		cfg.Acquisition.Email = email
		used = append(used, UnpaywallEmail)
	}
	if ua, ok := secrets[UserAgent]; ok {
		cfg.Crawl.UserAgent = ua
		cfg.Award.UserAgent = ua
		cfg.Acquisition.UserAgent = ua
		used = append(used, UserAgent)
	}
	return used
}
