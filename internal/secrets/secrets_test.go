// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "unpaywall-email", "  team@a3d3.ai  \n")
				writeFile(t, dir, "user-agent", "a3d3-chat/1.0")
				return dir
			},
			want: map[string]string{
				"unpaywall-email": "team@a3d3.ai",
				"user-agent":      "a3d3-chat/1.0",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "unpaywall-email", "valid@example.com")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"unpaywall-email": "valid@example.com",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "user-agent", "ua-real")
				return dir
			},
			want: map[string]string{
				"user-agent": "ua-real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "unpaywall-email", "a@b.c")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"unpaywall-email": "a@b.c",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir, nil)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	core, logs := observer.New(zap.WarnLevel)
	got, err := Load(dir, zap.New(core))
	require.NoError(t, err)
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")

	warnings := logs.FilterMessage("could not read secret").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "bad-key", warnings[0].ContextMap()["key"])
}

func TestApply(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	used := Apply(map[string]string{
		UnpaywallEmail: "team@a3d3.ai",
		UserAgent:      "a3d3-chat/1.0",
		"unrelated":    "x",
	}, &cfg)

	assert.Equal(t, []string{UnpaywallEmail, UserAgent}, used)
	assert.Equal(t, "team@a3d3.ai", cfg.Acquisition.Email)
	assert.Equal(t, "a3d3-chat/1.0", cfg.Crawl.UserAgent)
	assert.Equal(t, "a3d3-chat/1.0", cfg.Award.UserAgent)
	assert.Equal(t, "a3d3-chat/1.0", cfg.Acquisition.UserAgent)

	cfg = types.DefaultPipelineConfig()
	assert.Empty(t, Apply(map[string]string{}, &cfg))
	assert.Equal(t, types.DefaultPipelineConfig(), cfg)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
