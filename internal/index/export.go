// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one chunk in export.yaml. Embeddings are not exported.
type ExportEntry struct {
	ID      string `json:"id" yaml:"id"`
	Source  string `json:"source" yaml:"source"`
	Page    int    `json:"page,omitempty" yaml:"page,omitempty"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Seq     int    `json:"seq" yaml:"seq"`
	Content string `json:"content" yaml:"content"`
}

// Export is the document written to export.yaml.
type Export struct {
	Collection string        `yaml:"collection"`
	Engine     string        `yaml:"engine"`
	Dims       int           `yaml:"dims"`
	Chunks     []ExportEntry `yaml:"chunks"`
}

// ExportYAML writes the collection to storeDir/export.yaml ordered by
// source, page and sequence, and returns the file path.
func (s *Store) ExportYAML(ctx context.Context) (string, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return "", err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, page, title, seq, content FROM chunks
		 WHERE collection = ? ORDER BY source, page, seq`, s.collection)
	if err != nil {
		return "", fmt.Errorf("querying for export: %w", err)
	}
	defer rows.Close()

	export := Export{Collection: info.Name, Engine: info.Engine, Dims: info.Dims}
	for rows.Next() {
		var e ExportEntry
		if err := rows.Scan(&e.ID, &e.Source, &e.Page, &e.Title, &e.Seq, &e.Content); err != nil {
			return "", fmt.Errorf("scanning chunk: %w", err)
		}
		export.Chunks = append(export.Chunks, e)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating chunks: %w", err)
	}

	data, err := yaml.Marshal(&export)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(s.dir, exportFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
