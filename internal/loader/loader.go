// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader turns downloaded PDFs and HTML pages into Documents.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// Func loads one file into zero or more Documents.
type Func func(path string) ([]types.Document, error)

// BatchResult holds the outcome of loading a directory.
type BatchResult struct {
	Loaded int
	Empty  int
	Failed int
}

// Total returns the number of files processed.
func (r BatchResult) Total() int {
	return r.Loaded + r.Empty + r.Failed
}

// HasFailures reports whether any file failed to load.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Dir loads every file in dir whose extension is ext, in lexical order. A
// file that fails to load is logged and skipped. A missing dir yields no
// documents and no error.
func Dir(dir, ext string, load Func, logger *zap.Logger) ([]types.Document, BatchResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var result BatchResult

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		logger.Warn("input directory missing", zap.String("dir", dir))
		return nil, result, nil
	}
	if err != nil {
		return nil, result, fmt.Errorf("reading %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	var docs []types.Document
	for _, path := range paths {
		loaded, err := load(path)
		switch {
		case err != nil:
			logger.Warn("failed to load document", zap.String("path", path), zap.Error(err))
			result.Failed++
		case len(loaded) == 0:
			logger.Debug("document has no text", zap.String("path", path))
			result.Empty++
		default:
			docs = append(docs, loaded...)
			result.Loaded++
		}
	}
	return docs, result, nil
}

// LoadAll loads the PDFs of pdfDir followed by the HTML pages of htmlDir,
// printing a summary line per directory to w.
func LoadAll(pdfDir, htmlDir string, logger *zap.Logger, w io.Writer) ([]types.Document, BatchResult, error) {
	pdfs, pr, err := Dir(pdfDir, ".pdf", PDF, logger)
	if err != nil {
		return nil, pr, err
	}
	fmt.Fprintf(w, "PDFs:  %d loaded, %d empty, %d failed (%d pages)\n", pr.Loaded, pr.Empty, pr.Failed, len(pdfs))

	pages, hr, err := Dir(htmlDir, ".html", HTML, logger)
	if err != nil {
		return nil, pr, err
	}
	fmt.Fprintf(w, "HTML:  %d loaded, %d empty, %d failed\n", hr.Loaded, hr.Empty, hr.Failed)

	total := BatchResult{
		Loaded: pr.Loaded + hr.Loaded,
		Empty:  pr.Empty + hr.Empty,
		Failed: pr.Failed + hr.Failed,
	}
	return append(pdfs, pages...), total, nil
}
