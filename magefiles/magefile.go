// Package main contains Mage build targets for a3d3-chat developer tooling.
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/a3d3-chat/internal/manifest"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// projectDirs lists the working directories the pipeline expects.
var projectDirs = []string{
	"data/pdfs",
	"data/htmls",
	"rag",
	".secrets",
}

// buildTags enables the SQLite FTS5 extension used by the chunk index.
const buildTags = "sqlite_fts5"

// Init creates the project directory structure for the pipeline.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "a3d3-chat"
	cmdPkg  = "./cmd/a3d3-chat"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-tags", buildTags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the build tags the index needs.
func Test() error {
	return sh.RunV("go", "test", "-tags", buildTags, "./...")
}

// run builds the CLI if needed and runs it with args.
func run(args ...string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Stats reports what each pipeline stage has produced so far, followed by
// the Go line counts.
func Stats() error {
	cfg := types.DefaultPipelineConfig()

	papers, err := manifestRows(manifest.ReadPapers, cfg.Award.ManifestPath)
	if err != nil {
		return err
	}
	failed, err := manifestRows(manifest.ReadPapers, cfg.Acquisition.FailedPath)
	if err != nil {
		return err
	}
	pages, err := manifestRows(manifest.ReadPages, cfg.Crawl.ManifestPath)
	if err != nil {
		return err
	}
	pdfs, err := countFiles(cfg.Acquisition.PDFDir, ".pdf")
	if err != nil {
		return err
	}
	htmls, err := countFiles(cfg.Crawl.HTMLDir, ".html")
	if err != nil {
		return err
	}
	chunks, err := countChunks(filepath.Join(cfg.Index.StoreDir, "index.db"))
	if err != nil {
		return err
	}
	prodLines, testLines, err := countGoLines(".")
	if err != nil {
		return err
	}

	fmt.Printf("Papers in manifest:      %d\n", papers)
	fmt.Printf("PDFs downloaded:         %d\n", pdfs)
	fmt.Printf("Failed downloads:        %d\n", failed)
	fmt.Printf("Pages in manifest:       %d\n", pages)
	fmt.Printf("HTML pages saved:        %d\n", htmls)
	fmt.Printf("Chunks indexed:          %d\n", chunks)
	fmt.Printf("Go lines (production):   %d\n", prodLines)
	fmt.Printf("Go lines (tests):        %d\n", testLines)
	return nil
}

// manifestRows counts the rows of a manifest; a missing manifest has none.
func manifestRows[T any](read func(string) ([]T, error), path string) (int, error) {
	rows, err := read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// countFiles counts the files in dir with extension ext.
func countFiles(dir, ext string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ext) {
			n++
		}
	}
	return n, nil
}

// countChunks counts the chunk rows of the index database, opened
// read-only so the schema is left alone.
func countChunks(dbPath string) (int, error) {
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// countGoLines counts non-blank lines of Go files under root, split into
// production and test code. The read-only example pack is skipped.
func countGoLines(root string) (prod, test int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				n++
			}
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, test, err
}
