// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest reads and writes the CSV files that record the outcome
// of each ingestion batch: paper metadata, downloaded pages, and failed
// PDF acquisitions.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// WritePapers writes records to path with the PaperHeader columns. The
// header row is written even when records is empty.
func WritePapers(path string, records []types.PaperRecord) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Row()
	}
	return writeCSV(path, types.PaperHeader, rows)
}

// WritePages writes page records to path with the PageHeader columns.
func WritePages(path string, records []types.PageRecord) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Row()
	}
	return writeCSV(path, types.PageHeader, rows)
}

// ReadPapers reads a paper or failed-entry manifest.
func ReadPapers(path string) ([]types.PaperRecord, error) {
	rows, err := readCSV(path, types.PaperHeader)
	if err != nil {
		return nil, err
	}
	records := make([]types.PaperRecord, 0, len(rows))
	for i, row := range rows {
		idx, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid index %q", path, i+2, row[0])
		}
		records = append(records, types.PaperRecord{
			Index:         idx,
			Authors:       row[1],
			Title:         row[2],
			Journal:       row[3],
			DOI:           row[4],
			DOILink:       row[5],
			NSFCitationID: row[6],
		})
	}
	return records, nil
}

// ReadPages reads a page manifest.
func ReadPages(path string) ([]types.PageRecord, error) {
	rows, err := readCSV(path, types.PageHeader)
	if err != nil {
		return nil, err
	}
	records := make([]types.PageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, types.PageRecord{URL: row[0], Filename: row[1]})
	}
	return records, nil
}

// writeCSV writes to a temporary file in the target directory and renames
// it into place so readers never observe a half-written manifest.
func writeCSV(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	w.Write(header)
	w.WriteAll(rows)
	writeErr := w.Error()
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	got, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !slices.Equal(got, header) {
		return nil, fmt.Errorf("%s: unexpected header %v, want %v", path, got, header)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}
