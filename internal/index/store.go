// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index stores embedded chunks in SQLite and answers similarity,
// maximal marginal relevance and keyword queries over them.
package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/a3d3-chat/internal/embedding"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

const (
	dbFile            = "index.db"
	exportFile        = "export.yaml"
	defaultCollection = "a3d3-knowledge"
	defaultBatchSize  = 32
)

// ErrEmptyCollection is returned by queries against a collection that has
// not been built.
var ErrEmptyCollection = errors.New("collection is empty; run the index command first")

// Store manages the chunk index database.
type Store struct {
	db         *sql.DB
	dir        string
	collection string
}

// NewStore opens or creates storeDir/index.db and its schema. An empty
// collection name selects the default collection.
func NewStore(storeDir, collection string) (*Store, error) {
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(storeDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if collection == "" {
		collection = defaultCollection
	}
	s := &Store{db: db, dir: storeDir, collection: collection}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Open opens the store described by cfg.
func Open(cfg types.IndexConfig) (*Store, error) {
	return NewStore(cfg.StoreDir, cfg.Collection)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dims INTEGER NOT NULL,
			engine TEXT NOT NULL,
			built_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
			content TEXT NOT NULL,
			source TEXT NOT NULL,
			page INTEGER,
			title TEXT,
			seq INTEGER,
			embedding BLOB NOT NULL,
			UNIQUE(collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source, page, seq)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE chunks_fts USING fts5(content, content=chunks, content_rowid=rowid)`,
		`CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
			INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
		`CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
			INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
		END`,
		`CREATE TRIGGER chunks_au AFTER UPDATE ON chunks BEGIN
			INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// CollectionInfo describes a built collection.
type CollectionInfo struct {
	Name   string
	Dims   int
	Engine string
	Chunks int
}

// Info returns the description of the store's collection, or
// ErrEmptyCollection if it has not been built.
func (s *Store) Info(ctx context.Context) (CollectionInfo, error) {
	info := CollectionInfo{Name: s.collection}
	err := s.db.QueryRowContext(ctx,
		`SELECT dims, engine, (SELECT count(*) FROM chunks WHERE collection = ?)
		 FROM collections WHERE name = ?`, s.collection, s.collection,
	).Scan(&info.Dims, &info.Engine, &info.Chunks)
	if errors.Is(err, sql.ErrNoRows) {
		return info, ErrEmptyCollection
	}
	if err != nil {
		return info, fmt.Errorf("reading collection %s: %w", s.collection, err)
	}
	return info, nil
}

// RebuildSummary holds counts from a Rebuild.
type RebuildSummary struct {
	Chunks  int
	Batches int
	Dims    int
}

// Rebuild replaces the collection with chunks embedded by engine. Texts
// are embedded batchSize at a time; the old collection is dropped and the
// new one written in a single transaction, so a failed rebuild leaves the
// previous index intact.
func (s *Store) Rebuild(ctx context.Context, chunks []types.Chunk, engine embedding.Engine, batchSize int, w io.Writer) (RebuildSummary, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if hc, ok := engine.(embedding.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return RebuildSummary{}, fmt.Errorf("embedding engine %s: %w", engine.Name(), err)
		}
	}

	var summary RebuildSummary
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Content
		}
		batch, err := engine.EmbedBatch(ctx, texts)
		if err != nil {
			return summary, fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return summary, fmt.Errorf("embedding chunks %d-%d: got %d vectors", start, end-1, len(batch))
		}
		vectors = append(vectors, batch...)
		summary.Batches++
		fmt.Fprintf(w, "embedded %d/%d chunks\n", end, len(chunks))
	}

	if len(vectors) > 0 {
		summary.Dims = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != summary.Dims {
			return summary, fmt.Errorf("chunk %s has %d dimensions, expected %d", chunks[i].ID, len(v), summary.Dims)
		}
	}

	if err := s.replace(ctx, chunks, vectors, summary.Dims, engine.Name()); err != nil {
		return summary, err
	}
	summary.Chunks = len(chunks)
	return summary, nil
}

func (s *Store) replace(ctx context.Context, chunks []types.Chunk, vectors [][]float32, dims int, engineName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, s.collection); err != nil {
		return fmt.Errorf("deleting old chunks: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO collections (name, dims, engine, built_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			dims=excluded.dims, engine=excluded.engine, built_at=excluded.built_at`,
		s.collection, dims, engineName, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting collection: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, collection, content, source, page, title, seq, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		_, err := stmt.ExecContext(ctx,
			c.ID, s.collection, c.Content, c.Metadata.Source,
			c.Metadata.Page, c.Metadata.Title, c.Seq, encodeVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// encodeVector packs v as little-endian float32 values.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob has %d bytes, not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
