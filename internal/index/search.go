// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/a3d3-chat/internal/embedding"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// Query defaults.
const (
	DefaultK      = 2
	DefaultFetchK = 20
	DefaultLambda = 0.5
)

type candidate struct {
	chunk  types.Chunk
	vector []float32
	score  float64
}

// Search returns the k chunks most similar to query by cosine similarity,
// best first.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]types.RetrievedChunk, error) {
	if k <= 0 {
		k = DefaultK
	}
	cands, err := s.rank(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(cands) > k {
		cands = cands[:k]
	}
	return retrieved(cands), nil
}

// SearchMMR selects k chunks by maximal marginal relevance from the fetchK
// chunks most similar to query. lambda weighs relevance against diversity:
// 1 ranks purely by similarity, 0 purely by distance from the chunks
// already selected. Scores are the similarity to the query.
func (s *Store) SearchMMR(ctx context.Context, query []float32, k, fetchK int, lambda float64) ([]types.RetrievedChunk, error) {
	if k <= 0 {
		k = DefaultK
	}
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}
	if !(lambda >= 0 && lambda <= 1) {
		return nil, fmt.Errorf("MMR lambda %v is outside [0, 1]", lambda)
	}
	fetchK = max(fetchK, k)
	cands, err := s.rank(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(cands) > fetchK {
		cands = cands[:fetchK]
	}
	return retrieved(selectMMR(cands, k, lambda)), nil
}

func selectMMR(cands []candidate, k int, lambda float64) []candidate {
	selected := make([]candidate, 0, k)
	used := make([]bool, len(cands))
	for len(selected) < k && len(selected) < len(cands) {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range cands {
			if used[i] {
				continue
			}
			redundancy := 0.0
			if len(selected) > 0 {
				redundancy = math.Inf(-1)
				for _, sel := range selected {
					redundancy = math.Max(redundancy, embedding.CosineSimilarity(c.vector, sel.vector))
				}
			}
			score := lambda*c.score - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		// NaN scores never compare greater; take candidates in rank order.
		if best < 0 {
			for i := range cands {
				if !used[i] {
					best = i
					break
				}
			}
		}
		used[best] = true
		selected = append(selected, cands[best])
	}
	return selected
}

// rank scores every chunk of the collection against query, best first.
func (s *Store) rank(ctx context.Context, query []float32) ([]candidate, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}
	if info.Chunks == 0 {
		return nil, ErrEmptyCollection
	}
	if len(query) != info.Dims {
		return nil, fmt.Errorf("query has %d dimensions, collection %s has %d", len(query), s.collection, info.Dims)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, source, page, title, seq, embedding
		 FROM chunks WHERE collection = ? ORDER BY rowid`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var cands []candidate
	for rows.Next() {
		var (
			c    candidate
			blob []byte
		)
		if err := rows.Scan(&c.chunk.ID, &c.chunk.Content, &c.chunk.Metadata.Source,
			&c.chunk.Metadata.Page, &c.chunk.Metadata.Title, &c.chunk.Seq, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if c.vector, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.chunk.ID, err)
		}
		c.score = embedding.CosineSimilarity(query, c.vector)
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	return cands, nil
}

func retrieved(cands []candidate) []types.RetrievedChunk {
	out := make([]types.RetrievedChunk, len(cands))
	for i, c := range cands {
		out[i] = types.RetrievedChunk{Chunk: c.chunk, Score: c.score}
	}
	return out
}

// Keyword runs a full-text query over chunk content and returns up to k
// matches ranked by bm25. Every word of query is matched as a literal
// term; a chunk matching any of them qualifies. Scores are the negated
// FTS5 rank, so larger is better.
func (s *Store) Keyword(ctx context.Context, query string, k int) ([]types.RetrievedChunk, error) {
	if k <= 0 {
		k = DefaultK
	}
	match := ftsQuery(query)
	if match == "" {
		return nil, fmt.Errorf("keyword query is empty")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.content, c.source, c.page, c.title, c.seq, chunks_fts.rank
		 FROM chunks_fts
		 JOIN chunks c ON c.rowid = chunks_fts.rowid
		 WHERE chunks_fts MATCH ? AND c.collection = ?
		 ORDER BY chunks_fts.rank
		 LIMIT ?`, match, s.collection, k)
	if err != nil {
		return nil, fmt.Errorf("querying FTS: %w", err)
	}
	defer rows.Close()

	var out []types.RetrievedChunk
	for rows.Next() {
		var (
			r    types.RetrievedChunk
			rank float64
		)
		if err := rows.Scan(&r.ID, &r.Content, &r.Metadata.Source,
			&r.Metadata.Page, &r.Metadata.Title, &r.Seq, &rank); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.Score = -rank
		out = append(out, r)
	}
	return out, rows.Err()
}

// ftsQuery quotes each word of query so FTS5 operators in user input are
// matched literally.
func ftsQuery(query string) string {
	words := strings.Fields(query)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, `?!.,;:()[]{}"'`)
		if w == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(w, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " OR ")
}
