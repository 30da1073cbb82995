// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits cleaned documents into overlapping chunks bounded
// by a character budget.
package chunk

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// Defaults match the embedding model's context window.
const (
	DefaultSize    = 1000
	DefaultOverlap = 150
)

// DefaultSeparators are tried in order, coarsest first. The empty
// separator cuts between characters.
var DefaultSeparators = []string{"\n\n", "\n", ".", " ", ""}

// chunkNamespace scopes chunk ids generated with uuid.NewSHA1.
var chunkNamespace = uuid.MustParse("6f1f6c1e-2b1a-5d0e-9a3d-a3d3c4a70000")

// Splitter performs recursive character splitting. Lengths are counted in
// runes.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

// NewSplitter returns a Splitter with the default separators.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Splitter{Size: size, Overlap: overlap, Separators: DefaultSeparators}, nil
}

// Span is a half-open range of rune offsets into the split text.
type Span struct {
	Start, End int
}

// Len returns the span length in runes.
func (s Span) Len() int { return s.End - s.Start }

// Split returns the chunks of text.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	spans := s.spans(runes)
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = string(runes[sp.Start:sp.End])
	}
	return out
}

// Spans returns the rune ranges of the chunks of text. Consecutive spans
// never leave a gap and overlap by at most Overlap runes.
func (s *Splitter) Spans(text string) []Span {
	return s.spans([]rune(text))
}

func (s *Splitter) spans(runes []rune) []Span {
	if len(runes) == 0 {
		return nil
	}
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}
	return s.split(runes, Span{0, len(runes)}, seps)
}

// split divides the region on the first separator present in it, merges
// the small pieces and recurses into pieces still larger than Size.
func (s *Splitter) split(runes []rune, region Span, seps []string) []Span {
	if region.Len() <= s.Size {
		return []Span{region}
	}

	sep, rest := "", []string(nil)
	for i, candidate := range seps {
		if candidate == "" || containsRunes(runes[region.Start:region.End], []rune(candidate)) {
			sep, rest = candidate, seps[i+1:]
			break
		}
	}

	var out, small []Span
	for _, p := range pieces(runes, region, []rune(sep)) {
		if p.Len() <= s.Size {
			small = append(small, p)
			continue
		}
		out = append(out, s.merge(small)...)
		small = nil
		if len(rest) == 0 {
			out = append(out, s.hardCut(p)...)
			continue
		}
		out = append(out, s.split(runes, p, rest)...)
	}
	return append(out, s.merge(small)...)
}

// merge packs contiguous pieces into spans of at most Size runes. After a
// span is emitted, trailing pieces totalling at most Overlap runes are
// carried into the next one.
func (s *Splitter) merge(pieces []Span) []Span {
	var out []Span
	lo, total := 0, 0
	for hi, p := range pieces {
		if total+p.Len() > s.Size && hi > lo {
			out = append(out, Span{pieces[lo].Start, pieces[hi-1].End})
			for lo < hi && (total > s.Overlap || total+p.Len() > s.Size) {
				total -= pieces[lo].Len()
				lo++
			}
		}
		total += p.Len()
	}
	if lo < len(pieces) {
		out = append(out, Span{pieces[lo].Start, pieces[len(pieces)-1].End})
	}
	return out
}

// hardCut slices a region into Size-rune spans with Overlap runes shared
// between neighbours.
func (s *Splitter) hardCut(region Span) []Span {
	step := s.Size - s.Overlap
	var out []Span
	for start := region.Start; ; start += step {
		end := min(start+s.Size, region.End)
		out = append(out, Span{start, end})
		if end == region.End {
			return out
		}
	}
}

// pieces splits region after every occurrence of sep, keeping the
// separator at the end of the preceding piece. The pieces cover region
// exactly.
func pieces(runes []rune, region Span, sep []rune) []Span {
	if len(sep) == 0 {
		out := make([]Span, 0, region.Len())
		for i := region.Start; i < region.End; i++ {
			out = append(out, Span{i, i + 1})
		}
		return out
	}

	var out []Span
	start := region.Start
	for i := region.Start; i+len(sep) <= region.End; {
		if hasPrefixRunes(runes[i:region.End], sep) {
			i += len(sep)
			out = append(out, Span{start, i})
			start = i
			continue
		}
		i++
	}
	if start < region.End {
		out = append(out, Span{start, region.End})
	}
	return out
}

func containsRunes(haystack, needle []rune) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if hasPrefixRunes(haystack[i:], needle) {
			return true
		}
	}
	return false
}

func hasPrefixRunes(s, prefix []rune) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if s[i] != r {
			return false
		}
	}
	return true
}

// ChunkID returns a stable id for the seq-th chunk of a source page.
func ChunkID(source string, page, seq int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s|%d|%d", source, page, seq))).String()
}

// SplitDocuments splits every document and returns the chunks in document
// order. Whitespace-only chunks are dropped; Seq counts the kept chunks of
// each document.
func (s *Splitter) SplitDocuments(docs []types.Document) []types.Chunk {
	var out []types.Chunk
	for _, doc := range docs {
		seq := 0
		for _, text := range s.Split(doc.Content) {
			if strings.TrimSpace(text) == "" {
				continue
			}
			out = append(out, types.Chunk{
				ID:       ChunkID(doc.Metadata.Source, doc.Metadata.Page, seq),
				Content:  text,
				Metadata: doc.Metadata,
				Seq:      seq,
			})
			seq++
		}
	}
	return out
}
