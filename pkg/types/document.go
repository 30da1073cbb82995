// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DocumentMetadata records where a piece of text came from.
type DocumentMetadata struct {
	// Source is the local file path the text was loaded from.
	Source string `json:"source" yaml:"source"`

	// Page is the 1-based PDF page, or 0 for HTML documents.
	Page int `json:"page,omitempty" yaml:"page,omitempty"`

	// Title is the HTML page title, when known.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Document is loaded text prior to chunking. The cleaner rewrites Content
// in place; the chunker then replaces the document with Chunks.
type Document struct {
	Content  string           `json:"content" yaml:"content"`
	Metadata DocumentMetadata `json:"metadata" yaml:"metadata"`
}

// Chunk is a bounded slice of cleaned document text ready for embedding.
type Chunk struct {
	// ID is stable for a given source, page and sequence number.
	ID string `json:"id" yaml:"id"`

	Content  string           `json:"content" yaml:"content"`
	Metadata DocumentMetadata `json:"metadata" yaml:"metadata"`

	// Seq is the 0-based position of the chunk within its document.
	Seq int `json:"seq" yaml:"seq"`
}

// RetrievedChunk is a Chunk returned by an index query with its score.
type RetrievedChunk struct {
	Chunk `yaml:",inline"`
	Score float64 `json:"score" yaml:"score"`
}
