// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chat

import (
	"strings"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

const (
	ragTemplate = "You are a helpful assistant. Answer the following question in complete " +
		"sentences based only on the given context. Do not copy any multiple " +
		"choice format.\n\n" +
		"{context}\n\n" +
		"Question: {question}"

	noRAGTemplate = "You are a helpful assistant. Please answer the question.\n\n" +
		"Question: {question}"
)

// FormatContext joins the contents of chunks with blank lines.
func FormatContext(chunks []types.RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, "\n\n")
}

// RAGPrompt fills the retrieval template with the context of chunks.
func RAGPrompt(question string, chunks []types.RetrievedChunk) string {
	return strings.NewReplacer(
		"{context}", FormatContext(chunks),
		"{question}", question,
	).Replace(ragTemplate)
}

// PlainPrompt fills the template used when retrieval is off.
func PlainPrompt(question string) string {
	return strings.Replace(noRAGTemplate, "{question}", question, 1)
}
