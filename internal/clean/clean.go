// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean normalises extracted document text before chunking.
package clean

import (
	"regexp"
	"strings"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// rules run in order; later rules see the output of earlier ones.
var rules = []rule{
	// Words hyphenated across a line break.
	{regexp.MustCompile(`([\p{L}\p{N}_])-\n([\p{L}\p{N}_])`), "${1}${2}"},
	// Publisher copyright lines.
	{regexp.MustCompile(`©.*?Ltd`), ""},
	// Page footers, which PDF extraction may space with U+00A0.
	{regexp.MustCompile(`Page[\s\p{Z}]+\d+[\s\p{Z}]+of[\s\p{Z}]+\d+`), ""},
	{regexp.MustCompile(`https?://[^\s\p{Z}]+`), ""},
	// Private-use glyphs left behind by PDF font extraction.
	{regexp.MustCompile(`[\x{E000}-\x{F8FF}]`), ""},
	{regexp.MustCompile(`\n+`), "\n"},
	{regexp.MustCompile(`\t+`), "\t"},
	{regexp.MustCompile(` +`), " "},
}

// Text applies the cleaning rules to s and trims surrounding whitespace.
func Text(s string) string {
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return strings.TrimSpace(s)
}

// Documents cleans the content of each document in place and returns docs.
func Documents(docs []types.Document) []types.Document {
	for i := range docs {
		docs[i].Content = Text(docs[i].Content)
	}
	return docs
}
