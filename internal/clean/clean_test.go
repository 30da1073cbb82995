// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"hyphenated line break", "co-\noperation", "cooperation"},
		{"hyphen unicode letters", "Über-\nsicht", "Übersicht"},
		{"hyphen before space kept", "well- \nknown", "well- \nknown"},
		{"copyright", "text © 2023 Elsevier Ltd more", "text more"},
		{"copyright spans one line only", "© 2023\nLtd", "© 2023\nLtd"},
		{"page marker", "end Page 3 of 12 start", "end start"},
		{"page marker multi space", "Page  3\nof 12", ""},
		{"page marker no-break spaces", "end Page\u00a03\u00a0of\u202f10 start", "end start"},
		{"url stops at no-break space", "see https://a3d3.ai\u00a0today", "see \u00a0today"},
		{"urls", "see https://a3d3.ai/about and http://x.y/z.", "see and"},
		{"private use glyphs", "a\uE000b\uF8FFc", "abc"},
		{"collapse newlines", "a\n\n\nb", "a\nb"},
		{"collapse five newlines", "a\n\n\n\n\nb", "a\nb"},
		{"collapse tabs", "a\t\t\tb", "a\tb"},
		{"collapse spaces", "a    b", "a b"},
		{"trim", "  \n a \n  ", "a"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	in := "Fast ML-\ninference\n\n\nPage 1 of 2  at https://a3d3.ai  © 2023 Foo Ltd.\t\tdone"
	once := Text(in)
	assert.Equal(t, once, Text(once))
}

func TestDocuments_MutatesInPlace(t *testing.T) {
	docs := []types.Document{
		{Content: "  a   b  ", Metadata: types.DocumentMetadata{Source: "x.pdf", Page: 1}},
		{Content: "c\n\n\nd", Metadata: types.DocumentMetadata{Source: "y.html", Title: "Y"}},
	}
	out := Documents(docs)

	assert.Equal(t, "a b", docs[0].Content)
	assert.Equal(t, "c\nd", docs[1].Content)
	assert.Equal(t, "Y", out[1].Metadata.Title)
	assert.Same(t, &docs[0], &out[0])
}
