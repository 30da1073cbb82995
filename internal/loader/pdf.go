// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// PDF extracts the plain text of each page of the file at path. Pages
// without text are dropped; Page numbers are 1-based.
func PDF(path string) (docs []types.Document, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			docs, err = nil, fmt.Errorf("parsing PDF %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting text from %s page %d: %w", path, i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, types.Document{
			Content:  text,
			Metadata: types.DocumentMetadata{Source: path, Page: i},
		})
	}
	return docs, nil
}
