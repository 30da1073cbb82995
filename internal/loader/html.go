// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// blockElements end a line of extracted text.
const blockElements = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, section, article, header, footer, blockquote, pre"

// HTML extracts the main content of the page at path as one Document.
// Readability picks the article body; when it finds nothing the whole
// page body is used instead. A page without text yields no Document.
func HTML(path string) ([]types.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	title, body := "", ""
	abs, _ := filepath.Abs(path)
	article, err := readability.FromReader(bytes.NewReader(raw), &url.URL{Scheme: "file", Path: abs})
	if err == nil {
		title = strings.TrimSpace(article.Title)
		if body, err = Text(article.Content); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(body) == "" {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if title == "" {
			title = strings.TrimSpace(doc.Find("title").First().Text())
		}
		body = selectionText(doc.Find("body"))
	}

	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	return []types.Document{{
		Content:  body,
		Metadata: types.DocumentMetadata{Source: path, Title: title},
	}}, nil
}

// Text returns the visible text of an HTML fragment with a line break
// after every block element.
func Text(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	return selectionText(doc.Selection), nil
}

func selectionText(sel *goquery.Selection) string {
	sel.Find("script, style, noscript, template").Remove()
	sel.Find(blockElements).AfterHtml("\n")
	return sel.Text()
}
