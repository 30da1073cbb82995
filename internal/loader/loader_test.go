// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// minimalPDF builds a valid single-font PDF with one page per entry of
// pages. Each page's lines are drawn with Tj and separated by T*.
func minimalPDF(pages [][]string) []byte {
	var objs []string
	n := len(pages)
	// 1 catalog, 2 pages, 3 font, then a page and a contents object per page.
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, lines := range pages {
		var content strings.Builder
		content.WriteString("BT /F1 12 Tf 14 TL 72 720 Td")
		for j, line := range lines {
			if j > 0 {
				content.WriteString(" T*")
			}
			fmt.Fprintf(&content, " (%s) Tj", line)
		}
		content.WriteString(" ET")
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestPDF_OneDocumentPerPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper_1_test.pdf")
	writeFile(t, path, minimalPDF([][]string{
		{"Fast inference on FPGAs", "for trigger systems"},
		{},
		{"Results and discussion"},
	}))

	docs, err := PDF(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Contains(t, docs[0].Content, "Fast inference on FPGAs")
	assert.Contains(t, docs[0].Content, "for trigger systems")
	assert.Equal(t, types.DocumentMetadata{Source: path, Page: 1}, docs[0].Metadata)

	assert.Contains(t, docs[1].Content, "Results and discussion")
	assert.Equal(t, 3, docs[1].Metadata.Page)
}

func TestPDF_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "landing.pdf")
	writeFile(t, path, []byte("<html>not a pdf</html>"))

	_, err := PDF(path)
	assert.Error(t, err)

	_, err = PDF(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

const articleHTML = `<!DOCTYPE html>
<html><head><title>Accelerated AI Algorithms</title>
<style>.x { color: red }</style>
<script>var tracking = "do not index";</script>
</head>
<body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article>
<p>The A3D3 institute develops real-time artificial intelligence for data-driven discovery in physics, astronomy and neuroscience.</p>
<p>Its researchers deploy neural networks on FPGAs and GPUs to process detector data with microsecond latency at the Large Hadron Collider.</p>
<p>Summer schools and workshops train students to design low-latency machine learning systems for scientific instruments.</p>
</article>
</body></html>`

func TestHTML_ExtractsMainContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0000.html")
	writeFile(t, path, []byte(articleHTML))

	docs, err := HTML(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Contains(t, doc.Content, "real-time artificial intelligence")
	assert.Contains(t, doc.Content, "microsecond latency")
	assert.NotContains(t, doc.Content, "do not index")
	assert.NotContains(t, doc.Content, "color: red")
	assert.Equal(t, path, doc.Metadata.Source)
	assert.Equal(t, "Accelerated AI Algorithms", doc.Metadata.Title)
	assert.Zero(t, doc.Metadata.Page)
}

func TestHTML_EmptyPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0001.html")
	writeFile(t, path, []byte("<html><head><title>Empty</title></head><body>  </body></html>"))

	docs, err := HTML(path)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestText_BlockBreaks(t *testing.T) {
	got, err := Text("<div><p>one</p><p>two</p><ul><li>a</li><li>b</li></ul><script>x()</script></div>")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "a", "b"}, strings.Fields(got))
	assert.Contains(t, got, "one\n")
	assert.NotContains(t, got, "x()")
}

func TestDir_SortedAndSkipsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.html"), nil)
	writeFile(t, filepath.Join(dir, "a.html"), nil)
	writeFile(t, filepath.Join(dir, "c.HTML"), nil)
	writeFile(t, filepath.Join(dir, "bad.html"), nil)
	writeFile(t, filepath.Join(dir, "empty.html"), nil)
	writeFile(t, filepath.Join(dir, "notes.txt"), nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.html"), 0o755))

	var seen []string
	load := func(path string) ([]types.Document, error) {
		name := filepath.Base(path)
		seen = append(seen, name)
		switch name {
		case "bad.html":
			return nil, errors.New("broken markup")
		case "empty.html":
			return nil, nil
		}
		return []types.Document{{Content: name, Metadata: types.DocumentMetadata{Source: path}}}, nil
	}

	docs, result, err := Dir(dir, ".html", load, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"a.html", "b.html", "bad.html", "c.HTML", "empty.html"}, seen)
	assert.Equal(t, BatchResult{Loaded: 3, Empty: 1, Failed: 1}, result)
	assert.Equal(t, 5, result.Total())
	assert.True(t, result.HasFailures())
	require.Len(t, docs, 3)
	assert.Equal(t, "a.html", docs[0].Content)
}

func TestDir_Missing(t *testing.T) {
	docs, result, err := Dir(filepath.Join(t.TempDir(), "nope"), ".pdf", PDF, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Zero(t, result.Total())
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pdfs", "paper_1_x.pdf"), minimalPDF([][]string{{"page one"}, {"page two"}}))
	writeFile(t, filepath.Join(dir, "htmls", "0000.html"), []byte(articleHTML))

	var out bytes.Buffer
	docs, result, err := LoadAll(filepath.Join(dir, "pdfs"), filepath.Join(dir, "htmls"), nil, &out)
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, 1, docs[0].Metadata.Page)
	assert.Equal(t, 2, docs[1].Metadata.Page)
	assert.Zero(t, docs[2].Metadata.Page)
	assert.Equal(t, 2, result.Loaded)
	assert.Contains(t, out.String(), "PDFs:  1 loaded, 0 empty, 0 failed (2 pages)")
}
