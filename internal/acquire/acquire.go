// Package acquire downloads the PDFs of award papers and records the ones
// no source could provide.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/a3d3-chat/internal/httputil"
	"github.com/pdiddy/a3d3-chat/internal/manifest"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// citationPDFBase serves the PDF attached to a par.nsf.gov citation. Tests
// override this.
var citationPDFBase = "https://par.nsf.gov/servlets/purl/"

// ErrNotPDF is returned when a download responds with something other
// than a PDF, typically an HTML landing or login page.
var ErrNotPDF = errors.New("response is not a PDF")

// BatchResult holds the outcome of a batch acquisition run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int

	// Failures are the records no strategy could download, in input order.
	Failures []types.PaperRecord
}

// Total returns the total number of records processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any papers failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9_-] with an
// underscore and truncates the result to 80 characters.
func SanitizeFilename(s string) string {
	s = unsafeFilenameChars.ReplaceAllString(s, "_")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

// Filename returns the PDF file name for a record:
// paper_<index>_<sanitized first 60 characters of the title>.pdf.
func Filename(rec types.PaperRecord) string {
	title := []rune(rec.Title)
	if len(title) > 60 {
		title = title[:60]
	}
	return fmt.Sprintf("paper_%d_%s.pdf", rec.Index, SanitizeFilename(string(title)))
}

// Downloader fetches paper PDFs one at a time. Network downloads are
// spaced by a rate limiter.
type Downloader struct {
	client  *http.Client
	cfg     types.AcquisitionConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewDownloader returns a Downloader writing into cfg.PDFDir.
func NewDownloader(client *http.Client, cfg types.AcquisitionConfig, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.DownloadDelay > 0 {
		limit = rate.Every(cfg.DownloadDelay)
	}
	return &Downloader{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// AcquirePaper downloads the PDF for rec. The citation PDF is tried first,
// then the open-access location reported by Unpaywall. If the target file
// already exists no request is made and skipped is true.
func (d *Downloader) AcquirePaper(ctx context.Context, rec types.PaperRecord) (path string, skipped bool, err error) {
	path = filepath.Join(d.cfg.PDFDir, Filename(rec))
	if _, err := os.Stat(path); err == nil {
		return path, true, nil
	}
	if !rec.HasSource() {
		return path, false, fmt.Errorf("paper %d has neither DOI nor citation id", rec.Index)
	}

	var errs []error
	if rec.NSFCitationID != "" {
		url := citationPDFBase + rec.NSFCitationID
		d.logger.Debug("trying citation PDF", zap.String("url", url))
		err := d.download(ctx, url, path)
		if err == nil {
			return path, false, nil
		}
		d.logger.Warn("citation PDF failed", zap.Int("index", rec.Index), zap.Error(err))
		errs = append(errs, fmt.Errorf("citation PDF: %w", err))
	}

	if rec.DOI != "" {
		err := d.tryUnpaywall(ctx, rec.DOI, path)
		if err == nil {
			return path, false, nil
		}
		d.logger.Warn("unpaywall PDF failed", zap.Int("index", rec.Index), zap.String("doi", rec.DOI), zap.Error(err))
		errs = append(errs, fmt.Errorf("unpaywall: %w", err))
	}

	if ctx.Err() != nil {
		return path, false, ctx.Err()
	}
	return path, false, errors.Join(errs...)
}

func (d *Downloader) tryUnpaywall(ctx context.Context, doi, path string) error {
	pdfURL, err := resolveUnpaywall(ctx, d.client, doi, d.cfg)
	if err != nil {
		return err
	}
	if pdfURL == "" {
		return errors.New("no open-access PDF")
	}
	d.logger.Debug("trying unpaywall PDF", zap.String("url", pdfURL))
	return d.download(ctx, pdfURL, path)
}

// AcquireBatch processes records in order, printing per-item status and
// returning a summary. It continues after individual failures and stops
// early only when ctx is cancelled.
func (d *Downloader) AcquireBatch(ctx context.Context, records []types.PaperRecord, w io.Writer) BatchResult {
	var result BatchResult
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		path, skipped, err := d.AcquirePaper(ctx, rec)
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed:  paper %d (%v)\n", rec.Index, err)
			result.Failed++
			result.Failures = append(result.Failures, rec)
		case skipped:
			fmt.Fprintf(w, "skipped: %s (already exists)\n", filepath.Base(path))
			result.Skipped++
		default:
			fmt.Fprintf(w, "saved:   %s\n", filepath.Base(path))
			result.Downloaded++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// Run reads the paper manifest (or the failed manifest when
// cfg.RetryFailed is set) and acquires every PDF. This run's failures
// replace the failed manifest; a run without failures removes it.
func Run(ctx context.Context, cfg types.AcquisitionConfig, paperManifest string, logger *zap.Logger, w io.Writer) (BatchResult, error) {
	input := paperManifest
	if cfg.RetryFailed {
		input = cfg.FailedPath
	}
	records, err := manifest.ReadPapers(input)
	if err != nil {
		return BatchResult{}, fmt.Errorf("reading %s: %w", input, err)
	}
	if err := os.MkdirAll(cfg.PDFDir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating directory %s: %w", cfg.PDFDir, err)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	result := NewDownloader(client, cfg, logger).AcquireBatch(ctx, records, w)

	if len(result.Failures) > 0 {
		if err := manifest.WritePapers(cfg.FailedPath, result.Failures); err != nil {
			return result, fmt.Errorf("writing failed manifest: %w", err)
		}
	} else if err := os.Remove(cfg.FailedPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("removing stale failed manifest: %w", err)
	}
	return result, ctx.Err()
}

// download fetches url to destPath through a temporary file. The response
// must be 2xx with a PDF content type.
func (d *Downloader) download(ctx context.Context, url, destPath string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return err
	}
	if !isPDF(resp.Header.Get("Content-Type")) {
		return fmt.Errorf("%w: %q from %s", ErrNotPDF, resp.Header.Get("Content-Type"), url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// isPDF reports whether a Content-Type header mentions pdf anywhere,
// parameters included.
func isPDF(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "pdf")
}
