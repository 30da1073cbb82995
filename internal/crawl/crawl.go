// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl downloads web pages in parallel and records the ones that
// were saved.
package crawl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/a3d3-chat/internal/httputil"
	"github.com/pdiddy/a3d3-chat/internal/manifest"
	"github.com/pdiddy/a3d3-chat/internal/sitemap"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

const defaultWorkers = 8

// Fetcher downloads pages with at most Workers requests in flight. The
// Client is shared by every worker.
type Fetcher struct {
	Client  *httputil.Client
	Workers int

	// Delay is the pause a worker takes after saving a page.
	Delay time.Duration

	Logger *zap.Logger
}

// NewFetcher returns a Fetcher configured from cfg.
func NewFetcher(client *httputil.Client, cfg types.CrawlConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Client:  client,
		Workers: cfg.Workers,
		Delay:   cfg.Delay,
		Logger:  logger,
	}
}

// FetchAll downloads urls into dir as 0000.html, 0001.html, ... where the
// number is the URL's position in urls. A failed URL produces no file and
// no record and does not stop the others. Records are returned in
// completion order. The only error is a failure to create dir.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, dir string) ([]types.PageRecord, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := f.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var (
		mu      sync.Mutex
		records = make([]types.PageRecord, 0, len(urls))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, u := range urls {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec, err := f.fetchOne(gctx, i, u, dir)
			if err != nil {
				logger.Warn("page download failed", zap.String("url", u), zap.Error(err))
				return nil
			}
			logger.Debug("page saved", zap.String("url", u), zap.String("file", rec.Filename))
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return an error, so Wait only synchronises.
	_ = g.Wait()

	return records, nil
}

// fetchOne downloads one page, writes it and then sleeps for the
// configured delay.
func (f *Fetcher) fetchOne(ctx context.Context, idx int, url, dir string) (types.PageRecord, error) {
	resp, err := f.Client.Get(ctx, url)
	if err != nil {
		return types.PageRecord{}, err
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return types.PageRecord{}, err
	}

	filename := fmt.Sprintf("%04d.html", idx)
	if err := writeFile(filepath.Join(dir, filename), resp.Body); err != nil {
		return types.PageRecord{}, err
	}

	// The page is saved; cancellation only cuts the pause short.
	_ = sleep(ctx, f.Delay)
	return types.PageRecord{URL: url, Filename: filename}, nil
}

// writeFile streams r to a temporary file next to path and renames it
// into place.
func writeFile(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".crawl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing page: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WritePageManifest writes the url,filename manifest for records.
func WritePageManifest(path string, records []types.PageRecord) error {
	return manifest.WritePages(path, records)
}

// Result summarises a crawl run.
type Result struct {
	Discovered int
	Filtered   int
	Saved      int
}

// Failed returns the number of text URLs that were not saved.
func (r Result) Failed() int {
	return r.Filtered - r.Saved
}

// Run resolves the sitemap index, keeps text-like (and, when configured,
// robots-allowed) URLs, downloads them and writes the page manifest.
func Run(ctx context.Context, cfg types.CrawlConfig, logger *zap.Logger, w io.Writer) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := httputil.NewClient(cfg.HTTPConfig, cfg.Retry)

	resolver := sitemap.NewResolver(client.HTTP(), cfg.UserAgent, logger)
	all := resolver.Resolve(ctx, cfg.SitemapIndex, cfg.MaxSitemaps)
	urls := sitemap.FilterText(all)
	if cfg.RespectRobots {
		urls = sitemap.FilterByHost(ctx, client.HTTP(), urls, cfg.UserAgent, logger)
	}
	fmt.Fprintf(w, "discovered %d URLs, %d text pages to fetch\n", len(all), len(urls))

	records, err := NewFetcher(client, cfg, logger).FetchAll(ctx, urls, cfg.HTMLDir)
	if err != nil {
		return Result{}, err
	}
	if err := WritePageManifest(cfg.ManifestPath, records); err != nil {
		return Result{}, fmt.Errorf("writing page manifest: %w", err)
	}

	res := Result{Discovered: len(all), Filtered: len(urls), Saved: len(records)}
	fmt.Fprintf(w, "\nCrawl summary: %d saved, %d failed (total: %d)\n", res.Saved, res.Failed(), res.Filtered)
	return res, ctx.Err()
}
