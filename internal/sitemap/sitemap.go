// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sitemap discovers crawlable page URLs from a site's sitemap index
// and filters them down to text-like documents.
package sitemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"

	"github.com/pdiddy/a3d3-chat/internal/httputil"
)

// DefaultTimeout bounds each sitemap fetch.
const DefaultTimeout = 10 * time.Second

// Resolver fetches sitemap documents. Every failure is logged and turned
// into an empty result for the sitemap concerned.
type Resolver struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewResolver returns a Resolver using client for requests. A nil logger
// disables logging.
func NewResolver(client *http.Client, userAgent string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		client:    client,
		userAgent: userAgent,
		timeout:   DefaultTimeout,
		logger:    logger,
	}
}

// Resolve fetches the sitemap index at indexURL and expands the first
// maxChildren child sitemaps it lists (all of them when maxChildren <= 0).
// Leaf URLs are concatenated in sitemap order; duplicates are kept.
func (r *Resolver) Resolve(ctx context.Context, indexURL string, maxChildren int) []string {
	r.logger.Info("fetching sitemap index", zap.String("url", indexURL))
	children := r.Extract(ctx, indexURL)
	if maxChildren > 0 && len(children) > maxChildren {
		children = children[:maxChildren]
	}

	var all []string
	for _, child := range children {
		r.logger.Info("parsing sitemap", zap.String("url", child))
		all = append(all, r.Extract(ctx, child)...)
	}
	return all
}

// Extract returns the text of every <loc> element in the sitemap at url.
// It never fails: errors are logged and yield an empty slice.
func (r *Resolver) Extract(ctx context.Context, url string) []string {
	locs, err := r.extract(ctx, url)
	if err != nil {
		r.logger.Warn("failed to extract sitemap", zap.String("url", url), zap.Error(err))
		return []string{}
	}
	return locs
}

func (r *Resolver) extract(ctx context.Context, url string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return nil, err
	}

	return ParseLocs(resp.Body)
}

// ParseLocs parses a sitemap or sitemap index and returns its <loc> values
// in document order.
func ParseLocs(r io.Reader) ([]string, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing sitemap XML: %w", err)
	}

	nodes := xmlquery.Find(doc, "//loc")
	locs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if loc := strings.TrimSpace(n.InnerText()); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs, nil
}
