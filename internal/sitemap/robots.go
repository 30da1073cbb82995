// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sitemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// Robots applies a site's robots.txt rules for one user agent. A nil group
// allows every path.
type Robots struct {
	group *robotstxt.Group
}

// LoadRobots fetches robots.txt from the root of siteURL. A missing,
// unreachable, or unparsable file yields a Robots that allows everything.
func LoadRobots(ctx context.Context, client *http.Client, siteURL, userAgent string, logger *zap.Logger) *Robots {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := fetchRobots(ctx, client, siteURL, userAgent)
	if err != nil {
		logger.Warn("robots.txt unavailable, allowing all paths", zap.String("site", siteURL), zap.Error(err))
		return &Robots{}
	}
	return &Robots{group: data.FindGroup(userAgent)}
}

func fetchRobots(ctx context.Context, client *http.Client, siteURL, userAgent string) (*robotstxt.RobotsData, error) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid site URL %q", siteURL)
	}
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	// A server error would make robotstxt disallow everything; treat it
	// like a missing file instead.
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, robotsURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return robotstxt.FromStatusAndBytes(resp.StatusCode, body)
}

// Allowed reports whether rawURL may be fetched.
func (r *Robots) Allowed(rawURL string) bool {
	if r == nil || r.group == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return r.group.Test(path)
}

// Filter returns the allowed URLs of urls in their original order.
func (r *Robots) Filter(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if r.Allowed(u) {
			out = append(out, u)
		}
	}
	return out
}

// FilterByHost drops the URLs disallowed by their own host's robots.txt.
// Each host's file is fetched once, on the first URL that names it.
// Unparsable URLs are dropped. Order is preserved.
func FilterByHost(ctx context.Context, client *http.Client, urls []string, userAgent string, logger *zap.Logger) []string {
	byHost := make(map[string]*Robots)
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		site := u.Scheme + "://" + u.Host
		robots, ok := byHost[site]
		if !ok {
			robots = LoadRobots(ctx, client, site, userAgent, logger)
			byHost[site] = robots
		}
		if robots.Allowed(raw) {
			out = append(out, raw)
		}
	}
	return out
}
