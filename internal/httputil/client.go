// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// CheckStatus returns a *StatusError when resp is not a 2xx response.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode}
	}
	return nil
}

// Client is an HTTP client with a fixed User-Agent and retry policy. It
// holds no mutable state after construction and is safe to share between
// goroutines.
type Client struct {
	http      *http.Client
	policy    RetryPolicy
	userAgent string
}

// NewClient builds a Client with a pooled transport so parallel workers
// reuse connections to the same host.
func NewClient(cfg types.HTTPConfig, retry types.RetryConfig) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}
	policy := DefaultRetryPolicy()
	if retry.MaxRetries > 0 {
		policy.MaxRetries = retry.MaxRetries
	}
	if retry.BaseDelay > 0 {
		policy.BaseDelay = retry.BaseDelay
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout, Transport: transport},
		policy:    policy,
		userAgent: cfg.UserAgent,
	}
}

// WrapClient builds a Client around an existing *http.Client, typically
// the client of an httptest server.
func WrapClient(hc *http.Client, policy RetryPolicy, userAgent string) *Client {
	return &Client{http: hc, policy: policy, userAgent: userAgent}
}

// HTTP returns the underlying client for requests that must not be retried.
func (c *Client) HTTP() *http.Client {
	return c.http
}

// UserAgent returns the User-Agent header value sent with every request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Get issues a GET request under the client's retry policy. The caller
// closes the response body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return DoWithRetry(ctx, c.http, req, c.policy)
}
