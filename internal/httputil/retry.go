// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"slices"
	"time"
)

// RetryBaseDelay is the default base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

const defaultMaxRetries = 5

// DefaultRetryStatuses are the transient statuses worth retrying.
var DefaultRetryStatuses = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// RetryPolicy decides which requests are retried and how long to wait.
// The zero value uses the defaults: 5 retries, RetryBaseDelay, the
// DefaultRetryStatuses, and GET only.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Statuses   []int
	Methods    []string
}

// DefaultRetryPolicy returns the policy used by the crawl stage.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: defaultMaxRetries,
		BaseDelay:  RetryBaseDelay,
		Statuses:   DefaultRetryStatuses,
		Methods:    []string{http.MethodGet},
	}
}

func (p RetryPolicy) maxRetries() int {
	if p.MaxRetries <= 0 {
		return defaultMaxRetries
	}
	return p.MaxRetries
}

func (p RetryPolicy) allowsMethod(method string) bool {
	if len(p.Methods) == 0 {
		return method == http.MethodGet
	}
	return slices.Contains(p.Methods, method)
}

func (p RetryPolicy) retryStatus(code int) bool {
	if len(p.Statuses) == 0 {
		return slices.Contains(DefaultRetryStatuses, code)
	}
	return slices.Contains(p.Statuses, code)
}

// Backoff returns the wait before retry number attempt (0-based):
// BaseDelay, 2*BaseDelay, 4*BaseDelay, ...
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = RetryBaseDelay
	}
	return time.Duration(math.Pow(2, float64(attempt))) * base
}

// DoWithRetry executes an HTTP request and retries transient failures with
// exponential backoff. Only methods allowed by the policy are retried; any
// other request is sent exactly once.
//
// A response whose status is in the policy's retry set, or a transport
// error, triggers a retry. On each retried response the body is drained and
// closed before sleeping. If the context is cancelled during a backoff wait
// the function returns ctx.Err(). After exhausting retries the last
// response (or transport error) is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	if !policy.allowsMethod(req.Method) {
		return client.Do(req.Clone(ctx))
	}

	maxRetries := policy.maxRetries()
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil || attempt >= maxRetries {
				return nil, err
			}
		} else {
			if !policy.retryStatus(resp.StatusCode) || attempt >= maxRetries {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(policy.Backoff(attempt)):
		}
	}
}
