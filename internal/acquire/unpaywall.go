// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/a3d3-chat/internal/httputil"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// unpaywallAPIBase is the Unpaywall v2 endpoint. Declared as a var so tests
// can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// unpaywallTimeout bounds a single lookup.
const unpaywallTimeout = 10 * time.Second

// unpaywallResponse captures the fields we need from an Unpaywall record.
type unpaywallResponse struct {
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
	URL       string `json:"url"`
}

// resolveUnpaywall looks up doi and returns the best open-access PDF URL.
// It returns an empty string when the paper has no open-access PDF.
func resolveUnpaywall(ctx context.Context, client *http.Client, doi string, cfg types.AcquisitionConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, unpaywallTimeout)
	defer cancel()

	apiURL := unpaywallAPIBase + doi + "?email=" + url.QueryEscape(cfg.Email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating Unpaywall request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Unpaywall API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Unpaywall lookup: %w",
			&httputil.StatusError{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode})
	}

	var up unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		return "", fmt.Errorf("parsing Unpaywall response: %w", err)
	}

	if up.BestOALocation == nil {
		return "", nil
	}
	return up.BestOALocation.URLForPDF, nil
}
