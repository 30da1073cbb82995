// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/a3d3-chat/pkg/types"
)

const sampleUnpaywallOA = `{
  "doi": "10.1103/physrevd.108.012345",
  "is_oa": true,
  "best_oa_location": {
    "url": "https://arxiv.org/abs/2301.00001",
    "url_for_pdf": "https://arxiv.org/pdf/2301.00001"
  }
}`

const sampleUnpaywallClosed = `{
  "doi": "10.1016/j.nima.2023.1",
  "is_oa": false,
  "best_oa_location": null
}`

const sampleUnpaywallNoPDF = `{
  "doi": "10.1088/1748-0221/17/01/C01001",
  "is_oa": true,
  "best_oa_location": {
    "url": "https://example.com/landing",
    "url_for_pdf": null
  }
}`

func TestResolveUnpaywall(t *testing.T) {
	tests := []struct {
		name       string
		doi        string
		response   string
		statusCode int
		wantURL    string
		wantErr    bool
	}{
		{
			name:       "OA PDF available",
			doi:        "10.1103/PhysRevD.108.012345",
			response:   sampleUnpaywallOA,
			statusCode: http.StatusOK,
			wantURL:    "https://arxiv.org/pdf/2301.00001",
		},
		{
			name:       "closed access",
			doi:        "10.1016/j.nima.2023.1",
			response:   sampleUnpaywallClosed,
			statusCode: http.StatusOK,
		},
		{
			name:       "OA location without PDF",
			doi:        "10.1088/1748-0221/17/01/C01001",
			response:   sampleUnpaywallNoPDF,
			statusCode: http.StatusOK,
		},
		{
			name:       "unknown DOI",
			doi:        "10.0000/missing",
			response:   `{"error": true}`,
			statusCode: http.StatusNotFound,
			wantErr:    true,
		},
		{
			name:       "non-200 success status",
			doi:        "10.1103/PhysRevD.108.012345",
			response:   sampleUnpaywallOA,
			statusCode: http.StatusNonAuthoritativeInfo,
			wantErr:    true,
		},
		{
			name:       "malformed body",
			doi:        "10.0000/broken",
			response:   `{"best_oa_location": `,
			statusCode: http.StatusOK,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotEmail string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotEmail = r.URL.Query().Get("email")
				w.WriteHeader(tt.statusCode)
				fmt.Fprint(w, tt.response)
			}))
			defer ts.Close()

			origBase := unpaywallAPIBase
			unpaywallAPIBase = ts.URL + "/v2/"
			defer func() { unpaywallAPIBase = origBase }()

			cfg := types.AcquisitionConfig{Email: "someone@example.org"}

			got, err := resolveUnpaywall(context.Background(), ts.Client(), tt.doi, cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveUnpaywall: %v", err)
			}
			if got != tt.wantURL {
				t.Errorf("resolveUnpaywall() = %q, want %q", got, tt.wantURL)
			}
			if gotPath != "/v2/"+tt.doi {
				t.Errorf("request path = %q, want %q", gotPath, "/v2/"+tt.doi)
			}
			if gotEmail != "someone@example.org" {
				t.Errorf("email = %q, want %q", gotEmail, "someone@example.org")
			}
		})
	}
}

func TestResolveUnpaywallNetworkError(t *testing.T) {
	origBase := unpaywallAPIBase
	unpaywallAPIBase = "http://127.0.0.1:1/"
	defer func() { unpaywallAPIBase = origBase }()

	client := &http.Client{Timeout: time.Second}
	_, err := resolveUnpaywall(context.Background(), client, "10.1145/1234567", types.AcquisitionConfig{})
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
}
