// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package award extracts publication metadata from an NSF award page.
package award

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pdiddy/a3d3-chat/internal/httputil"
	"github.com/pdiddy/a3d3-chat/internal/manifest"
	"github.com/pdiddy/a3d3-chat/pkg/types"
)

// awardBase is the NSF award search endpoint. Tests override this.
var awardBase = "https://www.nsf.gov/awardsearch/showAward?AWD_ID="

// ErrNoRecords is returned when an award page lists no qualifying citation.
var ErrNoRecords = errors.New("no paper records found on award page")

// AwardURL returns the public page for awardID.
func AwardURL(awardID string) string {
	return awardBase + awardID
}

// FetchAward downloads the award page HTML. The request is made once; the
// client's timeout bounds it.
func FetchAward(ctx context.Context, client *http.Client, userAgent, awardID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, AwardURL(awardID), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching award %s: %w", awardID, err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return "", fmt.Errorf("fetching award %s: %w", awardID, err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading award page: %w", err)
	}
	return string(body), nil
}

// ParseAward returns one PaperRecord per citation block on the page, in
// document order. It returns ErrNoRecords when no block qualifies.
func ParseAward(html string) ([]types.PaperRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing award HTML: %w", err)
	}

	var records []types.PaperRecord
	doc.Find(citationBlockSelector).Each(func(_ int, block *goquery.Selection) {
		if block.Find(relatedCitationsSelector).Length() > 0 {
			return
		}
		rec, ok := parseBlock(block)
		if !ok {
			return
		}
		rec.Index = len(records) + 1
		records = append(records, rec)
	})

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// parseBlock reads one citation block. Blocks without a DOI link are not
// citations.
func parseBlock(block *goquery.Selection) (types.PaperRecord, bool) {
	var rec types.PaperRecord

	block.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if rec.DOI == "" {
			if m := doiPattern.FindString(href); m != "" {
				rec.DOI = m
				rec.DOILink = types.DOIBase + m
			}
		}
		if rec.NSFCitationID == "" {
			if m := citationPattern.FindStringSubmatch(href); m != nil {
				rec.NSFCitationID = m[1]
			}
		}
	})
	if rec.DOI == "" {
		return rec, false
	}

	var lines []string
	block.Find("span").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	fields := make([]string, 3)
	copy(fields, lines)

	rec.Authors = fields[0]
	rec.Title = strings.TrimSpace(strings.Trim(fields[1], `"`))
	rec.Journal = fields[2]
	return rec, true
}

// Extract fetches the award page, parses it and writes the paper
// manifest. ErrNoRecords aborts before anything is written.
func Extract(ctx context.Context, client *http.Client, cfg types.AwardConfig, logger *zap.Logger) ([]types.PaperRecord, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("fetching award page", zap.String("url", AwardURL(cfg.AwardID)))

	html, err := FetchAward(ctx, client, cfg.UserAgent, cfg.AwardID)
	if err != nil {
		return nil, err
	}

	records, err := ParseAward(html)
	if err != nil {
		return nil, err
	}
	logger.Info("parsed award citations", zap.Int("papers", len(records)))
	for _, r := range records {
		logger.Debug("paper", zap.Int("index", r.Index), zap.String("title", r.Title),
			zap.String("doi", r.DOI), zap.String("nsf_citation_id", r.NSFCitationID))
	}

	if err := manifest.WritePapers(cfg.ManifestPath, records); err != nil {
		return nil, fmt.Errorf("writing paper manifest: %w", err)
	}
	return records, nil
}
