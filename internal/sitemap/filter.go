// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sitemap

import (
	"net/url"
	"strings"
)

// assetExtensions lists suffixes of binary or asset URLs that carry no
// document text.
var assetExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".pdf", ".zip",
	".js", ".css", ".mp4", ".webm", ".ttf", ".woff", ".ico", ".webp",
}

// IsTextURL reports whether u looks like a text document. The comparison
// is made on the lowercased URL path, so query strings and fragments do
// not hide an asset extension.
func IsTextURL(u string) bool {
	path := u
	if parsed, err := url.Parse(u); err == nil && parsed.Path != "" {
		path = parsed.Path
	}
	path = strings.ToLower(path)
	for _, ext := range assetExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	return true
}

// FilterText returns the text-like URLs of urls in their original order.
func FilterText(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if IsTextURL(u) {
			out = append(out, u)
		}
	}
	return out
}
