// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sitemap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsTextURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://a3d3.ai/about/", true},
		{"https://a3d3.ai/news/post.html", true},
		{"https://a3d3.ai/img/logo.png", false},
		{"IMAGE.PNG", false},
		{"https://a3d3.ai/files/Report.PDF", false},
		{"https://a3d3.ai/theme/style.css?ver=6.1", false},
		{"https://a3d3.ai/app.js", false},
		{"https://a3d3.ai/fonts/inter.woff", false},
		{"https://a3d3.ai/video/intro.webm", false},
		{"https://a3d3.ai/jsonfeed", true},
		{"https://a3d3.ai/people/", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTextURL(tt.url))
		})
	}
}

func TestFilterText_OrderPreservingAndIdempotent(t *testing.T) {
	in := []string{
		"https://a3d3.ai/b/",
		"https://a3d3.ai/x.jpg",
		"https://a3d3.ai/a/",
		"https://a3d3.ai/archive.zip",
		"https://a3d3.ai/b/",
	}
	once := FilterText(in)
	assert.Equal(t, []string{"https://a3d3.ai/b/", "https://a3d3.ai/a/", "https://a3d3.ai/b/"}, once)
	assert.Equal(t, once, FilterText(once))
}

func TestRobots_Filter(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nDisallow: /wp-admin/\nDisallow: /private\n")
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	robots := LoadRobots(context.Background(), ts.Client(), ts.URL+"/sitemap_index.xml", "a3d3-chat", zap.NewNop())
	got := robots.Filter([]string{
		ts.URL + "/about/",
		ts.URL + "/wp-admin/options.php",
		ts.URL + "/private/notes",
		ts.URL + "/news/",
	})
	assert.Equal(t, []string{ts.URL + "/about/", ts.URL + "/news/"}, got)
}

func TestFilterByHost_UsesEachHostsRules(t *testing.T) {
	robotsServer := func(rules string, fetches *int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/robots.txt" {
				*fetches++
				fmt.Fprint(w, rules)
				return
			}
			http.NotFound(w, r)
		}))
	}
	var siteFetches, blogFetches int
	site := robotsServer("User-agent: *\nDisallow: /private\n", &siteFetches)
	defer site.Close()
	blog := robotsServer("User-agent: *\nDisallow: /drafts\n", &blogFetches)
	defer blog.Close()

	got := FilterByHost(context.Background(), http.DefaultClient, []string{
		site.URL + "/about/",
		blog.URL + "/private/post",
		site.URL + "/private/notes",
		blog.URL + "/drafts/post",
		site.URL + "/drafts/page",
		"://broken",
	}, "a3d3-chat", nil)

	assert.Equal(t, []string{
		site.URL + "/about/",
		blog.URL + "/private/post",
		site.URL + "/drafts/page",
	}, got)
	assert.Equal(t, 1, siteFetches)
	assert.Equal(t, 1, blogFetches)
}

func TestRobots_MissingOrBrokenAllowsAll(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			defer ts.Close()

			robots := LoadRobots(context.Background(), ts.Client(), ts.URL, "a3d3-chat", nil)
			assert.True(t, robots.Allowed(ts.URL+"/anything"))
		})
	}

	var nilRobots *Robots
	assert.True(t, nilRobots.Allowed("https://a3d3.ai/x"))
}
