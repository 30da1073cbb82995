package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/a3d3-chat/internal/crawl"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Download the project website's text pages",
	Long: `Web expands the sitemap index into page URLs, drops images and other
binary assets, and downloads every remaining page in parallel into the HTML
directory. It writes a manifest of url,filename pairs. Pages that fail are
logged and left out; they never stop the crawl.`,
	RunE: runWeb,
}

func init() {
	webCmd.Flags().String("sitemap", "", "sitemap index URL")
	webCmd.Flags().Int("max-sitemaps", 0, "child sitemaps to expand (0 = all; default 2)")
	webCmd.Flags().Int("workers", 0, "parallel downloads (default 8)")
	webCmd.Flags().Duration("delay", 0, "pause after each page per worker (default 500ms)")
	webCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 15s)")
	webCmd.Flags().String("html-dir", "", "output directory for pages (default data/htmls)")
	webCmd.Flags().String("manifest", "", "page manifest CSV (default data/a3d3_webs.csv)")
	webCmd.Flags().Bool("robots", false, "skip URLs disallowed by robots.txt")
	registerFlags(webCmd, map[string]string{
		"sitemap":      "crawl.sitemap_index",
		"max-sitemaps": "crawl.max_sitemaps",
		"workers":      "crawl.workers",
		"delay":        "crawl.delay",
		"timeout":      "crawl.timeout",
		"html-dir":     "crawl.html_dir",
		"manifest":     "crawl.manifest_path",
		"robots":       "crawl.respect_robots",
	})

	rootCmd.AddCommand(webCmd)
}

func runWeb(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig().Crawl
	_, err := crawl.Run(cmd.Context(), cfg, logger, cmd.OutOrStdout())
	return err
}
