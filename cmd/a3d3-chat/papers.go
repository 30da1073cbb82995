package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pdiddy/a3d3-chat/internal/acquire"
	"github.com/pdiddy/a3d3-chat/internal/award"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Extract the award's publications and download their PDFs",
	Long: `Papers reads the NSF award page, keeps the citations that carry a DOI,
and writes them to the paper manifest. It then downloads a PDF for each
paper, first from the NSF public access repository and then from the
open-access location Unpaywall reports. PDFs already on disk are skipped.

Papers that could not be downloaded are written to the failed manifest;
rerun with --retry-failed to try only those.`,
	RunE: runPapers,
}

func init() {
	papersCmd.Flags().String("award", "", "NSF award ID (default 2117997)")
	papersCmd.Flags().String("manifest", "", "paper manifest CSV (default data/nsf_award_papers_filtered.csv)")
	papersCmd.Flags().String("pdf-dir", "", "output directory for PDFs (default data/pdfs)")
	papersCmd.Flags().String("failed", "", "failed-entry manifest CSV (default data/failed_pdfs.csv)")
	papersCmd.Flags().String("email", "", "contact email sent to Unpaywall")
	papersCmd.Flags().Duration("delay", 0, "minimum spacing between downloads")
	papersCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 15s)")
	papersCmd.Flags().Bool("retry-failed", false, "download only the entries of the failed manifest")
	papersCmd.Flags().Bool("skip-metadata", false, "reuse the existing paper manifest instead of fetching the award page")
	registerFlags(papersCmd, map[string]string{
		"award":        "award.award_id",
		"manifest":     "award.manifest_path",
		"pdf-dir":      "acquisition.pdf_dir",
		"failed":       "acquisition.failed_path",
		"email":        "acquisition.email",
		"delay":        "acquisition.download_delay",
		"timeout":      "acquisition.timeout",
		"retry-failed": "acquisition.retry_failed",
	})

	rootCmd.AddCommand(papersCmd)
}

func runPapers(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	skip, _ := cmd.Flags().GetBool("skip-metadata")
	if !skip && !cfg.Acquisition.RetryFailed {
		client := &http.Client{Timeout: cfg.Award.Timeout}
		records, err := award.Extract(ctx, client, cfg.Award, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Found %d papers with DOIs; wrote %s\n\n", len(records), cfg.Award.ManifestPath)
	}

	result, err := acquire.Run(ctx, cfg.Acquisition, cfg.Award.ManifestPath, logger, out)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed acquisition; see %s", result.Failed, cfg.Acquisition.FailedPath)
	}
	return nil
}
