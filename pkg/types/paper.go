// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strconv"

// DOIBase is the resolver prefix used to build canonical DOI links.
const DOIBase = "https://doi.org/"

// PaperRecord holds the citation metadata parsed from an award page.
// Records are created by the award parser and never mutated afterwards.
type PaperRecord struct {
	// Index is the 1-based position of the citation on the award page.
	Index int `json:"index" yaml:"index"`

	// Authors is the author line exactly as printed on the page.
	Authors string `json:"authors" yaml:"authors"`

	// Title is the paper title with surrounding quotes removed.
	Title string `json:"title" yaml:"title"`

	// Journal is the venue line.
	Journal string `json:"journal" yaml:"journal"`

	// DOI is the bare identifier (e.g. "10.1103/PhysRevD.108.012345").
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// DOILink is DOIBase+DOI, or empty when DOI is empty.
	DOILink string `json:"doi_link,omitempty" yaml:"doi_link,omitempty"`

	// NSFCitationID is the numeric par.nsf.gov biblio id.
	NSFCitationID string `json:"nsf_citation_id,omitempty" yaml:"nsf_citation_id,omitempty"`
}

// HasSource reports whether the record carries at least one identifier a
// PDF could be resolved from.
func (p PaperRecord) HasSource() bool {
	return p.DOI != "" || p.NSFCitationID != ""
}

// PaperHeader is the column layout of the paper and failed-entry manifests.
var PaperHeader = []string{"index", "authors", "title", "journal", "doi", "doi_link", "nsf_citation_id"}

// Row returns the record in PaperHeader column order.
func (p PaperRecord) Row() []string {
	return []string{
		strconv.Itoa(p.Index),
		p.Authors,
		p.Title,
		p.Journal,
		p.DOI,
		p.DOILink,
		p.NSFCitationID,
	}
}

// PageRecord describes one successfully downloaded web page.
type PageRecord struct {
	URL      string `json:"url" yaml:"url"`
	Filename string `json:"filename" yaml:"filename"`
}

// PageHeader is the column layout of the page manifest.
var PageHeader = []string{"url", "filename"}

// Row returns the record in PageHeader column order.
func (p PageRecord) Row() []string {
	return []string{p.URL, p.Filename}
}
