// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package award

import "regexp"

const (
	// citationBlockSelector matches the container of one publication
	// citation on an award page.
	citationBlockSelector = "div.margintop15"

	// relatedCitationsSelector marks the collapsible "related citations"
	// subsection. Blocks containing it are skipped. The id is fixed by the
	// current page layout and will silently stop matching if NSF renames it.
	relatedCitationsSelector = "div#showC1"
)

var (
	doiPattern      = regexp.MustCompile(`10\.\d{4,9}/[-._;()/:A-Za-z0-9]+`)
	citationPattern = regexp.MustCompile(`par\.nsf\.gov/biblio/(\d+)`)
)
