// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package citation finds the page numbers an answer cites and uses them to
// decide which server-supplied sources are shown.
package citation

import (
	"regexp"
	"slices"
	"strconv"

	"github.com/jeranaias/docchat-tui/internal/model"
)

// =============================================================================
// PATTERNS
// =============================================================================

var (
	// bracketPattern matches "[Page 3]" and "[Page 5, Page 7]".
	bracketPattern = regexp.MustCompile(`(?i)\[\s*(page\s+\d+(?:\s*,\s*page\s+\d+)*)\s*,?\s*\]`)

	// summaryPattern matches a "Sources: Page 3, Page 9" summary, also when
	// the label is wrapped in markdown emphasis ("**Sources:** Page 3").
	summaryPattern = regexp.MustCompile(`(?i)(?:^|[^a-z])sources[*_]*\s*:\s*[*_]*\s*(page\s+\d+(?:\s*,\s*page\s+\d+)*)`)

	numberPattern = regexp.MustCompile(`\d+`)
)

// =============================================================================
// PAGE SET
// =============================================================================

// Pages is a set of cited page numbers.
type Pages map[int]struct{}

// Has reports whether page is in the set.
func (p Pages) Has(page int) bool {
	_, ok := p[page]
	return ok
}

// Len returns the number of distinct pages.
func (p Pages) Len() int {
	return len(p)
}

// Sorted returns the pages in ascending order.
func (p Pages) Sorted() []int {
	out := make([]int, 0, len(p))
	for page := range p {
		out = append(out, page)
	}
	slices.Sort(out)
	return out
}

// Union returns a new set holding the pages of both sets.
func (p Pages) Union(other Pages) Pages {
	out := make(Pages, len(p)+len(other))
	for page := range p {
		out[page] = struct{}{}
	}
	for page := range other {
		out[page] = struct{}{}
	}
	return out
}

// =============================================================================
// EXTRACTION
// =============================================================================

// ExtractCitedPages returns every page number cited in text, either inline
// in brackets or in a trailing "Sources:" summary. The result does not depend
// on the order of citations and extracting twice gives the same set.
func ExtractCitedPages(text string) Pages {
	pages := make(Pages)
	for _, pattern := range []*regexp.Regexp{bracketPattern, summaryPattern} {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			for _, digits := range numberPattern.FindAllString(match[1], -1) {
				n, err := strconv.Atoi(digits)
				if err != nil || n < 1 {
					continue
				}
				pages[n] = struct{}{}
			}
		}
	}
	return pages
}

// FilterSources keeps the sources whose page is cited in text, in their
// original order, dropping repeats of a page already kept. Sources that are
// not cited are withheld.
func FilterSources(text string, sources []model.SourceRef) []model.SourceRef {
	return filter(ExtractCitedPages(text), sources)
}

func filter(cited Pages, sources []model.SourceRef) []model.SourceRef {
	out := make([]model.SourceRef, 0, len(sources))
	if cited.Len() == 0 {
		return out
	}
	seen := make(map[int]bool, len(sources))
	for _, src := range sources {
		if !cited.Has(src.PageNumber) || seen[src.PageNumber] {
			continue
		}
		seen[src.PageNumber] = true
		out = append(out, src)
	}
	return out
}
