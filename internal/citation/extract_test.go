// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/docchat-tui/internal/model"
)

func TestExtractCitedPages_Combined(t *testing.T) {
	text := "Pricing is covered [Page 3] and again [Page 5, Page 7] in detail. Sources: Page 3, Page 9"
	assert.Equal(t, []int{3, 5, 7, 9}, ExtractCitedPages(text).Sorted())
}

func TestExtractCitedPages(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int
	}{
		{"no citations", "Nothing cited here.", []int{}},
		{"empty", "", []int{}},
		{"single bracket", "See [Page 12].", []int{12}},
		{"bracket list", "See [Page 1, Page 2,Page 3].", []int{1, 2, 3}},
		{"case insensitive", "see [page 4] and [PAGE 6]", []int{4, 6}},
		{"summary on own line", "Answer text.\n\nSources: Page 2, Page 8", []int{2, 8}},
		{"bold summary", "Answer.\n\n**Sources:** Page 10, Page 11", []int{10, 11}},
		{"italic summary", "Answer.\n\n_Sources_: Page 5", []int{5}},
		{"duplicates collapse", "[Page 3] [Page 3] Sources: Page 3", []int{3}},
		{"bare page mention ignored", "on page 7 of the guide", []int{}},
		{"page zero ignored", "[Page 0]", []int{}},
		{"sources without pages", "Sources: the manual", []int{}},
		{"unicode around", "Café [Page 2] - naïve", []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCitedPages(tt.text).Sorted())
		})
	}
}

func TestExtractCitedPages_OrderIndependent(t *testing.T) {
	a := ExtractCitedPages("[Page 9] then [Page 2, Page 4]")
	b := ExtractCitedPages("[Page 2, Page 4] then [Page 9]")
	assert.Equal(t, a, b)
}

func TestExtractCitedPages_Idempotent(t *testing.T) {
	text := "[Page 1] Sources: Page 2"
	assert.Equal(t, ExtractCitedPages(text), ExtractCitedPages(text))
}

func TestPages_Union(t *testing.T) {
	a := ExtractCitedPages("[Page 1, Page 2]")
	b := ExtractCitedPages("[Page 2, Page 3]")
	u := a.Union(b)
	assert.Equal(t, []int{1, 2, 3}, u.Sorted())
	assert.True(t, u.Has(3))
	assert.False(t, u.Has(4))
	assert.Equal(t, 2, a.Len())
}

func TestFilterSources(t *testing.T) {
	sources := []model.SourceRef{
		{PageNumber: 9, Excerpt: "nine"},
		{PageNumber: 4, Excerpt: "four"},
		{PageNumber: 3, Excerpt: "three"},
		{PageNumber: 9, Excerpt: "nine again"},
	}

	got := FilterSources("Details [Page 3], summary Sources: Page 9", sources)
	require.Len(t, got, 2)
	assert.Equal(t, "nine", got[0].Excerpt)
	assert.Equal(t, "three", got[1].Excerpt)
}

func TestFilterSources_NothingCited(t *testing.T) {
	got := FilterSources("No citations at all.", []model.SourceRef{{PageNumber: 1}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCachedExtractor(t *testing.T) {
	c := NewCachedExtractor(2)

	assert.Equal(t, []int{1}, c.Pages("[Page 1]").Sorted())
	assert.Equal(t, []int{1}, c.Pages("[Page 1]").Sorted())
	c.Pages("[Page 2]")
	c.Pages("[Page 3]") // evicts "[Page 1]"

	stats := c.Stats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 3, stats.Misses)
	assert.Equal(t, 2, stats.EntryCount)

	c.Pages("[Page 1]")
	assert.Equal(t, 4, c.Stats().Misses)
}

func TestCachedExtractor_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCachedExtractor(2)

	c.Pages("[Page 1]")
	c.Pages("[Page 2]")
	c.Pages("[Page 1]") // hit, now most recent
	c.Pages("[Page 3]") // evicts "[Page 2]"

	c.Pages("[Page 1]")
	assert.Equal(t, 2, c.Stats().Hits, "[Page 1] survived eviction")

	c.Pages("[Page 2]")
	stats := c.Stats()
	assert.Equal(t, 4, stats.Misses)
	assert.Equal(t, 2, stats.EntryCount)
}

func TestCachedExtractor_FilterSources(t *testing.T) {
	c := NewCachedExtractor(0)
	sources := []model.SourceRef{{PageNumber: 2}, {PageNumber: 5}}

	got := c.FilterSources("Sources: Page 5", sources)
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].PageNumber)

	assert.Empty(t, c.FilterSources("Sources: Page 5", nil))
}
