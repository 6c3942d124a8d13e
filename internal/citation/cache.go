// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package citation

import (
	"container/list"
	"sync"

	"github.com/jeranaias/docchat-tui/internal/model"
)

// DefaultCacheEntries is the cache size used when none is given.
const DefaultCacheEntries = 256

// =============================================================================
// CACHED EXTRACTOR
// =============================================================================

// CachedExtractor memoizes ExtractCitedPages by message content. The TUI
// re-renders every visible message on each frame; settled messages never
// change, so their citations are computed once.
type CachedExtractor struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // of *cacheEntry, most recently used at the front
	maxEntries int

	hits   int
	misses int
}

type cacheEntry struct {
	text  string
	pages Pages
}

// CacheStats holds cache statistics.
type CacheStats struct {
	Hits       int
	Misses     int
	EntryCount int
	HitRate    float64
}

// NewCachedExtractor creates an extractor holding at most maxEntries results.
func NewCachedExtractor(maxEntries int) *CachedExtractor {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &CachedExtractor{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

// Pages returns the cited pages of text. Callers must not modify the result.
func (c *CachedExtractor) Pages(text string) Pages {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[text]; ok {
		c.hits++
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).pages
	}
	c.misses++

	pages := ExtractCitedPages(text)
	for c.order.Len() >= c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).text)
	}
	c.entries[text] = c.order.PushFront(&cacheEntry{text: text, pages: pages})
	return pages
}

// FilterSources is FilterSources with memoized extraction.
func (c *CachedExtractor) FilterSources(text string, sources []model.SourceRef) []model.SourceRef {
	if len(sources) == 0 {
		return []model.SourceRef{}
	}
	return filter(c.Pages(text), sources)
}

// Stats returns cache statistics.
func (c *CachedExtractor) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := 0.0
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Hits:       c.hits,
		Misses:     c.misses,
		EntryCount: c.order.Len(),
		HitRate:    hitRate,
	}
}
