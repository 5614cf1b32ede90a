package textsim

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/bookrec/internal/catalog"
	"github.com/lehigh-university-libraries/bookrec/internal/metrics"
)

type cacheKey struct {
	catalog   *catalog.Catalog
	weighting Weighting
}

// Cache builds each Index once per catalog and weighting and hands the same
// immutable Index to every caller. Entries live until Invalidate is called
// for their catalog, typically on reload.
type Cache struct {
	indexes map[cacheKey]*Index
	mu      sync.RWMutex
}

func NewCache() *Cache {
	return &Cache{
		indexes: make(map[cacheKey]*Index),
	}
}

// Get returns the cached Index for cat, building it on first use.
func (c *Cache) Get(cat *catalog.Catalog, weighting Weighting) (*Index, error) {
	key := cacheKey{catalog: cat, weighting: weighting}

	c.mu.RLock()
	idx, exists := c.indexes[key]
	c.mu.RUnlock()
	if exists {
		return idx, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have built it while we waited for the write lock.
	if idx, exists := c.indexes[key]; exists {
		return idx, nil
	}

	start := time.Now()
	idx, err := Build(cat, weighting)
	if err != nil {
		return nil, fmt.Errorf("failed to build similarity index: %w", err)
	}
	elapsed := time.Since(start)

	metrics.RecordIndexBuild(string(weighting), idx.VocabularySize(), elapsed)
	slog.Info("Similarity index built",
		"weighting", weighting,
		"documents", idx.Len(),
		"vocabulary", idx.VocabularySize(),
		"duration", elapsed)
	if idx.Degenerate() {
		slog.Warn("Similarity index has an empty vocabulary, recommendations will use genre overlap only")
	}

	c.indexes[key] = idx
	return idx, nil
}

// Invalidate drops every Index built for cat.
func (c *Cache) Invalidate(cat *catalog.Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.indexes {
		if key.catalog == cat {
			delete(c.indexes, key)
		}
	}
}

// Len returns the number of cached indexes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.indexes)
}
