// Package suggest offers typo-tolerant title lookup, used to point callers
// at a real catalog title when the one they asked for is not in it.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/lehigh-university-libraries/bookrec/internal/catalog"
)

// DefaultLimit is used when a caller asks for a non-positive limit.
const DefaultLimit = 5

const batchSize = 500

// Suggestion is a catalog title matching a query.
type Suggestion struct {
	ID    int     `json:"id" yaml:"id"`
	Title string  `json:"title" yaml:"title"`
	Score float64 `json:"score" yaml:"score"`
	Index int     `json:"-" yaml:"-"`
}

// Index is an in-memory full-text index over catalog titles.
type Index struct {
	catalog *catalog.Catalog
	index   bleve.Index
}

func buildMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = standard.Name
	titleFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// NewIndex indexes every title in cat. Document ids are catalog indexes.
func NewIndex(cat *catalog.Catalog) (*Index, error) {
	start := time.Now()

	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create title index: %w", err)
	}

	for i := 0; i < cat.Len(); i += batchSize {
		end := min(i+batchSize, cat.Len())

		batch := index.NewBatch()
		for j := i; j < end; j++ {
			if err := batch.Index(strconv.Itoa(j), map[string]any{"title": cat.Book(j).Title}); err != nil {
				index.Close()
				return nil, fmt.Errorf("batch index %d: %w", j, err)
			}
		}
		if err := index.Batch(batch); err != nil {
			index.Close()
			return nil, fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	slog.Debug("Title index built", "titles", cat.Len(), "duration", time.Since(start))
	return &Index{catalog: cat, index: index}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	return s.index.Close()
}

// Suggest returns up to limit titles resembling q, best match first. Ties
// are ordered by document id so repeated queries agree.
func (s *Index) Suggest(ctx context.Context, q string, limit int) ([]Suggestion, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	req.SortBy([]string{"-_score", "_id"})

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search titles: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(result.Hits))
	for _, hit := range result.Hits {
		idx, err := strconv.Atoi(hit.ID)
		if err != nil || idx < 0 || idx >= s.catalog.Len() {
			continue
		}
		book := s.catalog.Book(idx)
		suggestions = append(suggestions, Suggestion{
			ID:    book.ID,
			Title: book.Title,
			Score: hit.Score,
			Index: idx,
		})
	}
	return suggestions, nil
}

// buildQuery ORs a phrase-level match with per-word fuzzy and prefix
// queries so misspelled and partial titles still hit.
func buildQuery(q string) query.Query {
	queries := []query.Query{}

	match := bleve.NewMatchQuery(q)
	match.SetField("title")
	match.SetBoost(3.0)
	queries = append(queries, match)

	for _, word := range strings.Fields(strings.ToLower(q)) {
		fuzzy := bleve.NewFuzzyQuery(word)
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)
		queries = append(queries, fuzzy)

		if len(word) >= 2 {
			prefix := bleve.NewPrefixQuery(word)
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			queries = append(queries, prefix)
		}
	}

	return bleve.NewDisjunctionQuery(queries...)
}
