// Package recommend blends description similarity and genre overlap into a
// ranked list of similar books.
//
// For a query book q and candidate b:
//
//	genre(b)    = overlap(q, b) / max(maxGenreCount, MinGenreNormalizer)
//	combined(b) = TFWeight * text(q, b) + GenreWeight * genre(b)
//
// Candidates are every book with a text score or a non-zero genre overlap.
// They are ordered by combined score, highest first, with ties broken by
// ascending catalog index so identical queries always return identical lists.
package recommend

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/lehigh-university-libraries/bookrec/internal/catalog"
	"github.com/lehigh-university-libraries/bookrec/internal/genre"
	"github.com/lehigh-university-libraries/bookrec/internal/metrics"
	"github.com/lehigh-university-libraries/bookrec/internal/textsim"
)

// MinGenreNormalizer is the floor applied to the catalog's maximum genre
// count before dividing by it.
const MinGenreNormalizer = 1

// MaxTopK is the largest result count callers may request.
const MaxTopK = 100

// Options controls a single query. Weights are used as given: they are not
// validated, clamped or renormalized.
type Options struct {
	TopK        int     `json:"top_k" yaml:"top_k"`
	GenreWeight float64 `json:"genre_weight" yaml:"genre_weight"`
	TFWeight    float64 `json:"tf_weight" yaml:"tf_weight"`
}

// DefaultOptions returns the stock query options.
func DefaultOptions() Options {
	return Options{
		TopK:        5,
		GenreWeight: 0.6,
		TFWeight:    0.4,
	}
}

// Candidate is one scored book in a result list
type Candidate struct {
	ID         int     `json:"id" yaml:"id"`
	Title      string  `json:"title" yaml:"title"`
	Score      float64 `json:"score" yaml:"score"`
	TextScore  float64 `json:"text_score" yaml:"text_score"`
	GenreScore float64 `json:"genre_score" yaml:"genre_score"`
	// SharedGenres lists the query book's genres that this book also carries.
	SharedGenres []string `json:"shared_genres" yaml:"shared_genres"`
	Index        int      `json:"-" yaml:"-"`
}

// Engine answers recommendation queries over one catalog. It is read-only
// after construction and safe for concurrent use.
type Engine struct {
	catalog *catalog.Catalog
	text    *textsim.Index
	genres  *genre.Scorer
}

// NewEngine wires an Engine to cat, taking the similarity index from cache
// so that engines sharing a catalog share one index.
func NewEngine(cat *catalog.Catalog, cache *textsim.Cache, weighting textsim.Weighting) (*Engine, error) {
	if cat == nil {
		return nil, errors.New("catalog is nil")
	}
	if cache == nil {
		cache = textsim.NewCache()
	}

	index, err := cache.Get(cat, weighting)
	if err != nil {
		return nil, err
	}

	return &Engine{
		catalog: cat,
		text:    index,
		genres:  genre.NewScorer(cat),
	}, nil
}

// Catalog returns the catalog the engine reads from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Weighting returns the term weighting of the underlying index.
func (e *Engine) Weighting() textsim.Weighting {
	return e.text.Weighting()
}

// Recommend returns up to opts.TopK books similar to title.
//
// An unknown title yields a nil slice and an error matching
// catalog.ErrNotFound; callers should present it as "no recommendations".
// A degenerate description corpus is not an error: ranking falls back to
// genre overlap alone.
func (e *Engine) Recommend(title string, opts Options) ([]Candidate, error) {
	start := time.Now()

	idx, err := e.catalog.IndexByTitle(title)
	if err != nil {
		metrics.RecordRecommendation(metrics.OutcomeNotFound, time.Since(start))
		slog.Debug("Recommendation title not in catalog", "title", title)
		return nil, err
	}
	return e.timedRecommend(start, idx, opts)
}

// RecommendByID is Recommend keyed by record id instead of title.
func (e *Engine) RecommendByID(id int, opts Options) ([]Candidate, error) {
	start := time.Now()

	idx, ok := e.catalog.IndexByID(id)
	if !ok {
		metrics.RecordRecommendation(metrics.OutcomeNotFound, time.Since(start))
		slog.Debug("Recommendation id not in catalog", "id", id)
		return nil, &catalog.NotFoundError{Title: fmt.Sprintf("id:%d", id)}
	}
	return e.timedRecommend(start, idx, opts)
}

func (e *Engine) timedRecommend(start time.Time, idx int, opts Options) ([]Candidate, error) {
	results, err := e.recommendIndex(idx, opts)
	if err != nil {
		metrics.RecordRecommendation(metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	metrics.RecordRecommendation(metrics.OutcomeOK, time.Since(start))
	slog.Debug("Recommendations computed", "title", e.catalog.Book(idx).Title, "results", len(results), "duration", time.Since(start))
	return results, nil
}

func (e *Engine) recommendIndex(idx int, opts Options) ([]Candidate, error) {
	if opts.TopK <= 0 {
		return []Candidate{}, nil
	}

	textScores, err := e.text.SimilarityScores(idx)
	if err != nil {
		if !errors.Is(err, textsim.ErrDegenerateCorpus) {
			return nil, fmt.Errorf("failed to score descriptions: %w", err)
		}
		metrics.DegenerateCorpusTotal.Inc()
		slog.Warn("Description vocabulary is empty, ranking by genre overlap only", "index", idx)
	}
	genreScores := e.genres.OverlapScores(idx)

	maxGenreCount := max(e.catalog.MaxGenreCount(), MinGenreNormalizer)

	candidates := make([]Candidate, 0, max(len(textScores), len(genreScores)))
	for i := 0; i < e.catalog.Len(); i++ {
		text, hasText := textScores[i]
		overlap, hasGenre := genreScores[i]
		if !hasText && !hasGenre {
			continue
		}

		normalizedGenre := float64(overlap) / float64(maxGenreCount)
		book := e.catalog.Book(i)
		candidates = append(candidates, Candidate{
			ID:         book.ID,
			Title:      book.Title,
			Score:      opts.TFWeight*text + opts.GenreWeight*normalizedGenre,
			TextScore:  text,
			GenreScore: normalizedGenre,
			Index:      i,
		})
	}

	rank(candidates)

	if len(candidates) > opts.TopK {
		candidates = candidates[:opts.TopK]
	}
	for i := range candidates {
		candidates[i].SharedGenres = e.genres.Shared(idx, candidates[i].Index)
	}
	return candidates, nil
}

// rank sorts by score descending, then catalog index ascending.
func rank(candidates []Candidate) {
	slices.SortFunc(candidates, func(a, b Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return a.Index - b.Index
		}
	})
}
