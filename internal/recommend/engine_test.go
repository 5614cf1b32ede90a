package recommend

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/bookrec/internal/catalog"
	"github.com/lehigh-university-libraries/bookrec/internal/textsim"
)

type book struct {
	id          string
	title       string
	description string
	genres      string
}

func newEngine(t *testing.T, weighting textsim.Weighting, books ...book) *Engine {
	t.Helper()
	rows := make([]catalog.Row, len(books))
	for i, b := range books {
		rows[i] = catalog.Row{
			catalog.FieldID:          b.id,
			catalog.FieldTitle:       b.title,
			catalog.FieldDescription: b.description,
			catalog.FieldGenres:      b.genres,
		}
	}
	cat, err := catalog.New(rows)
	require.NoError(t, err)

	engine, err := NewEngine(cat, textsim.NewCache(), weighting)
	require.NoError(t, err)
	return engine
}

func titles(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Title
	}
	return out
}

func sampleEngine(t *testing.T) *Engine {
	return newEngine(t, textsim.WeightingTFIDF,
		book{title: "A", description: "fantasy wizard story", genres: "Fantasy"},
		book{title: "B", description: "fantasy wizard story", genres: "Fantasy"},
		book{title: "C", description: "space laser battle", genres: "SciFi"},
	)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 5, opts.TopK)
	assert.Equal(t, 0.6, opts.GenreWeight)
	assert.Equal(t, 0.4, opts.TFWeight)
}

func TestRecommendIdenticalBookRanksFirst(t *testing.T) {
	engine := sampleEngine(t)

	opts := DefaultOptions()
	opts.TopK = 2
	results, err := engine.Recommend("A", opts)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{"B", "C"}, titles(results))
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 1.0, results[0].TextScore, 1e-9)
	assert.Equal(t, 1.0, results[0].GenreScore)
	assert.Equal(t, 1, results[0].ID)

	assert.Equal(t, 0.0, results[1].Score)
	assert.Equal(t, 0.0, results[1].GenreScore)
}

func TestRecommendUnknownTitle(t *testing.T) {
	engine := sampleEngine(t)

	var results []Candidate
	require.NotPanics(t, func() {
		var err error
		results, err = engine.Recommend("Unknown Title", DefaultOptions())
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})
	assert.Empty(t, results)
}

func TestRecommendSortedAndBounded(t *testing.T) {
	engine := newEngine(t, textsim.WeightingTFIDF,
		book{title: "Query", description: "dragon wizard castle quest", genres: "Fantasy, Adventure, Fiction"},
		book{title: "One", description: "dragon castle", genres: "Fantasy"},
		book{title: "Two", description: "wizard quest in the castle", genres: "Fantasy, Adventure"},
		book{title: "Three", description: "cooking with herbs", genres: "Cookbooks"},
		book{title: "Four", description: "a dragon", genres: "Fiction, Adventure, Fantasy"},
		book{title: "Five", description: "castle history", genres: "History"},
		book{title: "Six", description: "wizard", genres: "Fiction"},
	)

	for _, topK := range []int{1, 3, 5, 6, 10} {
		opts := DefaultOptions()
		opts.TopK = topK
		results, err := engine.Recommend("Query", opts)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(results), topK)
		for i := 1; i < len(results); i++ {
			prev, cur := results[i-1], results[i]
			assert.True(t, prev.Score > cur.Score || (prev.Score == cur.Score && prev.Index < cur.Index),
				"results out of order at %d: %+v then %+v", i, prev, cur)
		}
		for _, r := range results {
			assert.NotEqual(t, "Query", r.Title)
		}
	}
}

func TestRecommendTieBreaksByCatalogIndex(t *testing.T) {
	// Explicit ids run opposite to catalog order so the test pins the
	// tie-break to catalog position rather than id.
	engine := newEngine(t, textsim.WeightingTFIDF,
		book{id: "50", title: "Query", description: "lighthouse keeper", genres: "Mystery"},
		book{id: "40", title: "Twin1", description: "lighthouse keeper", genres: "Mystery"},
		book{id: "30", title: "Twin2", description: "lighthouse keeper", genres: "Mystery"},
		book{id: "20", title: "Twin3", description: "lighthouse keeper", genres: "Mystery"},
		book{id: "10", title: "Other", description: "orchard harvest", genres: "Memoir"},
	)

	results, err := engine.Recommend("Query", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, []string{"Twin1", "Twin2", "Twin3", "Other"}, titles(results))
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, results[1].Score, results[2].Score)
	assert.Equal(t, []int{40, 30, 20, 10}, []int{results[0].ID, results[1].ID, results[2].ID, results[3].ID})
}

func TestRecommendIsIdempotent(t *testing.T) {
	engine := newEngine(t, textsim.WeightingTFIDF,
		book{title: "Query", description: "a haunted house on a hill", genres: "Horror, Gothic"},
		book{title: "One", description: "the house on the hill is haunted", genres: "Horror"},
		book{title: "Two", description: "a hill walk", genres: "Travel"},
		book{title: "Three", description: "gothic romance in a house", genres: "Gothic, Romance"},
		book{title: "Four", description: "haunted", genres: "Horror, Gothic"},
	)

	first, err := engine.Recommend("Query", DefaultOptions())
	require.NoError(t, err)
	second, err := engine.Recommend("Query", DefaultOptions())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRecommendDegenerateCorpusFallsBackToGenres(t *testing.T) {
	engine := newEngine(t, textsim.WeightingTFIDF,
		book{title: "Query", description: "", genres: "Fantasy, Fiction"},
		book{title: "One", description: "", genres: "Fiction"},
		book{title: "Two", description: "", genres: "Horror"},
		book{title: "Three", description: "", genres: "Fantasy, Fiction, Classics"},
	)

	results, err := engine.Recommend("Query", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Three", "One"}, titles(results))
	for _, r := range results {
		assert.Equal(t, 0.0, r.TextScore)
	}
	assert.InDelta(t, 0.6*2.0/3.0, results[0].Score, 1e-12)
	assert.InDelta(t, 0.6*1.0/3.0, results[1].Score, 1e-12)
}

func TestRecommendEmptyUnion(t *testing.T) {
	tests := []struct {
		name  string
		books []book
	}{
		{
			name:  "single book catalog",
			books: []book{{title: "Alone", description: "solitary lighthouse", genres: "Fiction"}},
		},
		{
			name: "degenerate corpus without shared genres",
			books: []book{
				{title: "Query", description: "", genres: "Fantasy"},
				{title: "Other", description: "", genres: "Horror"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine(t, textsim.WeightingTFIDF, tt.books...)
			results, err := engine.Recommend(tt.books[0].title, DefaultOptions())
			require.NoError(t, err)
			assert.NotNil(t, results)
			assert.Empty(t, results)
		})
	}
}

func TestRecommendZeroMaxGenreCountIsClamped(t *testing.T) {
	engine := newEngine(t, textsim.WeightingTF,
		book{title: "Query", description: "river boat journey", genres: ""},
		book{title: "One", description: "river journey", genres: ""},
	)
	require.Equal(t, 0, engine.Catalog().MaxGenreCount())

	results, err := engine.Recommend("Query", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, math.IsNaN(results[0].Score))
	assert.Equal(t, 0.0, results[0].GenreScore)
	assert.InDelta(t, 0.4*2/(math.Sqrt(3)*math.Sqrt(2)), results[0].Score, 1e-12)
}

func TestRecommendWeightsAreNotValidated(t *testing.T) {
	engine := newEngine(t, textsim.WeightingTFIDF,
		book{title: "Query", description: "ocean voyage whale", genres: "Adventure, Classics"},
		book{title: "Text", description: "ocean voyage whale", genres: "Poetry"},
		book{title: "Genre", description: "kitchen recipes", genres: "Adventure, Classics"},
	)

	textOnly, err := engine.Recommend("Query", Options{TopK: 2, TFWeight: 1, GenreWeight: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Text", "Genre"}, titles(textOnly))

	genreOnly, err := engine.Recommend("Query", Options{TopK: 2, TFWeight: 0, GenreWeight: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Genre", "Text"}, titles(genreOnly))

	heavy, err := engine.Recommend("Query", Options{TopK: 1, TFWeight: 3, GenreWeight: 5})
	require.NoError(t, err)
	require.Len(t, heavy, 1)
	assert.InDelta(t, 5.0, heavy[0].Score, 1e-12)

	negative, err := engine.Recommend("Query", Options{TopK: 2, TFWeight: -1, GenreWeight: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Genre", "Text"}, titles(negative))
}

func TestRecommendNonPositiveTopK(t *testing.T) {
	engine := sampleEngine(t)

	for _, topK := range []int{0, -3} {
		results, err := engine.Recommend("A", Options{TopK: topK, GenreWeight: 0.6, TFWeight: 0.4})
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestRecommendDuplicateTitlesResolveToFirst(t *testing.T) {
	engine := newEngine(t, textsim.WeightingTFIDF,
		book{title: "Twin", description: "mountain climbing", genres: "Sports"},
		book{title: "Twin", description: "deep sea diving", genres: "Sports"},
		book{title: "Peak", description: "mountain climbing", genres: "Travel"},
	)

	results, err := engine.Recommend("Twin", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The query resolves to index 0, so the second "Twin" is an ordinary
	// candidate: genre-only 0.6 beats text-only 0.4.
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 2, results[1].Index)
}

func TestRecommendByID(t *testing.T) {
	engine := sampleEngine(t)

	results, err := engine.RecommendByID(0, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, titles(results))
	assert.Equal(t, []string{"Fantasy"}, results[0].SharedGenres)
	assert.Equal(t, []string{}, results[1].SharedGenres)

	_, err = engine.RecommendByID(99, DefaultOptions())
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestEnginesShareCachedIndex(t *testing.T) {
	cat, err := catalog.New([]catalog.Row{
		{catalog.FieldTitle: "A", catalog.FieldDescription: "x y z words", catalog.FieldGenres: ""},
		{catalog.FieldTitle: "B", catalog.FieldDescription: "more words", catalog.FieldGenres: ""},
	})
	require.NoError(t, err)

	cache := textsim.NewCache()
	first, err := NewEngine(cat, cache, textsim.WeightingTFIDF)
	require.NoError(t, err)
	second, err := NewEngine(cat, cache, textsim.WeightingTFIDF)
	require.NoError(t, err)

	assert.Same(t, first.text, second.text)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, textsim.WeightingTFIDF, first.Weighting())
}

func TestNewEngineRejectsNilCatalog(t *testing.T) {
	_, err := NewEngine(nil, nil, textsim.WeightingTFIDF)
	assert.Error(t, err)
}
