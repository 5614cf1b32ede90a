// Package textsim builds a bag-of-words vector model over catalog
// descriptions and answers cosine-similarity queries against it.
//
// Vectors are sparse and sorted by term id, and query accumulation walks
// terms in ascending id order, so every score is reproducible bit for bit and
// sim(i, j) == sim(j, i) exactly.
package textsim

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/bookrec/internal/catalog"
)

// ErrDegenerateCorpus is returned alongside an empty score map when no
// description contributes a single vocabulary term. It is a warning: callers
// fall back to genre-only scoring.
var ErrDegenerateCorpus = errors.New("degenerate corpus: description vocabulary is empty")

// ZeroNormSimilarity is the similarity reported when either vector has zero norm.
const ZeroNormSimilarity = 0.0

// Weighting selects how term counts become vector weights.
type Weighting string

const (
	// WeightingTFIDF scales raw counts by the smoothed inverse document
	// frequency ln((1+n)/(1+df)) + 1.
	WeightingTFIDF Weighting = "tfidf"
	// WeightingTF uses raw term counts.
	WeightingTF Weighting = "tf"
)

// DefaultWeighting is used when none is configured.
const DefaultWeighting = WeightingTFIDF

// ParseWeighting converts a config or flag value into a Weighting.
func ParseWeighting(s string) (Weighting, error) {
	switch Weighting(strings.ToLower(strings.TrimSpace(s))) {
	case WeightingTFIDF, "tf-idf", "":
		return WeightingTFIDF, nil
	case WeightingTF:
		return WeightingTF, nil
	default:
		return "", fmt.Errorf("unsupported weighting: %s (supported: tf, tfidf)", s)
	}
}

type entry struct {
	term   int
	weight float64
}

type posting struct {
	doc    int
	weight float64
}

// Index is the immutable vector model for one catalog. It is safe for
// concurrent use once built.
type Index struct {
	weighting  Weighting
	vocabulary map[string]int
	terms      []string  // term id -> term
	vectors    [][]entry // doc -> entries sorted by term id
	norms      []float64
	postings   [][]posting // term id -> postings sorted by doc
}

// Build tokenizes every description of cat and builds the vector model.
// Records carrying the catalog.NoDescription placeholder contribute no terms.
func Build(cat *catalog.Catalog, weighting Weighting) (*Index, error) {
	if cat == nil {
		return nil, errors.New("catalog is nil")
	}
	if weighting != WeightingTF && weighting != WeightingTFIDF {
		return nil, fmt.Errorf("unsupported weighting: %s", weighting)
	}

	n := cat.Len()
	counts := make([]map[string]int, n)
	df := make(map[string]int)

	for i := 0; i < n; i++ {
		if !cat.HasDescription(i) {
			continue
		}
		tokens := Tokenize(cat.Book(i).Description)
		if len(tokens) == 0 {
			continue
		}
		tc := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tc[tok]++
		}
		for term := range tc {
			df[term]++
		}
		counts[i] = tc
	}

	// Sorted vocabulary gives stable term ids across builds.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	idx := &Index{
		weighting:  weighting,
		vocabulary: make(map[string]int, len(terms)),
		terms:      terms,
		vectors:    make([][]entry, n),
		norms:      make([]float64, n),
		postings:   make([][]posting, len(terms)),
	}
	for id, term := range terms {
		idx.vocabulary[term] = id
	}

	for doc, tc := range counts {
		if len(tc) == 0 {
			continue
		}
		vec := make([]entry, 0, len(tc))
		for term, count := range tc {
			id := idx.vocabulary[term]
			vec = append(vec, entry{term: id, weight: termWeight(weighting, count, df[term], n)})
		}
		sort.Slice(vec, func(a, b int) bool { return vec[a].term < vec[b].term })

		var sumSquares float64
		for _, e := range vec {
			sumSquares += e.weight * e.weight
			idx.postings[e.term] = append(idx.postings[e.term], posting{doc: doc, weight: e.weight})
		}
		idx.vectors[doc] = vec
		idx.norms[doc] = math.Sqrt(sumSquares)
	}

	return idx, nil
}

func termWeight(weighting Weighting, count, docFreq, numDocs int) float64 {
	if weighting == WeightingTF {
		return float64(count)
	}
	idf := math.Log(float64(1+numDocs)/float64(1+docFreq)) + 1
	return float64(count) * idf
}

// Weighting returns the weighting the index was built with.
func (x *Index) Weighting() Weighting {
	return x.weighting
}

// Len returns the number of documents.
func (x *Index) Len() int {
	return len(x.vectors)
}

// VocabularySize returns the number of distinct terms.
func (x *Index) VocabularySize() int {
	return len(x.terms)
}

// Vocabulary returns the terms in id order.
func (x *Index) Vocabulary() []string {
	out := make([]string, len(x.terms))
	copy(out, x.terms)
	return out
}

// Degenerate reports whether the vocabulary is empty.
func (x *Index) Degenerate() bool {
	return len(x.terms) == 0
}

// SimilarityScores returns the cosine similarity between document idx and
// every other document. idx itself is never a key. When the corpus is
// degenerate it returns an empty map and ErrDegenerateCorpus.
func (x *Index) SimilarityScores(idx int) (map[int]float64, error) {
	if idx < 0 || idx >= len(x.vectors) {
		return nil, fmt.Errorf("document index %d out of range [0, %d)", idx, len(x.vectors))
	}
	if x.Degenerate() {
		return map[int]float64{}, ErrDegenerateCorpus
	}

	dots := make([]float64, len(x.vectors))
	for _, e := range x.vectors[idx] {
		for _, p := range x.postings[e.term] {
			dots[p.doc] += e.weight * p.weight
		}
	}

	scores := make(map[int]float64, len(x.vectors)-1)
	for doc := range x.vectors {
		if doc == idx {
			continue
		}
		scores[doc] = cosine(dots[doc], x.norms[idx], x.norms[doc])
	}
	return scores, nil
}

// Similarity returns the cosine similarity between documents i and j.
func (x *Index) Similarity(i, j int) float64 {
	a, b := x.vectors[i], x.vectors[j]
	var dot float64
	for p, q := 0, 0; p < len(a) && q < len(b); {
		switch {
		case a[p].term < b[q].term:
			p++
		case a[p].term > b[q].term:
			q++
		default:
			dot += a[p].weight * b[q].weight
			p++
			q++
		}
	}
	return cosine(dot, x.norms[i], x.norms[j])
}

func cosine(dot, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return ZeroNormSimilarity
	}
	return dot / (normA * normB)
}
