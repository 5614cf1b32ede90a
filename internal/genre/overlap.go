// Package genre scores books by how many genre tags they share.
package genre

import (
	"github.com/lehigh-university-libraries/bookrec/internal/catalog"
)

// Scorer computes genre overlap against a catalog's precomputed genre sets.
// It holds no state of its own and is safe for concurrent use.
type Scorer struct {
	catalog *catalog.Catalog
}

func NewScorer(cat *catalog.Catalog) *Scorer {
	return &Scorer{catalog: cat}
}

// OverlapScores returns |genres(idx) ∩ genres(i)| for every other record i.
// Records sharing no genre are omitted, so the map is sparse.
func (s *Scorer) OverlapScores(idx int) map[int]int {
	scores := make(map[int]int)
	target := s.catalog.Genres(idx)
	if len(target) == 0 {
		return scores
	}

	for i := 0; i < s.catalog.Len(); i++ {
		if i == idx {
			continue
		}
		if overlap := target.Intersect(s.catalog.Genres(i)); overlap > 0 {
			scores[i] = overlap
		}
	}
	return scores
}

// Shared returns the genres of record idx that record other also carries,
// in idx's display order.
func (s *Scorer) Shared(idx, other int) []string {
	theirs := s.catalog.Genres(other)
	shared := []string{}
	for _, g := range s.catalog.Book(idx).Genres {
		if theirs.Contains(g) {
			shared = append(shared, g)
		}
	}
	return shared
}
