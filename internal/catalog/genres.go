package catalog

import "strings"

// genreCutset is stripped from both ends of every parsed genre. It covers the
// Python list rendering found in Goodreads exports: "['Fiction', 'Classics']".
const genreCutset = " \t\r\n[]'\""

// ParseGenres parses a delimited genre list into a de-duplicated slice.
// Both "Fiction, Classics" and "['Fiction', 'Classics']" are accepted.
// Empty or malformed input yields an empty, non-nil slice.
func ParseGenres(raw string) []string {
	genres := []string{}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return genres
	}

	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		g := strings.Trim(part, genreCutset)
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		genres = append(genres, g)
	}
	return genres
}

// GenreSet is an immutable set of genre names.
type GenreSet map[string]struct{}

func newGenreSet(genres []string) GenreSet {
	set := make(GenreSet, len(genres))
	for _, g := range genres {
		set[g] = struct{}{}
	}
	return set
}

// Contains reports whether g is in the set.
func (s GenreSet) Contains(g string) bool {
	_, ok := s[g]
	return ok
}

// Intersect returns |s ∩ other|.
func (s GenreSet) Intersect(other GenreSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for g := range small {
		if _, ok := large[g]; ok {
			n++
		}
	}
	return n
}
