// Package catalog holds the immutable, in-memory book catalog that the
// recommender reads from.
package catalog

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Row field names. A loader maps its source columns onto these keys.
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldGenres      = "genres"
)

// NoDescription replaces empty or missing descriptions.
const NoDescription = "No description available"

// Row is one raw catalog record keyed by field name.
type Row map[string]string

// BookRecord is a normalized catalog entry
type BookRecord struct {
	ID          int      `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Genres      []string `json:"genres" yaml:"genres"`
}

// HasDescription reports whether the record carries a real description
// rather than the NoDescription placeholder.
func (b BookRecord) HasDescription() bool {
	return b.Description != NoDescription
}

// Catalog is built once and never mutated afterwards; it is safe for
// concurrent readers.
type Catalog struct {
	books         []BookRecord
	genres        []GenreSet
	titleIndex    map[string]int // title -> first index
	idIndex       map[int]int    // id -> index
	maxGenreCount int
}

// New validates rows and builds a Catalog. Every row must carry the title,
// description and genres fields; the id field is optional and defaults to
// the row position.
func New(rows []Row) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, &DataError{Row: -1, Reason: "catalog is empty"}
	}

	c := &Catalog{
		books:      make([]BookRecord, 0, len(rows)),
		genres:     make([]GenreSet, 0, len(rows)),
		titleIndex: make(map[string]int, len(rows)),
		idIndex:    make(map[int]int, len(rows)),
	}

	duplicates := 0
	for i, row := range rows {
		for _, field := range []string{FieldTitle, FieldDescription, FieldGenres} {
			if _, ok := row[field]; !ok {
				return nil, &DataError{Row: i, Reason: fmt.Sprintf("missing required field %q", field)}
			}
		}

		title := row[FieldTitle]
		if strings.TrimSpace(title) == "" {
			return nil, &DataError{Row: i, Reason: "title is blank"}
		}

		id := i
		if raw := strings.TrimSpace(row[FieldID]); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return nil, &DataError{Row: i, Reason: fmt.Sprintf("malformed id %q", raw)}
			}
			id = parsed
		}
		if prev, ok := c.idIndex[id]; ok {
			return nil, &DataError{Row: i, Reason: fmt.Sprintf("id %d already used by row %d", id, prev)}
		}

		description := strings.TrimSpace(row[FieldDescription])
		if description == "" {
			description = NoDescription
		}

		genres := ParseGenres(row[FieldGenres])
		if len(genres) > c.maxGenreCount {
			c.maxGenreCount = len(genres)
		}

		if _, ok := c.titleIndex[title]; ok {
			duplicates++
		} else {
			c.titleIndex[title] = len(c.books)
		}
		c.idIndex[id] = len(c.books)
		c.books = append(c.books, BookRecord{
			ID:          id,
			Title:       title,
			Description: description,
			Genres:      genres,
		})
		c.genres = append(c.genres, newGenreSet(genres))
	}

	if duplicates > 0 {
		slog.Warn("Catalog contains duplicate titles, lookups resolve to the first match", "duplicates", duplicates)
	}
	slog.Debug("Catalog built", "books", len(c.books), "max_genre_count", c.maxGenreCount)

	return c, nil
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.books)
}

// Book returns the record at catalog index i.
func (c *Catalog) Book(i int) BookRecord {
	return c.books[i]
}

// Books returns a copy of all records in catalog order.
func (c *Catalog) Books() []BookRecord {
	out := make([]BookRecord, len(c.books))
	copy(out, c.books)
	return out
}

// Genres returns the precomputed genre set of the record at index i.
func (c *Catalog) Genres(i int) GenreSet {
	return c.genres[i]
}

// HasDescription reports whether record i has a real description.
func (c *Catalog) HasDescription(i int) bool {
	return c.books[i].HasDescription()
}

// MaxGenreCount returns the largest genre count of any record. It may be 0.
func (c *Catalog) MaxGenreCount() int {
	return c.maxGenreCount
}

// IndexByTitle resolves a title to its catalog index. Matching is exact and
// case-sensitive against the title as loaded, surrounding whitespace
// included; when titles repeat, the first record wins.
func (c *Catalog) IndexByTitle(title string) (int, error) {
	idx, ok := c.titleIndex[title]
	if !ok {
		return -1, &NotFoundError{Title: title}
	}
	return idx, nil
}

// IndexByID resolves a record id to its catalog index.
func (c *Catalog) IndexByID(id int) (int, bool) {
	idx, ok := c.idIndex[id]
	return idx, ok
}
