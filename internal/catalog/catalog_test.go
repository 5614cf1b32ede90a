package catalog

import (
	"errors"
	"reflect"
	"testing"
)

func testRows() []Row {
	return []Row{
		{FieldTitle: "Dune", FieldDescription: "Desert planet spice", FieldGenres: "['Science Fiction', 'Classics']"},
		{FieldTitle: "Emma", FieldDescription: "", FieldGenres: "Classics, Romance, Fiction"},
		{FieldTitle: "Dune", FieldDescription: "A second Dune", FieldGenres: ""},
	}
}

func TestNew(t *testing.T) {
	c, err := New(testRows())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if c.Len() != 3 {
		t.Errorf("Expected Len=3, got %d", c.Len())
	}

	if got := c.Book(1).Description; got != NoDescription {
		t.Errorf("Expected empty description to become %q, got %q", NoDescription, got)
	}

	if c.HasDescription(1) {
		t.Error("Expected record 1 to report no description")
	}

	if c.MaxGenreCount() != 3 {
		t.Errorf("Expected MaxGenreCount=3, got %d", c.MaxGenreCount())
	}

	if c.Book(2).Genres == nil {
		t.Error("Expected empty genre list to be non-nil")
	}

	for i := 0; i < c.Len(); i++ {
		if c.Book(i).ID != i {
			t.Errorf("Expected row position id %d, got %d", i, c.Book(i).ID)
		}
	}
}

func TestNewExplicitIDs(t *testing.T) {
	rows := testRows()
	rows[0][FieldID] = "10"
	rows[1][FieldID] = "20"
	rows[2][FieldID] = "30"

	c, err := New(rows)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	idx, ok := c.IndexByID(20)
	if !ok || idx != 1 {
		t.Errorf("Expected id 20 at index 1, got %d (found=%v)", idx, ok)
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
	}{
		{
			name: "empty catalog",
			rows: nil,
		},
		{
			name: "missing description field",
			rows: []Row{{FieldTitle: "A", FieldGenres: ""}},
		},
		{
			name: "missing genres field",
			rows: []Row{{FieldTitle: "A", FieldDescription: "x"}},
		},
		{
			name: "missing title field",
			rows: []Row{{FieldDescription: "x", FieldGenres: ""}},
		},
		{
			name: "blank title",
			rows: []Row{{FieldTitle: "  ", FieldDescription: "x", FieldGenres: ""}},
		},
		{
			name: "malformed id",
			rows: []Row{{FieldID: "abc", FieldTitle: "A", FieldDescription: "x", FieldGenres: ""}},
		},
		{
			name: "duplicate id",
			rows: []Row{
				{FieldID: "1", FieldTitle: "A", FieldDescription: "x", FieldGenres: ""},
				{FieldID: "1", FieldTitle: "B", FieldDescription: "y", FieldGenres: ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rows)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, ErrData) {
				t.Errorf("Expected ErrData, got %v", err)
			}
			var dataErr *DataError
			if !errors.As(err, &dataErr) {
				t.Errorf("Expected *DataError, got %T", err)
			}
		})
	}
}

func TestIndexByTitle(t *testing.T) {
	c, err := New(testRows())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	idx, err := c.IndexByTitle("Dune")
	if err != nil {
		t.Fatalf("IndexByTitle() error = %v", err)
	}
	if idx != 0 {
		t.Errorf("Expected first match at index 0, got %d", idx)
	}

	if _, err := c.IndexByTitle("dune"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected case-sensitive miss to return ErrNotFound, got %v", err)
	}

	_, err = c.IndexByTitle("Missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Title != "Missing" {
		t.Errorf("Expected *NotFoundError for Missing, got %v", err)
	}
}

func TestIndexByTitleKeepsWhitespace(t *testing.T) {
	c, err := New([]Row{
		{FieldTitle: "Dune ", FieldDescription: "x", FieldGenres: ""},
		{FieldTitle: "Dune", FieldDescription: "y", FieldGenres: ""},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := c.Book(0).Title; got != "Dune " {
		t.Errorf("Expected title stored as loaded, got %q", got)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"Dune ", 0},
		{"Dune", 1},
	}
	for _, tt := range tests {
		idx, err := c.IndexByTitle(tt.query)
		if err != nil {
			t.Fatalf("IndexByTitle(%q) error = %v", tt.query, err)
		}
		if idx != tt.want {
			t.Errorf("IndexByTitle(%q) = %d, want %d", tt.query, idx, tt.want)
		}
	}

	if _, err := c.IndexByTitle(" Dune"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected leading-space query to miss, got %v", err)
	}
}

func TestParseGenres(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "comma separated", raw: "Fantasy, Fiction", expected: []string{"Fantasy", "Fiction"}},
		{name: "python list", raw: "['Fantasy', 'Young Adult']", expected: []string{"Fantasy", "Young Adult"}},
		{name: "double quoted list", raw: `["Horror"]`, expected: []string{"Horror"}},
		{name: "empty string", raw: "", expected: []string{}},
		{name: "empty list", raw: "[]", expected: []string{}},
		{name: "only separators", raw: " , ,", expected: []string{}},
		{name: "duplicates removed", raw: "Fantasy, Fantasy, Horror", expected: []string{"Fantasy", "Horror"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseGenres(tt.raw)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseGenres(%q) = %#v, want %#v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestGenreSetIntersect(t *testing.T) {
	a := newGenreSet([]string{"Fantasy", "Fiction", "Classics"})
	b := newGenreSet([]string{"Fiction", "Classics"})
	empty := newGenreSet(nil)

	if got := a.Intersect(b); got != 2 {
		t.Errorf("Expected intersection 2, got %d", got)
	}
	if got := b.Intersect(a); got != 2 {
		t.Errorf("Expected symmetric intersection 2, got %d", got)
	}
	if got := a.Intersect(empty); got != 0 {
		t.Errorf("Expected intersection with empty set 0, got %d", got)
	}
	if !a.Contains("Fantasy") || a.Contains("fantasy") {
		t.Error("Expected Contains to be exact and case-sensitive")
	}
}
