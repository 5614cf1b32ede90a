package dataset

import (
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/bookrec/internal/catalog"
)

// columnAliases lists, per catalog field, the lower-cased source column
// names that feed it, most preferred first. The Goodreads export names its
// columns "Book", "Description", "Genres" and leaves the pandas index column
// as "Unnamed: 0".
var columnAliases = map[string][]string{
	catalog.FieldID:          {"id", "book_id", "unnamed: 0", ""},
	catalog.FieldTitle:       {"title", "book", "book title"},
	catalog.FieldDescription: {"description", "summary"},
	catalog.FieldGenres:      {"genres", "genre"},
}

type columnAlias struct {
	field    string
	priority int // lower wins
}

var aliasIndex = func() map[string]columnAlias {
	index := make(map[string]columnAlias)
	for field, names := range columnAliases {
		for priority, name := range names {
			index[name] = columnAlias{field: field, priority: priority}
		}
	}
	return index
}()

func normalizeColumn(column string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(column, "\ufeff")))
}

// fieldForColumn returns the catalog field a source column feeds, if any.
func fieldForColumn(column string) (string, bool) {
	alias, ok := aliasIndex[normalizeColumn(column)]
	return alias.field, ok
}

// resolveColumns maps each catalog field to the position in columns that
// feeds it. When several columns alias one field the most preferred alias
// wins, and among equal aliases the earliest column wins.
func resolveColumns(columns []string) map[string]int {
	positions := make(map[string]int)
	chosen := make(map[string]columnAlias)
	for i, column := range columns {
		alias, ok := aliasIndex[normalizeColumn(column)]
		if !ok {
			continue
		}
		if prev, seen := chosen[alias.field]; seen && prev.priority <= alias.priority {
			slog.Debug("Ignoring shadowed column", "column", column, "field", alias.field)
			continue
		}
		chosen[alias.field] = alias
		positions[alias.field] = i
	}
	return positions
}
