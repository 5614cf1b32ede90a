// Package report renders recommendation results for the command line.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bookrec/internal/recommend"
)

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "yaml", "csv"}

// Report is one answered query.
type Report struct {
	Title     string                `json:"title" yaml:"title"`
	Found     bool                  `json:"found" yaml:"found"`
	Weighting string                `json:"weighting" yaml:"weighting"`
	Options   recommend.Options     `json:"options" yaml:"options"`
	Results   []recommend.Candidate `json:"results" yaml:"results"`
}

// Write renders r to w in the named format.
func Write(w io.Writer, format string, r Report) error {
	if r.Results == nil {
		r.Results = []recommend.Candidate{}
	}

	switch strings.ToLower(format) {
	case "", "text":
		return writeText(w, r)
	case "json":
		return writeJSON(w, r)
	case "yaml":
		return writeYAML(w, r)
	case "csv":
		return writeCSV(w, r)
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

func writeText(w io.Writer, r Report) error {
	if !r.Found {
		_, err := fmt.Fprintf(w, "No book titled %q in the catalog.\n", r.Title)
		return err
	}

	fmt.Fprintf(w, "Books similar to %q (%s, genre weight %.2f, text weight %.2f)\n",
		r.Title, r.Weighting, r.Options.GenreWeight, r.Options.TFWeight)
	fmt.Fprintln(w, strings.Repeat("=", 80))

	if len(r.Results) == 0 {
		_, err := fmt.Fprintln(w, "No similar books found.")
		return err
	}

	for i, c := range r.Results {
		fmt.Fprintf(w, "%2d. %s\n", i+1, Truncate(c.Title, 70))
		fmt.Fprintf(w, "    id %d  score %.4f  (text %.4f, genre %.4f)\n", c.ID, c.Score, c.TextScore, c.GenreScore)
		if len(c.SharedGenres) > 0 {
			fmt.Fprintf(w, "    shared genres: %s\n", strings.Join(c.SharedGenres, ", "))
		}
	}
	return nil
}

func writeJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, r Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, r Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"rank", "id", "title", "score", "text_score", "genre_score", "shared_genres"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, c := range r.Results {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(c.ID),
			c.Title,
			formatFloat(c.Score),
			formatFloat(c.TextScore),
			formatFloat(c.GenreScore),
			strings.Join(c.SharedGenres, "; "),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// Truncate shortens s to at most maxLen runes, ending in "..." when cut.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:max(maxLen-3, 0)]) + "..."
}
