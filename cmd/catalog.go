package cmd

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookrec/internal/catalog"
	"github.com/lehigh-university-libraries/bookrec/internal/dataset"
	"github.com/lehigh-university-libraries/bookrec/internal/report"
	"github.com/lehigh-university-libraries/bookrec/internal/textsim"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with catalog files",
	}

	cmd.AddCommand(newCatalogInspectCmd(root))

	return cmd
}

func newCatalogInspectCmd(root *rootOptions) *cobra.Command {
	var limit int
	var topGenres int
	var sampleTerms int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show catalog statistics and sample records",
		Long: `Loads and validates the catalog, then prints summary statistics and the
first records as they will be seen by the recommender.`,
		Example: `  # Statistics plus the first 10 records
  bookrec catalog inspect --catalog data/goodreads_data.csv

  # Statistics only
  bookrec catalog inspect --limit 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := dataset.NewLoader(root.cfg.Catalog.Path)
			cat, err := loader.LoadCatalog()
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}

			out := cmd.OutOrStdout()
			books := cat.Books()
			if err := printCatalogStats(out, loader.Path(), cat, books, topGenres, sampleTerms); err != nil {
				return err
			}

			ctx := cmd.Context()
			n := min(limit, len(books))
			for i, book := range books[:max(n, 0)] {
				select {
				case <-ctx.Done():
					fmt.Fprintln(out, "\nInspection interrupted.")
					return nil
				default:
				}
				printRecord(out, i, n, book)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to show (0 for none)")
	cmd.Flags().IntVar(&topGenres, "genres", 10, "Number of most common genres to list")
	cmd.Flags().IntVar(&sampleTerms, "terms", 10, "Number of vocabulary terms to sample")

	return cmd
}

// maxDescriptionRunes caps descriptions printed by catalog inspect.
const maxDescriptionRunes = 300

type genreCount struct {
	name  string
	count int
}

func printCatalogStats(out io.Writer, path string, cat *catalog.Catalog, books []catalog.BookRecord, topGenres, sampleTerms int) error {
	withDescription := 0
	counts := make(map[string]int)
	for _, book := range books {
		if book.HasDescription() {
			withDescription++
		}
		for _, g := range book.Genres {
			counts[g]++
		}
	}

	index, err := textsim.Build(cat, textsim.DefaultWeighting)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Catalog:            %s\n", path)
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintf(out, "Books:              %d\n", len(books))
	fmt.Fprintf(out, "With description:   %d\n", withDescription)
	fmt.Fprintf(out, "Distinct genres:    %d\n", len(counts))
	fmt.Fprintf(out, "Max genres per book: %d\n", cat.MaxGenreCount())
	fmt.Fprintf(out, "Vocabulary size:    %d\n", index.VocabularySize())
	if index.Degenerate() {
		fmt.Fprintln(out, "Warning: no description yields any terms; ranking will use genres only")
	} else if sampleTerms > 0 {
		vocabulary := index.Vocabulary()
		fmt.Fprintf(out, "Sample terms:       %s\n", strings.Join(vocabulary[:min(sampleTerms, len(vocabulary))], ", "))
	}

	genres := make([]genreCount, 0, len(counts))
	for name, count := range counts {
		genres = append(genres, genreCount{name, count})
	}
	slices.SortFunc(genres, func(a, b genreCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})

	if topGenres > 0 && len(genres) > 0 {
		fmt.Fprintln(out, "\nMost common genres:")
		for _, g := range genres[:min(topGenres, len(genres))] {
			fmt.Fprintf(out, "  %-30s %d\n", g.name, g.count)
		}
	}
	fmt.Fprintln(out)
	return nil
}

func printRecord(out io.Writer, i, total int, book catalog.BookRecord) {
	fmt.Fprintf(out, "RECORD %d/%d\n", i+1, total)
	fmt.Fprintln(out, strings.Repeat("-", 80))
	fmt.Fprintf(out, "ID:          %d\n", book.ID)
	fmt.Fprintf(out, "Title:       %s\n", book.Title)
	fmt.Fprintf(out, "Genres:      %s\n", strings.Join(book.Genres, ", "))
	fmt.Fprintf(out, "Terms:       %d\n", len(textsim.Tokenize(descriptionText(book))))

	fmt.Fprintf(out, "Description: %s\n\n", report.Truncate(book.Description, maxDescriptionRunes))
}

func descriptionText(book catalog.BookRecord) string {
	if !book.HasDescription() {
		return ""
	}
	return book.Description
}
