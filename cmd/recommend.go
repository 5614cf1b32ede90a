package cmd

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookrec/internal/catalog"
	"github.com/lehigh-university-libraries/bookrec/internal/recommend"
	"github.com/lehigh-university-libraries/bookrec/internal/report"
	"github.com/lehigh-university-libraries/bookrec/internal/suggest"
)

func newRecommendCmd(root *rootOptions) *cobra.Command {
	var (
		top         int
		genreWeight float64
		tfWeight    float64
		weighting   string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "recommend TITLE",
		Short: "Recommend books similar to a title",
		Long: `Ranks every other book in the catalog by a weighted blend of description
similarity and genre overlap with TITLE, and prints the best matches.

A title that is not in the catalog is not an error: nothing is recommended
and close titles are suggested instead.`,
		Example: `  # Five recommendations with the default weights
  bookrec recommend "The Hobbit" --catalog data/goodreads_data.csv

  # Rank by genres only, as JSON
  bookrec recommend "The Hobbit" --genre-weight 1 --tf-weight 0 --format json

  # Raw term frequency instead of TF-IDF
  bookrec recommend "Dune" --weighting tf --top 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")

			opts := root.queryOptions()
			if cmd.Flags().Changed("top") {
				opts.TopK = top
			}
			if cmd.Flags().Changed("genre-weight") {
				opts.GenreWeight = genreWeight
			}
			if cmd.Flags().Changed("tf-weight") {
				opts.TFWeight = tfWeight
			}
			if !finite(opts.GenreWeight) || !finite(opts.TFWeight) {
				return fmt.Errorf("weights must be finite numbers, got genre %v and text %v", opts.GenreWeight, opts.TFWeight)
			}
			if !cmd.Flags().Changed("weighting") {
				weighting = root.cfg.Recommend.Weighting
			}

			engine, err := root.loadEngine(weighting)
			if err != nil {
				return err
			}

			r := report.Report{
				Title:     title,
				Found:     true,
				Weighting: string(engine.Weighting()),
				Options:   opts,
			}

			results, err := engine.Recommend(title, opts)
			switch {
			case errors.Is(err, catalog.ErrNotFound):
				r.Found = false
			case err != nil:
				return fmt.Errorf("failed to compute recommendations: %w", err)
			default:
				r.Results = results
			}

			if err := report.Write(cmd.OutOrStdout(), format, r); err != nil {
				return err
			}

			if !r.Found && (format == "" || format == "text") {
				return printDidYouMean(cmd, engine, title)
			}
			return nil
		},
	}

	defaults := recommend.DefaultOptions()
	cmd.Flags().IntVarP(&top, "top", "n", defaults.TopK, "Number of recommendations")
	cmd.Flags().Float64Var(&genreWeight, "genre-weight", defaults.GenreWeight, "Weight of the genre overlap score")
	cmd.Flags().Float64Var(&tfWeight, "tf-weight", defaults.TFWeight, "Weight of the description similarity score")
	cmd.Flags().StringVar(&weighting, "weighting", "tfidf", "Description term weighting: tf or tfidf")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: "+strings.Join(report.Formats, ", "))

	return cmd
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func printDidYouMean(cmd *cobra.Command, engine *recommend.Engine, title string) error {
	titles, err := suggest.NewIndex(engine.Catalog())
	if err != nil {
		return err
	}
	defer titles.Close()

	found, err := titles.Suggest(cmd.Context(), title, suggest.DefaultLimit)
	if err != nil || len(found) == 0 {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nDid you mean:")
	for _, s := range found {
		fmt.Fprintf(out, "  %s\n", s.Title)
	}
	return nil
}
