package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookrec/internal/dataset"
	"github.com/lehigh-university-libraries/bookrec/internal/suggest"
)

func newSuggestCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest QUERY",
		Short: "Find catalog titles resembling a query",
		Long: `Searches catalog titles with typo tolerance. Useful for finding the exact
title to pass to "bookrec recommend".`,
		Example: `  bookrec suggest hobit
  bookrec suggest "lord of the" --limit 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			cat, err := dataset.NewLoader(root.cfg.Catalog.Path).LoadCatalog()
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}

			titles, err := suggest.NewIndex(cat)
			if err != nil {
				return err
			}
			defer titles.Close()

			found, err := titles.Suggest(cmd.Context(), query, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintf(out, "No titles resemble %q.\n", query)
				return nil
			}
			for _, s := range found {
				fmt.Fprintf(out, "%6d  %s\n", s.ID, s.Title)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", suggest.DefaultLimit, "Maximum number of titles")

	return cmd
}
