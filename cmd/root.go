package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookrec/internal/config"
	"github.com/lehigh-university-libraries/bookrec/internal/dataset"
	"github.com/lehigh-university-libraries/bookrec/internal/logging"
	"github.com/lehigh-university-libraries/bookrec/internal/recommend"
	"github.com/lehigh-university-libraries/bookrec/internal/textsim"
)

// rootOptions carries the persistent flags and the resolved config to
// subcommands.
type rootOptions struct {
	configPath  string
	catalogPath string
	logLevel    string

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bookrec",
		Short: "Content-based book recommendations from descriptions and genres",
		Long: `Bookrec recommends books similar to a given title.

Similarity blends two signals: cosine similarity of the books' descriptions
(TF-IDF or raw term frequency) and how many genres the books share.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("catalog") {
				cfg.Catalog.Path = opts.catalogPath
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = opts.logLevel
			}
			opts.cfg = cfg

			logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default: $"+config.PathEnvVar+" or ./bookrec.yaml)")
	cmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "Path to the catalog file (.csv, .jsonl or .parquet)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	// Add subcommands
	cmd.AddCommand(newRecommendCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newCatalogCmd(opts))
	cmd.AddCommand(newSuggestCmd(opts))

	return cmd
}

// loadEngine reads the configured catalog and builds an engine over it.
func (o *rootOptions) loadEngine(weighting string) (*recommend.Engine, error) {
	w, err := textsim.ParseWeighting(weighting)
	if err != nil {
		return nil, err
	}

	cat, err := dataset.NewLoader(o.cfg.Catalog.Path).LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	return recommend.NewEngine(cat, textsim.NewCache(), w)
}

// queryOptions returns the configured query defaults.
func (o *rootOptions) queryOptions() recommend.Options {
	return recommend.Options{
		TopK:        o.cfg.Recommend.TopK,
		GenreWeight: o.cfg.Recommend.GenreWeight,
		TFWeight:    o.cfg.Recommend.TFWeight,
	}
}
