package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookrec/internal/handlers"
	"github.com/lehigh-university-libraries/bookrec/internal/suggest"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the recommendation API server",
		Long: `Loads the catalog once, builds the similarity and title indexes, and
serves recommendations over HTTP.

Endpoints:
  GET /api/recommendations?title=&top=&genre_weight=&tf_weight=
  GET /api/books/{id}
  GET /api/suggestions?q=&limit=
  GET /healthcheck
  GET /metrics`,
		Example: `  # Start server on the configured port (default 8888)
  bookrec serve --catalog data/goodreads_data.csv

  # Start server on custom port
  bookrec serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				root.cfg.Server.Port = port
			}

			engine, err := root.loadEngine(root.cfg.Recommend.Weighting)
			if err != nil {
				return err
			}

			titles, err := suggest.NewIndex(engine.Catalog())
			if err != nil {
				return err
			}
			defer titles.Close()

			handler := handlers.New(engine, titles, root.queryOptions())

			addr := ":" + strconv.Itoa(root.cfg.Server.Port)
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Bookrec API available", "addr", addr, "url", "http://localhost"+addr, "books", engine.Catalog().Len())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), root.cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8888, "Port to listen on")

	return cmd
}
