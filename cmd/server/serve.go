package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codinggeeks/api/internal/config"
	"github.com/codinggeeks/api/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the API server on $PORT. The database is migrated on startup,
so a separate "migrate up" is only needed for out-of-band deploys.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	srv, err := server.New(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("failed to start server", slog.String("error", err.Error()))
		return fmt.Errorf("starting server: %w", err)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
