package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"italiancorner/mydata_core/internal/infrastructure/config"
	"italiancorner/mydata_core/internal/infrastructure/logger"
)

var rootCmd = &cobra.Command{
	Use:   "invoicing",
	Short: "Retail invoicing core for myDATA",
	Long: `invoicing issues retail receipts for the restaurant and the two villas,
submits them to AADE myDATA through the proxy, and keeps the history,
retry queue and per-branch numbering.

Configuration comes from the environment (and a .env file when present).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command named by the process arguments.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadRuntime reads the configuration and builds a logger writing to w.
// One-shot commands log to stderr so stdout carries only their result.
func loadRuntime(w io.Writer) (config.AppConfig, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	rootCmd.Version = cfg.App.Version
	return cfg, logger.NewWithWriter(w, cfg.App.Name, cfg.Log.Level, cfg.App.Environment), nil
}
