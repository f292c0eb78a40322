// Package main is the entry point for the ytdash YouTube analytics dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"youtube-analytics/internal/config"
	"youtube-analytics/internal/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ytdash",
	Short: "YouTube search analytics dashboard",
	Long: `ytdash searches the YouTube Data API, computes per-video engagement
metrics and keeps a catalog and search history in PostgreSQL.

Examples:
  ytdash serve
  ytdash serve --config ./config/config.yaml
  ytdash migrate
  ytdash rollback`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, rollbackCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger every command shares.
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     cfg.Sentry.Release,
			SampleRate:  cfg.Sentry.SampleRate,
			Service:     cfg.App.Name,
		},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}

	return cfg, log, nil
}
