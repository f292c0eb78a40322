package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"youtube-analytics/internal/infra/postgres"
	"youtube-analytics/internal/infra/postgres/migrations"
)

// migrateCmd applies pending schema migrations and exits.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(log *zap.Logger, db *gorm.DB) error {
			if err := migrations.Run(db); err != nil {
				return err
			}
			log.Info("database migrations completed")
			return nil
		})
	},
}

// rollbackCmd reverts the most recent migration.
var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back the last database migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(log *zap.Logger, db *gorm.DB) error {
			if err := migrations.Rollback(db); err != nil {
				return err
			}
			log.Info("last migration rolled back")
			return nil
		})
	},
}

func withDatabase(ctx context.Context, fn func(*zap.Logger, *gorm.DB) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Database.ConnTimeout)
	defer cancel()

	db, err := postgres.NewConnection(ctx, databaseConfig(cfg), log.Logger)
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		return err
	}
	defer func() { _ = postgres.Close(db) }()

	if err := fn(log.Logger, db); err != nil {
		log.Error("migration failed", zap.Error(err))
		return err
	}
	return nil
}
