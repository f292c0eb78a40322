package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"youtube-analytics/internal/app/service"
	"youtube-analytics/internal/config"
	"youtube-analytics/internal/infra/postgres"
	redisstore "youtube-analytics/internal/infra/redis"
	"youtube-analytics/internal/infra/youtube"
	"youtube-analytics/internal/job"
	"youtube-analytics/internal/transport/httpserver"
	"youtube-analytics/internal/transport/httpserver/middleware"
	"youtube-analytics/internal/validator"
	"youtube-analytics/pkg/locker"
)

// serveCmd starts the dashboard and JSON API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting youtube-analytics",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	if cfg.YouTube.APIKey == "" {
		log.Warn("youtube api key is not configured, searches will be rejected upstream")
	}

	// Database handle. The server starts even when Postgres is down; the
	// store handle stays Degraded until the probe reaches it.
	db, err := postgres.OpenLazy(databaseConfig(cfg), log.Logger)
	if err != nil {
		return err
	}
	store := service.NewStoreHandle(postgres.NewRepository(db), log.Logger)

	openCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnTimeout)
	if err := store.Open(openCtx); err != nil {
		log.Warn("store unavailable at startup, running degraded", zap.Error(err))
	} else {
		log.Info("database schema ready")
	}
	cancel()
	defer func() { _ = store.Close() }()

	// Redis holds session state and the store write lock
	redisCtx, cancel := context.WithTimeout(ctx, cfg.Redis.Timeout)
	redisClient, err := redisstore.NewClient(redisCtx, redisstore.Config{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
	}, log.Logger)
	cancel()
	if err != nil {
		log.Error("failed to connect to Redis", zap.Error(err))
		return err
	}
	defer func() { _ = redisClient.Close() }()

	sessions := service.NewSessionService(
		redisstore.NewSessionStore(redisClient, log.Logger, cfg.Redis.KeyPrefix),
		cfg.Session.TTL,
		log.Logger,
	)

	distLocker := locker.NewRedisLocker(redisClient, log.Logger, locker.Options{
		Tries:      cfg.Lock.Tries,
		RetryDelay: cfg.Lock.RetryDelay,
	})

	source := youtube.New(youtubeConfig(cfg), log.Logger)

	analytics := service.NewAnalyticsService(
		source,
		store,
		sessions,
		distLocker,
		service.AnalyticsConfig{
			LockKey:       cfg.Lock.Key,
			LockTTL:       cfg.Lock.TTL,
			ExportMaxRows: cfg.Export.MaxRows,
			TopN:          service.DefaultAnalyticsConfig().TopN,
		},
		log.Logger,
	)

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:         cfg.App.Port,
			BodyLimit:    cfg.App.BodyLimit,
			Debug:        cfg.App.Debug,
			TemplatesDir: cfg.App.TemplatesDir,
			CORSOrigins:  cfg.App.CORSOrigins,
			Session: middleware.SessionConfig{
				CookieName: cfg.Session.CookieName,
				TTL:        cfg.Session.TTL,
				Secure:     cfg.Session.Secure,
			},
			PublishedAfterDays: cfg.YouTube.PublishedAfterDays,
		},
		httpserver.Deps{
			Analytics: analytics,
			Sessions:  sessions,
			Validator: validator.New(),
			Readiness: []middleware.ReadinessCheck{redisReady(redisClient)},
		},
		log.Logger,
	)

	probe := job.NewStoreProbe(store, job.ProbeConfig{
		Interval: cfg.Store.ProbeInterval,
		Timeout:  cfg.Store.ProbeTimeout,
	}, log.Logger)
	probe.Start()
	defer probe.Stop()

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.App.Port)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", zap.Error(err))
		}
		return err
	case <-sigCtx.Done():
		log.Info("shutdown signal received")
	}

	probe.Stop()
	if err := server.Shutdown(cfg.App.ShutdownWait); err != nil {
		log.Error("server shutdown error", zap.Error(err))
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", zap.Error(err))
	}

	return nil
}

func redisReady(client *redis.Client) middleware.ReadinessCheck {
	return func(ctx context.Context) bool {
		return client.Ping(ctx).Err() == nil
	}
}

func databaseConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		Name:         cfg.Database.Name,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxLifetime:  cfg.Database.MaxLifetime,
		ConnTimeout:  cfg.Database.ConnTimeout,
		LogQueries:   cfg.Database.LogQueries,
	}
}

func youtubeConfig(cfg *config.Config) youtube.ClientConfig {
	return youtube.ClientConfig{
		BaseURL: cfg.YouTube.BaseURL,
		APIKey:  cfg.YouTube.APIKey,
		Timeout: cfg.YouTube.Timeout,
		Retry: youtube.RetryConfig{
			MaxAttempts: cfg.YouTube.Retry.MaxAttempts,
			WaitTime:    cfg.YouTube.Retry.WaitTime,
			MaxWaitTime: cfg.YouTube.Retry.MaxWaitTime,
		},
		CB: youtube.CBConfig{
			MaxRequests:  cfg.YouTube.CB.MaxRequests,
			Interval:     cfg.YouTube.CB.Interval,
			Timeout:      cfg.YouTube.CB.Timeout,
			FailureRatio: cfg.YouTube.CB.FailureRatio,
		},
		DefaultLanguage: cfg.YouTube.DefaultLanguage,
		DefaultRegion:   cfg.YouTube.DefaultRegion,
	}
}
