// Package postgres provides the PostgreSQL connection and the video/history store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds database connection configuration.
type Config struct {
	Host         string
	Port         int
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	ConnTimeout  time.Duration
	LogQueries   bool
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
	if c.ConnTimeout > 0 {
		dsn += fmt.Sprintf(" connect_timeout=%d", int(c.ConnTimeout.Seconds()))
	}
	return dsn
}

// NewConnection opens a GORM connection and verifies it with a ping.
// The caller owns the handle and must release it with Close.
func NewConnection(ctx context.Context, cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := open(cfg, false)
	if err != nil {
		return nil, err
	}

	if err := HealthCheck(ctx, db); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	return db, nil
}

// OpenLazy returns a handle without contacting the server. Connections are
// made on first use, so a process can start while the database is down and
// pick it up once the store probe succeeds.
func OpenLazy(cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := open(cfg, true)
	if err != nil {
		return nil, err
	}

	logger.Info("database handle opened",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	return db, nil
}

func open(cfg Config, lazy bool) (*gorm.DB, error) {
	gormLogLevel := gormlogger.Silent
	if cfg.LogQueries {
		gormLogLevel = gormlogger.Info
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt:          true,
		DisableAutomaticPing: lazy,
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	return db, nil
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// HealthCheck verifies the database connection is alive.
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}
