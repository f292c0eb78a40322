// Package config provides application configuration management using Viper.
// Configuration is loaded from a .env file, YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	YouTube  YouTubeConfig  `mapstructure:"youtube"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Lock     LockConfig     `mapstructure:"lock"`
	Store    StoreConfig    `mapstructure:"store"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name         string        `mapstructure:"name"`
	Env          string        `mapstructure:"env"` // development, staging, production
	Port         int           `mapstructure:"port"`
	Debug        bool          `mapstructure:"debug"`
	BodyLimit    int           `mapstructure:"body_limit"`
	CORSOrigins  string        `mapstructure:"cors_origins"`
	TemplatesDir string        `mapstructure:"templates_dir"`
	ShutdownWait time.Duration `mapstructure:"shutdown_wait"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Name         string        `mapstructure:"name"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
	ConnTimeout  time.Duration `mapstructure:"conn_timeout"`
	LogQueries   bool          `mapstructure:"log_queries"`
}

// YouTubeConfig holds YouTube Data API client settings.
type YouTubeConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	APIKey             string        `mapstructure:"api_key"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Retry              RetryConfig   `mapstructure:"retry"`
	CB                 CBConfig      `mapstructure:"circuit_breaker"`
	DefaultLanguage    string        `mapstructure:"default_language"`
	DefaultRegion      string        `mapstructure:"default_region"`
	PublishedAfterDays int           `mapstructure:"published_after_days"`
}

// RetryConfig holds retry settings.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	WaitTime    time.Duration `mapstructure:"wait_time"`
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	Release     string  `mapstructure:"release"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RedisConfig holds Redis connection settings for session state and locking.
type RedisConfig struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	Timeout   time.Duration `mapstructure:"timeout"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// Addr returns the host:port address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

// LockConfig holds the store write lock settings.
type LockConfig struct {
	Key        string        `mapstructure:"key"`
	TTL        time.Duration `mapstructure:"ttl"`
	Tries      int           `mapstructure:"tries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// StoreConfig holds persistence store probe settings.
type StoreConfig struct {
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
}

// ExportConfig holds CSV export settings.
type ExportConfig struct {
	MaxRows int `mapstructure:"max_rows"` // 0 = unlimited
}

// Load reads configuration from file and environment variables.
// Priority: env vars (including .env) > config file > defaults
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	// Environment variable settings
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The API key is also accepted under the name the YouTube docs use.
	if err := v.BindEnv("youtube.api_key", "APP_YOUTUBE_API_KEY", "YOUTUBE_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding youtube api key: %w", err)
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads ./.env into the process environment. Variables that are
// already set win, and a missing file is not an error.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading .env: %w", err)
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "youtube-analytics")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)
	v.SetDefault("app.body_limit", 1024*1024)
	v.SetDefault("app.cors_origins", "*")
	v.SetDefault("app.templates_dir", "./web/templates")
	v.SetDefault("app.shutdown_wait", "10s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "youtube_analytics")
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.conn_timeout", "5s")
	v.SetDefault("database.log_queries", false)

	// YouTube defaults
	v.SetDefault("youtube.base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.timeout", "10s")
	v.SetDefault("youtube.retry.max_attempts", 3)
	v.SetDefault("youtube.retry.wait_time", "1s")
	v.SetDefault("youtube.retry.max_wait_time", "5s")
	v.SetDefault("youtube.circuit_breaker.max_requests", 3)
	v.SetDefault("youtube.circuit_breaker.interval", "60s")
	v.SetDefault("youtube.circuit_breaker.timeout", "30s")
	v.SetDefault("youtube.circuit_breaker.failure_ratio", 0.5)
	v.SetDefault("youtube.default_language", "ko")
	v.SetDefault("youtube.default_region", "KR")
	v.SetDefault("youtube.published_after_days", 7)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.release", "")
	v.SetDefault("sentry.sample_rate", 1.0)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.timeout", "3s")
	v.SetDefault("redis.key_prefix", "ytdash")

	// Session defaults
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.cookie_name", "ytdash_session")
	v.SetDefault("session.secure", false)

	// Lock defaults
	v.SetDefault("lock.key", "store:write")
	v.SetDefault("lock.ttl", "30s")
	v.SetDefault("lock.tries", 1)
	v.SetDefault("lock.retry_delay", "100ms")

	// Store defaults
	v.SetDefault("store.probe_interval", "30s")
	v.SetDefault("store.probe_timeout", "10s")

	// Export defaults
	v.SetDefault("export.max_rows", 0)
}
