package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "youtube-analytics", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 10*time.Second, cfg.YouTube.Timeout)
	assert.Equal(t, "ko", cfg.YouTube.DefaultLanguage)
	assert.Equal(t, "KR", cfg.YouTube.DefaultRegion)
	assert.Equal(t, 7, cfg.YouTube.PublishedAfterDays)
	assert.Equal(t, 3, cfg.YouTube.Retry.MaxAttempts)
	assert.InDelta(t, 0.5, cfg.YouTube.CB.FailureRatio, 1e-9)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "store:write", cfg.Lock.Key)
	assert.Equal(t, 1, cfg.Lock.Tries)
	assert.Equal(t, 30*time.Second, cfg.Store.ProbeInterval)
	assert.Equal(t, 0, cfg.Export.MaxRows)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := []byte(`
app:
  port: 9090
youtube:
  default_region: US
  timeout: 3s
export:
  max_rows: 500
`)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("APP_APP_PORT", "7070")
	t.Setenv("APP_REDIS_KEY_PREFIX", "other")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.App.Port, "env wins over file")
	assert.Equal(t, "US", cfg.YouTube.DefaultRegion)
	assert.Equal(t, 3*time.Second, cfg.YouTube.Timeout)
	assert.Equal(t, 500, cfg.Export.MaxRows)
	assert.Equal(t, "other", cfg.Redis.KeyPrefix)
}

func TestLoad_APIKey(t *testing.T) {
	t.Run("plain name", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("YOUTUBE_API_KEY", "plain-key")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "plain-key", cfg.YouTube.APIKey)
	})

	t.Run("prefixed name wins", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("YOUTUBE_API_KEY", "plain-key")
		t.Setenv("APP_YOUTUBE_API_KEY", "prefixed-key")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "prefixed-key", cfg.YouTube.APIKey)
	})
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_LOGGER_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("APP_LOGGER_LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_BadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
