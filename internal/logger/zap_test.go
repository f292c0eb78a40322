package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuildEvent(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entry := zapcore.Entry{
		Level:      zapcore.ErrorLevel,
		Message:    "saving search failed",
		LoggerName: "analytics",
		Time:       now,
	}
	fields := []zapcore.Field{
		zap.String("query", "golang"),
		zap.Int("records", 12),
		zap.Float64("ratio", 0.25),
		zap.Bool("persisted", false),
		zap.Error(errors.New("connection refused")),
	}

	event := buildEvent(entry, fields, map[string]string{"service": "ytdash"})

	assert.Equal(t, sentry.LevelError, event.Level)
	assert.Equal(t, "saving search failed", event.Message)
	assert.Equal(t, "analytics", event.Logger)
	assert.Equal(t, now, event.Timestamp)
	assert.Equal(t, "ytdash", event.Tags["service"])

	assert.Equal(t, "golang", event.Extra["query"])
	assert.EqualValues(t, 12, event.Extra["records"])
	assert.InDelta(t, 0.25, event.Extra["ratio"], 1e-9)
	assert.Equal(t, false, event.Extra["persisted"])
	assert.Equal(t, "connection refused", event.Extra["error"])

	require.Len(t, event.Exception, 1)
	assert.Equal(t, "connection refused", event.Exception[0].Value)
	assert.Equal(t, "*errors.errorString", event.Exception[0].Type)
}

func TestBuildEvent_NoError(t *testing.T) {
	event := buildEvent(zapcore.Entry{Level: zapcore.FatalLevel}, nil, nil)

	assert.Equal(t, sentry.LevelFatal, event.Level)
	assert.Empty(t, event.Exception)
	assert.Empty(t, event.Extra)
}

func TestSentryCore_WithDoesNotAlias(t *testing.T) {
	base := newSentryCore(sentry.NewHub(nil, sentry.NewScope()), zapcore.ErrorLevel, nil)
	parent := base.With([]zapcore.Field{zap.String("a", "1")}).(*sentryCore)

	left := parent.With([]zapcore.Field{zap.String("left", "x")}).(*sentryCore)
	right := parent.With([]zapcore.Field{zap.String("right", "y")}).(*sentryCore)

	require.Len(t, left.fields, 2)
	require.Len(t, right.fields, 2)
	assert.Equal(t, "left", left.fields[1].Key)
	assert.Equal(t, "right", right.fields[1].Key)
}

func TestSentryCore_Check(t *testing.T) {
	core := newSentryCore(sentry.NewHub(nil, sentry.NewScope()), zapcore.ErrorLevel, nil)

	assert.Nil(t, core.Check(zapcore.Entry{Level: zapcore.WarnLevel}, nil))
	assert.NotNil(t, core.Check(zapcore.Entry{Level: zapcore.ErrorLevel}, nil))
}

func TestZapLevelToSentry(t *testing.T) {
	tests := []struct {
		level zapcore.Level
		want  sentry.Level
	}{
		{zapcore.DebugLevel, sentry.LevelDebug},
		{zapcore.InfoLevel, sentry.LevelInfo},
		{zapcore.WarnLevel, sentry.LevelWarning},
		{zapcore.ErrorLevel, sentry.LevelError},
		{zapcore.PanicLevel, sentry.LevelFatal},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, zapLevelToSentry(tt.level))
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Config{Level: "debug", Format: "json", Output: path}, SentryConfig{})
	require.NoError(t, err)

	log.With(zap.String("component", "test")).Info("hello")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Config{Level: "loud", Format: "json", Output: path}, SentryConfig{})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}
