package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"youtube-analytics/internal/domain"
)

func TestSessionService_EnsureNew(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	state, err := env.sessions.Ensure(ctx, "")
	require.NoError(t, err)
	_, err = uuid.Parse(state.SessionID)
	assert.NoError(t, err)
	assert.False(t, state.HasResults())

	state, err = env.sessions.Ensure(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, "unknown", state.SessionID)
	assert.Empty(t, state.Records)
}

func TestSessionService_SaveAndExpire(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	state := domain.NewAppState("s1")
	state.Warn("hello")
	require.NoError(t, env.sessions.Save(ctx, state))

	loaded, err := env.sessions.Ensure(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, loaded.Warnings)

	env.mr.FastForward(2 * time.Hour)
	loaded, err = env.sessions.Ensure(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Warnings)
}

func TestSessionService_Reset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.sessions.Save(ctx, domain.NewAppState("s1")))
	require.NoError(t, env.sessions.Reset(ctx, "s1"))
	assert.False(t, env.mr.Exists("test:session:s1"))
}

func TestSessionService_StoreDown(t *testing.T) {
	env := newTestEnv(t)
	env.mr.Close()

	_, err := env.sessions.Ensure(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
