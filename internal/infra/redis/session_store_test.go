package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"youtube-analytics/internal/domain"
)

func setupTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewSessionStore(client, zap.NewNop(), "ytdash"), mr
}

func TestSessionStore_RoundTrip(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	subs := int64(1000)
	state := domain.NewAppState("s1")
	state.ReplaceResults(
		domain.SearchQuery{Query: "golang", MaxResults: 10},
		&domain.ChannelInfo{ID: "UC1", Title: "Chan", SubscriberCount: &subs},
		[]domain.VideoRecord{{VideoID: "abc", Title: "Hello", ViewCount: 500, ChannelSubscriberCount: &subs}},
		2,
	)
	start, _ := domain.ParsePublishedAt("2024-01-01")
	state.Filter.Dates.Start = &start
	state.Warn("store unavailable")

	require.NoError(t, store.Save(ctx, state, time.Hour))
	assert.True(t, mr.Exists("ytdash:session:s1"))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, "golang", loaded.Query.Query)
	assert.Equal(t, 2, loaded.Skipped)
	require.Len(t, loaded.Records, 1)
	assert.Equal(t, int64(1000), *loaded.Records[0].ChannelSubscriberCount)
	assert.True(t, loaded.Filter.Dates.Start.Equal(start))
	assert.Nil(t, loaded.Filter.Dates.End)
	assert.Equal(t, []string{"store unavailable"}, loaded.Warnings)
	assert.Equal(t, "UC1", loaded.Channel.ID)
}

func TestSessionStore_LoadMissing(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewAppState("s1"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_CorruptValue(t *testing.T) {
	store, mr := setupTestStore(t)
	require.NoError(t, mr.Set("ytdash:session:bad", "{not json"))

	_, err := store.Load(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewAppState("s1"), time.Hour))
	require.NoError(t, store.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("ytdash:session:s1"))

	// idempotent
	require.NoError(t, store.Delete(ctx, "s1"))
}

func TestSessionStore_SaveRequiresID(t *testing.T) {
	store, _ := setupTestStore(t)

	err := store.Save(context.Background(), &domain.AppState{}, time.Hour)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSessionStore_ConnectionError(t *testing.T) {
	store, mr := setupTestStore(t)
	mr.Close()

	_, err := store.Load(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Error(t, store.Ping(context.Background()))
}
