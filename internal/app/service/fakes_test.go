package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"youtube-analytics/internal/domain"
	"youtube-analytics/internal/infra/redis"
	"youtube-analytics/pkg/locker"
)

var errDown = errors.New("connection refused")

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

// fakeSource is an in-memory domain.VideoSource.
type fakeSource struct {
	search      []domain.RawItem
	searchErr   error
	details     []domain.RawItem
	detailsErr  error
	channels    map[string]domain.ChannelInfo
	channelsErr error

	detailIDs  []string
	channelIDs []string
}

func (f *fakeSource) SearchVideos(_ context.Context, _ domain.SearchQuery) ([]domain.RawItem, error) {
	return f.search, f.searchErr
}

func (f *fakeSource) FetchVideoDetails(_ context.Context, ids []string) ([]domain.RawItem, error) {
	f.detailIDs = append(f.detailIDs, ids...)
	return f.details, f.detailsErr
}

func (f *fakeSource) FetchChannels(_ context.Context, ids []string) (map[string]domain.ChannelInfo, error) {
	f.channelIDs = append(f.channelIDs, ids...)
	if f.channelsErr != nil {
		return nil, f.channelsErr
	}
	out := make(map[string]domain.ChannelInfo)
	for _, id := range ids {
		if info, ok := f.channels[id]; ok {
			out[id] = info
		}
	}
	return out, nil
}

// fakeStore is an in-memory domain.Store with switchable failures.
type fakeStore struct {
	mu sync.Mutex

	videos    map[string]domain.VideoRecord
	history   []domain.SearchHistoryEntry
	snapshots map[int64][]domain.VideoRecord

	initErr    error
	upsertErr  error
	historyErr error
	readErr    error

	initCalls   int
	upsertCalls int
	closed      bool
}

var _ domain.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		videos:    make(map[string]domain.VideoRecord),
		snapshots: make(map[int64][]domain.VideoRecord),
	}
}

func (f *fakeStore) InitSchema(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	return f.initErr
}

func (f *fakeStore) UpsertVideos(_ context.Context, records []domain.VideoRecord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	inserted := 0
	for _, r := range records {
		if _, ok := f.videos[r.VideoID]; ok {
			continue
		}
		f.videos[r.VideoID] = r
		inserted++
	}
	return inserted, nil
}

func (f *fakeStore) FetchAllVideos(context.Context) ([]domain.VideoRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]domain.VideoRecord, 0, len(f.videos))
	for _, r := range f.videos {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out, nil
}

func (f *fakeStore) ListVideos(ctx context.Context, params domain.PageParams) (*domain.VideoPage, error) {
	params.Normalize()
	all, err := f.FetchAllVideos(ctx)
	if err != nil {
		return nil, err
	}
	start := min(params.Offset(), len(all))
	end := min(start+params.Limit(), len(all))
	return domain.NewVideoPage(all[start:end], int64(len(all)), params), nil
}

func (f *fakeStore) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.videos)), nil
}

func (f *fakeStore) SaveSearchHistory(_ context.Context, entry *domain.SearchHistoryEntry, records []domain.VideoRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return 0, f.historyErr
	}
	if err := entry.Validate(); err != nil {
		return 0, err
	}
	entry.ID = int64(len(f.history) + 1)
	entry.SearchDate = time.Now().UTC()
	f.history = append(f.history, *entry)
	f.snapshots[entry.ID] = append([]domain.VideoRecord(nil), records...)
	return entry.ID, nil
}

func (f *fakeStore) GetSearchHistory(_ context.Context, limit int) ([]domain.SearchHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]domain.SearchHistoryEntry, 0, len(f.history))
	for i := len(f.history) - 1; i >= 0; i-- {
		out = append(out, f.history[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) GetPopularSearches(_ context.Context, searchType domain.SearchType, limit int) ([]domain.PopularSearch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	counts := make(map[string]*domain.PopularSearch)
	var order []string
	for _, e := range f.history {
		if e.SearchType != searchType {
			continue
		}
		p, ok := counts[e.SearchQuery]
		if !ok {
			p = &domain.PopularSearch{Query: e.SearchQuery}
			counts[e.SearchQuery] = p
			order = append(order, e.SearchQuery)
		}
		p.Count++
		p.LastSearched = e.SearchDate
	}
	out := make([]domain.PopularSearch, 0, len(order))
	for _, q := range order {
		out = append(out, *counts[q])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) GetHistoryVideos(_ context.Context, id int64) ([]domain.VideoRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.snapshots[id], nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func (f *fakeStore) setUpsertErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertErr = err
}

// testEnv wires an AnalyticsService to fakes and a miniredis-backed session store and locker.
type testEnv struct {
	svc      *AnalyticsService
	source   *fakeSource
	store    *fakeStore
	handle   *StoreHandle
	sessions *SessionService
	client   *goredis.Client
	mr       *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	source := &fakeSource{}
	store := newFakeStore()
	handle := NewStoreHandle(store, logger)
	if err := handle.Open(context.Background()); err != nil {
		t.Fatalf("opening store: %v", err)
	}

	sessions := NewSessionService(redis.NewSessionStore(client, logger, "test"), time.Hour, logger)
	l := locker.NewRedisLocker(client, logger, locker.DefaultOptions())

	return &testEnv{
		svc:      NewAnalyticsService(source, handle, sessions, l, DefaultAnalyticsConfig(), logger),
		source:   source,
		store:    store,
		handle:   handle,
		sessions: sessions,
		client:   client,
		mr:       mr,
	}
}

func searchItem(id, title, channelID, publishedAt string) domain.RawItem {
	return domain.RawItem{
		ID: domain.SearchID(id),
		Snippet: &domain.RawSnippet{
			Title:        strPtr(title),
			ChannelID:    channelID,
			ChannelTitle: "Channel " + channelID,
			PublishedAt:  publishedAt,
		},
	}
}

func detailItem(id, views, duration string) domain.RawItem {
	return domain.RawItem{
		ID:             domain.FlatID(id),
		Statistics:     &domain.RawStatistics{ViewCount: views},
		ContentDetails: &domain.RawContentDetails{Duration: duration},
	}
}
