// Package service provides application use cases.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"youtube-analytics/internal/domain"
	"youtube-analytics/internal/export"
	"youtube-analytics/internal/metrics"
	"youtube-analytics/pkg/locker"
)

// Warnings shown to the user when a secondary step fails.
const (
	warnChannelStats   = "channel statistics are unavailable; subscriber metrics are unknown"
	warnChannelMissing = "channel not found or hidden; subscriber metrics are unknown"
	warnSaveBusy       = "another save is in progress; results were not saved, try again"
	warnSaveStore      = "results were not saved: the database is unavailable"
	warnSaveLock       = "results were not saved: the write lock could not be taken"
	warnHistory        = "videos were saved but the search history entry could not be recorded"
)

// catalogLabel names exports of the whole stored catalog.
const catalogLabel = "catalog"

// AnalyticsConfig tunes the analytics use cases.
type AnalyticsConfig struct {
	LockKey       string
	LockTTL       time.Duration
	ExportMaxRows int
	TopN          int
}

// DefaultAnalyticsConfig returns the production defaults.
func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		LockKey:       "store:write",
		LockTTL:       30 * time.Second,
		ExportMaxRows: 0,
		TopN:          10,
	}
}

// SearchOutcome is the dashboard view of a session: the filtered records and
// the aggregates over them.
type SearchOutcome struct {
	SessionID string               `json:"session_id"`
	Query     *domain.SearchQuery  `json:"query,omitempty"`
	Channel   *domain.ChannelInfo  `json:"channel,omitempty"`
	Records   []domain.VideoRecord `json:"records"`
	Top       []domain.VideoRecord `json:"top"`
	Total     int                  `json:"total"`
	Skipped   int                  `json:"skipped"`
	Summary   domain.Summary       `json:"summary"`
	Filter    domain.Filter        `json:"filter"`
	Saved     bool                 `json:"saved"`
	Warnings  []string             `json:"warnings,omitempty"`
}

// SaveOutcome reports what the save action persisted.
type SaveOutcome struct {
	Persisted bool     `json:"persisted"`
	Inserted  int      `json:"inserted"`
	HistoryID int64    `json:"history_id,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// AnalyticsService runs the dashboard actions: search, filter, save and export.
type AnalyticsService struct {
	source   domain.VideoSource
	store    *StoreHandle
	sessions *SessionService
	locker   locker.DistributedLocker
	cfg      AnalyticsConfig
	logger   *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService. A nil locker runs
// saves without cross-instance serialization.
func NewAnalyticsService(
	source domain.VideoSource,
	store *StoreHandle,
	sessions *SessionService,
	l locker.DistributedLocker,
	cfg AnalyticsConfig,
	logger *zap.Logger,
) *AnalyticsService {
	if cfg.LockKey == "" {
		cfg.LockKey = DefaultAnalyticsConfig().LockKey
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultAnalyticsConfig().LockTTL
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultAnalyticsConfig().TopN
	}

	return &AnalyticsService{
		source:   source,
		store:    store,
		sessions: sessions,
		locker:   l,
		cfg:      cfg,
		logger:   logger,
	}
}

// Search runs the full pipeline for q and replaces the session's results.
// Upstream failures of search or details abort the action with nothing
// stored; a channel statistics failure only degrades subscriber metrics.
func (s *AnalyticsService) Search(ctx context.Context, sessionID string, q domain.SearchQuery) (*SearchOutcome, error) {
	start := time.Now()

	if err := q.Validate(); err != nil {
		return nil, err
	}

	state, err := s.sessions.Ensure(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("searching videos",
		zap.String("session_id", state.SessionID),
		zap.String("query", q.Query),
		zap.String("channel_id", q.ChannelID),
		zap.Int("max_results", q.MaxResults),
	)

	raw, err := s.source.SearchVideos(ctx, q)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", q.Label()), zap.Error(err))
		return nil, fmt.Errorf("searching videos: %w", err)
	}

	normalized := domain.Normalize(raw)
	for _, skipped := range normalized.Skipped {
		s.logger.Debug("skipping malformed item", zap.Error(skipped))
	}
	metrics.SkippedItems.Add(float64(len(normalized.Skipped)))

	records := normalized.Records
	if len(records) > 0 {
		details, err := s.source.FetchVideoDetails(ctx, domain.UniqueVideoIDs(records))
		if err != nil {
			s.logger.Error("fetching video details failed", zap.Error(err))
			return nil, fmt.Errorf("fetching video details: %w", err)
		}
		records = domain.Enrich(records, details)
	}

	var (
		channel  *domain.ChannelInfo
		warnings []string
	)
	if q.Type() == domain.SearchTypeChannel {
		channel, records, warnings = s.applyChannel(ctx, q.ChannelID, records)
	} else {
		records, warnings = s.applyChannels(ctx, records)
	}

	state.ReplaceResults(q, channel, records, len(normalized.Skipped))
	for _, w := range warnings {
		state.Warn(w)
	}

	if err := s.sessions.Save(ctx, state); err != nil {
		return nil, err
	}

	metrics.SearchesTotal.WithLabelValues(string(q.Type())).Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("search completed",
		zap.String("session_id", state.SessionID),
		zap.String("type", string(q.Type())),
		zap.Int("records", len(records)),
		zap.Int("skipped", len(normalized.Skipped)),
		zap.Duration("duration", time.Since(start)),
	)

	return s.outcome(state), nil
}

// applyChannel sets the subscriber count of a single searched channel on every record.
func (s *AnalyticsService) applyChannel(ctx context.Context, channelID string, records []domain.VideoRecord) (*domain.ChannelInfo, []domain.VideoRecord, []string) {
	channels, err := s.source.FetchChannels(ctx, []string{channelID})
	if err != nil {
		s.logger.Warn("fetching channel failed", zap.String("channel_id", channelID), zap.Error(err))
		return nil, domain.ApplySubscriberCount(records, nil), []string{warnChannelStats}
	}

	info, ok := channels[channelID]
	if !ok {
		return nil, domain.ApplySubscriberCount(records, nil), []string{warnChannelMissing}
	}

	return &info, domain.ApplySubscriberCount(records, info.SubscriberCount), nil
}

// applyChannels sets per-record subscriber counts for a keyword search.
func (s *AnalyticsService) applyChannels(ctx context.Context, records []domain.VideoRecord) ([]domain.VideoRecord, []string) {
	ids := domain.UniqueChannelIDs(records)
	if len(ids) == 0 {
		return records, nil
	}

	channels, err := s.source.FetchChannels(ctx, ids)
	if err != nil {
		s.logger.Warn("fetching channels failed", zap.Int("channels", len(ids)), zap.Error(err))
		return records, []string{warnChannelStats}
	}

	return domain.ApplyChannelStats(records, channels), nil
}

// ApplyFilter replaces the session's active filter and recomputes the view.
func (s *AnalyticsService) ApplyFilter(ctx context.Context, sessionID string, f domain.Filter) (*SearchOutcome, error) {
	if r := f.Dates; r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		return nil, domain.InvalidArgumentf("end date is before start date")
	}
	if f.Threshold.MinViews < 0 {
		return nil, domain.InvalidArgumentf("min_views must be non-negative, got %d", f.Threshold.MinViews)
	}

	state, err := s.sessions.Ensure(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state.Filter = f
	if err := s.sessions.Save(ctx, state); err != nil {
		return nil, err
	}

	return s.outcome(state), nil
}

// Session returns the current view of a session without changing it.
func (s *AnalyticsService) Session(ctx context.Context, sessionID string) (*SearchOutcome, error) {
	state, err := s.sessions.Ensure(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.outcome(state), nil
}

// Save persists every record of the session's last search and appends a
// history entry. Storage failures and lock contention are reported as
// warnings with Persisted=false; the session's results are kept either way.
func (s *AnalyticsService) Save(ctx context.Context, sessionID string) (*SaveOutcome, error) {
	state, err := s.sessions.Ensure(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.HasResults() {
		return nil, domain.InvalidArgumentf("no search results to save")
	}

	out := &SaveOutcome{}
	err = s.withWriteLock(ctx, func(ctx context.Context) error {
		return s.persist(ctx, state, out)
	})

	switch {
	case err == nil:
		out.Persisted = true
	case errors.Is(err, locker.ErrNotAcquired):
		out.Warnings = append(out.Warnings, warnSaveBusy)
	case errors.Is(err, domain.ErrStorage):
		out.Warnings = append(out.Warnings, warnSaveStore)
	default:
		out.Warnings = append(out.Warnings, warnSaveLock)
	}
	if err != nil {
		s.logger.Warn("save skipped",
			zap.String("session_id", state.SessionID),
			zap.Error(err),
		)
	}

	if out.Persisted {
		state.Saved = true
	}
	for _, w := range out.Warnings {
		state.Warn(w)
	}
	if err := s.sessions.Save(ctx, state); err != nil {
		s.logger.Warn("updating session after save failed", zap.Error(err))
	}

	return out, nil
}

// persist runs under the write lock.
func (s *AnalyticsService) persist(ctx context.Context, state *domain.AppState, out *SaveOutcome) error {
	err := s.store.Write(ctx, "upsert_videos", func(ctx context.Context, st domain.Store) error {
		n, err := st.UpsertVideos(ctx, state.Records)
		out.Inserted = n
		return err
	})
	if err != nil {
		return err
	}
	metrics.VideosInserted.Add(float64(out.Inserted))

	entry := domain.NewSearchHistoryEntry(*state.Query, len(state.Records))
	err = s.store.Write(ctx, "save_search_history", func(ctx context.Context, st domain.Store) error {
		id, err := st.SaveSearchHistory(ctx, &entry, state.Records)
		out.HistoryID = id
		return err
	})
	if err != nil {
		s.logger.Warn("recording search history failed", zap.Error(err))
		out.Warnings = append(out.Warnings, warnHistory)
		return nil
	}
	metrics.HistoryEntries.Inc()

	s.logger.Info("search results saved",
		zap.String("session_id", state.SessionID),
		zap.Int("records", len(state.Records)),
		zap.Int("inserted", out.Inserted),
		zap.Int64("history_id", out.HistoryID),
	)

	return nil
}

func (s *AnalyticsService) withWriteLock(ctx context.Context, fn func(context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return locker.WithLock(ctx, s.locker, s.cfg.LockKey, s.cfg.LockTTL, fn)
}

// Export renders the session's filtered records as CSV.
func (s *AnalyticsService) Export(ctx context.Context, sessionID string, now time.Time) (string, []byte, error) {
	state, err := s.sessions.Ensure(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}
	if !state.HasResults() {
		return "", nil, domain.InvalidArgumentf("no search results to export")
	}

	records := state.Filtered()
	data, err := export.CSV(records, s.cfg.ExportMaxRows)
	if err != nil {
		return "", nil, fmt.Errorf("exporting session %s: %w", state.SessionID, err)
	}

	rows := len(records)
	if s.cfg.ExportMaxRows > 0 && rows > s.cfg.ExportMaxRows {
		rows = s.cfg.ExportMaxRows
	}
	metrics.ExportedRows.Add(float64(rows))

	return export.Filename(state.Query.Label(), now), data, nil
}

// ExportCatalog renders every stored video as CSV under the label "catalog".
// An empty catalog exports the header row only.
func (s *AnalyticsService) ExportCatalog(ctx context.Context, now time.Time) (string, []byte, error) {
	var records []domain.VideoRecord
	err := s.store.Read(ctx, "fetch_all_videos", func(ctx context.Context, st domain.Store) error {
		var err error
		records, err = st.FetchAllVideos(ctx)
		return err
	})
	if err != nil {
		return "", nil, err
	}

	data, err := export.CSV(records, s.cfg.ExportMaxRows)
	if err != nil {
		return "", nil, fmt.Errorf("exporting catalog: %w", err)
	}

	rows := len(records)
	if s.cfg.ExportMaxRows > 0 && rows > s.cfg.ExportMaxRows {
		rows = s.cfg.ExportMaxRows
	}
	metrics.ExportedRows.Add(float64(rows))

	return export.Filename(catalogLabel, now), data, nil
}

// History returns up to limit ledger entries, most recent first.
func (s *AnalyticsService) History(ctx context.Context, limit int) ([]domain.SearchHistoryEntry, error) {
	var entries []domain.SearchHistoryEntry
	err := s.store.Read(ctx, "get_search_history", func(ctx context.Context, st domain.Store) error {
		var err error
		entries, err = st.GetSearchHistory(ctx, limit)
		return err
	})
	return entries, err
}

// Popular returns the most repeated searches of one type.
func (s *AnalyticsService) Popular(ctx context.Context, searchType domain.SearchType, limit int) ([]domain.PopularSearch, error) {
	if _, err := domain.ParseSearchType(string(searchType)); err != nil {
		return nil, err
	}

	var popular []domain.PopularSearch
	err := s.store.Read(ctx, "get_popular_searches", func(ctx context.Context, st domain.Store) error {
		var err error
		popular, err = st.GetPopularSearches(ctx, searchType, limit)
		return err
	})
	return popular, err
}

// HistoryVideos returns the records saved with one history entry.
func (s *AnalyticsService) HistoryVideos(ctx context.Context, entryID int64) ([]domain.VideoRecord, error) {
	if entryID <= 0 {
		return nil, domain.InvalidArgumentf("history id must be positive, got %d", entryID)
	}

	var records []domain.VideoRecord
	err := s.store.Read(ctx, "get_history_videos", func(ctx context.Context, st domain.Store) error {
		var err error
		records, err = st.GetHistoryVideos(ctx, entryID)
		return err
	})
	return records, err
}

// SavedVideos returns one page of the stored catalog.
func (s *AnalyticsService) SavedVideos(ctx context.Context, params domain.PageParams) (*domain.VideoPage, error) {
	var page *domain.VideoPage
	err := s.store.Read(ctx, "list_videos", func(ctx context.Context, st domain.Store) error {
		var err error
		page, err = st.ListVideos(ctx, params)
		return err
	})
	return page, err
}

// StoreState reports the persistence handle state.
func (s *AnalyticsService) StoreState() domain.StoreState {
	return s.store.State()
}

func (s *AnalyticsService) outcome(state *domain.AppState) *SearchOutcome {
	filtered := state.Filtered()
	return &SearchOutcome{
		SessionID: state.SessionID,
		Query:     state.Query,
		Channel:   state.Channel,
		Records:   filtered,
		Top:       domain.TopByViews(filtered, s.cfg.TopN),
		Total:     len(state.Records),
		Skipped:   state.Skipped,
		Summary:   domain.Summarize(filtered),
		Filter:    state.Filter,
		Saved:     state.Saved,
		Warnings:  state.Warnings,
	}
}
