package domain

import (
	"context"
	"time"
)

// VideoRepository defines the persistence operations on the video catalog.
// Implementations: internal/infra/postgres/repository.go
type VideoRepository interface {
	// InitSchema creates the tables if absent. Safe to call repeatedly.
	InitSchema(ctx context.Context) error

	// UpsertVideos inserts records whose video_id is absent and skips the rest.
	// Returns the number of rows actually inserted.
	UpsertVideos(ctx context.Context, records []VideoRecord) (int, error)

	// FetchAllVideos returns every stored video.
	FetchAllVideos(ctx context.Context) ([]VideoRecord, error)

	// ListVideos returns one page of stored videos.
	ListVideos(ctx context.Context, params PageParams) (*VideoPage, error)

	// Count returns the number of stored videos.
	Count(ctx context.Context) (int64, error)
}

// HistoryRepository defines the search-history ledger operations.
// Implementations: internal/infra/postgres/history_repository.go
type HistoryRepository interface {
	// SaveSearchHistory appends an entry with a snapshot of its records and returns the assigned id.
	SaveSearchHistory(ctx context.Context, entry *SearchHistoryEntry, records []VideoRecord) (int64, error)

	// GetSearchHistory returns up to limit entries, most recent first.
	GetSearchHistory(ctx context.Context, limit int) ([]SearchHistoryEntry, error)

	// GetPopularSearches groups entries of searchType by query, count desc, ties by recency.
	GetPopularSearches(ctx context.Context, searchType SearchType, limit int) ([]PopularSearch, error)

	// GetHistoryVideos returns the snapshot records of one entry.
	GetHistoryVideos(ctx context.Context, entryID int64) ([]VideoRecord, error)
}

// Store is the full persistence handle.
type Store interface {
	VideoRepository
	HistoryRepository

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// VideoSource defines the upstream video platform API.
// Implementations: internal/infra/youtube/client.go
type VideoSource interface {
	// SearchVideos runs search.list and returns the raw search items.
	SearchVideos(ctx context.Context, q SearchQuery) ([]RawItem, error)

	// FetchVideoDetails runs videos.list for the given ids.
	FetchVideoDetails(ctx context.Context, videoIDs []string) ([]RawItem, error)

	// FetchChannels runs channels.list and returns statistics keyed by channel id.
	FetchChannels(ctx context.Context, channelIDs []string) (map[string]ChannelInfo, error)
}

// SessionStore persists AppState between user actions.
// Implementations: internal/infra/redis/session_store.go
type SessionStore interface {
	// Load returns the state of a session, or ErrSessionNotFound.
	Load(ctx context.Context, sessionID string) (*AppState, error)

	// Save stores the state with the given TTL.
	Save(ctx context.Context, state *AppState, ttl time.Duration) error

	// Delete removes the state of a session.
	Delete(ctx context.Context, sessionID string) error
}
