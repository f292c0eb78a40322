package domain

import (
	"fmt"
	"time"
)

// SearchType classifies a history entry.
type SearchType string

const (
	SearchTypeChannel SearchType = "channel"
	SearchTypeVideo   SearchType = "video_search"
)

// ParseSearchType validates a search type coming from user input.
func ParseSearchType(s string) (SearchType, error) {
	switch SearchType(s) {
	case SearchTypeChannel, SearchTypeVideo:
		return SearchType(s), nil
	default:
		return "", InvalidArgumentf("unsupported search type %q", s)
	}
}

// SearchHistoryEntry is one saved search action. Entries are immutable once stored.
type SearchHistoryEntry struct {
	ID           int64      `json:"id"`
	SearchQuery  string     `json:"search_query"`
	SearchType   SearchType `json:"search_type"`
	ChannelID    string     `json:"channel_id,omitempty"` // channel entries only
	TotalResults int        `json:"total_results"`
	SearchDate   time.Time  `json:"search_date"`
}

// NewSearchHistoryEntry builds the ledger entry for a search and its result set.
func NewSearchHistoryEntry(q SearchQuery, totalResults int) SearchHistoryEntry {
	entry := SearchHistoryEntry{
		SearchQuery:  q.Label(),
		SearchType:   q.Type(),
		TotalResults: totalResults,
	}
	if entry.SearchType == SearchTypeChannel {
		entry.ChannelID = q.ChannelID
	}
	return entry
}

// Validate checks the entry invariants before it is stored.
func (e *SearchHistoryEntry) Validate() error {
	if _, err := ParseSearchType(string(e.SearchType)); err != nil {
		return err
	}
	if e.TotalResults < 0 {
		return InvalidArgumentf("total_results must be non-negative, got %d", e.TotalResults)
	}
	if e.SearchType == SearchTypeVideo && e.ChannelID != "" {
		return fmt.Errorf("%w: channel_id is only allowed on channel entries", ErrInvalidArgument)
	}
	return nil
}

// PopularSearch is one row of the popularity aggregation.
type PopularSearch struct {
	Query        string    `json:"query"`
	Count        int64     `json:"count"`
	LastSearched time.Time `json:"last_searched"`
}
