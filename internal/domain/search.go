package domain

import (
	"strings"
	"time"
)

// SearchOrder is the upstream result ordering.
type SearchOrder string

const (
	OrderRelevance SearchOrder = "relevance"
	OrderDate      SearchOrder = "date"
	OrderViewCount SearchOrder = "viewCount"
	OrderRating    SearchOrder = "rating"
)

// VideoDuration is the upstream duration bucket.
type VideoDuration string

const (
	DurationAny    VideoDuration = "any"
	DurationShort  VideoDuration = "short"  // under 4 minutes
	DurationMedium VideoDuration = "medium" // 4 to 20 minutes
	DurationLong   VideoDuration = "long"   // over 20 minutes
)

// Bounds of search.list maxResults.
const (
	MinMaxResults     = 1
	MaxMaxResults     = 50
	DefaultMaxResults = 10
)

// SearchQuery holds the parameters of one search action.
type SearchQuery struct {
	Query             string        `json:"query"`
	ChannelID         string        `json:"channel_id,omitempty"` // set for channel searches
	MaxResults        int           `json:"max_results"`
	Order             SearchOrder   `json:"order"`
	Duration          VideoDuration `json:"duration"`
	PublishedAfter    *time.Time    `json:"published_after,omitempty"`
	RelevanceLanguage string        `json:"relevance_language,omitempty"`
	RegionCode        string        `json:"region_code,omitempty"`
}

// DefaultSearchQuery returns a query with the dashboard defaults.
func DefaultSearchQuery() SearchQuery {
	return SearchQuery{
		MaxResults: DefaultMaxResults,
		Order:      OrderRelevance,
		Duration:   DurationAny,
	}
}

// Type reports whether this is a channel search or a keyword video search.
func (q *SearchQuery) Type() SearchType {
	if q.ChannelID != "" {
		return SearchTypeChannel
	}
	return SearchTypeVideo
}

// Label is the text recorded in the history ledger and used in export filenames.
func (q *SearchQuery) Label() string {
	if s := strings.TrimSpace(q.Query); s != "" {
		return s
	}
	return q.ChannelID
}

// Validate fails with ErrInvalidArgument when a parameter is out of range.
// Empty order and duration fall back to their defaults.
func (q *SearchQuery) Validate() error {
	if q.MaxResults < MinMaxResults || q.MaxResults > MaxMaxResults {
		return InvalidArgumentf("max_results must be within [%d,%d], got %d",
			MinMaxResults, MaxMaxResults, q.MaxResults)
	}
	if strings.TrimSpace(q.Query) == "" && q.ChannelID == "" {
		return InvalidArgumentf("query or channel_id is required")
	}

	switch q.Order {
	case "":
		q.Order = OrderRelevance
	case OrderRelevance, OrderDate, OrderViewCount, OrderRating:
	default:
		return InvalidArgumentf("unsupported order %q", q.Order)
	}

	switch q.Duration {
	case "":
		q.Duration = DurationAny
	case DurationAny, DurationShort, DurationMedium, DurationLong:
	default:
		return InvalidArgumentf("unsupported duration %q", q.Duration)
	}

	return nil
}

// PublishedAfterDaysAgo returns midnight UTC of the day n days before now.
func PublishedAfterDaysAgo(now time.Time, days int) time.Time {
	day := now.UTC().AddDate(0, 0, -days)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// PageParams holds pagination parameters for stored video listings.
type PageParams struct {
	Page     int // 1-indexed
	PageSize int
}

// DefaultPageParams returns page params with sensible defaults.
func DefaultPageParams() PageParams {
	return PageParams{
		Page:     1,
		PageSize: 50,
	}
}

// Normalize clamps the params into acceptable bounds. This is bound correction, not validation.
func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 500 {
		p.PageSize = 500
	}
}

// Offset calculates the database offset for pagination.
func (p *PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the page size (alias for clarity).
func (p *PageParams) Limit() int {
	return p.PageSize
}

// VideoPage holds one page of stored videos.
type VideoPage struct {
	Videos     []VideoRecord `json:"videos"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// NewVideoPage creates a VideoPage with calculated pagination.
func NewVideoPage(videos []VideoRecord, total int64, params PageParams) *VideoPage {
	totalPages := int(total) / params.PageSize
	if int(total)%params.PageSize > 0 {
		totalPages++
	}

	return &VideoPage{
		Videos:     videos,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}
}
