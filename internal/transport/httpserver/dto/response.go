package dto

import (
	"time"

	"youtube-analytics/internal/app/service"
	"youtube-analytics/internal/domain"
)

// VideoResponse represents a single video row.
type VideoResponse struct {
	VideoID                string   `json:"video_id"`
	Title                  string   `json:"title"`
	Description            string   `json:"description"`
	ChannelTitle           string   `json:"channel_title"`
	ChannelID              string   `json:"channel_id,omitempty"`
	PublishedAt            string   `json:"published_at"`
	ViewCount              int64    `json:"view_count"`
	ChannelSubscriberCount *int64   `json:"channel_subscriber_count"`
	ViewsPerSubscriber     *float64 `json:"views_per_subscriber"`
	Duration               string   `json:"duration"`
	DurationDisplay        string   `json:"duration_display"`
	ThumbnailURL           string   `json:"thumbnail_url,omitempty"`
	VideoURL               string   `json:"video_url"`
	Tags                   []string `json:"tags,omitempty"`
}

// FromVideoRecord converts domain.VideoRecord to VideoResponse.
func FromVideoRecord(r *domain.VideoRecord) VideoResponse {
	resp := VideoResponse{
		VideoID:                r.VideoID,
		Title:                  r.Title,
		Description:            r.Description,
		ChannelTitle:           r.ChannelTitle,
		ChannelID:              r.ChannelID,
		PublishedAt:            r.PublishedAt,
		ViewCount:              r.ViewCount,
		ChannelSubscriberCount: r.ChannelSubscriberCount,
		Duration:               r.Duration,
		DurationDisplay:        domain.FormatDuration(r.Duration),
		ThumbnailURL:           r.ThumbnailURL,
		VideoURL:               r.VideoURL,
		Tags:                   r.Tags,
	}
	if resp.VideoURL == "" {
		resp.VideoURL = domain.WatchURL(r.VideoID)
	}
	if ratio, ok := r.ViewsPerSubscriber(); ok {
		resp.ViewsPerSubscriber = &ratio
	}
	return resp
}

// FromVideoRecords converts a slice of records.
func FromVideoRecords(records []domain.VideoRecord) []VideoResponse {
	out := make([]VideoResponse, len(records))
	for i := range records {
		out[i] = FromVideoRecord(&records[i])
	}
	return out
}

// SessionResponse is the dashboard view returned by search, filter and session.
type SessionResponse struct {
	SessionID  string              `json:"session_id"`
	Query      *domain.SearchQuery `json:"query,omitempty"`
	Channel    *domain.ChannelInfo `json:"channel,omitempty"`
	Videos     []VideoResponse     `json:"videos"`
	Top        []VideoResponse     `json:"top"`
	Total      int                 `json:"total"`
	Skipped    int                 `json:"skipped"`
	Summary    domain.Summary      `json:"summary"`
	Filter     domain.Filter       `json:"filter"`
	Saved      bool                `json:"saved"`
	Warnings   []string            `json:"warnings,omitempty"`
	StoreState string              `json:"store_state"`
}

// FromSearchOutcome converts service.SearchOutcome to SessionResponse.
func FromSearchOutcome(out *service.SearchOutcome, state domain.StoreState) SessionResponse {
	return SessionResponse{
		SessionID:  out.SessionID,
		Query:      out.Query,
		Channel:    out.Channel,
		Videos:     FromVideoRecords(out.Records),
		Top:        FromVideoRecords(out.Top),
		Total:      out.Total,
		Skipped:    out.Skipped,
		Summary:    out.Summary,
		Filter:     out.Filter,
		Saved:      out.Saved,
		Warnings:   out.Warnings,
		StoreState: string(state),
	}
}

// HistoryEntryResponse represents one ledger entry.
type HistoryEntryResponse struct {
	ID           int64  `json:"id"`
	SearchQuery  string `json:"search_query"`
	SearchType   string `json:"search_type"`
	ChannelID    string `json:"channel_id,omitempty"`
	TotalResults int    `json:"total_results"`
	SearchDate   string `json:"search_date"`
}

// HistoryResponse represents GET /api/v1/history.
type HistoryResponse struct {
	Entries []HistoryEntryResponse `json:"entries"`
}

// FromHistory converts ledger entries to HistoryResponse.
func FromHistory(entries []domain.SearchHistoryEntry) HistoryResponse {
	resp := HistoryResponse{Entries: make([]HistoryEntryResponse, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = HistoryEntryResponse{
			ID:           e.ID,
			SearchQuery:  e.SearchQuery,
			SearchType:   string(e.SearchType),
			ChannelID:    e.ChannelID,
			TotalResults: e.TotalResults,
			SearchDate:   e.SearchDate.Format(time.RFC3339),
		}
	}
	return resp
}

// PopularResponse represents GET /api/v1/history/popular.
type PopularResponse struct {
	Type     string                 `json:"type"`
	Searches []domain.PopularSearch `json:"searches"`
}

// VideoListResponse represents GET /api/v1/videos and history snapshots.
type VideoListResponse struct {
	Videos     []VideoResponse `json:"videos"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// PaginationMeta holds pagination metadata.
type PaginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// FromVideoPage converts domain.VideoPage to VideoListResponse.
func FromVideoPage(page *domain.VideoPage) VideoListResponse {
	return VideoListResponse{
		Videos: FromVideoRecords(page.Videos),
		Pagination: &PaginationMeta{
			Total:      page.Total,
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages,
		},
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
