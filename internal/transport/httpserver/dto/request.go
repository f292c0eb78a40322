// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"time"

	"youtube-analytics/internal/domain"
)

// DefaultPublishedAfterDays limits keyword searches to recent uploads unless overridden.
const DefaultPublishedAfterDays = 7

// SearchRequest is the body of POST /api/v1/search.
// Either query or channel_id is required; channel_id turns it into a channel search.
type SearchRequest struct {
	Query              string `json:"query" form:"query" validate:"required_without=ChannelID,max=200"`
	ChannelID          string `json:"channel_id" form:"channel_id" validate:"omitempty,max=64"`
	MaxResults         int    `json:"max_results" form:"max_results" validate:"omitempty,min=1,max=50"`
	Order              string `json:"order" form:"order" validate:"omitempty,oneof=relevance date viewCount rating"`
	Duration           string `json:"duration" form:"duration" validate:"omitempty,oneof=any short medium long"`
	PublishedAfterDays *int   `json:"published_after_days" form:"published_after_days" validate:"omitempty,min=0,max=3650"`
	RelevanceLanguage  string `json:"relevance_language" form:"relevance_language" validate:"omitempty,bcp47_language_tag"`
	RegionCode         string `json:"region_code" form:"region_code" validate:"omitempty,iso3166_1_alpha2"`
}

// ToSearchQuery converts SearchRequest to domain.SearchQuery.
// A missing published_after_days falls back to defaultDays; 0 disables the bound.
// Channel searches are not date-bounded unless the caller asks for it.
func (r *SearchRequest) ToSearchQuery(now time.Time, defaultDays int) domain.SearchQuery {
	q := domain.DefaultSearchQuery()

	q.Query = r.Query
	q.ChannelID = r.ChannelID
	q.RelevanceLanguage = r.RelevanceLanguage
	q.RegionCode = r.RegionCode

	if r.MaxResults > 0 {
		q.MaxResults = r.MaxResults
	}
	if r.Order != "" {
		q.Order = domain.SearchOrder(r.Order)
	}
	if r.Duration != "" {
		q.Duration = domain.VideoDuration(r.Duration)
	}

	days := defaultDays
	if r.ChannelID != "" {
		days = 0
	}
	if r.PublishedAfterDays != nil {
		days = *r.PublishedAfterDays
	}
	if days > 0 {
		after := domain.PublishedAfterDaysAgo(now, days)
		q.PublishedAfter = &after
	}

	return q
}

// FilterRequest is the body of POST /api/v1/filter. Empty dates leave the bound open.
type FilterRequest struct {
	StartDate      string `json:"start_date" form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string `json:"end_date" form:"end_date" validate:"omitempty,datetime=2006-01-02"`
	MinViews       int64  `json:"min_views" form:"min_views" validate:"gte=0"`
	MaxSubscribers *int64 `json:"max_subscribers" form:"max_subscribers" validate:"omitempty,gte=0"`
}

// ToFilter converts FilterRequest to domain.Filter.
func (r *FilterRequest) ToFilter() (domain.Filter, error) {
	dates, err := domain.ParseDateRange(r.StartDate, r.EndDate)
	if err != nil {
		return domain.Filter{}, err
	}

	return domain.Filter{
		Dates: dates,
		Threshold: domain.Threshold{
			MinViews:       r.MinViews,
			MaxSubscribers: r.MaxSubscribers,
		},
	}, nil
}

// HistoryRequest represents the query parameters of GET /api/v1/history.
type HistoryRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}

// PopularRequest represents the query parameters of GET /api/v1/history/popular.
type PopularRequest struct {
	Type  string `query:"type" validate:"omitempty,oneof=channel video_search"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// SearchType returns the requested type, keyword searches by default.
func (r *PopularRequest) SearchType() domain.SearchType {
	if r.Type == "" {
		return domain.SearchTypeVideo
	}
	return domain.SearchType(r.Type)
}

// VideosRequest represents the query parameters of GET /api/v1/videos.
type VideosRequest struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ToPageParams converts VideosRequest to domain.PageParams.
func (r *VideosRequest) ToPageParams() domain.PageParams {
	params := domain.DefaultPageParams()
	if r.Page > 0 {
		params.Page = r.Page
	}
	if r.PageSize > 0 {
		params.PageSize = r.PageSize
	}
	return params
}
