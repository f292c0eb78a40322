package postgres

import (
	"time"

	"github.com/lib/pq"

	"youtube-analytics/internal/domain"
)

// VideoColumns are the record columns shared by the catalog and the history snapshots.
type VideoColumns struct {
	VideoID                string         `gorm:"type:text;not null"`
	Title                  string         `gorm:"type:text;not null"`
	Description            string         `gorm:"type:text;not null"`
	ChannelTitle           string         `gorm:"type:text;not null"`
	ChannelID              string         `gorm:"type:text;not null"`
	PublishedAt            string         `gorm:"type:text;not null"`
	ViewCount              int64          `gorm:"not null"`
	ChannelSubscriberCount *int64         `gorm:"column:channel_subscriber_count"`
	Duration               string         `gorm:"type:text;not null"`
	ThumbnailURL           string         `gorm:"column:thumbnail_url;type:text;not null"`
	VideoURL               string         `gorm:"column:video_url;type:text;not null"`
	Tags                   pq.StringArray `gorm:"type:text[]"`
}

// VideoModel is the GORM model for the videos table.
type VideoModel struct {
	VideoColumns `gorm:"embedded"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for VideoModel.
func (VideoModel) TableName() string {
	return "videos"
}

// SearchHistoryModel is the GORM model for the search_history table.
type SearchHistoryModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	SearchQuery  string    `gorm:"type:text;not null"`
	SearchType   string    `gorm:"type:text;not null"`
	ChannelID    *string   `gorm:"type:text"`
	TotalResults int       `gorm:"not null"`
	SearchDate   time.Time `gorm:"not null"`
}

// TableName returns the table name for SearchHistoryModel.
func (SearchHistoryModel) TableName() string {
	return "search_history"
}

// SearchHistoryVideoModel is one record snapshot owned by a history entry.
type SearchHistoryVideoModel struct {
	ID              int64 `gorm:"primaryKey;autoIncrement"`
	SearchHistoryID int64 `gorm:"not null"`
	Position        int   `gorm:"not null"`
	VideoColumns    `gorm:"embedded"`
}

// TableName returns the table name for SearchHistoryVideoModel.
func (SearchHistoryVideoModel) TableName() string {
	return "search_history_videos"
}

// ToDomain converts the columns to a domain.VideoRecord.
func (c *VideoColumns) ToDomain() domain.VideoRecord {
	record := domain.VideoRecord{
		VideoID:                c.VideoID,
		Title:                  c.Title,
		Description:            c.Description,
		ChannelTitle:           c.ChannelTitle,
		ChannelID:              c.ChannelID,
		PublishedAt:            c.PublishedAt,
		ViewCount:              c.ViewCount,
		ChannelSubscriberCount: c.ChannelSubscriberCount,
		Duration:               c.Duration,
		ThumbnailURL:           c.ThumbnailURL,
		VideoURL:               c.VideoURL,
	}
	if len(c.Tags) > 0 {
		record.Tags = []string(c.Tags)
	}
	return record
}

// columnsFromDomain converts a domain.VideoRecord to its columns.
func columnsFromDomain(v *domain.VideoRecord) VideoColumns {
	videoURL := v.VideoURL
	if videoURL == "" {
		videoURL = domain.WatchURL(v.VideoID)
	}
	return VideoColumns{
		VideoID:                v.VideoID,
		Title:                  v.Title,
		Description:            v.Description,
		ChannelTitle:           v.ChannelTitle,
		ChannelID:              v.ChannelID,
		PublishedAt:            v.PublishedAt,
		ViewCount:              v.ViewCount,
		ChannelSubscriberCount: v.ChannelSubscriberCount,
		Duration:               v.Duration,
		ThumbnailURL:           v.ThumbnailURL,
		VideoURL:               videoURL,
		Tags:                   pq.StringArray(v.Tags),
	}
}

// FromDomainSlice converts records to VideoModels, collapsing repeated video ids
// to their first occurrence.
func FromDomainSlice(records []domain.VideoRecord) []*VideoModel {
	seen := make(map[string]struct{}, len(records))
	models := make([]*VideoModel, 0, len(records))
	for i := range records {
		id := records[i].VideoID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		models = append(models, &VideoModel{VideoColumns: columnsFromDomain(&records[i])})
	}

	return models
}

// snapshotModels converts the records of a history entry, keeping their order.
func snapshotModels(entryID int64, records []domain.VideoRecord) []*SearchHistoryVideoModel {
	models := make([]*SearchHistoryVideoModel, len(records))
	for i := range records {
		models[i] = &SearchHistoryVideoModel{
			SearchHistoryID: entryID,
			Position:        i,
			VideoColumns:    columnsFromDomain(&records[i]),
		}
	}

	return models
}

// ToDomain converts SearchHistoryModel to domain.SearchHistoryEntry.
func (m *SearchHistoryModel) ToDomain() domain.SearchHistoryEntry {
	entry := domain.SearchHistoryEntry{
		ID:           m.ID,
		SearchQuery:  m.SearchQuery,
		SearchType:   domain.SearchType(m.SearchType),
		TotalResults: m.TotalResults,
		SearchDate:   m.SearchDate.UTC(),
	}
	if m.ChannelID != nil {
		entry.ChannelID = *m.ChannelID
	}
	return entry
}

// historyFromDomain creates a SearchHistoryModel from domain.SearchHistoryEntry.
func historyFromDomain(e *domain.SearchHistoryEntry, now time.Time) *SearchHistoryModel {
	m := &SearchHistoryModel{
		SearchQuery:  e.SearchQuery,
		SearchType:   string(e.SearchType),
		TotalResults: e.TotalResults,
		SearchDate:   now,
	}
	if e.ChannelID != "" {
		channelID := e.ChannelID
		m.ChannelID = &channelID
	}
	return m
}
