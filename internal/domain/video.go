// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// WatchURLPrefix is the public watch page for a video id.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// VideoRecord is one normalized video, the central entity of the dashboard.
type VideoRecord struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channel_title"`
	ChannelID    string `json:"channel_id,omitempty"`
	PublishedAt  string `json:"published_at"` // ISO-8601 as returned by the API

	ViewCount              int64  `json:"view_count"`
	ChannelSubscriberCount *int64 `json:"channel_subscriber_count"` // nil = hidden or unknown

	Duration     string   `json:"duration"` // ISO-8601 duration, e.g. PT4M13S
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	VideoURL     string   `json:"video_url,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// NewVideoRecord creates a record with the watch URL derived from the id.
func NewVideoRecord(videoID, title string) VideoRecord {
	return VideoRecord{
		VideoID:  videoID,
		Title:    title,
		VideoURL: WatchURL(videoID),
	}
}

// WatchURL returns the public watch URL for a video id.
func WatchURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return WatchURLPrefix + videoID
}

// HasSubscriberCount reports whether the channel exposes its subscriber count.
func (v *VideoRecord) HasSubscriberCount() bool {
	return v.ChannelSubscriberCount != nil
}

// ViewsPerSubscriber returns view_count / subscriber_count.
// The second result is false when the ratio is undefined (unknown or zero subscribers).
func (v *VideoRecord) ViewsPerSubscriber() (float64, bool) {
	if v.ChannelSubscriberCount == nil || *v.ChannelSubscriberCount <= 0 {
		return 0, false
	}
	return float64(v.ViewCount) / float64(*v.ChannelSubscriberCount), true
}

// ChannelInfo holds the channel statistics needed for subscriber metrics.
type ChannelInfo struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	SubscriberCount *int64 `json:"subscriber_count"` // nil when hidden
	VideoCount      int64  `json:"video_count"`
	ViewCount       int64  `json:"view_count"`
}

var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// FormatDuration renders an ISO-8601 duration (PT1H2M3S) as 1:02:03, or M:SS below an hour.
// Values that are not ISO-8601 durations are returned unchanged.
func FormatDuration(iso string) string {
	m := isoDurationRE.FindStringSubmatch(iso)
	if m == nil || iso == "P" {
		return iso
	}

	part := func(s string) int {
		if s == "" {
			return 0
		}
		n, _ := strconv.Atoi(s)
		return n
	}

	hours := part(m[1])*24 + part(m[2])
	minutes := part(m[3])
	seconds := part(m[4])

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
