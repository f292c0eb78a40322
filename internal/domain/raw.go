package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RawItem is one item of a YouTube Data API list response.
// Search results and video/channel resources share this shape except for the id.
type RawItem struct {
	ID             ItemID             `json:"id"`
	Snippet        *RawSnippet        `json:"snippet,omitempty"`
	Statistics     *RawStatistics     `json:"statistics,omitempty"`
	ContentDetails *RawContentDetails `json:"contentDetails,omitempty"`
}

// ItemID is the union of the two identifier shapes returned upstream:
//
//	search.list:  "id": {"kind": "youtube#video", "videoId": "abc"}
//	videos.list:  "id": "abc"
type ItemID struct {
	Value  string
	Kind   string // only set for the nested shape
	Nested bool
}

// FlatID builds the identifier shape used by videos.list and channels.list.
func FlatID(id string) ItemID {
	return ItemID{Value: id}
}

// SearchID builds the identifier shape used by search.list.
func SearchID(videoID string) ItemID {
	return ItemID{Value: videoID, Kind: "youtube#video", Nested: true}
}

// VideoID returns the video identifier regardless of the shape it arrived in.
func (id ItemID) VideoID() string {
	return id.Value
}

// UnmarshalJSON accepts either a JSON string or an object carrying videoId.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ItemID{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("%w: decoding id: %v", ErrMalformedInput, err)
		}
		*id = ItemID{Value: s}
	case '{':
		var nested struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		}
		if err := json.Unmarshal(trimmed, &nested); err != nil {
			return fmt.Errorf("%w: decoding id: %v", ErrMalformedInput, err)
		}
		*id = ItemID{Value: nested.VideoID, Kind: nested.Kind, Nested: true}
	default:
		return fmt.Errorf("%w: unsupported id shape %s", ErrMalformedInput, trimmed)
	}

	return nil
}

// MarshalJSON writes the id back in the shape it was read in.
func (id ItemID) MarshalJSON() ([]byte, error) {
	if !id.Nested {
		return json.Marshal(id.Value)
	}
	return json.Marshal(struct {
		Kind    string `json:"kind,omitempty"`
		VideoID string `json:"videoId"`
	}{Kind: id.Kind, VideoID: id.Value})
}

// RawSnippet is the snippet part. Title is a pointer so that a missing title
// can be told apart from an empty one.
type RawSnippet struct {
	Title        *string                 `json:"title,omitempty"`
	Description  string                  `json:"description,omitempty"`
	ChannelID    string                  `json:"channelId,omitempty"`
	ChannelTitle string                  `json:"channelTitle,omitempty"`
	PublishedAt  string                  `json:"publishedAt,omitempty"`
	Thumbnails   map[string]RawThumbnail `json:"thumbnails,omitempty"`
	Tags         []string                `json:"tags,omitempty"`
}

// RawThumbnail is one entry of snippet.thumbnails.
type RawThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// RawStatistics is the statistics part of a video or channel resource.
// The API encodes counters as decimal strings.
type RawStatistics struct {
	ViewCount             string `json:"viewCount,omitempty"`
	LikeCount             string `json:"likeCount,omitempty"`
	CommentCount          string `json:"commentCount,omitempty"`
	SubscriberCount       string `json:"subscriberCount,omitempty"`
	HiddenSubscriberCount bool   `json:"hiddenSubscriberCount,omitempty"`
	VideoCount            string `json:"videoCount,omitempty"`
}

// RawContentDetails is the contentDetails part of a video resource.
type RawContentDetails struct {
	Duration string `json:"duration,omitempty"`
}

// ListResponse is the envelope of search.list, videos.list and channels.list.
type ListResponse struct {
	Kind          string    `json:"kind"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
	PageInfo      PageInfo  `json:"pageInfo"`
	Items         []RawItem `json:"items"`
}

// PageInfo is the paging block of a list response.
type PageInfo struct {
	TotalResults   int `json:"totalResults"`
	ResultsPerPage int `json:"resultsPerPage"`
}

// thumbnailPreference is the order in which thumbnail sizes are picked.
var thumbnailPreference = []string{"high", "medium", "default", "standard", "maxres"}

// bestThumbnail picks the first available thumbnail in preference order.
func bestThumbnail(thumbs map[string]RawThumbnail) string {
	for _, size := range thumbnailPreference {
		if t, ok := thumbs[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

// parseCount converts an API counter string. Missing or invalid values count as zero.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
