package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"youtube-analytics/internal/domain"
)

const (
	testBaseURL  = "https://youtube.example.com/youtube/v3"
	testSearch   = testBaseURL + SearchEndpoint
	testVideos   = testBaseURL + VideosEndpoint
	testChannels = testBaseURL + ChannelsEndpoint
)

func newTestClient() *Client {
	cfg := ClientConfig{
		BaseURL: testBaseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 2,
			WaitTime:    10 * time.Millisecond,
			MaxWaitTime: 50 * time.Millisecond,
		},
		CB: CBConfig{
			MaxRequests:  5,
			Interval:     60 * time.Second,
			Timeout:      15 * time.Second,
			FailureRatio: 0.6,
		},
	}
	client := New(cfg, zap.NewNop())

	// Activate httpmock for this client's HTTP transport
	httpmock.ActivateNonDefault(client.client.GetClient())

	return client
}

func searchBody(ids ...string) map[string]any {
	items := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		items = append(items, map[string]any{
			"kind": "youtube#searchResult",
			"id":   map[string]any{"kind": "youtube#video", "videoId": id},
			"snippet": map[string]any{
				"title":        "Video " + id,
				"channelId":    "UC1",
				"channelTitle": "Chan",
				"publishedAt":  "2024-01-15T10:00:00Z",
			},
		})
	}
	return map[string]any{
		"kind":     "youtube#searchListResponse",
		"pageInfo": map[string]any{"totalResults": 1000, "resultsPerPage": len(ids)},
		"items":    items,
	}
}

// videosResponder echoes one detail item per requested id.
func videosResponder(t *testing.T, batches *[]int) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		ids := strings.Split(req.URL.Query().Get("id"), ",")
		*batches = append(*batches, len(ids))
		assert.Equal(t, "snippet,statistics,contentDetails", req.URL.Query().Get("part"))

		items := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			items = append(items, map[string]any{
				"id":             id,
				"snippet":        map[string]any{"title": "Video " + id},
				"statistics":     map[string]any{"viewCount": "500"},
				"contentDetails": map[string]any{"duration": "PT4M13S"},
			})
		}
		return httpmock.NewJsonResponse(200, map[string]any{"items": items})
	}
}

func quotaBody() map[string]any {
	return map[string]any{
		"error": map[string]any{
			"code":    403,
			"message": "The request cannot be completed because you have exceeded your quota.",
			"errors": []map[string]any{
				{"reason": "quotaExceeded", "domain": "youtube.quota", "message": "quota"},
			},
		},
	}
}

func TestSearchVideos_Success(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()

	var query map[string]string
	httpmock.RegisterResponder("GET", testSearch, func(req *http.Request) (*http.Response, error) {
		query = map[string]string{}
		for k := range req.URL.Query() {
			query[k] = req.URL.Query().Get(k)
		}
		return httpmock.NewJsonResponse(200, searchBody("abc", "def"))
	})

	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items, err := client.SearchVideos(context.Background(), domain.SearchQuery{
		Query:          "golang",
		MaxResults:     2,
		Order:          domain.OrderViewCount,
		PublishedAfter: &after,
		RegionCode:     "US",
	})

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "abc", items[0].ID.VideoID())
	assert.True(t, items[0].ID.Nested)
	assert.Equal(t, "Video abc", *items[0].Snippet.Title)

	assert.Equal(t, "test-key", query["key"])
	assert.Equal(t, "snippet", query["part"])
	assert.Equal(t, "video", query["type"])
	assert.Equal(t, "golang", query["q"])
	assert.Equal(t, "2", query["maxResults"])
	assert.Equal(t, "viewCount", query["order"])
	assert.Equal(t, "any", query["videoDuration"])
	assert.Equal(t, "2024-01-01T00:00:00Z", query["publishedAfter"])
	assert.Equal(t, "US", query["regionCode"])
	assert.NotContains(t, query, "channelId")
}

func TestSearchVideos_ChannelSearch(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()

	var channelID string
	httpmock.RegisterResponder("GET", testSearch, func(req *http.Request) (*http.Response, error) {
		channelID = req.URL.Query().Get("channelId")
		return httpmock.NewJsonResponse(200, searchBody("abc"))
	})

	_, err := client.SearchVideos(context.Background(), domain.SearchQuery{ChannelID: "UC123", MaxResults: 10})

	require.NoError(t, err)
	assert.Equal(t, "UC123", channelID)
}

// TestSearchVideos_InvalidMaxResults verifies no request is sent for out-of-range params.
func TestSearchVideos_InvalidMaxResults(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testSearch, httpmock.NewJsonResponderOrPanic(200, searchBody()))

	for _, n := range []int{0, 51, -1} {
		_, err := client.SearchVideos(context.Background(), domain.SearchQuery{Query: "go", MaxResults: n})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}

	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestSearchVideos_EmptyResponse(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testSearch, httpmock.NewJsonResponderOrPanic(200, searchBody()))

	items, err := client.SearchVideos(context.Background(), domain.SearchQuery{Query: "nothing", MaxResults: 10})

	require.NoError(t, err)
	assert.Empty(t, items)
}

// TestSearchVideos_QuotaExceeded verifies quota errors are classified and not retried.
func TestSearchVideos_QuotaExceeded(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testSearch, httpmock.NewJsonResponderOrPanic(403, quotaBody()))

	_, err := client.SearchVideos(context.Background(), domain.SearchQuery{Query: "go", MaxResults: 10})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.ErrorIs(t, err, domain.ErrUpstream)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.StatusCode)
	assert.Equal(t, "quotaExceeded", apiErr.Reason)

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

// TestSearchVideos_HTTPError_4xx tests client error handling (4xx).
func TestSearchVideos_HTTPError_4xx(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"400 Bad Request", 400},
		{"403 Forbidden", 403},
		{"404 Not Found", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Reset()
			client := newTestClient()
			httpmock.RegisterResponder("GET", testSearch,
				httpmock.NewStringResponder(tt.statusCode, "Error"))

			items, err := client.SearchVideos(context.Background(), domain.SearchQuery{Query: "go", MaxResults: 10})

			require.Error(t, err)
			assert.Nil(t, items)
			assert.ErrorIs(t, err, domain.ErrUpstream)
			assert.NotErrorIs(t, err, domain.ErrQuotaExceeded)
			assert.Contains(t, err.Error(), fmt.Sprintf("status %d", tt.statusCode))
			assert.Equal(t, 1, httpmock.GetTotalCallCount())
		})
	}
}

// TestSearchVideos_HTTPError_5xx verifies server errors are retried then surfaced.
func TestSearchVideos_HTTPError_5xx(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testSearch,
		httpmock.NewStringResponder(503, "Service Unavailable"))

	_, err := client.SearchVideos(context.Background(), domain.SearchQuery{Query: "go", MaxResults: 10})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "status 503")
	// one attempt plus two retries
	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}

func TestSearchVideos_NetworkError(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testSearch,
		httpmock.NewErrorResponder(fmt.Errorf("network error: connection refused")))

	_, err := client.SearchVideos(context.Background(), domain.SearchQuery{Query: "go", MaxResults: 10})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSearchVideos_InvalidJSON(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testSearch,
		httpmock.NewStringResponder(200, `{"items": [`))

	_, err := client.SearchVideos(context.Background(), domain.SearchQuery{Query: "go", MaxResults: 10})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "decoding")
}

// TestFetchVideoDetails_Batching verifies ids are deduplicated and split into batches of 50.
func TestFetchVideoDetails_Batching(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()

	var batches []int
	httpmock.RegisterResponder("GET", testVideos, videosResponder(t, &batches))

	ids := make([]string, 0, 125)
	for i := 0; i < 120; i++ {
		ids = append(ids, fmt.Sprintf("v%03d", i))
	}
	ids = append(ids, "v000", "v001", "", "v002", "v003")

	items, err := client.FetchVideoDetails(context.Background(), ids)

	require.NoError(t, err)
	assert.Len(t, items, 120)
	assert.Equal(t, []int{50, 50, 20}, batches)
	assert.Equal(t, "v000", items[0].ID.VideoID())
	assert.False(t, items[0].ID.Nested)
	assert.Equal(t, "500", items[0].Statistics.ViewCount)
}

func TestFetchVideoDetails_NoIDs(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()

	items, err := client.FetchVideoDetails(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestFetchVideoDetails_ErrorStopsBatches(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testVideos, httpmock.NewJsonResponderOrPanic(403, quotaBody()))

	_, err := client.FetchVideoDetails(context.Background(), []string{"a", "b"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestFetchChannels(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testChannels, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "UC1,UC2", req.URL.Query().Get("id"))
		return httpmock.NewJsonResponse(200, map[string]any{
			"items": []map[string]any{
				{
					"id":         "UC1",
					"snippet":    map[string]any{"title": "Visible"},
					"statistics": map[string]any{"subscriberCount": "1000", "videoCount": "42", "viewCount": "99999"},
				},
				{
					"id":         "UC2",
					"snippet":    map[string]any{"title": "Hidden"},
					"statistics": map[string]any{"subscriberCount": "0", "hiddenSubscriberCount": true},
				},
			},
		})
	})

	channels, err := client.FetchChannels(context.Background(), []string{"UC1", "UC2", "UC1"})

	require.NoError(t, err)
	require.Len(t, channels, 2)

	visible := channels["UC1"]
	require.NotNil(t, visible.SubscriberCount)
	assert.Equal(t, int64(1000), *visible.SubscriberCount)
	assert.Equal(t, int64(42), visible.VideoCount)
	assert.Equal(t, "Visible", visible.Title)

	assert.Nil(t, channels["UC2"].SubscriberCount)
}

func TestDedupeAndChunk(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", " ", "b", "a"}))
	assert.Empty(t, chunk(nil, 50))

	batches := chunk([]string{"a", "b", "c"}, 2)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, batches)
}
