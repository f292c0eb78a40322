package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"youtube-analytics/internal/domain"
	"youtube-analytics/internal/metrics"
)

// API paths, relative to the base URL.
const (
	SearchEndpoint   = "/search"
	VideosEndpoint   = "/videos"
	ChannelsEndpoint = "/channels"
)

// MaxIDsPerRequest is the id list limit of videos.list and channels.list.
const MaxIDsPerRequest = 50

// Client implements domain.VideoSource.
type Client struct {
	client   *resty.Client
	cb       *gobreaker.CircuitBreaker[*resty.Response]
	logger   *zap.Logger
	language string
	region   string
}

// New creates a new YouTube Data API client.
func New(cfg ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client:   newRestyClient(cfg),
		cb:       newCircuitBreaker[*resty.Response]("youtube", cfg.CB, logger),
		logger:   logger,
		language: cfg.DefaultLanguage,
		region:   cfg.DefaultRegion,
	}
}

// SearchVideos runs search.list. Parameters are validated before any request is sent.
func (c *Client) SearchVideos(ctx context.Context, q domain.SearchQuery) ([]domain.RawItem, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	params := map[string]string{
		"part":          "snippet",
		"type":          "video",
		"maxResults":    strconv.Itoa(q.MaxResults),
		"order":         string(q.Order),
		"videoDuration": string(q.Duration),
	}
	if s := strings.TrimSpace(q.Query); s != "" {
		params["q"] = s
	}
	if q.ChannelID != "" {
		params["channelId"] = q.ChannelID
	}
	if q.PublishedAfter != nil {
		params["publishedAfter"] = q.PublishedAfter.UTC().Format(time.RFC3339)
	}
	if lang := firstNonEmpty(q.RelevanceLanguage, c.language); lang != "" {
		params["relevanceLanguage"] = lang
	}
	if region := firstNonEmpty(q.RegionCode, c.region); region != "" {
		params["regionCode"] = region
	}

	result, err := c.list(ctx, SearchEndpoint, params)
	if err != nil {
		return nil, err
	}

	c.logger.Info("youtube search completed",
		zap.String("query", q.Label()),
		zap.Int("count", len(result.Items)),
		zap.Int("total_results", result.PageInfo.TotalResults),
	)

	return result.Items, nil
}

// FetchVideoDetails runs videos.list. Ids are deduplicated and requested in
// batches of MaxIDsPerRequest; items come back in batch order.
func (c *Client) FetchVideoDetails(ctx context.Context, videoIDs []string) ([]domain.RawItem, error) {
	ids := dedupe(videoIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	items := make([]domain.RawItem, 0, len(ids))
	for _, batch := range chunk(ids, MaxIDsPerRequest) {
		result, err := c.list(ctx, VideosEndpoint, map[string]string{
			"part":       "snippet,statistics,contentDetails",
			"id":         strings.Join(batch, ","),
			"maxResults": strconv.Itoa(MaxIDsPerRequest),
		})
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
	}

	c.logger.Debug("youtube video details fetched",
		zap.Int("requested", len(ids)),
		zap.Int("count", len(items)),
	)

	return items, nil
}

// FetchChannels runs channels.list and returns the channels keyed by id.
// Channels the API does not return are absent from the map.
func (c *Client) FetchChannels(ctx context.Context, channelIDs []string) (map[string]domain.ChannelInfo, error) {
	ids := dedupe(channelIDs)
	channels := make(map[string]domain.ChannelInfo, len(ids))
	if len(ids) == 0 {
		return channels, nil
	}

	for _, batch := range chunk(ids, MaxIDsPerRequest) {
		result, err := c.list(ctx, ChannelsEndpoint, map[string]string{
			"part":       "snippet,statistics",
			"id":         strings.Join(batch, ","),
			"maxResults": strconv.Itoa(MaxIDsPerRequest),
		})
		if err != nil {
			return nil, err
		}
		for i := range result.Items {
			info := domain.ChannelInfoFromRaw(&result.Items[i])
			if info.ID != "" {
				channels[info.ID] = info
			}
		}
	}

	return channels, nil
}

// list performs one GET through the circuit breaker and decodes the list envelope.
func (c *Client) list(ctx context.Context, endpoint string, params map[string]string) (*domain.ListResponse, error) {
	start := time.Now()
	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		r, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(endpoint)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, newAPIError(endpoint, r.StatusCode(), decodeError(r.Body()))
		}

		return r, nil
	})
	metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, outcome(err)).Inc()
		c.logger.Warn("youtube request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("calling youtube %s: %w", endpoint, err)
		}
		return nil, fmt.Errorf("%w: calling youtube %s: %v", domain.ErrUpstream, endpoint, err)
	}

	var result domain.ListResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("%w: decoding youtube %s response: %v", domain.ErrUpstream, endpoint, err)
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, metrics.OutcomeOK).Inc()

	return &result, nil
}

func decodeError(body []byte) *ErrorResponse {
	var resp ErrorResponse
	if len(body) == 0 || json.Unmarshal(body, &resp) != nil {
		return nil
	}
	return &resp
}

func outcome(err error) string {
	if errors.Is(err, domain.ErrQuotaExceeded) {
		return metrics.OutcomeQuota
	}
	return metrics.OutcomeError
}

// dedupe drops empty and repeated ids, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunk(ids []string, size int) [][]string {
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
