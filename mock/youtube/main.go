// Package main runs a local stand-in for the YouTube Data API v3 list
// endpoints used by the dashboard. Point youtube.base_url at it:
//
//	APP_YOUTUBE_BASE_URL=http://localhost:8081 APP_YOUTUBE_API_KEY=dev ytdash serve
//
// The query "quota" answers with a quotaExceeded error.
package main

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"youtube-analytics/internal/domain"
	"youtube-analytics/internal/infra/youtube"
)

const (
	addr        = ":8081"
	videoCount  = 60
	channelSize = 6
)

type channel struct {
	id          string
	title       string
	subscribers int64
	hidden      bool
}

type catalog struct {
	channels []channel
	videos   []domain.RawItem
	byID     map[string]domain.RawItem
}

func main() {
	data := newCatalog(time.Now().UTC())

	app := fiber.New(fiber.Config{AppName: "youtube-mock"})
	app.Use(latency)
	app.Use(requireKey)

	app.Get("/search", data.search)
	app.Get("/videos", data.videosList)
	app.Get("/channels", data.channelsList)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	log.Printf("[YouTube mock] running on %s", addr)
	log.Fatal(app.Listen(addr))
}

// latency simulates network delay (50-200ms).
func latency(c *fiber.Ctx) error {
	time.Sleep(time.Duration(50+time.Now().UnixNano()%150) * time.Millisecond)
	err := c.Next()
	log.Printf("[YouTube mock] %s %s - %d", c.Method(), c.OriginalURL(), c.Response().StatusCode())
	return err
}

func requireKey(c *fiber.Ctx) error {
	if c.Path() == "/health" || c.Query("key") != "" {
		return c.Next()
	}
	return apiError(c, fiber.StatusBadRequest, "keyInvalid", "API key not valid. Please pass a valid API key.")
}

func apiError(c *fiber.Ctx, status int, reason, message string) error {
	return c.Status(status).JSON(youtube.ErrorResponse{
		Error: youtube.ErrorBody{
			Code:    status,
			Message: message,
			Errors:  []youtube.ErrorDetail{{Reason: reason, Domain: "youtube.quota", Message: message}},
		},
	})
}

func newCatalog(now time.Time) *catalog {
	topics := []string{"golang", "kubernetes", "postgres", "redis", "cooking", "travel"}

	cat := &catalog{byID: make(map[string]domain.RawItem, videoCount)}
	for i := 0; i < channelSize; i++ {
		cat.channels = append(cat.channels, channel{
			id:          fmt.Sprintf("UCmock%02d", i),
			title:       fmt.Sprintf("Mock Channel %d", i),
			subscribers: int64(1000 * (i + 1) * (i + 1)),
			hidden:      i == channelSize-1,
		})
	}

	for i := 0; i < videoCount; i++ {
		ch := cat.channels[i%channelSize]
		topic := topics[i%len(topics)]
		title := fmt.Sprintf("%s tutorial part %d", topic, i+1)
		id := fmt.Sprintf("vid%08d", i)

		item := domain.RawItem{
			ID: domain.FlatID(id),
			Snippet: &domain.RawSnippet{
				Title:        &title,
				Description:  fmt.Sprintf("Episode %d about %s.", i+1, topic),
				ChannelID:    ch.id,
				ChannelTitle: ch.title,
				PublishedAt:  now.Add(-time.Duration(i*7) * time.Hour).Format(time.RFC3339),
				Thumbnails: map[string]domain.RawThumbnail{
					"high": {URL: fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", id), Width: 480, Height: 360},
				},
				Tags: []string{topic, "mock"},
			},
			Statistics: &domain.RawStatistics{
				ViewCount:    strconv.Itoa((i + 1) * 1537),
				LikeCount:    strconv.Itoa((i + 1) * 41),
				CommentCount: strconv.Itoa((i + 1) * 3),
			},
			ContentDetails: &domain.RawContentDetails{
				Duration: fmt.Sprintf("PT%dM%dS", 1+i%25, (i*13)%60),
			},
		}
		cat.videos = append(cat.videos, item)
		cat.byID[id] = item
	}

	return cat
}

func (cat *catalog) search(c *fiber.Ctx) error {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if q == "quota" {
		return apiError(c, fiber.StatusForbidden, "quotaExceeded", "The request cannot be completed because you have exceeded your quota.")
	}

	limit := c.QueryInt("maxResults", 5)
	channelID := c.Query("channelId")

	var after time.Time
	if s := c.Query("publishedAfter"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalidPublishedAfter", "publishedAfter must be RFC 3339")
		}
		after = t
	}

	items := make([]domain.RawItem, 0, limit)
	total := 0
	for _, v := range cat.videos {
		if channelID != "" && v.Snippet.ChannelID != channelID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(*v.Snippet.Title), q) {
			continue
		}
		if published, _ := time.Parse(time.RFC3339, v.Snippet.PublishedAt); published.Before(after) {
			continue
		}
		total++
		if len(items) < limit {
			items = append(items, searchResult(v))
		}
	}

	return c.JSON(domain.ListResponse{
		Kind:     "youtube#searchListResponse",
		PageInfo: domain.PageInfo{TotalResults: total, ResultsPerPage: len(items)},
		Items:    items,
	})
}

// searchResult reduces a video to what search.list returns: a nested id and the snippet.
func searchResult(v domain.RawItem) domain.RawItem {
	snippet := *v.Snippet
	snippet.Tags = nil
	return domain.RawItem{
		ID:      domain.SearchID(v.ID.VideoID()),
		Snippet: &snippet,
	}
}

func (cat *catalog) videosList(c *fiber.Ctx) error {
	var items []domain.RawItem
	for _, id := range splitIDs(c.Query("id")) {
		if v, ok := cat.byID[id]; ok {
			items = append(items, v)
		}
	}

	return c.JSON(domain.ListResponse{
		Kind:     "youtube#videoListResponse",
		PageInfo: domain.PageInfo{TotalResults: len(items), ResultsPerPage: len(items)},
		Items:    items,
	})
}

func (cat *catalog) channelsList(c *fiber.Ctx) error {
	wanted := make(map[string]struct{})
	for _, id := range splitIDs(c.Query("id")) {
		wanted[id] = struct{}{}
	}

	var items []domain.RawItem
	for _, ch := range cat.channels {
		if _, ok := wanted[ch.id]; !ok {
			continue
		}
		stats := &domain.RawStatistics{
			VideoCount:            strconv.Itoa(videoCount / channelSize),
			HiddenSubscriberCount: ch.hidden,
		}
		if !ch.hidden {
			stats.SubscriberCount = strconv.FormatInt(ch.subscribers, 10)
		}
		title := ch.title
		items = append(items, domain.RawItem{
			ID:         domain.FlatID(ch.id),
			Snippet:    &domain.RawSnippet{Title: &title},
			Statistics: stats,
		})
	}

	return c.JSON(domain.ListResponse{
		Kind:     "youtube#channelListResponse",
		PageInfo: domain.PageInfo{TotalResults: len(items), ResultsPerPage: len(items)},
		Items:    items,
	})
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
