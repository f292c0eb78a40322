package domain

import "sort"

// ApplySubscriberCount sets one channel's subscriber count on every record.
// A nil count marks the subscriber data as unknown.
func ApplySubscriberCount(records []VideoRecord, count *int64) []VideoRecord {
	out := make([]VideoRecord, len(records))
	for i, r := range records {
		out[i] = r
		out[i].ChannelSubscriberCount = copyCount(count)
	}
	return out
}

// ApplyChannelStats sets per-record subscriber counts from channel statistics.
// Records whose channel is missing from channels keep an unknown count.
func ApplyChannelStats(records []VideoRecord, channels map[string]ChannelInfo) []VideoRecord {
	out := make([]VideoRecord, len(records))
	for i, r := range records {
		out[i] = r
		if info, ok := channels[r.ChannelID]; ok {
			out[i].ChannelSubscriberCount = copyCount(info.SubscriberCount)
			if out[i].ChannelTitle == "" {
				out[i].ChannelTitle = info.Title
			}
		}
	}
	return out
}

func copyCount(count *int64) *int64 {
	if count == nil {
		return nil
	}
	c := *count
	return &c
}

// Summary holds the aggregates shown above the results table.
type Summary struct {
	Count          int     `json:"count"`
	TotalViews     int64   `json:"total_views"`
	AverageViews   float64 `json:"average_views"`
	UniqueChannels int     `json:"unique_channels"`

	// AverageViewsPerSubscriber is the mean over records with a defined ratio.
	// Nil means undefined; the dashboard then falls back to AverageViews.
	AverageViewsPerSubscriber *float64 `json:"average_views_per_subscriber"`
}

// Summarize computes the aggregates over records. An empty set yields a zero Summary.
func Summarize(records []VideoRecord) Summary {
	s := Summary{Count: len(records)}
	if len(records) == 0 {
		return s
	}

	channels := make(map[string]struct{})
	var ratioSum float64
	var ratioCount int

	for i := range records {
		r := &records[i]
		s.TotalViews += r.ViewCount
		if r.ChannelTitle != "" {
			channels[r.ChannelTitle] = struct{}{}
		}
		if ratio, ok := r.ViewsPerSubscriber(); ok {
			ratioSum += ratio
			ratioCount++
		}
	}

	s.AverageViews = float64(s.TotalViews) / float64(len(records))
	s.UniqueChannels = len(channels)
	if ratioCount > 0 {
		avg := ratioSum / float64(ratioCount)
		s.AverageViewsPerSubscriber = &avg
	}

	return s
}

// TopByViews returns up to n records with the most views, ties kept in input order.
func TopByViews(records []VideoRecord, n int) []VideoRecord {
	sorted := make([]VideoRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ViewCount > sorted[j].ViewCount
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
