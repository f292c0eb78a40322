package domain

import (
	"fmt"
	"strings"
	"time"
)

// publishedLayouts are tried in order by ParsePublishedAt.
var publishedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// DateLayout is the date-only layout used by filters and export filenames.
const DateLayout = "2006-01-02"

// ParsePublishedAt parses a timestamp with or without a time-of-day component.
// Timestamps without a zone are read as UTC. The result is always UTC.
func ParsePublishedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", ErrInvalidArgument, s)
}

// isDateOnly reports whether s carries no time-of-day component.
func isDateOnly(s string) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(s))
	return err == nil
}

// DateRange is an inclusive [Start, End] window. Either bound may be nil.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// ParseDateRange builds a DateRange from user input. Empty strings leave a bound open.
// A date-only end bound is extended to the last instant of that day.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange

	if strings.TrimSpace(start) != "" {
		t, err := ParsePublishedAt(start)
		if err != nil {
			return DateRange{}, fmt.Errorf("parsing start date: %w", err)
		}
		r.Start = &t
	}

	if strings.TrimSpace(end) != "" {
		t, err := ParsePublishedAt(end)
		if err != nil {
			return DateRange{}, fmt.Errorf("parsing end date: %w", err)
		}
		if isDateOnly(end) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		r.End = &t
	}

	if r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		return DateRange{}, InvalidArgumentf("end date %s is before start date %s",
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}

	return r, nil
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// Contains reports whether t lies within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// Threshold keeps records with enough views and, when known, few enough subscribers.
type Threshold struct {
	MinViews       int64  `json:"min_views"`
	MaxSubscribers *int64 `json:"max_subscribers,omitempty"`
}

// Keep reports whether the record passes the threshold. A record without
// subscriber data skips the subscriber test instead of failing it.
func (t Threshold) Keep(v *VideoRecord) bool {
	if v.ViewCount < t.MinViews {
		return false
	}
	if t.MaxSubscribers != nil && v.ChannelSubscriberCount != nil &&
		*v.ChannelSubscriberCount > *t.MaxSubscribers {
		return false
	}
	return true
}

// Filter is the active dashboard filter.
type Filter struct {
	Dates     DateRange `json:"dates"`
	Threshold Threshold `json:"threshold"`
}

// Apply returns the records that pass the filter, preserving order.
func (f Filter) Apply(records []VideoRecord) []VideoRecord {
	return FilterByThreshold(FilterByDate(records, f.Dates), f.Threshold)
}

// FilterByDate keeps records published within the range. An empty range keeps everything.
// Records whose timestamp cannot be parsed are dropped when any bound is set.
func FilterByDate(records []VideoRecord, r DateRange) []VideoRecord {
	if r.IsZero() {
		return records
	}

	out := make([]VideoRecord, 0, len(records))
	for _, rec := range records {
		t, err := ParsePublishedAt(rec.PublishedAt)
		if err != nil {
			continue
		}
		if r.Contains(t) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterByThreshold keeps records that pass t.
func FilterByThreshold(records []VideoRecord, t Threshold) []VideoRecord {
	out := make([]VideoRecord, 0, len(records))
	for i := range records {
		if t.Keep(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}
