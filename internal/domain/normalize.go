package domain

// NormalizeResult is the output of Normalize.
// Malformed items are skipped and reported in Skipped; the batch is never aborted.
type NormalizeResult struct {
	Records []VideoRecord
	Skipped []error
}

// Normalize converts raw search or detail items into VideoRecords, in input order.
// It is a pure function.
func Normalize(items []RawItem) NormalizeResult {
	result := NormalizeResult{
		Records: make([]VideoRecord, 0, len(items)),
	}

	for i := range items {
		record, err := NormalizeItem(i, &items[i])
		if err != nil {
			result.Skipped = append(result.Skipped, err)
			continue
		}
		result.Records = append(result.Records, record)
	}

	return result
}

// NormalizeItem converts a single raw item. A missing snippet, snippet.title or
// video id is a *MalformedItemError; every other missing field defaults to empty.
func NormalizeItem(index int, item *RawItem) (VideoRecord, error) {
	id := item.ID.VideoID()

	if item.Snippet == nil {
		return VideoRecord{}, &MalformedItemError{Index: index, ID: id, Reason: "missing snippet"}
	}
	if item.Snippet.Title == nil {
		return VideoRecord{}, &MalformedItemError{Index: index, ID: id, Reason: "missing snippet.title"}
	}
	if id == "" {
		return VideoRecord{}, &MalformedItemError{Index: index, Reason: "missing video id"}
	}

	s := item.Snippet
	record := NewVideoRecord(id, *s.Title)
	record.Description = s.Description
	record.ChannelTitle = s.ChannelTitle
	record.ChannelID = s.ChannelID
	record.PublishedAt = s.PublishedAt
	record.ThumbnailURL = bestThumbnail(s.Thumbnails)
	if len(s.Tags) > 0 {
		record.Tags = append([]string(nil), s.Tags...)
	}

	if item.Statistics != nil {
		record.ViewCount = parseCount(item.Statistics.ViewCount)
	}
	if item.ContentDetails != nil {
		record.Duration = item.ContentDetails.Duration
	}

	return record, nil
}

// Enrich merges detail items (videos.list) into records normalized from search items.
// Order follows records; detail items for unknown ids are ignored.
// Non-empty detail fields win because search snippets carry truncated descriptions.
func Enrich(records []VideoRecord, details []RawItem) []VideoRecord {
	byID := make(map[string]*RawItem, len(details))
	for i := range details {
		id := details[i].ID.VideoID()
		if id == "" {
			continue
		}
		if _, seen := byID[id]; !seen {
			byID[id] = &details[i]
		}
	}

	out := make([]VideoRecord, len(records))
	for i, record := range records {
		out[i] = record
		if detail, ok := byID[record.VideoID]; ok {
			mergeDetail(&out[i], detail)
		}
	}

	return out
}

func mergeDetail(record *VideoRecord, detail *RawItem) {
	if s := detail.Snippet; s != nil {
		if s.Title != nil && *s.Title != "" {
			record.Title = *s.Title
		}
		if s.Description != "" {
			record.Description = s.Description
		}
		if s.ChannelTitle != "" {
			record.ChannelTitle = s.ChannelTitle
		}
		if s.ChannelID != "" {
			record.ChannelID = s.ChannelID
		}
		if s.PublishedAt != "" {
			record.PublishedAt = s.PublishedAt
		}
		if thumb := bestThumbnail(s.Thumbnails); thumb != "" {
			record.ThumbnailURL = thumb
		}
		if len(s.Tags) > 0 {
			record.Tags = append([]string(nil), s.Tags...)
		}
	}

	if detail.Statistics != nil {
		record.ViewCount = parseCount(detail.Statistics.ViewCount)
	}
	if detail.ContentDetails != nil && detail.ContentDetails.Duration != "" {
		record.Duration = detail.ContentDetails.Duration
	}
}

// ChannelInfoFromRaw converts a channels.list item.
func ChannelInfoFromRaw(item *RawItem) ChannelInfo {
	info := ChannelInfo{ID: item.ID.VideoID()}
	if item.Snippet != nil && item.Snippet.Title != nil {
		info.Title = *item.Snippet.Title
	}

	if st := item.Statistics; st != nil {
		info.ViewCount = parseCount(st.ViewCount)
		info.VideoCount = parseCount(st.VideoCount)
		if !st.HiddenSubscriberCount && st.SubscriberCount != "" {
			count := parseCount(st.SubscriberCount)
			info.SubscriberCount = &count
		}
	}

	return info
}

// UniqueVideoIDs returns the distinct non-empty video ids of records, in first-seen order.
func UniqueVideoIDs(records []VideoRecord) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.VideoID == "" {
			continue
		}
		if _, ok := seen[r.VideoID]; ok {
			continue
		}
		seen[r.VideoID] = struct{}{}
		ids = append(ids, r.VideoID)
	}
	return ids
}

// UniqueChannelIDs returns the distinct non-empty channel ids of records, in first-seen order.
func UniqueChannelIDs(records []VideoRecord) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0)
	for _, r := range records {
		if r.ChannelID == "" {
			continue
		}
		if _, ok := seen[r.ChannelID]; ok {
			continue
		}
		seen[r.ChannelID] = struct{}{}
		ids = append(ids, r.ChannelID)
	}
	return ids
}
