// Package export renders result sets as downloadable CSV files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"youtube-analytics/internal/domain"
)

// Header is the fixed column order of every export.
var Header = []string{
	"Video ID",
	"Title",
	"Description",
	"Channel Title",
	"Channel ID",
	"Published At",
	"View Count",
	"Subscriber Count",
	"Views per Subscriber",
	"Duration",
	"Thumbnail URL",
	"Video URL",
}

// ContentType is the MIME type of the generated files.
const ContentType = "text/csv; charset=utf-8"

// BOM is the UTF-8 byte order mark written at the start of every file.
const BOM = "\ufeff"

// fallbackSlug names exports of searches without a usable label.
const fallbackSlug = "export"

// maxSlugLength bounds the query part of the filename.
const maxSlugLength = 60

// CSV writes records under Header. Undefined values (unknown subscriber
// count, undefined ratio) are empty cells. maxRows <= 0 means no limit.
func CSV(records []domain.VideoRecord, maxRows int) ([]byte, error) {
	if maxRows > 0 && len(records) > maxRows {
		records = records[:maxRows]
	}

	var buf bytes.Buffer
	// UTF-8 BOM so spreadsheet tools detect the encoding of non-ASCII titles
	buf.WriteString(BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}

	for i := range records {
		if err := w.Write(Row(&records[i])); err != nil {
			return nil, fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}

	return buf.Bytes(), nil
}

// Row renders one record in Header order.
func Row(r *domain.VideoRecord) []string {
	subscribers := ""
	if r.ChannelSubscriberCount != nil {
		subscribers = strconv.FormatInt(*r.ChannelSubscriberCount, 10)
	}

	ratio := ""
	if v, ok := r.ViewsPerSubscriber(); ok {
		ratio = strconv.FormatFloat(v, 'f', 4, 64)
	}

	return []string{
		r.VideoID,
		r.Title,
		r.Description,
		r.ChannelTitle,
		r.ChannelID,
		r.PublishedAt,
		strconv.FormatInt(r.ViewCount, 10),
		subscribers,
		ratio,
		domain.FormatDuration(r.Duration),
		r.ThumbnailURL,
		r.VideoURL,
	}
}

// Filename returns youtube_<slug>_<YYYYMMDD>.csv for a search label.
func Filename(label string, now time.Time) string {
	return fmt.Sprintf("youtube_%s_%s.csv", Slug(label), now.UTC().Format("20060102"))
}

// ContentDisposition builds an attachment header for filename. The plain
// filename parameter carries an ASCII fallback with every other rune replaced
// by '_', and filename* carries the UTF-8 name percent-encoded.
func ContentDisposition(filename string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)

	if fallback == filename {
		return fmt.Sprintf(`attachment; filename="%s"`, filename)
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(filename))
}

// Slug lowercases label and collapses every run of characters other than
// letters and digits into a single dash.
func Slug(label string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}

	slug := b.String()
	if slug == "" {
		return fallbackSlug
	}
	if runes := []rune(slug); len(runes) > maxSlugLength {
		slug = strings.TrimRight(string(runes[:maxSlugLength]), "-")
	}
	return slug
}
