package pipeline

import (
	"math"
	"strings"
	"time"
)

// AnonymousAuthor is the placeholder used when no author field resolves.
const AnonymousAuthor = "Anonymous"

// defaultRating is the documented best-effort fallback for records whose
// rating cannot be resolved. It is a heuristic, not a true neutral signal.
const defaultRating = 3

// SourceUnknown tags reviews whose import source was not recorded.
const SourceUnknown = "unknown"

var starRatings = map[string]int{
	"ONE":   1,
	"TWO":   2,
	"THREE": 3,
	"FOUR":  4,
	"FIVE":  5,
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// Normalize canonicalizes a raw import record into a Review. It never
// fails: malformed ratings degrade to the neutral default, unparseable
// dates degrade to the unknown-date sentinel, and missing author fields
// fall back to the anonymous placeholder.
func Normalize(raw RawReview) Review {
	return Review{
		Source: resolveSource(raw.Source),
		Rating: resolveRating(raw),
		Text:   strings.TrimSpace(raw.Text),
		Author: resolveAuthor(raw),
		Date:   resolveDate(raw),
		Themes: raw.Themes,
	}
}

func resolveRating(raw RawReview) int {
	if raw.Rating != nil {
		r := int(math.Round(*raw.Rating))
		if r >= 1 && r <= 5 {
			return r
		}
	}
	if v, ok := starRatings[strings.ToUpper(strings.TrimSpace(raw.StarRating))]; ok {
		return v
	}
	return defaultRating
}

func resolveDate(raw RawReview) time.Time {
	if t, ok := parseDate(raw.PublishedAt); ok {
		return t
	}
	if t, ok := parseDate(raw.CreatedAt); ok {
		return t
	}
	return time.Time{}
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func resolveAuthor(raw RawReview) string {
	if name := strings.TrimSpace(raw.AuthorName); name != "" {
		return name
	}
	first := strings.TrimSpace(raw.FirstName)
	last := strings.TrimSpace(raw.LastName)
	if first != "" || last != "" {
		return strings.TrimSpace(first + " " + last)
	}
	if name := strings.TrimSpace(raw.Name); name != "" {
		return name
	}
	return AnonymousAuthor
}

func resolveSource(source string) string {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		return SourceUnknown
	}
	return source
}
