package importer

import (
	"strconv"
	"strings"

	"github.com/restopulse/review-server/internal/pipeline"
)

// column identifies a canonical review field a tabular import column can
// map to. Import files come from several exporters, so each field accepts
// a list of header aliases.
type column int

const (
	colRating column = iota
	colText
	colDate
	colAuthor
	colSource
)

var headerAliases = map[string]column{
	"rating":       colRating,
	"stars":        colRating,
	"star_rating":  colRating,
	"score":        colRating,
	"note":         colRating,
	"text":         colText,
	"review":       colText,
	"review_text":  colText,
	"comment":      colText,
	"content":      colText,
	"date":         colDate,
	"published":    colDate,
	"published_at": colDate,
	"created":      colDate,
	"created_at":   colDate,
	"author":       colAuthor,
	"author_name":  colAuthor,
	"name":         colAuthor,
	"reviewer":     colAuthor,
	"source":       colSource,
}

// mapHeader resolves a header row into column positions. The first alias
// wins per field; unknown headers are ignored.
func mapHeader(header []string) map[column]int {
	positions := make(map[column]int)
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		key = strings.ReplaceAll(key, " ", "_")
		col, ok := headerAliases[key]
		if !ok {
			continue
		}
		if _, taken := positions[col]; taken {
			continue
		}
		positions[col] = i
	}
	return positions
}

// rowToRaw converts one data row into a raw review record. It returns
// false for rows that carry neither text nor a rating, which the caller
// counts as skipped.
func rowToRaw(positions map[column]int, row []string) (pipeline.RawReview, bool) {
	cell := func(col column) string {
		idx, ok := positions[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	raw := pipeline.RawReview{
		Text:        cell(colText),
		PublishedAt: cell(colDate),
		AuthorName:  cell(colAuthor),
		Source:      cell(colSource),
	}

	ratingCell := cell(colRating)
	if ratingCell != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(ratingCell, ",", "."), 64); err == nil {
			raw.Rating = &v
		} else {
			// Leave textual values ("FIVE", "four") to the normalizer.
			raw.StarRating = ratingCell
		}
	}

	if raw.Text == "" && raw.Rating == nil && raw.StarRating == "" {
		return pipeline.RawReview{}, false
	}
	return raw, true
}
