package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/restopulse/review-server/internal/pipeline"
)

// ratingPrefix matches a leading star rating in a pasted block, e.g.
// "5★ Great evening", "4/5 Solid meal" or "3 stars - okay".
var ratingPrefix = regexp.MustCompile(`^\s*([1-5])(?:\s*(?:★|⭐|/\s*5|stars?\b)|\s)\s*[-–:.]?\s*`)

// ParsePasted splits free-form pasted text into review records, one per
// paragraph (blocks separated by blank lines). A recognizable rating
// prefix is stripped from the block and kept as the numeric rating;
// blocks without one fall through to the normalizer's default.
//
// Pasted content copied from a web page often arrives as HTML; markup is
// stripped first so tags never leak into review text.
func ParsePasted(input string) ([]pipeline.RawReview, int) {
	input = stripHTML(input)

	blocks := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n\n")

	var (
		records []pipeline.RawReview
		skipped int
	)
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		raw := pipeline.RawReview{}
		if m := ratingPrefix.FindStringSubmatch(block); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				raw.Rating = &v
				block = strings.TrimSpace(block[len(m[0]):])
			}
		}
		raw.Text = block

		if raw.Text == "" && raw.Rating == nil {
			skipped++
			continue
		}
		records = append(records, raw)
	}
	return records, skipped
}

// stripHTML flattens HTML paste into plain text, turning block elements
// into paragraph breaks so the block splitter still applies. Non-HTML
// input passes through unchanged.
func stripHTML(input string) string {
	if !strings.Contains(input, "<") || !strings.Contains(input, ">") {
		return input
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return input
	}

	var sb strings.Builder
	doc.Find("p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	})
	if sb.Len() == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return sb.String()
}
