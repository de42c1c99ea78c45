package pipeline

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// themeKeywords is the fixed taxonomy, in precedence order: when a text
// matches several themes the first entry wins.
var themeKeywords = []struct {
	theme    Theme
	keywords []string
}{
	{ThemeService, []string{
		"service", "waiter", "waitress", "staff", "server", "host",
		"manager", "friendly", "rude", "slow", "wait", "attentive",
		"helpful", "ignored",
	}},
	{ThemeCuisine, []string{
		"food", "dish", "meal", "taste", "flavor", "delicious", "menu",
		"cooked", "undercooked", "burnt", "fresh", "stale", "portion",
		"dessert", "appetizer", "bland",
	}},
	{ThemeAmbiance, []string{
		"ambiance", "ambience", "atmosphere", "music", "decor", "noise",
		"noisy", "loud", "cozy", "romantic", "lighting", "clean", "dirty",
		"crowded", "terrace", "view",
	}},
	{ThemePrice, []string{
		"price", "expensive", "cheap", "value", "overpriced", "cost",
		"bill", "worth", "affordable", "pricey",
	}},
}

// stemmedKeywords holds each theme's keyword list reduced with the
// snowball English stemmer, so inflected forms in review text still match
// ("waiting" and "waited" both reduce to the "wait" entry).
var stemmedKeywords = buildStemmedKeywords()

func buildStemmedKeywords() []map[string]struct{} {
	out := make([]map[string]struct{}, len(themeKeywords))
	for i, entry := range themeKeywords {
		set := make(map[string]struct{}, len(entry.keywords))
		for _, kw := range entry.keywords {
			set[stem(kw)] = struct{}{}
		}
		out[i] = set
	}
	return out
}

func stem(word string) string {
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil {
		return strings.ToLower(word)
	}
	return stemmed
}

// Classify assigns a theme and a sentiment to a single review.
//
// Sentiment trusts the numeric rating as ground truth; review text is used
// only for theme assignment. When the review carries upstream theme
// enrichment, the first enriched theme wins over keyword derivation, and
// its sentiment score stands in only when the rating is out of range.
// Unmatchable text resolves to ThemeOther; Classify never fails.
func Classify(r Review) Classification {
	return Classification{
		Theme:     classifyTheme(r),
		Sentiment: classifySentiment(r),
	}
}

func classifySentiment(r Review) Sentiment {
	if r.hasValidRating() {
		return r.SentimentBucket()
	}
	if len(r.Themes) > 0 {
		return sentimentFromScore(r.Themes[0].SentimentScore)
	}
	return SentimentNeutral
}

func sentimentFromScore(score float64) Sentiment {
	switch {
	case score >= 0.6:
		return SentimentPositive
	case score <= 0.4:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func classifyTheme(r Review) Theme {
	if len(r.Themes) > 0 {
		if t, ok := knownTheme(r.Themes[0].Name); ok {
			return t
		}
	}

	tokens := tokenize(r.Text)
	if len(tokens) == 0 {
		return ThemeOther
	}
	for i, entry := range themeKeywords {
		for token := range tokens {
			if _, ok := stemmedKeywords[i][token]; ok {
				return entry.theme
			}
		}
	}
	return ThemeOther
}

func knownTheme(name string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(name))) {
	case ThemeService:
		return ThemeService, true
	case ThemeCuisine:
		return ThemeCuisine, true
	case ThemeAmbiance:
		return ThemeAmbiance, true
	case ThemePrice:
		return ThemePrice, true
	}
	return ThemeOther, false
}

// tokenize splits review text into a set of stemmed lowercase word tokens.
func tokenize(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[stem(w)] = struct{}{}
	}
	return set
}
