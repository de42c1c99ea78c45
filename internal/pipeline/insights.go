package pipeline

import "sort"

// Root-cause policy constants. A theme qualifies when at least half of its
// reviews are negative and the negative count is large enough to matter.
const (
	rootCauseNegativeShare = 0.5
	rootCauseMinNegative   = 5
)

// ThemeStat is one row of a Pareto breakdown over a review set.
type ThemeStat struct {
	Theme                Theme
	Count                int
	NegativeCount        int
	Percentage           float64
	CumulativePercentage float64
	NegativeShare        float64
}

// RootCause is a heuristic suggestion derived from a dominant negative theme.
type RootCause struct {
	Theme         Theme
	NegativeCount int
	Suggestion    string
}

var rootCauseSuggestions = map[Theme]string{
	ThemeService:  "Negative feedback concentrates on service: review staffing levels, wait times and front-of-house training.",
	ThemeCuisine:  "Negative feedback concentrates on the food itself: audit kitchen consistency, ingredient freshness and menu weak spots.",
	ThemeAmbiance: "Negative feedback concentrates on the setting: check noise levels, cleanliness and the dining room layout.",
	ThemePrice:    "Negative feedback concentrates on pricing: reassess portion-to-price ratio and how prices are communicated.",
	ThemeOther:    "Negative feedback does not map to a single theme: read the flagged reviews individually for recurring complaints.",
}

// ThemeBreakdown classifies every review and returns per-theme counts in
// Pareto order (largest first, ties broken by theme name) with cumulative
// percentages, ready for chart rendering.
func ThemeBreakdown(reviews []Review) []ThemeStat {
	counts := make(map[Theme]*ThemeStat)
	total := 0
	for _, r := range reviews {
		if !r.hasValidRating() {
			continue
		}
		c := Classify(r)
		stat := counts[c.Theme]
		if stat == nil {
			stat = &ThemeStat{Theme: c.Theme}
			counts[c.Theme] = stat
		}
		stat.Count++
		if c.Sentiment == SentimentNegative {
			stat.NegativeCount++
		}
		total++
	}
	if total == 0 {
		return nil
	}

	stats := make([]ThemeStat, 0, len(counts))
	for _, stat := range counts {
		stat.Percentage = float64(stat.Count) / float64(total) * 100
		stat.NegativeShare = float64(stat.NegativeCount) / float64(stat.Count)
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Theme < stats[j].Theme
	})

	cumulative := 0.0
	for i := range stats {
		cumulative += stats[i].Percentage
		stats[i].CumulativePercentage = cumulative
	}
	return stats
}

// RootCauses scans a Pareto breakdown for themes whose negative share
// crosses the policy thresholds and returns one suggestion per offending
// theme, preserving breakdown order. An empty result is a valid state.
func RootCauses(stats []ThemeStat) []RootCause {
	var causes []RootCause
	for _, stat := range stats {
		if stat.NegativeCount < rootCauseMinNegative {
			continue
		}
		if stat.NegativeShare < rootCauseNegativeShare {
			continue
		}
		causes = append(causes, RootCause{
			Theme:         stat.Theme,
			NegativeCount: stat.NegativeCount,
			Suggestion:    rootCauseSuggestions[stat.Theme],
		})
	}
	return causes
}
