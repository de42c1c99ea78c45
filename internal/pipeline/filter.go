package pipeline

import (
	"strings"
	"time"
)

// FilterReviews applies the rating, period and source predicates to the
// review list and returns the matching subset. The predicates compose with
// logical AND; the input slice is never mutated.
//
// Reviews without a resolvable date cannot be proven inside a bounded
// period and are excluded whenever one is active, but are included under
// the all-time range.
func FilterReviews(reviews []Review, state FilterState, now time.Time) []Review {
	period := ResolvePeriod(state.Period, now)

	out := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		if MatchesFilters(r, state, period) {
			out = append(out, r)
		}
	}
	return out
}

// MatchesFilters reports whether one review passes the rating, period and
// source predicates. The period must already be resolved so repeated
// calls within one invocation share the same bounds.
func MatchesFilters(r Review, state FilterState, period DateRange) bool {
	return matchesRating(r, state.Rating) &&
		matchesPeriod(r, period) &&
		matchesSource(r, state.Source)
}

func matchesRating(r Review, f RatingFilter) bool {
	if f == "" || f == RatingAll {
		return true
	}
	return Sentiment(f) == r.SentimentBucket()
}

func matchesPeriod(r Review, period DateRange) bool {
	if period.AllTime {
		return true
	}
	if !r.HasDate() {
		return false
	}
	return !r.Date.Before(period.Start) && !r.Date.After(period.End)
}

func matchesSource(r Review, source string) bool {
	if source == "" || strings.EqualFold(source, "all") {
		return true
	}
	return strings.EqualFold(r.Source, source)
}
