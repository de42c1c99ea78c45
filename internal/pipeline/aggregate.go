package pipeline

import (
	"fmt"
	"time"
)

// Policy constants for the trend computation. The window width and sample
// threshold are deliberate heuristics, exported so callers can surface them.
const (
	// MinTrendSampleSize is the minimum review count each comparison
	// window needs before a trend direction is reported.
	MinTrendSampleSize = 5

	// TrendEpsilon is the rating-point delta below which two windows are
	// considered stable rather than up or down.
	TrendEpsilon = 0.05

	// trendWindowMonths is the calendar width of each comparison window.
	trendWindowMonths = 3
)

// Aggregate computes the overview metrics and the gap-free time series for
// a review list. The caller supplies now so that a single aggregation call
// sees a single instant; for the same inputs the output is identical.
//
// Reviews with out-of-range ratings are excluded entirely. Reviews without
// a resolvable date count toward totals and percentages but cannot be
// placed in trend windows or time-series buckets.
func Aggregate(reviews []Review, gran Granularity, now time.Time) AggregateMetrics {
	var (
		total    int
		sum      int
		positive int
		neutral  int
		negative int
	)

	for _, r := range reviews {
		if !r.hasValidRating() {
			continue
		}
		total++
		sum += r.Rating
		switch r.SentimentBucket() {
		case SentimentPositive:
			positive++
		case SentimentNeutral:
			neutral++
		default:
			negative++
		}
	}

	m := AggregateMetrics{
		TotalReviews: total,
		Trend:        computeTrend(reviews, now),
		TimeSeries:   buildTimeSeries(reviews, gran, now),
	}
	if total == 0 {
		return m
	}

	m.AverageRating = float64(sum) / float64(total)
	m.PositivePercentage = float64(positive) / float64(total) * 100
	m.NeutralPercentage = float64(neutral) / float64(total) * 100
	m.NegativePercentage = float64(negative) / float64(total) * 100
	return m
}

// computeTrend compares the most recent three-month window against the
// three months before it. Either window falling short of
// MinTrendSampleSize yields TrendInsufficient regardless of the delta.
func computeTrend(reviews []Review, now time.Time) Trend {
	currentStart := now.AddDate(0, -trendWindowMonths, 0)
	priorStart := now.AddDate(0, -2*trendWindowMonths, 0)

	var curSum, curN, priorSum, priorN int
	for _, r := range reviews {
		if !r.hasValidRating() || !r.HasDate() || r.Date.After(now) {
			continue
		}
		switch {
		case r.Date.After(currentStart):
			curSum += r.Rating
			curN++
		case r.Date.After(priorStart):
			priorSum += r.Rating
			priorN++
		}
	}

	if curN < MinTrendSampleSize || priorN < MinTrendSampleSize {
		return TrendInsufficient
	}

	delta := float64(curSum)/float64(curN) - float64(priorSum)/float64(priorN)
	switch {
	case delta > TrendEpsilon:
		return TrendUp
	case delta < -TrendEpsilon:
		return TrendDown
	default:
		return TrendStable
	}
}

type bucketAccum struct {
	sum      int
	count    int
	positive int
	neutral  int
	negative int
}

// buildTimeSeries groups dated reviews into calendar buckets and then
// synthesizes every missing bucket between the earliest review and now, so
// charts always render a continuous axis. Bucket labels are stable
// locale-independent keys, which also makes them sort chronologically.
func buildTimeSeries(reviews []Review, gran Granularity, now time.Time) []TimeBucket {
	if !gran.IsValid() {
		gran = GranularityMonth
	}

	accums := make(map[string]*bucketAccum)
	var earliest time.Time
	for _, r := range reviews {
		if !r.hasValidRating() || !r.HasDate() || r.Date.After(now) {
			continue
		}
		if earliest.IsZero() || r.Date.Before(earliest) {
			earliest = r.Date
		}
		key := BucketKey(r.Date, gran)
		acc := accums[key]
		if acc == nil {
			acc = &bucketAccum{}
			accums[key] = acc
		}
		acc.sum += r.Rating
		acc.count++
		switch r.SentimentBucket() {
		case SentimentPositive:
			acc.positive++
		case SentimentNeutral:
			acc.neutral++
		default:
			acc.negative++
		}
	}

	if earliest.IsZero() {
		return nil
	}

	var series []TimeBucket
	lastKey := BucketKey(now, gran)
	for start := bucketStart(earliest, gran); ; start = nextBucketStart(start, gran) {
		key := BucketKey(start, gran)
		entry := TimeBucket{Period: key}
		if acc := accums[key]; acc != nil {
			entry.AverageRating = float64(acc.sum) / float64(acc.count)
			entry.PositiveCount = acc.positive
			entry.NeutralCount = acc.neutral
			entry.NegativeCount = acc.negative
		}
		series = append(series, entry)
		if key == lastKey {
			break
		}
	}
	return series
}

// BucketKey returns the stable label of the calendar bucket containing t.
func BucketKey(t time.Time, gran Granularity) string {
	t = t.UTC()
	switch gran {
	case GranularityDay:
		return t.Format("2006-01-02")
	case GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GranularityYear:
		return t.Format("2006")
	default:
		return t.Format("2006-01")
	}
}

func bucketStart(t time.Time, gran Granularity) time.Time {
	t = t.UTC()
	switch gran {
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		for day.Weekday() != time.Monday {
			day = day.AddDate(0, 0, -1)
		}
		return day
	case GranularityYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

func nextBucketStart(start time.Time, gran Granularity) time.Time {
	switch gran {
	case GranularityDay:
		return start.AddDate(0, 0, 1)
	case GranularityWeek:
		return start.AddDate(0, 0, 7)
	case GranularityYear:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}
