package pipeline

import "time"

// Sentiment is the coarse sentiment bucket of a review, derived from its
// numeric rating (>=4 positive, ==3 neutral, <=2 negative).
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Theme is one of the fixed taxonomy of topics a review can be mapped to.
type Theme string

const (
	ThemeService  Theme = "service"
	ThemeCuisine  Theme = "cuisine"
	ThemeAmbiance Theme = "ambiance"
	ThemePrice    Theme = "price"
	ThemeOther    Theme = "other"
)

// RatingFilter selects reviews by sentiment bucket.
type RatingFilter string

const (
	RatingAll      RatingFilter = "all"
	RatingPositive RatingFilter = "positive"
	RatingNeutral  RatingFilter = "neutral"
	RatingNegative RatingFilter = "negative"
)

func (f RatingFilter) IsValid() bool {
	switch f {
	case RatingAll, RatingPositive, RatingNeutral, RatingNegative:
		return true
	}
	return false
}

// PeriodPreset names a pre-defined date range.
type PeriodPreset string

const (
	PeriodAllTime PeriodPreset = "all_time"
	PeriodLast30D PeriodPreset = "last_30d"
	PeriodLast90D PeriodPreset = "last_90d"
	PeriodLast12M PeriodPreset = "last_12m"
	PeriodCustom  PeriodPreset = "custom"
)

func (p PeriodPreset) IsValid() bool {
	switch p {
	case PeriodAllTime, PeriodLast30D, PeriodLast90D, PeriodLast12M, PeriodCustom:
		return true
	}
	return false
}

// Granularity selects the calendar bucket width of a time series.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		return true
	}
	return false
}

// Trend is the qualitative direction of average-rating change between two
// consecutive three-month windows.
type Trend string

const (
	TrendUp           Trend = "up"
	TrendDown         Trend = "down"
	TrendStable       Trend = "stable"
	TrendInsufficient Trend = "insufficient"
)

// ThemeScore is an enrichment pair attached to a review by an upstream step.
type ThemeScore struct {
	Name           string
	SentimentScore float64
}

// Review is the canonical review shape every import source is normalized to.
// A zero Date means the source carried no usable timestamp.
type Review struct {
	ID     string
	Source string
	Rating int
	Text   string
	Author string
	Date   time.Time
	Themes []ThemeScore
}

// HasDate reports whether the review carries a resolvable timestamp.
func (r Review) HasDate() bool {
	return !r.Date.IsZero()
}

// SentimentBucket maps the numeric rating to its sentiment bucket.
func (r Review) SentimentBucket() Sentiment {
	switch {
	case r.Rating >= 4:
		return SentimentPositive
	case r.Rating == 3:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

// hasValidRating reports whether the rating is inside the 1..5 scale.
// Out-of-range ratings are kept on the record but excluded from aggregation.
func (r Review) hasValidRating() bool {
	return r.Rating >= 1 && r.Rating <= 5
}

// RawReview is an import-source record before normalization. Sources differ
// in which fields they populate; Normalize applies the resolution order.
type RawReview struct {
	Rating      *float64
	StarRating  string
	Text        string
	PublishedAt string
	CreatedAt   string
	AuthorName  string
	FirstName   string
	LastName    string
	Name        string
	Source      string
	Themes      []ThemeScore
}

// PeriodFilter is the period part of a FilterState. StartDate and EndDate
// are only meaningful when Preset is PeriodCustom.
type PeriodFilter struct {
	Preset    PeriodPreset
	StartDate time.Time
	EndDate   time.Time
}

// FilterState holds the user-selected filters for one pipeline invocation.
// An empty Source (or "all") matches every source.
type FilterState struct {
	Rating RatingFilter
	Period PeriodFilter
	Source string
}

// DateRange is a resolved concrete period. AllTime marks the open-ended
// range where reviews without dates are still admitted.
type DateRange struct {
	Start   time.Time
	End     time.Time
	AllTime bool
}

// TimeBucket is one entry of a gap-free time series. Period is a stable
// sortable key such as "2024-03", "2024-W15" or "2024-03-12".
type TimeBucket struct {
	Period        string
	AverageRating float64
	PositiveCount int
	NeutralCount  int
	NegativeCount int
}

// AggregateMetrics is the derived output rendered by analytics widgets.
type AggregateMetrics struct {
	TotalReviews       int
	AverageRating      float64
	PositivePercentage float64
	NeutralPercentage  float64
	NegativePercentage float64
	Trend              Trend
	TimeSeries         []TimeBucket
}

// Classification is the theme/sentiment pair assigned to a single review.
type Classification struct {
	Theme     Theme
	Sentiment Sentiment
}
