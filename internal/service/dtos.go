package service

import (
	"time"

	"github.com/restopulse/review-server/internal/pipeline"
)

// Overview is the headline metrics block of the dashboard.
type Overview struct {
	TotalReviews       int     `json:"total_reviews"`
	AverageRating      float64 `json:"average_rating"`
	PositivePercentage float64 `json:"positive_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
	Trend              string  `json:"trend"`
}

// TimeSeries is a gap-free bucketed series for chart rendering.
type TimeSeries struct {
	Granularity string                `json:"granularity"`
	Points      []pipeline.TimeBucket `json:"points"`
}

// ReviewDTO is a stored review shaped for API consumers.
type ReviewDTO struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Rating    int        `json:"rating"`
	Text      string     `json:"text"`
	Author    string     `json:"author"`
	Theme     string     `json:"theme"`
	Sentiment string     `json:"sentiment"`
	Date      *time.Time `json:"date,omitempty"`
}

// ReviewPage is a paginated review listing.
type ReviewPage struct {
	Reviews    []ReviewDTO `json:"reviews"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// ImportSummary reports the outcome of one import operation.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// SourceCount is a per-source review census entry.
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}
