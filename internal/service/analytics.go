package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/restopulse/review-server/internal/pipeline"
	"github.com/restopulse/review-server/internal/repository/models"
)

const (
	dbTimeout = 1 * time.Second

	// defaultGranularity is used when the caller does not pick one;
	// month-wide buckets suit dashboard-scale ranges.
	defaultGranularity = pipeline.GranularityMonth
)

var (
	ErrNoReviews      = errors.New("no reviews found")
	ErrStorageFailure = errors.New("storage failure")
)

// AnalyticsService recomputes derived metrics over the stored reviews for
// a given filter state. An empty result set is a valid state, not an
// error: every operation degrades to zero-valued metrics so the dashboard
// always has something to render.
type AnalyticsService struct {
	storage ReviewRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService instance.
func NewAnalyticsService(storage ReviewRepository, logger *zap.Logger) *AnalyticsService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &AnalyticsService{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// GetOverview returns the headline metrics for the filtered review set.
func (s *AnalyticsService) GetOverview(ctx context.Context, state pipeline.FilterState) (Overview, error) {
	reviews, now, err := s.loadFiltered(ctx, state)
	if err != nil {
		return Overview{}, err
	}

	m := pipeline.Aggregate(reviews, defaultGranularity, now)

	s.logger.Info("computed overview",
		zap.Int("total", m.TotalReviews),
		zap.Float64("average_rating", m.AverageRating),
		zap.String("trend", string(m.Trend)))

	return Overview{
		TotalReviews:       m.TotalReviews,
		AverageRating:      m.AverageRating,
		PositivePercentage: m.PositivePercentage,
		NeutralPercentage:  m.NeutralPercentage,
		NegativePercentage: m.NegativePercentage,
		Trend:              string(m.Trend),
	}, nil
}

// GetTimeSeries returns the gap-free bucketed series at the requested
// granularity for the filtered review set.
func (s *AnalyticsService) GetTimeSeries(ctx context.Context, state pipeline.FilterState, gran pipeline.Granularity) (TimeSeries, error) {
	if !gran.IsValid() {
		gran = defaultGranularity
	}

	reviews, now, err := s.loadFiltered(ctx, state)
	if err != nil {
		return TimeSeries{}, err
	}

	m := pipeline.Aggregate(reviews, gran, now)

	return TimeSeries{
		Granularity: string(gran),
		Points:      m.TimeSeries,
	}, nil
}

// GetThemeBreakdown returns the Pareto-ordered theme statistics for the
// filtered review set.
func (s *AnalyticsService) GetThemeBreakdown(ctx context.Context, state pipeline.FilterState) ([]pipeline.ThemeStat, error) {
	reviews, _, err := s.loadFiltered(ctx, state)
	if err != nil {
		return nil, err
	}
	return pipeline.ThemeBreakdown(reviews), nil
}

// GetRootCauses returns heuristic root-cause suggestions derived from the
// filtered review set's theme breakdown.
func (s *AnalyticsService) GetRootCauses(ctx context.Context, state pipeline.FilterState) ([]pipeline.RootCause, error) {
	stats, err := s.GetThemeBreakdown(ctx, state)
	if err != nil {
		return nil, err
	}
	return pipeline.RootCauses(stats), nil
}

// loadFiltered fetches the stored reviews and runs the filter pipeline.
// Bounded periods are pushed into SQL; the open-ended all-time range has
// to scan everything anyway, undated rows included. The instant used for
// period resolution is returned so that callers pass the same now into
// subsequent aggregation.
func (s *AnalyticsService) loadFiltered(ctx context.Context, state pipeline.FilterState) ([]pipeline.Review, time.Time, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	now := s.now()
	period := pipeline.ResolvePeriod(state.Period, now)

	var (
		rows []models.Review
		err  error
	)
	if period.AllTime {
		rows, err = s.storage.ListReviews(dbCtx)
	} else {
		rows, err = s.storage.ListReviewsInPeriod(dbCtx, period.Start, period.End)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	return pipeline.FilterReviews(toPipelineReviews(rows), state, now), now, nil
}

// toPipelineReviews converts stored rows into the pipeline's canonical
// shape. The persisted theme/sentiment classification is carried over as
// an enrichment pair so the classifier does not re-derive it from text.
func toPipelineReviews(rows []models.Review) []pipeline.Review {
	out := make([]pipeline.Review, len(rows))
	for i, row := range rows {
		r := pipeline.Review{
			ID:     row.ID,
			Source: row.Source,
			Rating: row.Rating,
			Text:   row.Text,
			Author: row.Author,
		}
		if row.PublishedAt != nil {
			r.Date = *row.PublishedAt
		}
		if row.Theme != "" {
			r.Themes = []pipeline.ThemeScore{{
				Name:           row.Theme,
				SentimentScore: sentimentScore(row.Sentiment),
			}}
		}
		out[i] = r
	}
	return out
}

func sentimentScore(sentiment string) float64 {
	switch pipeline.Sentiment(sentiment) {
	case pipeline.SentimentPositive:
		return 0.9
	case pipeline.SentimentNegative:
		return 0.1
	default:
		return 0.5
	}
}
