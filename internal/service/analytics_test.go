package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/restopulse/review-server/internal/pipeline"
	"github.com/restopulse/review-server/internal/repository/models"
	"github.com/restopulse/review-server/internal/service/mocks"
)

var testNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func storedReview(id string, rating int, date string, source string) models.Review {
	rev := models.Review{ID: id, Rating: rating, Source: source}
	if date != "" {
		d, _ := time.Parse("2006-01-02", date)
		rev.PublishedAt = &d
	}
	return rev
}

func newAnalyticsForTest(repo ReviewRepository) *AnalyticsService {
	svc := NewAnalyticsService(repo, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

// TestNewAnalyticsService tests the constructor
func TestNewAnalyticsService(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		mockRepo := &mocks.MockReviewRepository{}
		logger := zap.NewNop()

		svc := NewAnalyticsService(mockRepo, logger)

		assert.NotNil(t, svc)
		assert.Equal(t, mockRepo, svc.storage)
		assert.Equal(t, logger, svc.logger)
	})

	t.Run("nil storage panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewAnalyticsService(nil, zap.NewNop())
		})
	})

	t.Run("nil logger gets default", func(t *testing.T) {
		svc := NewAnalyticsService(&mocks.MockReviewRepository{}, nil)
		assert.NotNil(t, svc.logger)
	})
}

func TestGetOverview(t *testing.T) {
	ctx := context.Background()

	t.Run("worked example", func(t *testing.T) {
		mockRepo := &mocks.MockReviewRepository{
			ListReviewsFunc: func(ctx context.Context) ([]models.Review, error) {
				return []models.Review{
					storedReview("r1", 5, "2024-01-10", "google"),
					storedReview("r2", 1, "2024-01-15", "google"),
					storedReview("r3", 3, "2024-02-01", "google"),
				}, nil
			},
		}

		svc := newAnalyticsForTest(mockRepo)
		overview, err := svc.GetOverview(ctx, pipeline.FilterState{})

		assert.NoError(t, err)
		assert.Equal(t, 3, overview.TotalReviews)
		assert.Equal(t, 3.0, overview.AverageRating)
		assert.InDelta(t, 33.3, overview.PositivePercentage, 0.1)
		assert.InDelta(t, 33.3, overview.NegativePercentage, 0.1)
	})

	t.Run("negative filter narrows the set", func(t *testing.T) {
		mockRepo := &mocks.MockReviewRepository{
			ListReviewsFunc: func(ctx context.Context) ([]models.Review, error) {
				return []models.Review{
					storedReview("r1", 5, "2024-01-10", "google"),
					storedReview("r2", 1, "2024-01-15", "google"),
					storedReview("r3", 3, "2024-02-01", "google"),
				}, nil
			},
		}

		svc := newAnalyticsForTest(mockRepo)
		overview, err := svc.GetOverview(ctx, pipeline.FilterState{Rating: pipeline.RatingNegative})

		assert.NoError(t, err)
		assert.Equal(t, 1, overview.TotalReviews)
		assert.Equal(t, 1.0, overview.AverageRating)
	})

	t.Run("empty store yields zero metrics not an error", func(t *testing.T) {
		mockRepo := &mocks.MockReviewRepository{
			ListReviewsFunc: func(ctx context.Context) ([]models.Review, error) {
				return nil, nil
			},
		}

		svc := newAnalyticsForTest(mockRepo)
		overview, err := svc.GetOverview(ctx, pipeline.FilterState{})

		assert.NoError(t, err)
		assert.Equal(t, 0, overview.TotalReviews)
		assert.Equal(t, 0.0, overview.AverageRating)
		assert.Equal(t, string(pipeline.TrendInsufficient), overview.Trend)
	})

	t.Run("bounded period queries the period-pruned listing", func(t *testing.T) {
		var gotStart, gotEnd time.Time
		mockRepo := &mocks.MockReviewRepository{
			ListReviewsInPeriodFunc: func(ctx context.Context, start, end time.Time) ([]models.Review, error) {
				gotStart, gotEnd = start, end
				return []models.Review{
					storedReview("r1", 5, "2024-05-20", "google"),
				}, nil
			},
		}

		svc := newAnalyticsForTest(mockRepo)
		state := pipeline.FilterState{
			Period: pipeline.PeriodFilter{Preset: pipeline.PeriodLast30D},
		}
		overview, err := svc.GetOverview(ctx, state)

		assert.NoError(t, err)
		assert.Equal(t, 1, overview.TotalReviews)
		assert.Equal(t, testNow.AddDate(0, 0, -30), gotStart)
		assert.Equal(t, testNow, gotEnd)
	})

	t.Run("all-time scans the full table", func(t *testing.T) {
		mockRepo := &mocks.MockReviewRepository{
			ListReviewsFunc: func(ctx context.Context) ([]models.Review, error) {
				return []models.Review{
					storedReview("r1", 4, "", "google"),
				}, nil
			},
		}

		svc := newAnalyticsForTest(mockRepo)
		state := pipeline.FilterState{
			Period: pipeline.PeriodFilter{Preset: pipeline.PeriodAllTime},
		}
		overview, err := svc.GetOverview(ctx, state)

		assert.NoError(t, err)
		assert.Equal(t, 1, overview.TotalReviews)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockReviewRepository{
			ListReviewsFunc: func(ctx context.Context) ([]models.Review, error) {
				return nil, errors.New("database connection failed")
			},
		}

		svc := newAnalyticsForTest(mockRepo)
		_, err := svc.GetOverview(ctx, pipeline.FilterState{})

		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Contains(t, err.Error(), "database connection failed")
	})
}

func TestGetTimeSeries(t *testing.T) {
	ctx := context.Background()

	mockRepo := &mocks.MockReviewRepository{
		ListReviewsFunc: func(ctx context.Context) ([]models.Review, error) {
			return []models.Review{
				storedReview("r1", 5, "2024-03-10", "google"),
				storedReview("r2", 2, "2024-05-15", "google"),
			}, nil
		},
	}

	t.Run("gap-free months", func(t *testing.T) {
		svc := newAnalyticsForTest(mockRepo)
		series, err := svc.GetTimeSeries(ctx, pipeline.FilterState{}, pipeline.GranularityMonth)

		assert.NoError(t, err)
		assert.Equal(t, "month", series.Granularity)
		assert.Len(t, series.Points, 4)
		assert.Equal(t, "2024-03", series.Points[0].Period)
		assert.Equal(t, "2024-06", series.Points[3].Period)
	})

	t.Run("invalid granularity falls back to month", func(t *testing.T) {
		svc := newAnalyticsForTest(mockRepo)
		series, err := svc.GetTimeSeries(ctx, pipeline.FilterState{}, pipeline.Granularity("fortnight"))

		assert.NoError(t, err)
		assert.Equal(t, "month", series.Granularity)
	})
}

func TestGetThemeBreakdownAndRootCauses(t *testing.T) {
	ctx := context.Background()

	mockRepo := &mocks.MockReviewRepository{
		ListReviewsFunc: func(ctx context.Context) ([]models.Review, error) {
			var rows []models.Review
			for i := 0; i < 6; i++ {
				rev := storedReview("", 1, "2024-05-01", "google")
				rev.ID = string(rune('a' + i))
				rev.Theme = "service"
				rev.Sentiment = "negative"
				rows = append(rows, rev)
			}
			good := storedReview("z", 5, "2024-05-02", "google")
			good.Theme = "cuisine"
			good.Sentiment = "positive"
			return append(rows, good), nil
		},
	}

	svc := newAnalyticsForTest(mockRepo)

	t.Run("breakdown uses stored classification", func(t *testing.T) {
		stats, err := svc.GetThemeBreakdown(ctx, pipeline.FilterState{})

		assert.NoError(t, err)
		assert.Len(t, stats, 2)
		assert.Equal(t, pipeline.ThemeService, stats[0].Theme)
		assert.Equal(t, 6, stats[0].Count)
		assert.Equal(t, 6, stats[0].NegativeCount)
	})

	t.Run("root causes surface the dominant negative theme", func(t *testing.T) {
		causes, err := svc.GetRootCauses(ctx, pipeline.FilterState{})

		assert.NoError(t, err)
		assert.Len(t, causes, 1)
		assert.Equal(t, pipeline.ThemeService, causes[0].Theme)
	})
}
