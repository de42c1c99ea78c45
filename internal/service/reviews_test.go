package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/restopulse/review-server/internal/pipeline"
	"github.com/restopulse/review-server/internal/repository/models"
	"github.com/restopulse/review-server/internal/service/mocks"
)

func floatPtr(v float64) *float64 { return &v }

func newReviewsForTest(repo ReviewRepository) *ReviewService {
	svc := NewReviewService(repo, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestListReviews(t *testing.T) {
	ctx := context.Background()

	seed := []models.Review{
		storedReview("r1", 5, "2024-05-20", "google"),
		storedReview("r2", 1, "2024-05-10", "google"),
		storedReview("r3", 4, "2024-04-01", "csv"),
		storedReview("r4", 2, "", "csv"),
	}
	mockRepo := &mocks.MockReviewRepository{
		ListReviewsFunc: func(ctx context.Context) ([]models.Review, error) {
			return seed, nil
		},
	}

	t.Run("unfiltered listing preserves repository order", func(t *testing.T) {
		svc := newReviewsForTest(mockRepo)
		page, err := svc.ListReviews(ctx, pipeline.FilterState{}, 1, 10)

		require.NoError(t, err)
		assert.Equal(t, 4, page.Total)
		assert.Equal(t, 1, page.TotalPages)
		require.Len(t, page.Reviews, 4)
		assert.Equal(t, "r1", page.Reviews[0].ID)
		assert.Nil(t, page.Reviews[3].Date)
	})

	t.Run("pagination clamps and slices", func(t *testing.T) {
		svc := newReviewsForTest(mockRepo)
		page, err := svc.ListReviews(ctx, pipeline.FilterState{}, 2, 3)

		require.NoError(t, err)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Reviews, 1)
		assert.Equal(t, "r4", page.Reviews[0].ID)
	})

	t.Run("page beyond the end is empty not an error", func(t *testing.T) {
		svc := newReviewsForTest(mockRepo)
		page, err := svc.ListReviews(ctx, pipeline.FilterState{}, 99, 10)

		require.NoError(t, err)
		assert.Empty(t, page.Reviews)
		assert.Equal(t, 4, page.Total)
	})

	t.Run("filters apply before pagination", func(t *testing.T) {
		svc := newReviewsForTest(mockRepo)
		state := pipeline.FilterState{Rating: pipeline.RatingNegative, Period: pipeline.PeriodFilter{Preset: pipeline.PeriodLast30D}}
		page, err := svc.ListReviews(ctx, state, 1, 10)

		require.NoError(t, err)
		require.Len(t, page.Reviews, 1)
		assert.Equal(t, "r2", page.Reviews[0].ID)
	})

	t.Run("invalid paging values fall back to defaults", func(t *testing.T) {
		svc := newReviewsForTest(mockRepo)
		page, err := svc.ListReviews(ctx, pipeline.FilterState{}, -1, 1000)

		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, defaultPageSize, page.Limit)
	})

	t.Run("storage failure", func(t *testing.T) {
		failing := &mocks.MockReviewRepository{
			ListReviewsFunc: func(ctx context.Context) ([]models.Review, error) {
				return nil, errors.New("disk on fire")
			},
		}
		svc := newReviewsForTest(failing)
		_, err := svc.ListReviews(ctx, pipeline.FilterState{}, 1, 10)

		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}

func TestImportReviews(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes classifies and stores", func(t *testing.T) {
		var inserted []models.Review
		mockRepo := &mocks.MockReviewRepository{
			InsertReviewsFunc: func(ctx context.Context, reviews []models.Review) (int, error) {
				inserted = reviews
				return len(reviews), nil
			},
		}

		svc := newReviewsForTest(mockRepo)
		raws := []pipeline.RawReview{
			{Rating: floatPtr(5), Text: "Delicious food", PublishedAt: "2024-01-10"},
			{StarRating: "ONE", Text: "Rude staff"},
		}

		summary, err := svc.ImportReviews(ctx, "csv", raws, 2)

		require.NoError(t, err)
		assert.Equal(t, ImportSummary{Imported: 2, Skipped: 2}, summary)
		require.Len(t, inserted, 2)

		first := inserted[0]
		assert.NotEmpty(t, first.ID)
		assert.Equal(t, "csv", first.Source)
		assert.Equal(t, 5, first.Rating)
		assert.Equal(t, string(pipeline.ThemeCuisine), first.Theme)
		assert.Equal(t, string(pipeline.SentimentPositive), first.Sentiment)
		require.NotNil(t, first.PublishedAt)
		assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), *first.PublishedAt)

		second := inserted[1]
		assert.Equal(t, 1, second.Rating)
		assert.Equal(t, string(pipeline.ThemeService), second.Theme)
		assert.Nil(t, second.PublishedAt)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("record-level source wins over batch source", func(t *testing.T) {
		var inserted []models.Review
		mockRepo := &mocks.MockReviewRepository{
			InsertReviewsFunc: func(ctx context.Context, reviews []models.Review) (int, error) {
				inserted = reviews
				return len(reviews), nil
			},
		}

		svc := newReviewsForTest(mockRepo)
		_, err := svc.ImportReviews(ctx, "csv", []pipeline.RawReview{{Text: "ok", Source: "google"}}, 0)

		require.NoError(t, err)
		assert.Equal(t, "google", inserted[0].Source)
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		svc := newReviewsForTest(&mocks.MockReviewRepository{})
		_, err := svc.ImportReviews(ctx, "csv", nil, 0)

		assert.ErrorIs(t, err, ErrNoReviews)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockReviewRepository{
			InsertReviewsFunc: func(ctx context.Context, reviews []models.Review) (int, error) {
				return 0, errors.New("locked")
			},
		}

		svc := newReviewsForTest(mockRepo)
		_, err := svc.ImportReviews(ctx, "csv", []pipeline.RawReview{{Text: "fine"}}, 0)

		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}

func TestListSources(t *testing.T) {
	ctx := context.Background()

	mockRepo := &mocks.MockReviewRepository{
		CountBySourceFunc: func(ctx context.Context) ([]models.SourceCount, error) {
			return []models.SourceCount{
				{Source: "google", Count: 10},
				{Source: "csv", Count: 3},
			}, nil
		},
	}

	svc := newReviewsForTest(mockRepo)
	sources, err := svc.ListSources(ctx)

	require.NoError(t, err)
	assert.Equal(t, []SourceCount{
		{Source: "google", Count: 10},
		{Source: "csv", Count: 3},
	}, sources)
}
