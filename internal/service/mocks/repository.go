package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/restopulse/review-server/internal/repository/models"
)

// MockReviewRepository is a mock implementation of the ReviewRepository
// interface for testing the service layer.
type MockReviewRepository struct {
	InsertReviewsFunc       func(ctx context.Context, reviews []models.Review) (int, error)
	ListReviewsFunc         func(ctx context.Context) ([]models.Review, error)
	ListReviewsInPeriodFunc func(ctx context.Context, start, end time.Time) ([]models.Review, error)
	CountBySourceFunc       func(ctx context.Context) ([]models.SourceCount, error)
}

// InsertReviews implements the ReviewRepository interface
func (m *MockReviewRepository) InsertReviews(ctx context.Context, reviews []models.Review) (int, error) {
	if m.InsertReviewsFunc != nil {
		return m.InsertReviewsFunc(ctx, reviews)
	}
	return 0, errors.New("InsertReviewsFunc not implemented")
}

// ListReviews implements the ReviewRepository interface
func (m *MockReviewRepository) ListReviews(ctx context.Context) ([]models.Review, error) {
	if m.ListReviewsFunc != nil {
		return m.ListReviewsFunc(ctx)
	}
	return nil, errors.New("ListReviewsFunc not implemented")
}

// ListReviewsInPeriod implements the ReviewRepository interface
func (m *MockReviewRepository) ListReviewsInPeriod(ctx context.Context, start, end time.Time) ([]models.Review, error) {
	if m.ListReviewsInPeriodFunc != nil {
		return m.ListReviewsInPeriodFunc(ctx, start, end)
	}
	return nil, errors.New("ListReviewsInPeriodFunc not implemented")
}

// CountBySource implements the ReviewRepository interface
func (m *MockReviewRepository) CountBySource(ctx context.Context) ([]models.SourceCount, error) {
	if m.CountBySourceFunc != nil {
		return m.CountBySourceFunc(ctx)
	}
	return nil, errors.New("CountBySourceFunc not implemented")
}
