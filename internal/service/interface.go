package service

import (
	"context"
	"time"

	"github.com/restopulse/review-server/internal/repository/models"
)

// ReviewRepository defines the interface for database operations for service.
type ReviewRepository interface {
	InsertReviews(ctx context.Context, reviews []models.Review) (int, error)
	ListReviews(ctx context.Context) ([]models.Review, error)
	ListReviewsInPeriod(ctx context.Context, start, end time.Time) ([]models.Review, error)
	CountBySource(ctx context.Context) ([]models.SourceCount, error)
}
