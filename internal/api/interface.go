package api

import (
	"context"
	"time"

	"github.com/restopulse/review-server/internal/pipeline"
	"github.com/restopulse/review-server/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// AnalyticsService computes derived metrics over the stored reviews.
type AnalyticsService interface {
	GetOverview(ctx context.Context, state pipeline.FilterState) (service.Overview, error)
	GetTimeSeries(ctx context.Context, state pipeline.FilterState, gran pipeline.Granularity) (service.TimeSeries, error)
	GetThemeBreakdown(ctx context.Context, state pipeline.FilterState) ([]pipeline.ThemeStat, error)
	GetRootCauses(ctx context.Context, state pipeline.FilterState) ([]pipeline.RootCause, error)
}

// ReviewService handles review listing and imports.
type ReviewService interface {
	ListReviews(ctx context.Context, state pipeline.FilterState, page, limit int) (service.ReviewPage, error)
	ImportReviews(ctx context.Context, source string, raws []pipeline.RawReview, priorSkipped int) (service.ImportSummary, error)
	ListSources(ctx context.Context) ([]service.SourceCount, error)
}
