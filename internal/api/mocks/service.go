package mocks

import (
	"context"
	"errors"

	"github.com/restopulse/review-server/internal/pipeline"
	"github.com/restopulse/review-server/internal/service"
)

// MockAnalyticsService is a mock implementation of the AnalyticsService
// interface for testing the handler layer.
type MockAnalyticsService struct {
	GetOverviewFunc       func(ctx context.Context, state pipeline.FilterState) (service.Overview, error)
	GetTimeSeriesFunc     func(ctx context.Context, state pipeline.FilterState, gran pipeline.Granularity) (service.TimeSeries, error)
	GetThemeBreakdownFunc func(ctx context.Context, state pipeline.FilterState) ([]pipeline.ThemeStat, error)
	GetRootCausesFunc     func(ctx context.Context, state pipeline.FilterState) ([]pipeline.RootCause, error)
}

func (m *MockAnalyticsService) GetOverview(ctx context.Context, state pipeline.FilterState) (service.Overview, error) {
	if m.GetOverviewFunc != nil {
		return m.GetOverviewFunc(ctx, state)
	}
	return service.Overview{}, errors.New("GetOverviewFunc not implemented")
}

func (m *MockAnalyticsService) GetTimeSeries(ctx context.Context, state pipeline.FilterState, gran pipeline.Granularity) (service.TimeSeries, error) {
	if m.GetTimeSeriesFunc != nil {
		return m.GetTimeSeriesFunc(ctx, state, gran)
	}
	return service.TimeSeries{}, errors.New("GetTimeSeriesFunc not implemented")
}

func (m *MockAnalyticsService) GetThemeBreakdown(ctx context.Context, state pipeline.FilterState) ([]pipeline.ThemeStat, error) {
	if m.GetThemeBreakdownFunc != nil {
		return m.GetThemeBreakdownFunc(ctx, state)
	}
	return nil, errors.New("GetThemeBreakdownFunc not implemented")
}

func (m *MockAnalyticsService) GetRootCauses(ctx context.Context, state pipeline.FilterState) ([]pipeline.RootCause, error) {
	if m.GetRootCausesFunc != nil {
		return m.GetRootCausesFunc(ctx, state)
	}
	return nil, errors.New("GetRootCausesFunc not implemented")
}

// MockReviewService is a mock implementation of the ReviewService
// interface for testing the handler layer.
type MockReviewService struct {
	ListReviewsFunc   func(ctx context.Context, state pipeline.FilterState, page, limit int) (service.ReviewPage, error)
	ImportReviewsFunc func(ctx context.Context, source string, raws []pipeline.RawReview, priorSkipped int) (service.ImportSummary, error)
	ListSourcesFunc   func(ctx context.Context) ([]service.SourceCount, error)
}

func (m *MockReviewService) ListReviews(ctx context.Context, state pipeline.FilterState, page, limit int) (service.ReviewPage, error) {
	if m.ListReviewsFunc != nil {
		return m.ListReviewsFunc(ctx, state, page, limit)
	}
	return service.ReviewPage{}, errors.New("ListReviewsFunc not implemented")
}

func (m *MockReviewService) ImportReviews(ctx context.Context, source string, raws []pipeline.RawReview, priorSkipped int) (service.ImportSummary, error) {
	if m.ImportReviewsFunc != nil {
		return m.ImportReviewsFunc(ctx, source, raws, priorSkipped)
	}
	return service.ImportSummary{}, errors.New("ImportReviewsFunc not implemented")
}

func (m *MockReviewService) ListSources(ctx context.Context) ([]service.SourceCount, error) {
	if m.ListSourcesFunc != nil {
		return m.ListSourcesFunc(ctx)
	}
	return nil, errors.New("ListSourcesFunc not implemented")
}
