package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/restopulse/review-server/internal/pipeline"
	"github.com/restopulse/review-server/internal/repository/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ReviewService handles review listing and imports.
type ReviewService struct {
	storage ReviewRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewReviewService creates a new ReviewService instance.
func NewReviewService(storage ReviewRepository, logger *zap.Logger) *ReviewService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &ReviewService{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// ListReviews returns one page of the filtered review listing. Page and
// limit are clamped to sane bounds rather than rejected.
func (s *ReviewService) ListReviews(ctx context.Context, state pipeline.FilterState, page, limit int) (ReviewPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.storage.ListReviews(dbCtx)
	if err != nil {
		return ReviewPage{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	filtered := filterStored(rows, state, s.now())
	total := len(filtered)
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	offset := (page - 1) * limit
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	dtos := make([]ReviewDTO, 0, end-offset)
	for _, row := range filtered[offset:end] {
		dtos = append(dtos, toReviewDTO(row))
	}

	s.logger.Info("listed reviews",
		zap.Int("total", total),
		zap.Int("returned", len(dtos)),
		zap.Int("page", page))

	return ReviewPage{
		Reviews:    dtos,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// ImportReviews normalizes, classifies and stores a batch of raw records
// under the given source tag. Records the parsers already rejected are
// reported through priorSkipped so the summary covers the whole file.
func (s *ReviewService) ImportReviews(ctx context.Context, source string, raws []pipeline.RawReview, priorSkipped int) (ImportSummary, error) {
	if len(raws) == 0 {
		return ImportSummary{}, fmt.Errorf("%w: import batch is empty", ErrNoReviews)
	}

	now := s.now().UTC()
	batch := make([]models.Review, 0, len(raws))
	for _, raw := range raws {
		if raw.Source == "" {
			raw.Source = source
		}
		review := pipeline.Normalize(raw)
		c := pipeline.Classify(review)

		stored := models.Review{
			ID:        uuid.NewString(),
			Source:    review.Source,
			Rating:    review.Rating,
			Text:      review.Text,
			Author:    review.Author,
			Theme:     string(c.Theme),
			Sentiment: string(c.Sentiment),
			CreatedAt: now,
		}
		if review.HasDate() {
			date := review.Date
			stored.PublishedAt = &date
		}
		batch = append(batch, stored)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	inserted, err := s.storage.InsertReviews(dbCtx, batch)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("imported reviews",
		zap.String("source", source),
		zap.Int("imported", inserted),
		zap.Int("skipped", priorSkipped))

	return ImportSummary{Imported: inserted, Skipped: priorSkipped}, nil
}

// ListSources returns the per-source review census for UI source pickers.
func (s *ReviewService) ListSources(ctx context.Context) ([]SourceCount, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.storage.CountBySource(dbCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	out := make([]SourceCount, len(rows))
	for i, row := range rows {
		out[i] = SourceCount{Source: row.Source, Count: row.Count}
	}
	return out, nil
}

// filterStored applies the filter pipeline to stored rows while keeping
// the stored representation for the listing DTOs. Row order from the
// repository (newest published first) is preserved.
func filterStored(rows []models.Review, state pipeline.FilterState, now time.Time) []models.Review {
	period := pipeline.ResolvePeriod(state.Period, now)

	out := make([]models.Review, 0, len(rows))
	for _, row := range rows {
		r := pipeline.Review{Source: row.Source, Rating: row.Rating}
		if row.PublishedAt != nil {
			r.Date = *row.PublishedAt
		}
		if !pipeline.MatchesFilters(r, state, period) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func toReviewDTO(row models.Review) ReviewDTO {
	return ReviewDTO{
		ID:        row.ID,
		Source:    row.Source,
		Rating:    row.Rating,
		Text:      row.Text,
		Author:    row.Author,
		Theme:     row.Theme,
		Sentiment: row.Sentiment,
		Date:      row.PublishedAt,
	}
}
