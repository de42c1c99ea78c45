package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/restopulse/review-server/internal/importer"
	"github.com/restopulse/review-server/internal/pipeline"
	"github.com/restopulse/review-server/internal/service"
	"github.com/restopulse/review-server/pkg/cache"
)

const (
	defaultCacheDuration = 10 * time.Minute
	maxImportBodyBytes   = 10 << 20

	cacheKeyOverview   = "api:analytics:overview"
	cacheKeyTimeSeries = "api:analytics:timeseries"
	cacheKeyThemes     = "api:analytics:themes"
	cacheKeyRootCauses = "api:analytics:root_causes"

	// generationKey versions every analytics cache entry; imports bump it
	// so stale aggregates fall out without explicit deletion.
	generationKey = "api:analytics:generation"
)

var errPayloadTooLarge = errors.New("import payload exceeds the 10 MB limit")

type Handlers struct {
	analytics AnalyticsService
	reviews   ReviewService
	cache     Cacher
	logger    *zap.Logger
	sfGroup   singleflight.Group
	cacheTTL  time.Duration
}

// NewHandlers initializes the HTTP handlers.
func NewHandlers(analytics AnalyticsService, reviews ReviewService, cacher Cacher, logger *zap.Logger, ttl time.Duration) *Handlers {
	if analytics == nil || reviews == nil {
		panic("nil service provided to NewHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &Handlers{
		analytics: analytics,
		reviews:   reviews,
		cache:     cacher,
		logger:    logger.Named("api"),
		cacheTTL:  ttl,
	}
}

// Register mounts the API routes. Import endpoints get the rate limit
// middleware; read endpoints stay unthrottled.
func (h *Handlers) Register(r gin.IRouter, importLimiter gin.HandlerFunc) {
	v1 := r.Group("/api/v1")

	v1.GET("/reviews", h.ListReviews)
	v1.GET("/sources", h.ListSources)

	analytics := v1.Group("/analytics")
	analytics.GET("/overview", h.GetOverview)
	analytics.GET("/timeseries", h.GetTimeSeries)
	analytics.GET("/themes", h.GetThemeBreakdown)
	analytics.GET("/root-causes", h.GetRootCauses)

	imports := v1.Group("/import")
	if importLimiter != nil {
		imports.Use(importLimiter)
	}
	imports.POST("/csv", h.ImportCSV)
	imports.POST("/xlsx", h.ImportXLSX)
	imports.POST("/text", h.ImportText)
}

func (h *Handlers) handleError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNoReviews):
		h.logger.Info("nothing to process", zap.String("op", op))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrStorageFailure):
		h.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database error"})
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("%s failed", op)})
	}
}

// cacheKey prefixes the filter-state key with the current generation so
// an import invalidates every derived aggregate at once.
func (h *Handlers) cacheKey(ctx context.Context, prefix string, state pipeline.FilterState, extra string) string {
	var generation int64
	if h.cache != nil {
		_ = h.cache.Get(ctx, generationKey, &generation)
	}
	key := fmt.Sprintf("%s:g%d:%s", prefix, generation, stateCacheKey(state))
	if extra != "" {
		key += ":" + extra
	}
	return key
}

func (h *Handlers) bumpGeneration(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if _, err := h.cache.Incr(ctx, generationKey); err != nil {
		h.logger.Warn("failed to bump cache generation", zap.Error(err))
	}
}

func (h *Handlers) GetOverview(c *gin.Context) {
	state, err := parseFilterState(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	key := h.cacheKey(ctx, cacheKeyOverview, state, "")

	overview, err := cache.FindAndCache(ctx, h.cache, &h.sfGroup, key, h.cacheTTL, h.logger, func(fetchCtx context.Context) (service.Overview, error) {
		return h.analytics.GetOverview(fetchCtx, state)
	})
	if err != nil {
		h.handleError(c, "GetOverview", err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

func (h *Handlers) GetTimeSeries(c *gin.Context) {
	state, err := parseFilterState(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	gran, err := parseGranularity(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	key := h.cacheKey(ctx, cacheKeyTimeSeries, state, string(gran))

	series, err := cache.FindAndCache(ctx, h.cache, &h.sfGroup, key, h.cacheTTL, h.logger, func(fetchCtx context.Context) (service.TimeSeries, error) {
		return h.analytics.GetTimeSeries(fetchCtx, state, gran)
	})
	if err != nil {
		h.handleError(c, "GetTimeSeries", err)
		return
	}

	c.JSON(http.StatusOK, series)
}

func (h *Handlers) GetThemeBreakdown(c *gin.Context) {
	state, err := parseFilterState(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	key := h.cacheKey(ctx, cacheKeyThemes, state, "")

	stats, err := cache.FindAndCache(ctx, h.cache, &h.sfGroup, key, h.cacheTTL, h.logger, func(fetchCtx context.Context) ([]pipeline.ThemeStat, error) {
		return h.analytics.GetThemeBreakdown(fetchCtx, state)
	})
	if err != nil {
		h.handleError(c, "GetThemeBreakdown", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"themes": stats})
}

func (h *Handlers) GetRootCauses(c *gin.Context) {
	state, err := parseFilterState(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	key := h.cacheKey(ctx, cacheKeyRootCauses, state, "")

	causes, err := cache.FindAndCache(ctx, h.cache, &h.sfGroup, key, h.cacheTTL, h.logger, func(fetchCtx context.Context) ([]pipeline.RootCause, error) {
		return h.analytics.GetRootCauses(fetchCtx, state)
	})
	if err != nil {
		h.handleError(c, "GetRootCauses", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"root_causes": causes})
}

func (h *Handlers) ListReviews(c *gin.Context) {
	state, err := parseFilterState(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	page, limit := parsePaging(c)

	result, err := h.reviews.ListReviews(c.Request.Context(), state, page, limit)
	if err != nil {
		h.handleError(c, "ListReviews", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handlers) ListSources(c *gin.Context) {
	sources, err := h.reviews.ListSources(c.Request.Context())
	if err != nil {
		h.handleError(c, "ListSources", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

func (h *Handlers) ImportCSV(c *gin.Context) {
	h.importTabular(c, "csv", importer.ParseCSV)
}

func (h *Handlers) ImportXLSX(c *gin.Context) {
	h.importTabular(c, "xlsx", importer.ParseXLSX)
}

func (h *Handlers) importTabular(c *gin.Context, kind string, parse func(io.Reader) ([]pipeline.RawReview, int, error)) {
	file, err := h.importFile(c)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errPayloadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}
	defer file.Close()

	raws, skipped, err := parse(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("parse %s: %v", kind, err)})
		return
	}

	h.finishImport(c, c.DefaultPostForm("source", kind), raws, skipped)
}

func (h *Handlers) ImportText(c *gin.Context) {
	// Read one byte past the limit so oversize payloads are rejected
	// whole instead of being truncated mid-review.
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBodyBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "read request body"})
		return
	}
	if len(body) > maxImportBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: errPayloadTooLarge.Error()})
		return
	}

	raws, skipped := importer.ParsePasted(string(body))
	h.finishImport(c, c.DefaultQuery("source", "pasted"), raws, skipped)
}

func (h *Handlers) finishImport(c *gin.Context, source string, raws []pipeline.RawReview, skipped int) {
	summary, err := h.reviews.ImportReviews(c.Request.Context(), source, raws, skipped)
	if err != nil {
		h.handleError(c, "ImportReviews", err)
		return
	}

	h.bumpGeneration(c.Request.Context())
	c.JSON(http.StatusCreated, summary)
}

func (h *Handlers) importFile(c *gin.Context) (multipart.File, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("multipart field %q is required", "file")
	}
	if fh.Size > maxImportBodyBytes {
		return nil, errPayloadTooLarge
	}
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	return file, nil
}
