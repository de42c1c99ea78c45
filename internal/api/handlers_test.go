package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/restopulse/review-server/internal/api/mocks"
	"github.com/restopulse/review-server/internal/pipeline"
	"github.com/restopulse/review-server/internal/service"
)

func newTestRouter(analytics AnalyticsService, reviews ReviewService) (*gin.Engine, *mocks.MemoryCache) {
	gin.SetMode(gin.TestMode)

	cache := mocks.NewMemoryCache()
	h := NewHandlers(analytics, reviews, cache, zap.NewNop(), time.Minute)

	r := gin.New()
	h.Register(r, nil)
	return r, cache
}

func doRequest(t *testing.T, r *gin.Engine, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetOverview(t *testing.T) {
	t.Run("passes parsed filter state to the service", func(t *testing.T) {
		var gotState pipeline.FilterState
		analytics := &mocks.MockAnalyticsService{
			GetOverviewFunc: func(ctx context.Context, state pipeline.FilterState) (service.Overview, error) {
				gotState = state
				return service.Overview{TotalReviews: 3, AverageRating: 3.0, Trend: "stable"}, nil
			},
		}
		r, _ := newTestRouter(analytics, &mocks.MockReviewService{})

		w := doRequest(t, r, http.MethodGet, "/api/v1/analytics/overview?rating=negative&period=last_30d&source=google", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, pipeline.RatingNegative, gotState.Rating)
		assert.Equal(t, pipeline.PeriodLast30D, gotState.Period.Preset)
		assert.Equal(t, "google", gotState.Source)

		var overview service.Overview
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
		assert.Equal(t, 3, overview.TotalReviews)
	})

	t.Run("invalid rating filter is rejected", func(t *testing.T) {
		r, _ := newTestRouter(&mocks.MockAnalyticsService{}, &mocks.MockReviewService{})

		w := doRequest(t, r, http.MethodGet, "/api/v1/analytics/overview?rating=amazing", nil, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown rating filter")
	})

	t.Run("storage failure maps to 500", func(t *testing.T) {
		analytics := &mocks.MockAnalyticsService{
			GetOverviewFunc: func(ctx context.Context, state pipeline.FilterState) (service.Overview, error) {
				return service.Overview{}, service.ErrStorageFailure
			},
		}
		r, _ := newTestRouter(analytics, &mocks.MockReviewService{})

		w := doRequest(t, r, http.MethodGet, "/api/v1/analytics/overview", nil, "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("second request is served from cache", func(t *testing.T) {
		var calls atomic.Int64
		analytics := &mocks.MockAnalyticsService{
			GetOverviewFunc: func(ctx context.Context, state pipeline.FilterState) (service.Overview, error) {
				return service.Overview{TotalReviews: int(calls.Add(1))}, nil
			},
		}
		r, cache := newTestRouter(analytics, &mocks.MockReviewService{})

		doRequest(t, r, http.MethodGet, "/api/v1/analytics/overview", nil, "")

		// The miss populates the cache in a background goroutine.
		require.Eventually(t, func() bool { return cache.Len() > 0 }, time.Second, 5*time.Millisecond)

		w := doRequest(t, r, http.MethodGet, "/api/v1/analytics/overview", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var overview service.Overview
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
		assert.Equal(t, 1, overview.TotalReviews)
	})
}

func TestGetTimeSeries(t *testing.T) {
	t.Run("granularity reaches the service", func(t *testing.T) {
		var gotGran pipeline.Granularity
		analytics := &mocks.MockAnalyticsService{
			GetTimeSeriesFunc: func(ctx context.Context, state pipeline.FilterState, gran pipeline.Granularity) (service.TimeSeries, error) {
				gotGran = gran
				return service.TimeSeries{Granularity: string(gran)}, nil
			},
		}
		r, _ := newTestRouter(analytics, &mocks.MockReviewService{})

		w := doRequest(t, r, http.MethodGet, "/api/v1/analytics/timeseries?granularity=week", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, pipeline.GranularityWeek, gotGran)
	})

	t.Run("unknown granularity is rejected", func(t *testing.T) {
		r, _ := newTestRouter(&mocks.MockAnalyticsService{}, &mocks.MockReviewService{})

		w := doRequest(t, r, http.MethodGet, "/api/v1/analytics/timeseries?granularity=decade", nil, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListReviews(t *testing.T) {
	t.Run("paging parameters are forwarded", func(t *testing.T) {
		var gotPage, gotLimit int
		reviews := &mocks.MockReviewService{
			ListReviewsFunc: func(ctx context.Context, state pipeline.FilterState, page, limit int) (service.ReviewPage, error) {
				gotPage, gotLimit = page, limit
				return service.ReviewPage{Page: page, Limit: limit}, nil
			},
		}
		r, _ := newTestRouter(&mocks.MockAnalyticsService{}, reviews)

		w := doRequest(t, r, http.MethodGet, "/api/v1/reviews?page=3&limit=50", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 3, gotPage)
		assert.Equal(t, 50, gotLimit)
	})

	t.Run("custom period bounds are parsed", func(t *testing.T) {
		var gotState pipeline.FilterState
		reviews := &mocks.MockReviewService{
			ListReviewsFunc: func(ctx context.Context, state pipeline.FilterState, page, limit int) (service.ReviewPage, error) {
				gotState = state
				return service.ReviewPage{}, nil
			},
		}
		r, _ := newTestRouter(&mocks.MockAnalyticsService{}, reviews)

		w := doRequest(t, r, http.MethodGet, "/api/v1/reviews?period=custom&start=2024-01-01&end=2024-01-31", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, pipeline.PeriodCustom, gotState.Period.Preset)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), gotState.Period.StartDate)
	})

	t.Run("malformed custom date is rejected", func(t *testing.T) {
		r, _ := newTestRouter(&mocks.MockAnalyticsService{}, &mocks.MockReviewService{})

		w := doRequest(t, r, http.MethodGet, "/api/v1/reviews?period=custom&start=January", nil, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestImportCSV(t *testing.T) {
	buildMultipart := func(t *testing.T, filename, content, source string) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
		if source != "" {
			require.NoError(t, mw.WriteField("source", source))
		}
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	t.Run("multipart upload imports and bumps the cache generation", func(t *testing.T) {
		var gotSource string
		var gotRaws []pipeline.RawReview
		reviews := &mocks.MockReviewService{
			ImportReviewsFunc: func(ctx context.Context, source string, raws []pipeline.RawReview, priorSkipped int) (service.ImportSummary, error) {
				gotSource = source
				gotRaws = raws
				return service.ImportSummary{Imported: len(raws), Skipped: priorSkipped}, nil
			},
		}
		r, cache := newTestRouter(&mocks.MockAnalyticsService{}, reviews)

		body, contentType := buildMultipart(t, "reviews.csv", "rating,text\n5,Lovely\n1,Awful\n", "google")
		w := doRequest(t, r, http.MethodPost, "/api/v1/import/csv", body, contentType)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "google", gotSource)
		assert.Len(t, gotRaws, 2)

		var gen int64
		require.NoError(t, cache.Get(context.Background(), "api:analytics:generation", &gen))
		assert.Equal(t, int64(1), gen)
	})

	t.Run("missing file field is rejected", func(t *testing.T) {
		r, _ := newTestRouter(&mocks.MockAnalyticsService{}, &mocks.MockReviewService{})

		w := doRequest(t, r, http.MethodPost, "/api/v1/import/csv", nil, "multipart/form-data")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("oversize upload is rejected whole", func(t *testing.T) {
		imported := false
		reviews := &mocks.MockReviewService{
			ImportReviewsFunc: func(ctx context.Context, source string, raws []pipeline.RawReview, priorSkipped int) (service.ImportSummary, error) {
				imported = true
				return service.ImportSummary{}, nil
			},
		}
		r, _ := newTestRouter(&mocks.MockAnalyticsService{}, reviews)

		huge := "rating,text\n" + strings.Repeat("5,padding\n", (10<<20)/10)
		body, contentType := buildMultipart(t, "reviews.csv", huge, "")
		w := doRequest(t, r, http.MethodPost, "/api/v1/import/csv", body, contentType)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.False(t, imported)
	})

	t.Run("unparseable payload is rejected", func(t *testing.T) {
		r, _ := newTestRouter(&mocks.MockAnalyticsService{}, &mocks.MockReviewService{})

		body, contentType := buildMultipart(t, "reviews.csv", "foo,bar\n1,2\n", "")
		w := doRequest(t, r, http.MethodPost, "/api/v1/import/csv", body, contentType)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestImportText(t *testing.T) {
	t.Run("plain text body imports with the pasted source default", func(t *testing.T) {
		var gotSource string
		reviews := &mocks.MockReviewService{
			ImportReviewsFunc: func(ctx context.Context, source string, raws []pipeline.RawReview, priorSkipped int) (service.ImportSummary, error) {
				gotSource = source
				return service.ImportSummary{Imported: len(raws)}, nil
			},
		}
		r, _ := newTestRouter(&mocks.MockAnalyticsService{}, reviews)

		body := bytes.NewBufferString("5★ Perfect\n\n1★ Terrible")
		w := doRequest(t, r, http.MethodPost, "/api/v1/import/text", body, "text/plain")

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "pasted", gotSource)
	})

	t.Run("oversize body is rejected whole", func(t *testing.T) {
		imported := false
		reviews := &mocks.MockReviewService{
			ImportReviewsFunc: func(ctx context.Context, source string, raws []pipeline.RawReview, priorSkipped int) (service.ImportSummary, error) {
				imported = true
				return service.ImportSummary{}, nil
			},
		}
		r, _ := newTestRouter(&mocks.MockAnalyticsService{}, reviews)

		body := bytes.NewBuffer(bytes.Repeat([]byte("a"), 10<<20+1))
		w := doRequest(t, r, http.MethodPost, "/api/v1/import/text", body, "text/plain")

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.False(t, imported)
	})

	t.Run("empty body maps to 400", func(t *testing.T) {
		reviews := &mocks.MockReviewService{
			ImportReviewsFunc: func(ctx context.Context, source string, raws []pipeline.RawReview, priorSkipped int) (service.ImportSummary, error) {
				return service.ImportSummary{}, service.ErrNoReviews
			},
		}
		r, _ := newTestRouter(&mocks.MockAnalyticsService{}, reviews)

		w := doRequest(t, r, http.MethodPost, "/api/v1/import/text", bytes.NewBufferString(""), "text/plain")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/limited", RateLimit(1, 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRequest(http.MethodPost, "/limited", strings.NewReader(""))
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, first)
	assert.Equal(t, http.StatusOK, w1.Code)

	second := httptest.NewRequest(http.MethodPost, "/limited", strings.NewReader(""))
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, second)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
}
