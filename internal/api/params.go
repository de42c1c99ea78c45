package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/restopulse/review-server/internal/pipeline"
)

const dateParamLayout = "2006-01-02"

// ErrorResponse is the JSON error body every endpoint returns on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// parseFilterState reads the shared filter query parameters. Unknown enum
// values are rejected; missing parameters fall back to the all/all-time
// defaults so a bare request is always valid.
func parseFilterState(c *gin.Context) (pipeline.FilterState, error) {
	state := pipeline.FilterState{
		Rating: pipeline.RatingAll,
		Period: pipeline.PeriodFilter{Preset: pipeline.PeriodAllTime},
		Source: strings.TrimSpace(c.Query("source")),
	}

	if v := c.Query("rating"); v != "" {
		rating := pipeline.RatingFilter(strings.ToLower(v))
		if !rating.IsValid() {
			return pipeline.FilterState{}, fmt.Errorf("unknown rating filter %q", v)
		}
		state.Rating = rating
	}

	if v := c.Query("period"); v != "" {
		preset := pipeline.PeriodPreset(strings.ToLower(v))
		if !preset.IsValid() {
			return pipeline.FilterState{}, fmt.Errorf("unknown period preset %q", v)
		}
		state.Period.Preset = preset
	}

	if state.Period.Preset == pipeline.PeriodCustom {
		start, err := parseDateParam(c.Query("start"))
		if err != nil {
			return pipeline.FilterState{}, fmt.Errorf("invalid start date: %v", err)
		}
		end, err := parseDateParam(c.Query("end"))
		if err != nil {
			return pipeline.FilterState{}, fmt.Errorf("invalid end date: %v", err)
		}
		state.Period.StartDate = start
		state.Period.EndDate = end
	}

	return state, nil
}

// parseDateParam accepts an empty value: the period resolver treats the
// missing bound as the documented all-time fallback.
func parseDateParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateParamLayout, value)
}

func parseGranularity(c *gin.Context) (pipeline.Granularity, error) {
	v := c.Query("granularity")
	if v == "" {
		return pipeline.GranularityMonth, nil
	}
	gran := pipeline.Granularity(strings.ToLower(v))
	if !gran.IsValid() {
		return "", fmt.Errorf("unknown granularity %q", v)
	}
	return gran, nil
}

func parsePaging(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

// stateCacheKey renders a filter state into a stable cache key fragment.
func stateCacheKey(state pipeline.FilterState) string {
	var b strings.Builder
	b.WriteString("rating=")
	b.WriteString(string(state.Rating))
	b.WriteString(":period=")
	b.WriteString(string(state.Period.Preset))
	if state.Period.Preset == pipeline.PeriodCustom {
		b.WriteString(":start=")
		b.WriteString(state.Period.StartDate.Format(dateParamLayout))
		b.WriteString(":end=")
		b.WriteString(state.Period.EndDate.Format(dateParamLayout))
	}
	b.WriteString(":source=")
	b.WriteString(strings.ToLower(state.Source))
	return b.String()
}
