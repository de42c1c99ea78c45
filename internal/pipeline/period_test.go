package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolvePeriod(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

	t.Run("all time", func(t *testing.T) {
		r := ResolvePeriod(PeriodFilter{Preset: PeriodAllTime}, now)
		assert.True(t, r.AllTime)
		assert.Equal(t, now, r.End)
	})

	t.Run("last 30 days", func(t *testing.T) {
		r := ResolvePeriod(PeriodFilter{Preset: PeriodLast30D}, now)
		assert.False(t, r.AllTime)
		assert.Equal(t, now.AddDate(0, 0, -30), r.Start)
		assert.Equal(t, now, r.End)
	})

	t.Run("last 12 months uses calendar arithmetic", func(t *testing.T) {
		r := ResolvePeriod(PeriodFilter{Preset: PeriodLast12M}, now)
		assert.Equal(t, time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC), r.Start)
	})

	t.Run("custom range adjusts end to end of day", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
		r := ResolvePeriod(PeriodFilter{Preset: PeriodCustom, StartDate: start, EndDate: end}, now)

		assert.False(t, r.AllTime)
		assert.Equal(t, start, r.Start)
		assert.Equal(t, time.Date(2025, 1, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), r.End)
	})

	t.Run("custom without bounds falls back to all time", func(t *testing.T) {
		r := ResolvePeriod(PeriodFilter{Preset: PeriodCustom}, now)
		assert.True(t, r.AllTime)
	})

	t.Run("custom with start after end falls back to all time", func(t *testing.T) {
		r := ResolvePeriod(PeriodFilter{
			Preset:    PeriodCustom,
			StartDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}, now)
		assert.True(t, r.AllTime)
	})

	t.Run("unknown preset treated as all time", func(t *testing.T) {
		r := ResolvePeriod(PeriodFilter{Preset: PeriodPreset("yesterday")}, now)
		assert.True(t, r.AllTime)
	})
}
