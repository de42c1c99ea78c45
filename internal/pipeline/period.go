package pipeline

import "time"

// ResolvePeriod translates a period filter into a concrete date range
// relative to now. Presets use calendar-correct subtraction (12 months via
// month arithmetic, not a fixed day count).
//
// A custom filter with a missing bound, or with start after end, resolves
// to the all-time range instead of failing so that callers always have a
// renderable period. Callers must check AllTime rather than assume the
// custom bounds were honored.
func ResolvePeriod(f PeriodFilter, now time.Time) DateRange {
	switch f.Preset {
	case PeriodLast30D:
		return DateRange{Start: now.AddDate(0, 0, -30), End: now}
	case PeriodLast90D:
		return DateRange{Start: now.AddDate(0, 0, -90), End: now}
	case PeriodLast12M:
		return DateRange{Start: now.AddDate(0, -12, 0), End: now}
	case PeriodCustom:
		if f.StartDate.IsZero() || f.EndDate.IsZero() || f.StartDate.After(f.EndDate) {
			return allTimeRange(now)
		}
		return DateRange{Start: f.StartDate, End: endOfDay(f.EndDate)}
	default:
		return allTimeRange(now)
	}
}

func allTimeRange(now time.Time) DateRange {
	return DateRange{End: now, AllTime: true}
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
