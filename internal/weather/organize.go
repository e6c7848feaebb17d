package weather

import (
	"slices"
	"time"
)

// dayKeyLayout formats the UTC calendar date used to bucket periods.
const dayKeyLayout = "2006-01-02"

// Organize sorts periods by start instant and groups them by the UTC date of
// their start time. The input slice is left untouched.
//
// Grouping uses the UTC date, not the forecast location's local date, so a
// late-evening local period can land in the next day's bucket.
func Organize(periods []ForecastPeriod) GroupedForecast {
	sorted := slices.Clone(periods)
	slices.SortStableFunc(sorted, func(a, b ForecastPeriod) int {
		return a.StartTime.Compare(b.StartTime)
	})

	var grouped GroupedForecast
	for _, p := range sorted {
		grouped.add(DayKey(p.StartTime), p)
	}
	return grouped
}

// DayKey returns the YYYY-MM-DD bucket key for an instant.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayKeyLayout)
}
