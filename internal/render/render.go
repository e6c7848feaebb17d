// Package render formats grouped forecasts for terminal output.
package render

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/i474232898/address-forecast/internal/common"
	"github.com/i474232898/address-forecast/internal/weather"
)

// Condition is a coarse weather condition derived from a short forecast.
type Condition string

const (
	ConditionClear        Condition = "clear"
	ConditionCloudy       Condition = "cloudy"
	ConditionRain         Condition = "rain"
	ConditionStorm        Condition = "storm"
	ConditionSnow         Condition = "snow"
	ConditionFog          Condition = "fog"
	ConditionPartlyCloudy Condition = "partly_cloudy"
)

// Classify maps a short forecast ("Chance Rain Showers") to a Condition.
// Keywords are checked in order; the first match wins.
func Classify(shortForecast string) Condition {
	switch {
	case common.HasAny(shortForecast, "sunny", "clear"):
		return ConditionClear
	case common.HasAny(shortForecast, "cloud"):
		return ConditionCloudy
	case common.HasAny(shortForecast, "rain"):
		return ConditionRain
	case common.HasAny(shortForecast, "storm"):
		return ConditionStorm
	case common.HasAny(shortForecast, "snow"):
		return ConditionSnow
	case common.HasAny(shortForecast, "fog"):
		return ConditionFog
	default:
		return ConditionPartlyCloudy
	}
}

// Emoji returns the icon for a condition.
func Emoji(c Condition) string {
	switch c {
	case ConditionClear:
		return "☀️"
	case ConditionCloudy:
		return "☁️"
	case ConditionRain:
		return "🌧️"
	case ConditionStorm:
		return "⛈️"
	case ConditionSnow:
		return "❄️"
	case ConditionFog:
		return "🌫️"
	default:
		return "🌤️"
	}
}

// DayLabel turns a YYYY-MM-DD key into "Today", "Tomorrow" or "Mon, Jan 2",
// relative to now's calendar date in now's location.
func DayLabel(day string, now time.Time) string {
	d, err := time.ParseInLocation("2006-01-02", day, now.Location())
	if err != nil {
		return day
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case d.Equal(today):
		return "Today"
	case d.Equal(today.AddDate(0, 0, 1)):
		return "Tomorrow"
	default:
		return d.Format("Mon, Jan 2")
	}
}

// DaySummary condenses one day into a high/low card. Day is the first
// daytime period (else the first period) and Night the first night period
// (else the last). HasNight is false when one period serves as both.
type DaySummary struct {
	Day      weather.ForecastPeriod
	Night    weather.ForecastPeriod
	HasNight bool
}

// Summarize picks the periods that describe a day. It returns false for an
// empty day.
func Summarize(periods []weather.ForecastPeriod) (DaySummary, bool) {
	if len(periods) == 0 {
		return DaySummary{}, false
	}
	dayIdx, nightIdx := 0, len(periods)-1
	if i := slices.IndexFunc(periods, func(p weather.ForecastPeriod) bool { return p.IsDaytime }); i >= 0 {
		dayIdx = i
	}
	if i := slices.IndexFunc(periods, func(p weather.ForecastPeriod) bool { return !p.IsDaytime }); i >= 0 {
		nightIdx = i
	}
	return DaySummary{
		Day:      periods[dayIdx],
		Night:    periods[nightIdx],
		HasNight: nightIdx != dayIdx,
	}, true
}

// FirstSentence returns s up to its first period, or "N/A" when empty.
func FirstSentence(s string) string {
	before, _, _ := strings.Cut(s, ".")
	if before = strings.TrimSpace(before); before == "" {
		return "N/A"
	}
	return before
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return strings.TrimSpace(s)
}

// precipitation returns the chance of precipitation when it is above zero.
func precipitation(p weather.ForecastPeriod) (float64, bool) {
	v := p.ProbabilityOfPrecipitation.Value
	if v == nil || *v <= 0 {
		return 0, false
	}
	return *v, true
}

func writeSummary(b *strings.Builder, sum DaySummary) {
	day, night := sum.Day, sum.Night
	fmt.Fprintf(b, "  %s %s  High %d°%s  Low %d°%s",
		Emoji(Classify(day.ShortForecast)), orNA(day.ShortForecast),
		day.Temperature, unitOrF(day.TemperatureUnit),
		night.Temperature, unitOrF(night.TemperatureUnit),
	)
	if v, ok := precipitation(day); ok {
		fmt.Fprintf(b, "  Rain %.0f%%", v)
	}
	fmt.Fprintf(b, "  Wind %s\n", orNA(day.WindSpeed))
	fmt.Fprintf(b, "  Day: %s\n", FirstSentence(day.DetailedForecast))
	if sum.HasNight {
		fmt.Fprintf(b, "  Night: %s\n", FirstSentence(night.DetailedForecast))
	}
}

func unitOrF(unit string) string {
	if unit == "" {
		return "F"
	}
	return unit
}

// WriteText prints one block per day, in the forecast's day order: a summary
// card followed by every period.
func WriteText(w io.Writer, grouped weather.GroupedForecast, now time.Time) error {
	var b strings.Builder
	for i, day := range grouped.Days() {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s (%s)\n", DayLabel(day.Date, now), day.Date)
		if sum, ok := Summarize(day.Periods); ok {
			writeSummary(&b, sum)
		}
		for _, p := range day.Periods {
			fmt.Fprintf(&b, "    %s %-16s %3d°%s", Emoji(Classify(p.ShortForecast)), p.Name, p.Temperature, p.TemperatureUnit)
			if v, ok := precipitation(p); ok {
				fmt.Fprintf(&b, "  precip %.0f%%", v)
			}
			if p.WindSpeed != "" {
				fmt.Fprintf(&b, "  wind %s %s", strings.TrimSpace(p.WindSpeed), p.WindDirection)
			}
			fmt.Fprintf(&b, "  %s\n", p.ShortForecast)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
