package weather

import (
	"bytes"
	"encoding/json"
	"time"
)

// Coordinates is a geocoded point. Lat/Lng are trusted as produced by the geocoder.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Precipitation is the probability of precipitation for a period.
// Value is nil when the upstream reports null.
type Precipitation struct {
	UnitCode string   `json:"unitCode"`
	Value    *float64 `json:"value"`
}

// ForecastPeriod is one discrete segment ("Tonight", "Monday") of a forecast.
// Field names mirror the upstream payload so the API response keeps its shape.
type ForecastPeriod struct {
	Number                     int           `json:"number"`
	Name                       string        `json:"name"`
	StartTime                  time.Time     `json:"startTime"`
	EndTime                    time.Time     `json:"endTime"`
	IsDaytime                  bool          `json:"isDaytime"`
	Temperature                int           `json:"temperature"`
	TemperatureUnit            string        `json:"temperatureUnit"`
	TemperatureTrend           string        `json:"temperatureTrend"`
	ProbabilityOfPrecipitation Precipitation `json:"probabilityOfPrecipitation"`
	WindSpeed                  string        `json:"windSpeed"`
	WindDirection              string        `json:"windDirection"`
	Icon                       string        `json:"icon"`
	ShortForecast              string        `json:"shortForecast"`
	DetailedForecast           string        `json:"detailedForecast"`
}

// DayForecast holds the periods that start on one UTC calendar day.
type DayForecast struct {
	Date    string           `json:"date"` // YYYY-MM-DD
	Periods []ForecastPeriod `json:"periods"`
}

// GroupedForecast maps a day key to its periods, keeping keys in the
// order they were first inserted.
type GroupedForecast struct {
	days  []DayForecast
	index map[string]int
}

func (g *GroupedForecast) add(day string, p ForecastPeriod) {
	if g.index == nil {
		g.index = make(map[string]int)
	}
	i, ok := g.index[day]
	if !ok {
		i = len(g.days)
		g.index[day] = i
		g.days = append(g.days, DayForecast{Date: day})
	}
	g.days[i].Periods = append(g.days[i].Periods, p)
}

// Days returns the day buckets in insertion order.
func (g GroupedForecast) Days() []DayForecast {
	return g.days
}

// Keys returns the day keys in insertion order.
func (g GroupedForecast) Keys() []string {
	keys := make([]string, 0, len(g.days))
	for _, d := range g.days {
		keys = append(keys, d.Date)
	}
	return keys
}

// Periods returns the periods for a day key.
func (g GroupedForecast) Periods(day string) ([]ForecastPeriod, bool) {
	i, ok := g.index[day]
	if !ok {
		return nil, false
	}
	return g.days[i].Periods, true
}

// Len returns the number of day buckets.
func (g GroupedForecast) Len() int {
	return len(g.days)
}

// MarshalJSON encodes the forecast as an object keyed by day, with keys
// written in insertion order.
func (g GroupedForecast) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range g.days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Date)
		if err != nil {
			return nil, err
		}
		periods, err := json.Marshal(d.Periods)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(periods)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
