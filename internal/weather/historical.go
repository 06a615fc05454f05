package weather

import (
	"encoding/json"
	"time"

	"github.com/i474232898/city-weather-aggregation/internal/fanout"
)

// HistoryDays is the lookback window of the historical branch.
const HistoryDays = 7

type historyPayload struct {
	List *[]historySample `json:"list"`
}

type historySample struct {
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
		Pressure *float64 `json:"pressure"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
	Wind    struct {
		Speed *float64 `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
}

// NormalizeHistorical turns the per-day history results into entries. Result i
// is the call for i+1 days ago. Days whose call failed, could not be parsed or
// returned no samples are dropped. It returns nil when no call produced a
// usable payload at all.
func NormalizeHistorical(results []fanout.Result[json.RawMessage], now time.Time, loc *time.Location) []HistoricalDayEntry {
	out := make([]HistoricalDayEntry, 0, len(results))
	parsed := 0

	for i, res := range results {
		if !res.OK() {
			continue
		}

		var payload historyPayload
		if json.Unmarshal(res.Value, &payload) != nil || payload.List == nil {
			continue
		}
		parsed++

		samples := *payload.List
		if len(samples) == 0 {
			continue
		}

		daysAgo := i + 1
		out = append(out, historicalDay(samples, daysAgo, now.In(loc).AddDate(0, 0, -daysAgo)))
	}

	if parsed == 0 {
		return nil
	}
	return out
}

// historicalDay averages a day's samples. Weather and wind direction come from
// the first sample; every other field is reduced across all samples.
func historicalDay(samples []historySample, daysAgo int, day time.Time) HistoricalDayEntry {
	var temps, humidities, pressures, speeds []*float64
	for _, s := range samples {
		temps = append(temps, s.Main.Temp)
		humidities = append(humidities, s.Main.Humidity)
		pressures = append(pressures, s.Main.Pressure)
		speeds = append(speeds, s.Wind.Speed)
	}

	first := samples[0]

	var weather *Condition
	if len(first.Weather) > 0 {
		w := first.Weather[0]
		weather = &w
	}

	var deg *int
	if first.Wind.Deg != nil {
		d := int(roundHalfUp(*first.Wind.Deg))
		deg = &d
	}

	t := values(temps)
	return HistoricalDayEntry{
		Date:    day.Format(dateLayout),
		DaysAgo: daysAgo,
		Temp: TempRange{
			Min: minOf(t),
			Max: maxOf(t),
			Avg: roundedMean(t),
		},
		Weather:  weather,
		Humidity: roundedMeanInt(values(humidities)),
		Pressure: roundedMeanInt(values(pressures)),
		Wind: Wind{
			Speed: tenthMean(values(speeds)),
			Deg:   deg,
		},
	}
}
