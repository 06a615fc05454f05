package weather

import (
	"encoding/json"
	"sort"
	"time"
)

// ForecastDays is the number of calendar days kept from the forecast.
const ForecastDays = 5

// dateLayout renders a calendar day.
const dateLayout = "2006-01-02"

type forecastPayload struct {
	List *[]forecastSample `json:"list"`
}

type forecastSample struct {
	Dt   *int64 `json:"dt"`
	Main struct {
		Temp     *float64 `json:"temp"`
		TempMin  *float64 `json:"temp_min"`
		TempMax  *float64 `json:"temp_max"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
	Pop     *float64    `json:"pop"`
	Wind    struct {
		Speed *float64 `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
}

// forecastDay accumulates one calendar day's samples.
type forecastDay struct {
	date       string
	weather    *Condition
	temps      []*float64
	tempMins   []*float64
	tempMaxs   []*float64
	humidities []*float64
	rainChance []*float64
	windSpeeds []*float64
	windDegs   []*float64
}

// NormalizeForecast groups sub-daily forecast samples into at most
// ForecastDays calendar days (in loc), ordered by date. It returns nil when the
// payload cannot be parsed.
func NormalizeForecast(raw json.RawMessage, loc *time.Location) []DailyForecastEntry {
	var payload forecastPayload
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil || payload.List == nil {
		return nil
	}

	samples := make([]forecastSample, 0, len(*payload.List))
	for _, s := range *payload.List {
		if s.Dt != nil {
			samples = append(samples, s)
		}
	}
	sort.SliceStable(samples, func(i, j int) bool { return *samples[i].Dt < *samples[j].Dt })

	// Ordered by first appearance, which is chronological after the sort.
	var days []*forecastDay
	byDate := make(map[string]*forecastDay)

	for _, s := range samples {
		date := time.Unix(*s.Dt, 0).In(loc).Format(dateLayout)

		day, ok := byDate[date]
		if !ok {
			if len(days) == ForecastDays {
				break
			}
			day = &forecastDay{date: date}
			if len(s.Weather) > 0 {
				w := s.Weather[0]
				day.weather = &w
			}
			byDate[date] = day
			days = append(days, day)
		}

		day.temps = append(day.temps, s.Main.Temp)
		day.tempMins = append(day.tempMins, s.Main.TempMin)
		day.tempMaxs = append(day.tempMaxs, s.Main.TempMax)
		day.humidities = append(day.humidities, s.Main.Humidity)
		if s.Pop != nil {
			pct := *s.Pop * 100
			day.rainChance = append(day.rainChance, &pct)
		}
		day.windSpeeds = append(day.windSpeeds, s.Wind.Speed)
		day.windDegs = append(day.windDegs, s.Wind.Deg)
	}

	out := make([]DailyForecastEntry, 0, len(days))
	for _, d := range days {
		out = append(out, DailyForecastEntry{
			Date: d.date,
			Temp: TempRange{
				Min: minOf(values(d.tempMins)),
				Max: maxOf(values(d.tempMaxs)),
				Avg: roundedMean(values(d.temps)),
			},
			Weather:    d.weather,
			Humidity:   roundedMeanInt(values(d.humidities)),
			RainChance: roundedMean(values(d.rainChance)),
			Wind: Wind{
				Speed: tenthMean(values(d.windSpeeds)),
				Deg:   roundedMeanInt(values(d.windDegs)),
			},
		})
	}
	return out
}
