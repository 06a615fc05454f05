package weather

import (
	"encoding/json"
	"time"
)

// Coordinate is a resolved geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LocationQuery is what a caller supplies to identify a place: either a city
// name or a lat/lon pair. Lat and Lon are kept as the raw strings received so
// the resolver can decide whether the pair is usable.
type LocationQuery struct {
	City string
	Lat  string
	Lon  string
}

// Condition is the upstream's primary weather condition, passed through as-is.
type Condition struct {
	ID          int    `json:"id,omitempty"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// TempRange holds a day's temperatures in °C. A nil field means no valid
// sample was available for it.
type TempRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
	Avg *float64 `json:"avg"`
}

// Wind is a day's averaged wind vector.
type Wind struct {
	Speed *float64 `json:"speed"`
	Deg   *int     `json:"deg"`
}

// DailyForecastEntry is one calendar day of the 5-day forecast.
type DailyForecastEntry struct {
	Date       string     `json:"date"`
	Temp       TempRange  `json:"temp"`
	Weather    *Condition `json:"weather"`
	Humidity   *int       `json:"humidity"`
	RainChance *float64   `json:"rain_chance"`
	Wind       Wind       `json:"wind"`
}

// HistoricalDayEntry is one past calendar day.
type HistoricalDayEntry struct {
	Date     string     `json:"date"`
	DaysAgo  int        `json:"days_ago"`
	Temp     TempRange  `json:"temp"`
	Weather  *Condition `json:"weather"`
	Humidity *int       `json:"humidity"`
	Pressure *int       `json:"pressure"`
	Wind     Wind       `json:"wind"`
}

// AQHICategory is the health-risk band of a Canadian AQHI value.
type AQHICategory string

const (
	AQHILow      AQHICategory = "Low Health Risk"
	AQHIModerate AQHICategory = "Moderate Health Risk"
	AQHIHigh     AQHICategory = "High Health Risk"
	AQHIVeryHigh AQHICategory = "Very High Health Risk"
	AQHIUnknown  AQHICategory = "Unknown"
)

// AirQuality is the localized air-quality view derived from the upstream index.
type AirQuality struct {
	AQHI     int          `json:"aqhi"`
	Category AQHICategory `json:"category"`
}

// AggregatedWeatherResponse is the merged result of one aggregation request.
// Every source field is nil independently when its source failed.
type AggregatedWeatherResponse struct {
	Current     json.RawMessage      `json:"current"`
	Coordinates Coordinate           `json:"coordinates"`
	Forecast    []DailyForecastEntry `json:"forecast_5day"`
	Historical  []HistoricalDayEntry `json:"historical_7days"`
	AirQuality  *AirQuality          `json:"air_quality"`
}

// Source tags one branch of the fan-out.
type Source string

const (
	SourceCurrent    Source = "current"
	SourceForecast   Source = "forecast"
	SourceHistorical Source = "historical"
	SourceAirQuality Source = "air_quality"
)

// Sources lists the fan-out branches in a stable order.
var Sources = []Source{SourceCurrent, SourceForecast, SourceHistorical, SourceAirQuality}

// ProbeResult records which sources answered during one scheduled probe.
type ProbeResult struct {
	City        string          `json:"city"`
	Timestamp   time.Time       `json:"timestamp"` // always UTC
	Coordinates *Coordinate     `json:"coordinates,omitempty"`
	Sources     map[Source]bool `json:"sources"`
	Error       string          `json:"error,omitempty"`
}
