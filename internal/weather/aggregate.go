package weather

import (
	"encoding/json"
	"math"
)

// Assemble merges the resolved coordinate with the per-source results into the
// final response. The current-conditions payload is passed through verbatim.
func Assemble(
	coord Coordinate,
	current json.RawMessage,
	forecast []DailyForecastEntry,
	historical []HistoricalDayEntry,
	air *AirQuality,
) AggregatedWeatherResponse {
	return AggregatedWeatherResponse{
		Current:     current,
		Coordinates: coord,
		Forecast:    forecast,
		Historical:  historical,
		AirQuality:  air,
	}
}

// NormalizeCurrent accepts the current-conditions payload only if it is a JSON object.
func NormalizeCurrent(raw json.RawMessage) json.RawMessage {
	var probe map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &probe) != nil {
		return nil
	}
	return raw
}

// roundHalfUp rounds to the nearest integer with halves going toward +Inf,
// so -2.5 becomes -2.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// roundTenth rounds to one decimal place using roundHalfUp.
func roundTenth(x float64) float64 {
	return roundHalfUp(x*10) / 10
}

// values collects the non-nil samples.
func values[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func minOf(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return &m
}

func maxOf(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return &m
}

func meanOf(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), true
}

// roundedMean is the half-up rounded mean, or nil over zero samples.
func roundedMean(xs []float64) *float64 {
	m, ok := meanOf(xs)
	if !ok {
		return nil
	}
	r := roundHalfUp(m)
	return &r
}

func roundedMeanInt(xs []float64) *int {
	r := roundedMean(xs)
	if r == nil {
		return nil
	}
	n := int(*r)
	return &n
}

func tenthMean(xs []float64) *float64 {
	m, ok := meanOf(xs)
	if !ok {
		return nil
	}
	r := roundTenth(m)
	return &r
}
