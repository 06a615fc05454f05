package weather

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-weather-aggregation/internal/apperr"
	"github.com/i474232898/city-weather-aggregation/internal/metrics"
)

var vancouver = Coordinate{Lat: 49.2827, Lon: -123.1207}

func fullHistory() map[int]json.RawMessage {
	h := make(map[int]json.RawMessage, HistoryDays)
	for d := 1; d <= HistoryDays; d++ {
		h[d] = historyJSON(float64(d), float64(d)+2)
	}
	return h
}

func healthyUpstream() *fakeUpstream {
	return &fakeUpstream{
		current:  currentJSON,
		forecast: forecastJSON(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), 40, 3*time.Hour),
		air:      airJSON(2),
		history:  fullHistory(),
	}
}

func newTestService(geo Geocoder, up Upstream) *Service {
	return NewService(geo, up, WithClock(fixedClock{fixedNow}))
}

func TestAggregate_AllSourcesAvailable(t *testing.T) {
	up := healthyUpstream()
	svc := newTestService(&fakeGeocoder{coord: vancouver, found: true}, up)

	resp, err := svc.Aggregate(context.Background(), LocationQuery{City: "Vancouver"})
	require.NoError(t, err)

	assert.Equal(t, vancouver, resp.Coordinates)
	assert.JSONEq(t, string(currentJSON), string(resp.Current))
	assert.Len(t, resp.Forecast, ForecastDays)

	require.Len(t, resp.Historical, HistoryDays)
	for i, d := range resp.Historical {
		assert.Equal(t, i+1, d.DaysAgo)
		assert.Equal(t, fixedNow.AddDate(0, 0, -(i+1)).Format("2006-01-02"), d.Date)
		assert.Equal(t, float64(i+2), *d.Temp.Avg)
	}

	require.NotNil(t, resp.AirQuality)
	assert.Equal(t, 3, resp.AirQuality.AQHI)
	assert.Equal(t, AQHILow, resp.AirQuality.Category)

	seen := append([]int(nil), up.seenDays...)
	sort.Ints(seen)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, seen)
}

func TestAggregate_FailingSourcesAreIsolated(t *testing.T) {
	up := healthyUpstream()
	up.forecast = nil
	up.air = nil
	svc := newTestService(&fakeGeocoder{coord: vancouver, found: true}, up)

	before := metrics.UpstreamCount(string(SourceForecast), metrics.OutcomeError)

	resp, err := svc.Aggregate(context.Background(), LocationQuery{City: "Vancouver"})
	require.NoError(t, err)

	assert.NotNil(t, resp.Current)
	assert.Len(t, resp.Historical, HistoryDays)
	assert.Nil(t, resp.Forecast)
	assert.Nil(t, resp.AirQuality)
	assert.Equal(t, before+1, metrics.UpstreamCount(string(SourceForecast), metrics.OutcomeError))

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &body))
	assert.Equal(t, "null", string(body["forecast_5day"]))
	assert.Equal(t, "null", string(body["air_quality"]))
	assert.Contains(t, body, "current")
	assert.Contains(t, body, "coordinates")
	assert.Contains(t, body, "historical_7days")
}

func TestAggregate_PartialHistory(t *testing.T) {
	up := healthyUpstream()
	up.historyErr = map[int]error{1: errDown, 2: errDown, 3: errDown, 5: errDown}
	svc := newTestService(&fakeGeocoder{coord: vancouver, found: true}, up)

	resp, err := svc.Aggregate(context.Background(), LocationQuery{City: "Vancouver"})
	require.NoError(t, err)

	require.Len(t, resp.Historical, 3)
	assert.Equal(t, 4, resp.Historical[0].DaysAgo)
	assert.Equal(t, 6, resp.Historical[1].DaysAgo)
	assert.Equal(t, 7, resp.Historical[2].DaysAgo)
}

func TestAggregate_AllHistoryFailed(t *testing.T) {
	up := healthyUpstream()
	up.history = nil
	svc := newTestService(&fakeGeocoder{coord: vancouver, found: true}, up)

	resp, err := svc.Aggregate(context.Background(), LocationQuery{City: "Vancouver"})
	require.NoError(t, err)

	assert.Nil(t, resp.Historical)
	assert.NotNil(t, resp.Current)
	assert.Len(t, up.seenDays, HistoryDays)
}

func TestAggregate_EverySourceFailed(t *testing.T) {
	svc := newTestService(&fakeGeocoder{coord: vancouver, found: true}, &fakeUpstream{})

	resp, err := svc.Aggregate(context.Background(), LocationQuery{City: "Vancouver"})
	require.NoError(t, err)

	assert.Equal(t, vancouver, resp.Coordinates)
	assert.Nil(t, resp.Current)
	assert.Nil(t, resp.Forecast)
	assert.Nil(t, resp.Historical)
	assert.Nil(t, resp.AirQuality)
}

func TestAggregate_ExplicitCoordinates(t *testing.T) {
	geo := &fakeGeocoder{found: false}
	svc := newTestService(geo, healthyUpstream())

	resp, err := svc.Aggregate(context.Background(), LocationQuery{Lat: "43.6532", Lon: "-79.3832"})
	require.NoError(t, err)

	assert.Equal(t, Coordinate{Lat: 43.6532, Lon: -79.3832}, resp.Coordinates)
	assert.Zero(t, geo.calls.Load())
}

func TestAggregate_ResolutionErrors(t *testing.T) {
	tests := []struct {
		name string
		geo  *fakeGeocoder
		up   *fakeUpstream
		q    LocationQuery
		code apperr.Code
	}{
		{"no input", &fakeGeocoder{}, healthyUpstream(), LocationQuery{}, apperr.CodeInvalidRequest},
		{"missing key", &fakeGeocoder{coord: vancouver, found: true}, &fakeUpstream{ready: errors.New("no key")}, LocationQuery{City: "Vancouver"}, apperr.CodeInvalidRequest},
		{"unknown city", &fakeGeocoder{found: false}, healthyUpstream(), LocationQuery{City: "Atlantis"}, apperr.CodeNotFound},
		{"geocoder down", &fakeGeocoder{err: errDown}, healthyUpstream(), LocationQuery{City: "Vancouver"}, apperr.CodeUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.geo, tt.up)

			_, err := svc.Aggregate(context.Background(), tt.q)

			require.Error(t, err)
			assert.Equal(t, tt.code, apperr.CodeOf(err))
			assert.Empty(t, tt.up.seenDays, "no weather calls after a resolution failure")
		})
	}
}

func TestAggregate_MissingKeyMessage(t *testing.T) {
	geo := &fakeGeocoder{coord: vancouver, found: true}
	svc := newTestService(geo, &fakeUpstream{ready: errors.New("no key")})

	_, err := svc.Aggregate(context.Background(), LocationQuery{City: "Vancouver"})

	assert.Equal(t, "API key is missing", apperr.MessageOf(err))
	assert.Zero(t, geo.calls.Load())
}

func TestProbe(t *testing.T) {
	up := healthyUpstream()
	up.air = nil
	svc := newTestService(&fakeGeocoder{coord: vancouver, found: true}, up)

	res := svc.Probe(context.Background(), "Vancouver")

	assert.Equal(t, "Vancouver", res.City)
	assert.Equal(t, fixedNow, res.Timestamp)
	assert.Empty(t, res.Error)
	require.NotNil(t, res.Coordinates)
	assert.Equal(t, vancouver, *res.Coordinates)
	assert.Equal(t, map[Source]bool{
		SourceCurrent:    true,
		SourceForecast:   true,
		SourceHistorical: true,
		SourceAirQuality: false,
	}, res.Sources)
}

func TestProbe_ResolutionFailure(t *testing.T) {
	svc := newTestService(&fakeGeocoder{found: false}, healthyUpstream())

	res := svc.Probe(context.Background(), "Atlantis")

	assert.NotEmpty(t, res.Error)
	assert.Nil(t, res.Coordinates)
	for _, src := range Sources {
		assert.False(t, res.Sources[src])
	}
}
