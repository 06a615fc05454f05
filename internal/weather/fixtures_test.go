package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var errDown = errors.New("upstream down")

// fakeGeocoder records calls and returns a canned answer.
type fakeGeocoder struct {
	coord Coordinate
	found bool
	err   error
	calls atomic.Int32
}

func (f *fakeGeocoder) Geocode(ctx context.Context, city string) (Coordinate, bool, error) {
	f.calls.Add(1)
	return f.coord, f.found, f.err
}

// fakeUpstream serves canned payloads; a nil payload with a nil error
// for a source means "fail with errDown".
type fakeUpstream struct {
	ready      error
	current    json.RawMessage
	forecast   json.RawMessage
	air        json.RawMessage
	history    map[int]json.RawMessage // keyed by days ago
	historyErr map[int]error

	mu       sync.Mutex
	seenDays []int
}

func (f *fakeUpstream) Ready() error { return f.ready }

func (f *fakeUpstream) Current(ctx context.Context, c Coordinate) (json.RawMessage, error) {
	return orDown(f.current)
}

func (f *fakeUpstream) Forecast(ctx context.Context, c Coordinate) (json.RawMessage, error) {
	return orDown(f.forecast)
}

func (f *fakeUpstream) History(ctx context.Context, c Coordinate, daysAgo int, now time.Time) (json.RawMessage, error) {
	f.mu.Lock()
	f.seenDays = append(f.seenDays, daysAgo)
	f.mu.Unlock()

	if err := f.historyErr[daysAgo]; err != nil {
		return nil, err
	}
	return orDown(f.history[daysAgo])
}

func (f *fakeUpstream) AirPollution(ctx context.Context, c Coordinate) (json.RawMessage, error) {
	return orDown(f.air)
}

func orDown(raw json.RawMessage) (json.RawMessage, error) {
	if raw == nil {
		return nil, errDown
	}
	return raw, nil
}

// forecastJSON builds n samples step apart starting at start. Sample i has
// temp 10+i%8, temp_min one lower, temp_max one higher.
func forecastJSON(start time.Time, n int, step time.Duration) json.RawMessage {
	type sample struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []Condition `json:"weather"`
		Pop     float64     `json:"pop"`
		Wind    struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
	}

	list := make([]sample, n)
	for i := range list {
		s := &list[i]
		s.Dt = start.Add(time.Duration(i) * step).Unix()
		t := 10 + float64(i%8)
		s.Main.Temp, s.Main.TempMin, s.Main.TempMax = t, t-1, t+1
		s.Main.Humidity = 60
		s.Weather = []Condition{{Main: fmt.Sprintf("Clouds-%d", i), Description: "overcast", Icon: "04d"}}
		s.Pop = 0.25
		s.Wind.Speed = 3.4
		s.Wind.Deg = 180
	}

	raw, _ := json.Marshal(map[string]any{"list": list})
	return raw
}

// historyJSON builds a history payload with one sample per temperature.
func historyJSON(temps ...float64) json.RawMessage {
	list := make([]map[string]any, 0, len(temps))
	for i, t := range temps {
		list = append(list, map[string]any{
			"dt":      fixedNow.Unix() + int64(i)*3600,
			"main":    map[string]any{"temp": t, "humidity": 70 + i, "pressure": 1010 + i},
			"weather": []map[string]any{{"main": fmt.Sprintf("Rain-%d", i), "description": "light rain", "icon": "10d"}},
			"wind":    map[string]any{"speed": 2.0 + float64(i), "deg": 200 + i},
		})
	}
	raw, _ := json.Marshal(map[string]any{"list": list})
	return raw
}

func airJSON(aqi int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"list":[{"main":{"aqi":%d}}]}`, aqi))
}

var currentJSON = json.RawMessage(`{"main":{"temp":22,"humidity":40},"weather":[{"main":"Clear"}]}`)
