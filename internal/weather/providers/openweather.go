package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/city-weather-aggregation/internal/weather"
)

const (
	defaultOpenWeatherAPIURL     = "https://api.openweathermap.org"
	defaultOpenWeatherHistoryURL = "https://history.openweathermap.org"

	secondsInDay = 86400
	historyCount = 24
)

var errMissingAPIKey = fmt.Errorf("openweather api key is not configured")

// OpenWeatherProvider implements weather.Upstream and weather.Geocoder against
// OpenWeatherMap.
type OpenWeatherProvider struct {
	name       string
	apiKey     string
	apiURL     string
	historyURL string
	api        HTTPClientConfig
	history    HTTPClientConfig
}

// OpenWeatherOption customizes an OpenWeatherProvider.
type OpenWeatherOption func(*OpenWeatherProvider)

// WithOpenWeatherURLs points the provider at other hosts, e.g. a test server.
func WithOpenWeatherURLs(apiURL, historyURL string) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		p.apiURL = apiURL
		p.historyURL = historyURL
	}
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...OpenWeatherOption) *OpenWeatherProvider {
	p := &OpenWeatherProvider{
		name:       "openweathermap",
		apiKey:     apiKey,
		apiURL:     defaultOpenWeatherAPIURL,
		historyURL: defaultOpenWeatherHistoryURL,
		api: HTTPClientConfig{
			Client:  client,
			Circuit: NewCircuitBreaker("openweather"),
		},
		history: HTTPClientConfig{
			Client:  client,
			Circuit: NewCircuitBreaker("openweather-history"),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Ready() error {
	if p.apiKey == "" {
		return errMissingAPIKey
	}
	return nil
}

// Geocode uses the direct geocoding endpoint, asking for one best match.
func (p *OpenWeatherProvider) Geocode(ctx context.Context, city string) (weather.Coordinate, bool, error) {
	if err := p.Ready(); err != nil {
		return weather.Coordinate{}, false, err
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("limit", "1")
	values.Set("appid", p.apiKey)

	raw, err := GetJSON(ctx, p.api, p.apiURL+"/geo/1.0/direct?"+values.Encode(), nil)
	if err != nil {
		return weather.Coordinate{}, false, err
	}

	var matches []struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	}
	if err := json.Unmarshal(raw, &matches); err != nil {
		return weather.Coordinate{}, false, fmt.Errorf("decode geocoding response: %w", err)
	}
	if len(matches) == 0 {
		return weather.Coordinate{}, false, nil
	}

	return weather.Coordinate{Lat: matches[0].Lat, Lon: matches[0].Lon}, true, nil
}

func (p *OpenWeatherProvider) Current(ctx context.Context, c weather.Coordinate) (json.RawMessage, error) {
	return GetJSON(ctx, p.api, p.apiURL+"/data/2.5/weather?"+p.coordQuery(c, true).Encode(), nil)
}

func (p *OpenWeatherProvider) Forecast(ctx context.Context, c weather.Coordinate) (json.RawMessage, error) {
	return GetJSON(ctx, p.api, p.apiURL+"/data/2.5/forecast?"+p.coordQuery(c, true).Encode(), nil)
}

// History requests the hourly samples archived from daysAgo days before now.
func (p *OpenWeatherProvider) History(ctx context.Context, c weather.Coordinate, daysAgo int, now time.Time) (json.RawMessage, error) {
	values := p.coordQuery(c, true)
	values.Set("type", "hour")
	values.Set("start", strconv.FormatInt(now.Unix()-int64(daysAgo)*secondsInDay, 10))
	values.Set("cnt", strconv.Itoa(historyCount))

	return GetJSON(ctx, p.history, p.historyURL+"/data/2.5/history/city?"+values.Encode(), nil)
}

func (p *OpenWeatherProvider) AirPollution(ctx context.Context, c weather.Coordinate) (json.RawMessage, error) {
	return GetJSON(ctx, p.api, p.apiURL+"/data/2.5/air_pollution?"+p.coordQuery(c, false).Encode(), nil)
}

func (p *OpenWeatherProvider) coordQuery(c weather.Coordinate, metric bool) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))
	values.Set("appid", p.apiKey)
	if metric {
		values.Set("units", "metric")
	}
	return values
}
