// Package cities serves the city lookups around the weather core: GeoNames
// city details and the GeoDB city directory.
package cities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/city-weather-aggregation/internal/apperr"
	"github.com/i474232898/city-weather-aggregation/internal/fanout"
	"github.com/i474232898/city-weather-aggregation/internal/weather/providers"
)

const defaultGeoNamesURL = "https://secure.geonames.org"

// LatLng is a GeoNames coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CityInfo is the summary returned for a city lookup.
type CityInfo struct {
	City        string `json:"city"`
	Coordinates LatLng `json:"coordinates"`
	Population  int64  `json:"population"`
	Timezone    string `json:"timezone"`
	LocalTime   string `json:"localTime"`
	Elevation   *int   `json:"elevation"`
}

// GeoNames looks up city details.
type GeoNames struct {
	username string
	baseURL  string
	http     providers.HTTPClientConfig
}

// NewGeoNames creates a client. baseURL may be empty to use the public host.
func NewGeoNames(client *http.Client, username, baseURL string) *GeoNames {
	if baseURL == "" {
		baseURL = defaultGeoNamesURL
	}
	return &GeoNames{
		username: username,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http: providers.HTTPClientConfig{
			Client:  client,
			Circuit: providers.NewCircuitBreaker("geonames"),
		},
	}
}

// geonamesStatus is the error envelope GeoNames returns with a 200.
type geonamesStatus struct {
	Status *struct {
		Message string `json:"message"`
		Value   int    `json:"value"`
	} `json:"status"`
}

// CityInfo finds the best match for city, then fetches its time zone and
// elevation concurrently. Any failing step fails the lookup.
func (g *GeoNames) CityInfo(ctx context.Context, city string) (CityInfo, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return CityInfo{}, apperr.New(apperr.CodeInvalidRequest, "missing city parameter", nil)
	}
	if g.username == "" {
		return CityInfo{}, apperr.New(apperr.CodeInternal, "GeoNames username is missing", nil)
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("maxRows", "1")
	values.Set("username", g.username)

	var search struct {
		geonamesStatus
		Geonames []struct {
			Name       string `json:"name"`
			Lat        string `json:"lat"`
			Lng        string `json:"lng"`
			Population int64  `json:"population"`
		} `json:"geonames"`
	}
	if err := g.get(ctx, "/searchJSON", values, &search); err != nil {
		return CityInfo{}, apperr.New(apperr.CodeUpstreamUnavailable, "failed to fetch city data", err)
	}
	if len(search.Geonames) == 0 {
		return CityInfo{}, apperr.New(apperr.CodeNotFound, "city not found", nil)
	}

	match := search.Geonames[0]
	lat, latErr := strconv.ParseFloat(match.Lat, 64)
	lng, lngErr := strconv.ParseFloat(match.Lng, 64)
	if latErr != nil || lngErr != nil {
		return CityInfo{}, apperr.New(apperr.CodeUpstreamUnavailable, "invalid coordinates in city data", nil)
	}

	point := url.Values{}
	point.Set("lat", match.Lat)
	point.Set("lng", match.Lng)
	point.Set("username", g.username)

	type detail struct {
		timezone  string
		localTime string
		elevation *int
	}

	results := fanout.Join(ctx, map[string]fanout.Task[detail]{
		"timezone": func(ctx context.Context) (detail, error) {
			var tz struct {
				geonamesStatus
				TimezoneID string `json:"timezoneId"`
				Time       string `json:"time"`
			}
			if err := g.get(ctx, "/timezoneJSON", point, &tz); err != nil {
				return detail{}, fmt.Errorf("failed to fetch timezone: %w", err)
			}
			return detail{timezone: tz.TimezoneID, localTime: tz.Time}, nil
		},
		"elevation": func(ctx context.Context) (detail, error) {
			var elev struct {
				geonamesStatus
				SRTM3 *int `json:"srtm3"`
			}
			if err := g.get(ctx, "/srtm3JSON", point, &elev); err != nil {
				return detail{}, fmt.Errorf("failed to fetch elevation: %w", err)
			}
			return detail{elevation: elev.SRTM3}, nil
		},
	})

	for _, step := range []string{"timezone", "elevation"} {
		if err := results[step].Err; err != nil {
			return CityInfo{}, apperr.New(apperr.CodeUpstreamUnavailable, "failed to fetch "+step, err)
		}
	}

	return CityInfo{
		City:        match.Name,
		Coordinates: LatLng{Lat: lat, Lng: lng},
		Population:  match.Population,
		Timezone:    results["timezone"].Value.timezone,
		LocalTime:   results["timezone"].Value.localTime,
		Elevation:   results["elevation"].Value.elevation,
	}, nil
}

// statusCarrier is implemented by every response struct embedding geonamesStatus.
type statusCarrier interface {
	statusErr() error
}

func (s geonamesStatus) statusErr() error {
	if s.Status == nil {
		return nil
	}
	return fmt.Errorf("geonames error %d: %s", s.Status.Value, s.Status.Message)
}

func (g *GeoNames) get(ctx context.Context, path string, values url.Values, out statusCarrier) error {
	raw, err := providers.GetJSON(ctx, g.http, g.baseURL+path+"?"+values.Encode(), nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return out.statusErr()
}
