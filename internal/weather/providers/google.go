package providers

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/city-weather-aggregation/internal/common"
	"github.com/i474232898/city-weather-aggregation/internal/weather"
)

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
type GoogleGeocoder struct {
	country string
	lookup  func(geocoder.Address) (geocoder.Location, error)
}

// NewGoogleGeocoder configures the geocoder package with apiKey. Lookups are
// biased to country (e.g. "Canada") when it is set.
func NewGoogleGeocoder(apiKey, country string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{
		country: country,
		lookup:  geocoder.Geocoding,
	}
}

// Geocode resolves a city. The geocoder package is blocking and context-unaware,
// so cancellation only abandons the wait for its answer.
func (g *GoogleGeocoder) Geocode(ctx context.Context, city string) (weather.Coordinate, bool, error) {
	type answer struct {
		loc geocoder.Location
		err error
	}
	done := make(chan answer, 1)

	go func() {
		loc, err := g.lookup(geocoder.Address{City: city, Country: g.country})
		done <- answer{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Coordinate{}, false, ctx.Err()
	case a := <-done:
		if a.err != nil {
			if common.HasAny(a.err.Error(), "ZERO_RESULTS", "No results") {
				return weather.Coordinate{}, false, nil
			}
			return weather.Coordinate{}, false, fmt.Errorf("google geocoding: %w", a.err)
		}
		return weather.Coordinate{Lat: a.loc.Latitude, Lon: a.loc.Longitude}, true, nil
	}
}
