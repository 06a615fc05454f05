package weather

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/city-weather-aggregation/internal/apperr"
)

var validate = validator.New()

// Resolver turns a LocationQuery into a single Coordinate.
type Resolver struct {
	geocoder Geocoder
}

// NewResolver creates a Resolver backed by the given geocoder.
func NewResolver(g Geocoder) *Resolver {
	return &Resolver{geocoder: g}
}

// Resolve returns the explicit coordinates when both are present and valid,
// otherwise geocodes the city name. Geocoding is never invoked when explicit
// coordinates win.
func (r *Resolver) Resolve(ctx context.Context, q LocationQuery) (Coordinate, error) {
	if c, ok := explicitCoordinate(q.Lat, q.Lon); ok {
		return c, nil
	}

	if err := q.Validate(); err != nil {
		return Coordinate{}, err
	}

	c, found, err := r.geocoder.Geocode(ctx, strings.TrimSpace(q.City))
	if err != nil {
		return Coordinate{}, apperr.New(apperr.CodeUpstreamUnavailable, "failed to fetch coordinates", err)
	}
	if !found {
		return Coordinate{}, apperr.New(apperr.CodeNotFound, "city not found", nil)
	}
	return c, nil
}

// explicitCoordinate parses a lat/lon pair, rejecting missing or out-of-range values.
func explicitCoordinate(lat, lon string) (Coordinate, bool) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if validate.Var(lat, "required,latitude") != nil || validate.Var(lon, "required,longitude") != nil {
		return Coordinate{}, false
	}

	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return Coordinate{}, false
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return Coordinate{}, false
	}
	return Coordinate{Lat: la, Lon: lo}, true
}
