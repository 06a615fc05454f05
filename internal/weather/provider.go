package weather

import (
	"context"
	"encoding/json"
	"time"
)

// Geocoder resolves a city name to its best match. It returns found=false
// when the lookup succeeded but matched nothing.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (c Coordinate, found bool, err error)
}

// Upstream abstracts the weather data sources queried for a coordinate.
// Payloads are returned raw; each is parsed only by its matching normalizer.
type Upstream interface {
	// Ready reports whether the upstream is usable, e.g. its credential is set.
	Ready() error

	Current(ctx context.Context, c Coordinate) (json.RawMessage, error)
	Forecast(ctx context.Context, c Coordinate) (json.RawMessage, error)
	// History returns the archived samples starting daysAgo days before now.
	History(ctx context.Context, c Coordinate, daysAgo int, now time.Time) (json.RawMessage, error)
	AirPollution(ctx context.Context, c Coordinate) (json.RawMessage, error)
}

// Clock supplies the current time so date arithmetic is testable.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock with the system time in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }
