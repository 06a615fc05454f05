package weather

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/city-weather-aggregation/internal/apperr"
	"github.com/i474232898/city-weather-aggregation/internal/fanout"
	"github.com/i474232898/city-weather-aggregation/internal/metrics"
)

// Service resolves a location and aggregates every weather source for it.
type Service struct {
	resolver *Resolver
	upstream Upstream
	clock    Clock
	loc      *time.Location
	log      *zap.SugaredLogger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used for historical dates.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a new Service.
func NewService(geocoder Geocoder, upstream Upstream, opts ...Option) *Service {
	s := &Service{
		resolver: NewResolver(geocoder),
		upstream: upstream,
		clock:    RealClock{},
		loc:      time.UTC,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fetched is the raw outcome of one outer branch. Only the historical branch
// fills days.
type fetched struct {
	payload json.RawMessage
	days    []fanout.Result[json.RawMessage]
}

// Aggregate resolves q and fetches current conditions, forecast, history and
// air quality concurrently. Only resolution failures are returned as errors;
// a failing source becomes a nil field in the response.
func (s *Service) Aggregate(ctx context.Context, q LocationQuery) (AggregatedWeatherResponse, error) {
	start := time.Now()
	defer func() { metrics.ObserveAggregation(time.Since(start)) }()

	if err := q.Validate(); err != nil {
		return AggregatedWeatherResponse{}, err
	}
	if err := s.upstream.Ready(); err != nil {
		return AggregatedWeatherResponse{}, apperr.New(apperr.CodeInvalidRequest, "API key is missing", err)
	}

	coord, err := s.resolver.Resolve(ctx, q)
	if err != nil {
		s.log.Infow("location resolution failed", "city", q.City, "code", apperr.CodeOf(err), "error", err)
		return AggregatedWeatherResponse{}, err
	}

	now := s.clock.Now()
	results := fanout.Join(ctx, map[Source]fanout.Task[fetched]{
		SourceCurrent: payloadTask(func(ctx context.Context) (json.RawMessage, error) {
			return s.upstream.Current(ctx, coord)
		}),
		SourceForecast: payloadTask(func(ctx context.Context) (json.RawMessage, error) {
			return s.upstream.Forecast(ctx, coord)
		}),
		SourceHistorical: func(ctx context.Context) (fetched, error) {
			return s.fetchHistory(ctx, coord, now)
		},
		SourceAirQuality: payloadTask(func(ctx context.Context) (json.RawMessage, error) {
			return s.upstream.AirPollution(ctx, coord)
		}),
	})

	for _, src := range Sources {
		res := results[src]
		if res.OK() {
			metrics.ObserveUpstream(string(src), metrics.OutcomeOK)
			continue
		}
		metrics.ObserveUpstream(string(src), metrics.OutcomeError)
		s.log.Warnw("weather source unavailable",
			"source", src, "lat", coord.Lat, "lon", coord.Lon, "error", res.Err)
	}

	return Assemble(
		coord,
		NormalizeCurrent(results[SourceCurrent].Value.payload),
		NormalizeForecast(results[SourceForecast].Value.payload, s.loc),
		NormalizeHistorical(results[SourceHistorical].Value.days, now, s.loc),
		NormalizeAirQuality(results[SourceAirQuality].Value.payload),
	), nil
}

// fetchHistory issues one call per day in the lookback window and waits for
// all of them. It fails only when every call failed.
func (s *Service) fetchHistory(ctx context.Context, coord Coordinate, now time.Time) (fetched, error) {
	tasks := make([]fanout.Task[json.RawMessage], HistoryDays)
	for i := range tasks {
		daysAgo := i + 1
		tasks[i] = func(ctx context.Context) (json.RawMessage, error) {
			return s.upstream.History(ctx, coord, daysAgo, now)
		}
	}

	days := fanout.JoinIndexed(ctx, tasks)

	var errs []error
	for i, d := range days {
		if !d.OK() {
			s.log.Debugw("historical day unavailable", "days_ago", i+1, "error", d.Err)
			errs = append(errs, d.Err)
		}
	}
	if len(errs) == len(days) {
		return fetched{}, errors.Join(errs...)
	}
	return fetched{days: days}, nil
}

func payloadTask(fetch func(ctx context.Context) (json.RawMessage, error)) fanout.Task[fetched] {
	return func(ctx context.Context) (fetched, error) {
		raw, err := fetch(ctx)
		if err != nil {
			return fetched{}, err
		}
		return fetched{payload: raw}, nil
	}
}

// Probe aggregates a city and records which sources produced data.
func (s *Service) Probe(ctx context.Context, city string) ProbeResult {
	result := ProbeResult{
		City:      city,
		Timestamp: s.clock.Now().UTC(),
		Sources:   make(map[Source]bool, len(Sources)),
	}

	resp, err := s.Aggregate(ctx, LocationQuery{City: city})
	if err != nil {
		result.Error = err.Error()
		for _, src := range Sources {
			result.Sources[src] = false
		}
		return result
	}

	coord := resp.Coordinates
	result.Coordinates = &coord
	result.Sources[SourceCurrent] = resp.Current != nil
	result.Sources[SourceForecast] = resp.Forecast != nil
	result.Sources[SourceHistorical] = resp.Historical != nil
	result.Sources[SourceAirQuality] = resp.AirQuality != nil
	return result
}

// Validate checks that the query names a city or carries a usable coordinate pair.
func (q LocationQuery) Validate() error {
	if _, ok := explicitCoordinate(q.Lat, q.Lon); ok {
		return nil
	}
	if strings.TrimSpace(q.City) != "" {
		return nil
	}
	return apperr.New(apperr.CodeInvalidRequest,
		"please provide either a city name or latitude and longitude", nil)
}
