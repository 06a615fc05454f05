package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/city-weather-aggregation/internal/weather"
)

var (
	// ErrNotFound is returned when no probe result is available for a city.
	ErrNotFound = errors.New("no probe results for city")
)

// ProbeHistory holds a time-ordered list of probe results for a city.
type ProbeHistory struct {
	Results []weather.ProbeResult
}

// MemoryStore is a concurrency-safe in-memory history of upstream probes.
type MemoryStore struct {
	mu sync.RWMutex

	// key: normalized city name
	data map[string]*ProbeHistory

	maxHistory int           // max results per city
	maxAge     time.Duration // optional max age of results
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ProbeHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

func key(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Save appends a probe result for its city and enforces retention.
func (s *MemoryStore) Save(result weather.ProbeResult) {
	k := key(result.City)

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[k]
	if !ok {
		history = &ProbeHistory{}
		s.data[k] = history
	}

	history.Results = append(history.Results, result)

	if s.maxHistory > 0 && len(history.Results) > s.maxHistory {
		over := len(history.Results) - s.maxHistory
		history.Results = history.Results[over:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Results); i++ {
			if !history.Results[i].Timestamp.Before(cutoff) {
				break
			}
		}
		history.Results = history.Results[i:]
	}
}

// Latest returns the most recent probe result for a city.
func (s *MemoryStore) Latest(city string) (weather.ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key(city)]
	if !ok || len(history.Results) == 0 {
		return weather.ProbeResult{}, ErrNotFound
	}
	return history.Results[len(history.Results)-1], nil
}

// Range returns the probe results for a city between from and to (inclusive).
func (s *MemoryStore) Range(city string, from, to time.Time) ([]weather.ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key(city)]
	if !ok || len(history.Results) == 0 {
		return nil, ErrNotFound
	}

	var out []weather.ProbeResult
	for _, r := range history.Results {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			out = append(out, r)
		}
	}

	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}
