package cities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-weather-aggregation/internal/apperr"
)

// geonamesServer serves canned bodies per path.
func geonamesServer(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "demo", r.URL.Query().Get("username"))
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

var calgaryBodies = map[string]string{
	"/searchJSON":   `{"totalResultsCount":1,"geonames":[{"name":"Calgary","lat":"51.05011","lng":"-114.08529","population":1019942}]}`,
	"/timezoneJSON": `{"timezoneId":"America/Edmonton","time":"2026-10-15 06:00"}`,
	"/srtm3JSON":    `{"srtm3":1048}`,
}

func TestGeoNames_CityInfo(t *testing.T) {
	srv := geonamesServer(t, calgaryBodies)
	g := NewGeoNames(srv.Client(), "demo", srv.URL)

	info, err := g.CityInfo(context.Background(), "Calgary")
	require.NoError(t, err)

	assert.Equal(t, "Calgary", info.City)
	assert.Equal(t, LatLng{Lat: 51.05011, Lng: -114.08529}, info.Coordinates)
	assert.EqualValues(t, 1019942, info.Population)
	assert.Equal(t, "America/Edmonton", info.Timezone)
	assert.Equal(t, "2026-10-15 06:00", info.LocalTime)
	require.NotNil(t, info.Elevation)
	assert.Equal(t, 1048, *info.Elevation)

	out, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"localTime":"2026-10-15 06:00"`)
}

func TestGeoNames_NotFound(t *testing.T) {
	srv := geonamesServer(t, map[string]string{"/searchJSON": `{"totalResultsCount":0,"geonames":[]}`})
	g := NewGeoNames(srv.Client(), "demo", srv.URL)

	_, err := g.CityInfo(context.Background(), "Atlantis")

	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestGeoNames_DetailFailure(t *testing.T) {
	bodies := map[string]string{
		"/searchJSON":   calgaryBodies["/searchJSON"],
		"/timezoneJSON": calgaryBodies["/timezoneJSON"],
	}
	srv := geonamesServer(t, bodies)
	g := NewGeoNames(srv.Client(), "demo", srv.URL)

	_, err := g.CityInfo(context.Background(), "Calgary")

	assert.True(t, apperr.Is(err, apperr.CodeUpstreamUnavailable))
}

func TestGeoNames_StatusEnvelope(t *testing.T) {
	srv := geonamesServer(t, map[string]string{
		"/searchJSON": `{"status":{"message":"user account not enabled","value":10}}`,
	})
	g := NewGeoNames(srv.Client(), "demo", srv.URL)

	_, err := g.CityInfo(context.Background(), "Calgary")

	require.True(t, apperr.Is(err, apperr.CodeUpstreamUnavailable))
	assert.Contains(t, err.Error(), "user account not enabled")
}

func TestGeoNames_BadInput(t *testing.T) {
	g := NewGeoNames(http.DefaultClient, "demo", "")
	_, err := g.CityInfo(context.Background(), "  ")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidRequest))

	g = NewGeoNames(http.DefaultClient, "", "")
	_, err = g.CityInfo(context.Background(), "Calgary")
	assert.True(t, apperr.Is(err, apperr.CodeInternal))
}

func TestDirectory_Cities(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"data":[{"name":"Regina"}],"metadata":{"totalCount":1}}`)
	}))
	defer srv.Close()

	d := NewDirectory(srv.Client(), "rapid-key", "CA", srv.URL)

	raw, err := d.Cities(context.Background(), DirectoryQuery{NamePrefix: "Reg", Page: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"name":"Regina"}],"metadata":{"totalCount":1}}`, string(raw))

	require.NotNil(t, got)
	assert.Equal(t, "/v1/geo/cities", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "20", q.Get("offset"))
	assert.Equal(t, "Reg", q.Get("namePrefix"))
	assert.Equal(t, "CA", q.Get("countryIds"))
	assert.Equal(t, "rapid-key", got.Header.Get("X-RapidAPI-Key"))
	assert.Equal(t, geoDBHost, got.Header.Get("X-RapidAPI-Host"))
}

func TestDirectory_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDirectory(srv.Client(), "bad", "", srv.URL)

	_, err := d.Cities(context.Background(), DirectoryQuery{Page: 1})

	assert.True(t, apperr.Is(err, apperr.CodeUpstreamUnavailable))
}
