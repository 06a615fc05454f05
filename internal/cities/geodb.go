package cities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/city-weather-aggregation/internal/apperr"
	"github.com/i474232898/city-weather-aggregation/internal/weather/providers"
)

const (
	defaultGeoDBURL = "https://wft-geo-db.p.rapidapi.com"
	geoDBHost       = "wft-geo-db.p.rapidapi.com"

	// PageSize is the number of cities per directory page.
	PageSize = 10
)

// DirectoryQuery selects one page of the city directory.
type DirectoryQuery struct {
	NamePrefix string
	Page       int `validate:"min=1"`
}

// Directory proxies the GeoDB cities listing.
type Directory struct {
	apiKey  string
	country string
	baseURL string
	http    providers.HTTPClientConfig
}

// NewDirectory creates a Directory filtered to country (ISO code, may be empty).
func NewDirectory(client *http.Client, apiKey, country, baseURL string) *Directory {
	if baseURL == "" {
		baseURL = defaultGeoDBURL
	}
	return &Directory{
		apiKey:  apiKey,
		country: country,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: providers.HTTPClientConfig{
			Client:  client,
			Circuit: providers.NewCircuitBreaker("geodb"),
		},
	}
}

// Cities returns the upstream page body unchanged.
func (d *Directory) Cities(ctx context.Context, q DirectoryQuery) (json.RawMessage, error) {
	if q.Page < 1 {
		q.Page = 1
	}

	values := url.Values{}
	values.Set("limit", strconv.Itoa(PageSize))
	values.Set("offset", strconv.Itoa((q.Page-1)*PageSize))
	if q.NamePrefix != "" {
		values.Set("namePrefix", q.NamePrefix)
	}
	if d.country != "" {
		values.Set("countryIds", d.country)
	}

	header := http.Header{}
	header.Set("X-RapidAPI-Key", d.apiKey)
	header.Set("X-RapidAPI-Host", geoDBHost)

	raw, err := providers.GetJSON(ctx, d.http, d.baseURL+"/v1/geo/cities?"+values.Encode(), header)
	if err != nil {
		return nil, apperr.New(apperr.CodeUpstreamUnavailable, "error fetching data from GeoDB Cities API", err)
	}
	return raw, nil
}
