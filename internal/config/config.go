package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Port        string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTPTimeout bounds each outbound upstream call.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`

	OpenWeatherAPIKey string `envconfig:"OPENWEATHER_API_KEY"`

	// Geocoder selects the resolver backend.
	Geocoder              string `envconfig:"GEOCODER" default:"openweather" validate:"oneof=openweather google"`
	GoogleGeocodingAPIKey string `envconfig:"GOOGLE_GEOCODING_API_KEY" validate:"required_if=Geocoder google"`
	GeocoderCountry       string `envconfig:"GEOCODER_COUNTRY" default:"Canada"`

	// Timezone defines calendar days for forecast grouping and history dates.
	Timezone string `envconfig:"TIMEZONE" default:"UTC" validate:"timezone"`

	GeoNamesUsername string `envconfig:"GEONAMES_USERNAME"`
	RapidAPIKey      string `envconfig:"RAPIDAPI_KEY"`
	GeoDBCountry     string `envconfig:"GEODB_COUNTRY" default:"CA"`

	// Upstream probe.
	ProbeCities     []string      `envconfig:"PROBE_CITIES"`
	ProbeInterval   time.Duration `envconfig:"PROBE_INTERVAL" default:"15m"`
	ProbeMaxHistory int           `envconfig:"PROBE_MAX_HISTORY" default:"96"` // roughly 24h at 15-minute intervals
	ProbeMaxAge     time.Duration `envconfig:"PROBE_MAX_AGE" default:"24h"`
}

var validate = validator.New()

// Load reads configuration from the environment (and .env when present).
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.ProbeCities = cleanList(cfg.ProbeCities)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Location returns the configured calendar-day time zone.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
