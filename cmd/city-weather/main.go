package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/city-weather-aggregation/internal/api/http"
	"github.com/i474232898/city-weather-aggregation/internal/cities"
	"github.com/i474232898/city-weather-aggregation/internal/config"
	"github.com/i474232898/city-weather-aggregation/internal/logger"
	"github.com/i474232898/city-weather-aggregation/internal/scheduler"
	"github.com/i474232898/city-weather-aggregation/internal/store"
	"github.com/i474232898/city-weather-aggregation/internal/weather"
	"github.com/i474232898/city-weather-aggregation/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	// Shared HTTP client for outbound calls; its timeout bounds each upstream call.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	openWeather := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey)

	var geocoder weather.Geocoder = openWeather
	if cfg.Geocoder == "google" {
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleGeocodingAPIKey, cfg.GeocoderCountry)
	}
	if cfg.OpenWeatherAPIKey == "" {
		logr.Warn("OPENWEATHER_API_KEY is not set; weather requests will be rejected")
	}

	service := weather.NewService(geocoder, openWeather,
		weather.WithLocation(cfg.Location()),
		weather.WithLogger(logr.Named("weather")),
	)

	// Probe history with configured retention.
	probeStore := store.NewMemoryStore(cfg.ProbeMaxHistory, cfg.ProbeMaxAge)

	sched := scheduler.New(cfg.ProbeCities, cfg.ProbeInterval, service, probeStore, logr.Named("scheduler"))
	if err := sched.Start(); err != nil {
		logr.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Handlers{
		Weather:   service,
		CityInfo:  cities.NewGeoNames(httpClient, cfg.GeoNamesUsername, ""),
		Directory: cities.NewDirectory(httpClient, cfg.RapidAPIKey, cfg.GeoDBCountry, ""),
		Probes:    probeStore,
	}, logr.Named("http"))

	go func() {
		logr.Infow("listening", "port", cfg.Port, "geocoder", cfg.Geocoder, "timezone", cfg.Timezone)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logr.Errorw("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logr.Errorw("error during shutdown", "error", err)
	}
}
