package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/city-weather-aggregation/internal/apperr"
	"github.com/i474232898/city-weather-aggregation/internal/cities"
	"github.com/i474232898/city-weather-aggregation/internal/common"
	"github.com/i474232898/city-weather-aggregation/internal/store"
	"github.com/i474232898/city-weather-aggregation/internal/weather"
)

var validate = validator.New()

// Aggregator serves the aggregated weather view.
type Aggregator interface {
	Aggregate(ctx context.Context, q weather.LocationQuery) (weather.AggregatedWeatherResponse, error)
}

// CityInfoFinder serves city details.
type CityInfoFinder interface {
	CityInfo(ctx context.Context, city string) (cities.CityInfo, error)
}

// CityLister serves the city directory.
type CityLister interface {
	Cities(ctx context.Context, q cities.DirectoryQuery) (json.RawMessage, error)
}

// ProbeReader exposes recorded upstream probes.
type ProbeReader interface {
	Latest(city string) (weather.ProbeResult, error)
	Range(city string, from, to time.Time) ([]weather.ProbeResult, error)
}

// Handlers groups the collaborators behind the API routes.
type Handlers struct {
	Weather   Aggregator
	CityInfo  CityInfoFinder
	Directory CityLister
	Probes    ProbeReader
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h Handlers) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		q := weather.LocationQuery{
			City: c.Query("city"),
			Lat:  c.Query("lat"),
			Lon:  c.Query("lon"),
		}

		resp, err := h.Weather.Aggregate(c.UserContext(), q)
		if err != nil {
			return err
		}
		return c.JSON(resp)
	})

	v1.Get("/cities/info", func(c *fiber.Ctx) error {
		info, err := h.CityInfo.CityInfo(c.UserContext(), c.Query("city"))
		if err != nil {
			return err
		}
		return c.JSON(info)
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		q := cities.DirectoryQuery{
			NamePrefix: common.FirstNonEmpty(c.Query("search"), c.Query("namePrefix")),
			Page:       c.QueryInt("page", 1),
		}
		if err := validate.Struct(q); err != nil {
			return apperr.New(apperr.CodeInvalidRequest, "page must be a positive integer", err)
		}

		body, err := h.Directory.Cities(c.UserContext(), q)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(body)
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return err
		}

		result, err := h.Probes.Latest(q.City)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.New(apperr.CodeNotFound, "no probe results for requested city", err)
			}
			return err
		}
		return c.JSON(result)
	})

	v1.Get("/status/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return err
		}
		if err := validate.Struct(req); err != nil {
			return apperr.New(apperr.CodeInvalidRequest, err.Error(), err)
		}

		results, err := h.Probes.Range(req.City.City, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.New(apperr.CodeNotFound, "no probe results for requested range", err)
			}
			return err
		}

		return c.JSON(fiber.Map{
			"city":    req.City.City,
			"from":    req.From,
			"to":      req.To,
			"results": results,
		})
	})
}

// ErrorHandler renders every returned error as JSON with the status its code maps to.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":   true,
			"message": fe.Message,
		})
	}

	code := apperr.CodeOf(err)
	status := code.HTTPStatus()
	message := apperr.MessageOf(err)

	return c.Status(status).JSON(fiber.Map{
		"error":   true,
		"code":    code,
		"message": message,
	})
}

// cityQuery holds the query parameter identifying a probed city.
type cityQuery struct {
	City string `validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	q := cityQuery{City: c.Query("city")}
	if err := validate.Struct(q); err != nil {
		return q, apperr.New(apperr.CodeInvalidRequest, "city query parameter is required", err)
	}
	return q, nil
}

// historyQuery holds query parameters for the probe history endpoint.
type historyQuery struct {
	City cityQuery
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	q, err := parseCityQuery(c)
	if err != nil {
		return err
	}
	h.City = q

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return apperr.New(apperr.CodeInvalidRequest, "from and to query parameters are required", nil)
	}

	if h.From, err = parseTime(fromStr); err != nil {
		return err
	}
	if h.To, err = parseTime(toStr); err != nil {
		return err
	}
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, apperr.New(apperr.CodeInvalidRequest, "invalid time format; use RFC3339 or unix seconds", nil)
}
