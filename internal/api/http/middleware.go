package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/city-weather-aggregation/internal/apperr"
)

const requestIDKey = "requestid"

// RequestID tags every request with an X-Request-ID, keeping one supplied by a proxy.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	})
}

// AccessLog writes one line per request through zap.
func AccessLog(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The app's error handler has not run yet; log the status it will pick.
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = apperr.CodeOf(err).HTTPStatus()
			}
		}

		fields := []interface{}{
			"request_id", c.Locals(requestIDKey),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start),
		}
		if status >= fiber.StatusInternalServerError {
			log.Errorw("request", append(fields, "error", err)...)
		} else {
			log.Infow("request", fields...)
		}
		return err
	}
}
