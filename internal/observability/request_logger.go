package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

// RequestLogger logs one line per request and feeds the request counters.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = apperrors.ToDomainError(err).HTTPStatus
		}

		// Route().Path is the registered pattern, which keeps counter keys bounded.
		path := c.Route().Path
		metrics.RecordRequest(path, c.Method(), status, elapsed)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
		}
		switch {
		case status >= 500:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return err
	}
}
