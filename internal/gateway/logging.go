package gateway

import (
	"time"

	"github.com/gofiber/fiber/v2"

	authdomain "github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/pkg/logger"
)

// AccessLog writes one line per request. Envelope errors log at warn and
// server errors at error.
func AccessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID, _ := c.Locals("requestid").(string)
		if requestID == "" {
			requestID = c.Get(fiber.HeaderXRequestID)
		}
		f, _ := logger.FieldsFrom(c.UserContext())
		f.RequestID = requestID
		c.SetUserContext(logger.IntoContext(c.UserContext(), f))

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()
		code, _ := c.Locals(localErrorCode).(string)

		ctx := c.UserContext()
		ev := logger.Info(ctx)
		switch {
		case status >= 500 || code == "SERVER_ERROR" || err != nil:
			ev = logger.Error(ctx).Err(err)
		case code != "":
			ev = logger.Warn(ctx)
		}
		if u, ok := c.Locals(localUser).(*authdomain.User); ok && u != nil {
			ev = ev.Str("user", u.Login)
		}
		if code != "" {
			ev = ev.Str("error_code", code)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Int64("duration_ms", duration.Milliseconds()).
			Str("ip", c.IP()).
			Msg("API request")
		return err
	}
}
