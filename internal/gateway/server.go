package gateway

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/logger"
)

// BasePath prefixes every API route.
const BasePath = "/api/ecommerce"

// AppConfig configures the API listener.
type AppConfig struct {
	Name    string
	Tenants TenantResolver
	Origins *OriginPolicy
	// BodyLimit caps request bodies in bytes; image uploads need headroom.
	BodyLimit int
}

// NewApp builds the fiber app with the middleware chain: recover, request
// id, tracing, access log, tenant, CORS, compression.
func NewApp(cfg AppConfig) *fiber.App {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 16 * 1024 * 1024
	}
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(Tracing(cfg.Name))
	app.Use(AccessLog())
	if cfg.Tenants != nil {
		app.Use(ResolveTenant(cfg.Tenants))
	}
	if cfg.Origins != nil {
		app.Use(CORS(cfg.Origins))
	}
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	return app
}

// errorHandler renders panics and routing errors as envelopes. Unknown
// routes keep their HTTP status so clients can tell them apart.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound || fe.Code == fiber.StatusMethodNotAllowed {
			c.Locals(localErrorCode, string(apperr.NotFound))
			return c.Status(fe.Code).JSON(errorBody{ErrorCode: apperr.NotFound, Error: "route not found"})
		}
		if fe.Code == fiber.StatusRequestEntityTooLarge {
			return writeError(c, apperr.Validationf("body", "request body too large"))
		}
	}
	logger.Error(c.UserContext()).Err(err).Str("path", c.Path()).Msg("Request failed")
	return writeError(c, err)
}
