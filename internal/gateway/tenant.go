package gateway

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tair/tenant-commerce/pkg/logger"
)

// TenantHeader overrides the Host header for tenant resolution, for clients
// served from a domain other than the storefront's.
const TenantHeader = "X-Tenant-Domain"

// ResolveTenant stores the storefront serving the request host in Locals.
// Lookup failures leave the request without a tenant.
func ResolveTenant(resolver TenantResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		host := c.Get(TenantHeader)
		if host == "" {
			host = c.Hostname()
		}
		t, err := resolver.Resolve(c.UserContext(), host)
		if err != nil {
			logger.Warn(c.UserContext()).Err(err).Str("host", host).Msg("Tenant resolution failed")
		}
		if t != nil {
			c.Locals(localTenant, t)
			f, _ := logger.FieldsFrom(c.UserContext())
			f.TenantID = t.ID
			c.SetUserContext(logger.IntoContext(c.UserContext(), f))
		}
		return c.Next()
	}
}
