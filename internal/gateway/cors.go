package gateway

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"

	tenantdomain "github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

var errCORS = apperr.New(apperr.CORSViolation, "origin not allowed")

// OriginPolicy is the compiled CORS allowlist. Patterns may use '*' as a
// wildcard, e.g. "https://*.example.com".
type OriginPolicy struct {
	patterns           []*regexp.Regexp
	allowTenantDomains bool
}

func NewOriginPolicy(patterns []string, allowTenantDomains bool) (*OriginPolicy, error) {
	p := &OriginPolicy{allowTenantDomains: allowTenantDomains}
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		expr := "(?i)^" + strings.ReplaceAll(regexp.QuoteMeta(strings.TrimSuffix(raw, "/")), `\*`, ".*") + "$"
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid CORS origin pattern %q: %w", raw, err)
		}
		p.patterns = append(p.patterns, re)
	}
	return p, nil
}

// Allows reports whether origin may call the API of tenant t (which may be nil).
func (p *OriginPolicy) Allows(origin string, t *tenantdomain.Tenant) bool {
	origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
	for _, re := range p.patterns {
		if re.MatchString(origin) {
			return true
		}
	}
	if p.allowTenantDomains && t != nil {
		return t.ServesDomain(tenantdomain.NormalizeDomain(origin))
	}
	return false
}

// CORS answers preflights and rejects disallowed origins, preflights
// included, with the CORS_VIOLATION envelope. Requests without an Origin
// header are not cross-origin.
func CORS(policy *OriginPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		t, _ := c.Locals(localTenant).(*tenantdomain.Tenant)
		if !policy.Allows(origin, t) {
			return writeError(c, errCORS)
		}

		c.Vary(fiber.HeaderOrigin)
		c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
		c.Set(fiber.HeaderAccessControlExposeHeaders, "X-Request-Id, X-Trace-Id")
		if c.Method() == fiber.MethodOptions {
			c.Set(fiber.HeaderAccessControlAllowMethods, "GET,POST,OPTIONS")
			c.Set(fiber.HeaderAccessControlAllowHeaders,
				"Origin, Content-Type, Accept, X-Session-Id, X-Tenant-Domain, X-Request-Id, traceparent, tracestate")
			c.Set(fiber.HeaderAccessControlMaxAge, "86400")
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
