package gateway

import (
	"context"
	"time"

	authdomain "github.com/tair/tenant-commerce/internal/auth/domain"
	tenantdomain "github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/pkg/ratelimit"
)

// Access is the minimum caller an endpoint admits.
type Access int

const (
	Public Access = iota
	// Authenticated requires a valid session.
	Authenticated
	// Admin requires a session in the system group.
	Admin
)

// HandlerFunc serves one endpoint; the result is wrapped in the success envelope.
type HandlerFunc func(c *Call) (interface{}, error)

// Endpoint declares how the gate treats a route.
type Endpoint struct {
	Access Access
	// Groups admits any-of; admins always pass. Implies a session.
	Groups []authdomain.GroupCode
	// Budget applies the rate limiter, counted per client IP and endpoint.
	Budget *ratelimit.Budget
	// Platform endpoints run without a resolved storefront.
	Platform bool
	// CacheMaxAge sets Cache-Control on successful responses.
	CacheMaxAge time.Duration
	// Invalidates lists cache prefixes purged after a successful call.
	Invalidates []string
	// Action names the mutation in the audit line; empty means read-only.
	Action string
	Handle HandlerFunc
}

func (e Endpoint) needsSession() bool {
	return e.Access != Public || len(e.Groups) > 0
}

// SessionResolver maps a session token to its user.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*authdomain.User, error)
}

// TenantResolver maps a request host to its storefront; nil means none.
type TenantResolver interface {
	Resolve(ctx context.Context, host string) (*tenantdomain.Tenant, error)
}

// RateLimiter records one request against a budget.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string, b ratelimit.Budget) ratelimit.Decision
}

// Invalidator purges cache entries by prefix.
type Invalidator interface {
	Invalidate(ctx context.Context, prefix string) error
}

// InvalidationPublisher tells peer workers about purged prefixes.
type InvalidationPublisher interface {
	PublishCacheInvalidated(ctx context.Context, prefixes []string) error
}
