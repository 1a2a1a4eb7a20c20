package gateway

import (
	"encoding/json"
	"net/url"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	authdomain "github.com/tair/tenant-commerce/internal/auth/domain"
	tenantdomain "github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/logger"
)

const (
	localTenant    = "tenant"
	localUser      = "user"
	localErrorCode = "error_code"
)

var errUnknownStorefront = apperr.New(apperr.NotFound, "no storefront is configured for this domain")

// Options carries the collaborators of the gate.
type Options struct {
	Sessions SessionResolver
	Limiter  RateLimiter
	Cache    Invalidator
	// Events may be nil.
	Events     InvalidationPublisher
	CookieName string
}

// Router registers endpoints on a fiber group behind the gate.
type Router struct {
	group fiber.Router
	opts  Options
}

func NewRouter(group fiber.Router, opts Options) *Router {
	if opts.CookieName == "" {
		opts.CookieName = "session_id"
	}
	return &Router{group: group, opts: opts}
}

// CookieName is the session cookie name.
func (r *Router) CookieName() string { return r.opts.CookieName }

func (r *Router) Post(path string, ep Endpoint) {
	r.group.Post(path, r.wrap(ep))
}

func (r *Router) Get(path string, ep Endpoint) {
	r.group.Get(path, r.wrap(ep))
}

func (r *Router) wrap(ep Endpoint) fiber.Handler {
	return func(fc *fiber.Ctx) error {
		start := time.Now()
		endpoint := fc.Route().Path

		call, err := r.prepare(fc, ep)
		var data interface{}
		if err == nil {
			data, err = ep.Handle(call)
		}
		if err == nil && ep.Action != "" {
			r.afterMutation(call, ep)
		}

		code := "OK"
		if err != nil {
			code = string(apperr.CodeOf(err))
		}
		requestsTotal.WithLabelValues(endpoint, code).Inc()
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

		if err != nil {
			if code == string(apperr.ServerError) {
				logger.Error(fc.UserContext()).Err(err).Str("endpoint", endpoint).
					Str("stack", string(debug.Stack())).Msg("Unhandled endpoint error")
			}
			return writeError(fc, err)
		}
		if ep.CacheMaxAge > 0 {
			fc.Set(fiber.HeaderCacheControl, "public, max-age="+strconv.Itoa(int(ep.CacheMaxAge.Seconds())))
		}
		if raw, ok := data.(RawBody); ok {
			fc.Set(fiber.HeaderContentType, raw.ContentType)
			return fc.Send(raw.Data)
		}
		return writeSuccess(fc, data)
	}
}

// prepare resolves tenant, params and session, then runs the gate layers.
func (r *Router) prepare(fc *fiber.Ctx, ep Endpoint) (*Call, error) {
	ctx := fc.UserContext()
	call := &Call{Ctx: ctx, IP: fc.IP(), fc: fc}

	if t, ok := fc.Locals(localTenant).(*tenantdomain.Tenant); ok {
		call.Tenant = t
	}
	if call.Tenant == nil && !ep.Platform {
		return nil, errUnknownStorefront
	}

	params, err := requestParams(fc)
	if err != nil {
		return nil, err
	}
	call.params = params

	user, token, err := r.session(fc, call)
	if err != nil && ep.needsSession() {
		return nil, err
	}
	call.User = user
	call.token = token
	fc.Locals(localUser, user)

	if err := authorize(ep, user); err != nil {
		return nil, err
	}

	if ep.Budget != nil && r.opts.Limiter != nil {
		d := r.opts.Limiter.Allow(ctx, call.IP+"|"+fc.Route().Path, *ep.Budget)
		if !d.Allowed {
			return nil, apperr.RateLimitedAfter(d.RetryAfterSeconds())
		}
	}

	f, _ := logger.FieldsFrom(ctx)
	f.TenantID = call.TenantID()
	f.Actor = call.Actor()
	call.Ctx = logger.IntoContext(ctx, f)
	return call, nil
}

// session resolves the caller from the session cookie or X-Session-Id.
// A user bound to another storefront has no session here.
func (r *Router) session(fc *fiber.Ctx, call *Call) (*authdomain.User, string, error) {
	token := fc.Cookies(r.opts.CookieName)
	if token == "" {
		token = fc.Get("X-Session-Id")
	}
	if token == "" || r.opts.Sessions == nil {
		return nil, "", errSessionRequired
	}
	user, err := r.opts.Sessions.Resolve(call.Ctx, token)
	if err != nil {
		if apperr.HasCode(err, apperr.SessionExpired) {
			return nil, "", errSessionRequired
		}
		return nil, "", err
	}
	if call.Tenant != nil && !user.CanAccessTenant(call.Tenant.ID) {
		return nil, "", errSessionRequired
	}
	return user, token, nil
}

// afterMutation purges declared prefixes, tells peers and writes the audit
// line. Cache and broker failures are logged, never returned.
func (r *Router) afterMutation(call *Call, ep Endpoint) {
	if len(ep.Invalidates) > 0 && r.opts.Cache != nil {
		for _, prefix := range ep.Invalidates {
			if err := r.opts.Cache.Invalidate(call.Ctx, prefix); err != nil {
				logger.Warn(call.Ctx).Err(err).Str("prefix", prefix).Msg("Cache invalidation failed")
			}
		}
		if r.opts.Events != nil {
			if err := r.opts.Events.PublishCacheInvalidated(call.Ctx, ep.Invalidates); err != nil {
				logger.Warn(call.Ctx).Err(err).Msg("Failed to publish cache invalidation")
			}
		}
	}
	logger.Audit(call.Ctx, call.Actor(), ep.Action, call.targets...)
}

// requestParams reads POST bodies through the envelope and GET query
// strings as a flat object of strings.
func requestParams(fc *fiber.Ctx) (json.RawMessage, error) {
	if fc.Method() != fiber.MethodGet {
		return extractParams(fc.Body())
	}
	values, err := url.ParseQuery(string(fc.Request().URI().QueryString()))
	if err != nil {
		return nil, apperr.Validationf("query", "malformed query string")
	}
	flat := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			flat[k] = v[len(v)-1]
		}
	}
	raw, err := json.Marshal(flat)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
