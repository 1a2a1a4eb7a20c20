package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	authdomain "github.com/tair/tenant-commerce/internal/auth/domain"
	tenantdomain "github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Call is what an endpoint handler sees of one request.
type Call struct {
	Ctx    context.Context
	Tenant *tenantdomain.Tenant
	// User is nil for anonymous calls.
	User *authdomain.User
	IP   string

	fc      *fiber.Ctx
	params  json.RawMessage
	targets []uint
	token   string
}

// Bind decodes the request params into v and runs its validate tags.
func (c *Call) Bind(v interface{}) error {
	if err := json.Unmarshal(c.params, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperr.Validationf(typeErr.Field, "%s must be of type %s", typeErr.Field, typeErr.Type.String())
		}
		return apperr.Validationf("params", "invalid params: %v", err)
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			field := fieldPath(fe.Namespace())
			return apperr.Validationf(field, "%s failed '%s' validation", field, fe.Tag())
		}
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return apperr.Validationf("params", "%v", err)
	}
	return nil
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// PathID parses a numeric route parameter.
func (c *Call) PathID(name string) (uint, error) {
	raw := c.fc.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validationf(name, "%s must be a positive integer", name)
	}
	return uint(id), nil
}

// TenantID is the resolved storefront, or 0 on platform-level calls.
func (c *Call) TenantID() uint {
	if c.Tenant == nil {
		return 0
	}
	return c.Tenant.ID
}

// Actor names the caller for audit lines.
func (c *Call) Actor() string {
	if c.User == nil {
		return "anonymous@" + c.IP
	}
	return c.User.Login
}

// IsAdmin reports whether the caller passes the admin gate.
func (c *Call) IsAdmin() bool {
	return c.User.IsAdmin()
}

// Target records ids touched by a mutation for the audit line.
func (c *Call) Target(ids ...uint) {
	c.targets = append(c.targets, ids...)
}

// SessionToken is the token the call authenticated with, if any.
func (c *Call) SessionToken() string { return c.token }

// SetSessionCookie stores the session token in the session cookie.
func (c *Call) SetSessionCookie(name, token string, maxAge int) {
	c.fc.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   c.fc.Protocol() == "https",
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func (c *Call) ClearSessionCookie(name string) {
	c.fc.Cookie(&fiber.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HTTPOnly: true})
}

// Header reads a request header.
func (c *Call) Header(name string) string { return c.fc.Get(name) }
