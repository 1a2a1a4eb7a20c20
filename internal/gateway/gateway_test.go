package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authdomain "github.com/tair/tenant-commerce/internal/auth/domain"
	tenantdomain "github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/ratelimit"
)

type fakeTenants struct{}

func (fakeTenants) Resolve(_ context.Context, host string) (*tenantdomain.Tenant, error) {
	if tenantdomain.NormalizeDomain(host) == "acme.com" {
		return &tenantdomain.Tenant{ID: 1, Code: "acme", Domain: "acme.com", Active: true}, nil
	}
	return nil, nil
}

type fakeSessions map[string]*authdomain.User

func (f fakeSessions) Resolve(_ context.Context, token string) (*authdomain.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, apperr.New(apperr.SessionExpired, "expired")
}

type recordingCache struct {
	prefixes []string
}

func (r *recordingCache) Invalidate(_ context.Context, prefix string) error {
	r.prefixes = append(r.prefixes, prefix)
	return nil
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	ErrorCode  string          `json:"error_code"`
	Field      string          `json:"field"`
	RetryAfter int             `json:"retry_after_seconds"`
}

func partnerID(id uint) *uint { return &id }

func newTestApp(t *testing.T, cache *recordingCache) (*Router, func(req *http.Request) envelope) {
	t.Helper()
	policy, err := NewOriginPolicy([]string{"https://*.trusted.dev"}, true)
	if err != nil {
		t.Fatalf("NewOriginPolicy: %v", err)
	}
	app := NewApp(AppConfig{Name: "test", Tenants: fakeTenants{}, Origins: policy})
	sessions := fakeSessions{
		"admin": {ID: 1, Login: "admin", Active: true, Groups: []authdomain.Group{{Code: authdomain.GroupSystem}}},
		"stock": {ID: 2, Login: "stock", Active: true, Groups: []authdomain.Group{{Code: authdomain.GroupStockUser}}},
		"alice": {ID: 3, Login: "alice", Active: true, PartnerID: partnerID(7)},
	}
	r := NewRouter(app.Group(BasePath), Options{
		Sessions: sessions,
		Limiter:  ratelimit.NewLimiter(nil, time.Second),
		Cache:    cache,
	})

	do := func(req *http.Request) envelope {
		t.Helper()
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		raw, _ := io.ReadAll(resp.Body)
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		return env
	}
	return r, do
}

func post(path, body string, headers ...string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "http://acme.com"+BasePath+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return req
}

type echoParams struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gte=0"`
}

func TestEnvelopeParsing(t *testing.T) {
	r, do := newTestApp(t, &recordingCache{})
	r.Post("/echo", Endpoint{Handle: func(c *Call) (interface{}, error) {
		var p echoParams
		if err := c.Bind(&p); err != nil {
			return nil, err
		}
		return p, nil
	}})

	tests := []struct {
		name      string
		body      string
		wantOK    bool
		wantCode  string
		wantField string
	}{
		{"jsonrpc envelope", `{"jsonrpc":"2.0","id":1,"method":"call","params":{"name":"x","count":2}}`, true, "", ""},
		{"bare params", `{"name":"x"}`, true, "", ""},
		{"empty body fails required", ``, false, "VALIDATION", "name"},
		{"wrong type", `{"name":"x","count":"two"}`, false, "VALIDATION", "count"},
		{"not an object", `[1,2]`, false, "VALIDATION", "params"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := do(post("/echo", tt.body))
			if env.Success != tt.wantOK {
				t.Fatalf("success = %v, want %v (%+v)", env.Success, tt.wantOK, env)
			}
			if env.ErrorCode != tt.wantCode {
				t.Errorf("error_code = %q, want %q", env.ErrorCode, tt.wantCode)
			}
			if env.Field != tt.wantField {
				t.Errorf("field = %q, want %q", env.Field, tt.wantField)
			}
		})
	}
}

func TestUncodedErrorsAreHidden(t *testing.T) {
	r, do := newTestApp(t, &recordingCache{})
	r.Post("/boom", Endpoint{Handle: func(*Call) (interface{}, error) {
		return nil, io.ErrUnexpectedEOF
	}})
	r.Post("/panic", Endpoint{Handle: func(*Call) (interface{}, error) {
		panic("kaboom")
	}})

	for _, path := range []string{"/boom", "/panic"} {
		env := do(post(path, `{}`))
		if env.ErrorCode != "SERVER_ERROR" {
			t.Errorf("%s: error_code = %q, want SERVER_ERROR", path, env.ErrorCode)
		}
		if env.Error != genericServerError {
			t.Errorf("%s: error = %q leaks detail", path, env.Error)
		}
	}
}

func TestUnknownStorefront(t *testing.T) {
	r, do := newTestApp(t, &recordingCache{})
	r.Post("/x", Endpoint{Handle: func(*Call) (interface{}, error) { return "ok", nil }})
	req := httptest.NewRequest(http.MethodPost, "http://nobody.org"+BasePath+"/x", strings.NewReader(`{}`))
	if env := do(req); env.ErrorCode != "NOT_FOUND" {
		t.Errorf("error_code = %q, want NOT_FOUND", env.ErrorCode)
	}

	req = httptest.NewRequest(http.MethodPost, "http://nobody.org"+BasePath+"/x", strings.NewReader(`{}`))
	req.Header.Set(TenantHeader, "www.acme.com")
	if env := do(req); !env.Success {
		t.Errorf("override header not honoured: %+v", env)
	}
}

func TestCORS(t *testing.T) {
	r, do := newTestApp(t, &recordingCache{})
	r.Post("/x", Endpoint{Handle: func(*Call) (interface{}, error) { return "ok", nil }})

	tests := []struct {
		origin string
		ok     bool
	}{
		{"", true},
		{"https://admin.trusted.dev", true},
		{"https://acme.com", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		req := post("/x", `{}`)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		env := do(req)
		if env.Success != tt.ok {
			t.Errorf("origin %q: success = %v, want %v", tt.origin, env.Success, tt.ok)
		}
		if !tt.ok && env.ErrorCode != "CORS_VIOLATION" {
			t.Errorf("origin %q: error_code = %q, want CORS_VIOLATION", tt.origin, env.ErrorCode)
		}
	}

	preflight := httptest.NewRequest(http.MethodOptions, "http://acme.com"+BasePath+"/x", nil)
	preflight.Header.Set("Origin", "https://evil.example")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	env := do(preflight)
	if env.Success || env.ErrorCode != "CORS_VIOLATION" {
		t.Errorf("disallowed preflight = %+v, want CORS_VIOLATION envelope", env)
	}
}

func TestAccessLayers(t *testing.T) {
	r, do := newTestApp(t, &recordingCache{})
	ok := func(*Call) (interface{}, error) { return "ok", nil }
	r.Post("/user", Endpoint{Access: Authenticated, Handle: ok})
	r.Post("/admin", Endpoint{Access: Admin, Handle: ok})
	r.Post("/stock", Endpoint{Groups: []authdomain.GroupCode{authdomain.GroupStockUser, authdomain.GroupStockManager}, Handle: ok})

	tests := []struct {
		path, token, want string
	}{
		{"/user", "", "SESSION_EXPIRED"},
		{"/user", "bogus", "SESSION_EXPIRED"},
		{"/user", "alice", ""},
		{"/admin", "alice", "ADMIN_REQUIRED"},
		{"/admin", "admin", ""},
		{"/stock", "alice", "ACCESS_DENIED"},
		{"/stock", "stock", ""},
		{"/stock", "admin", ""},
	}
	for _, tt := range tests {
		req := post(tt.path, `{}`)
		if tt.token != "" {
			req.Header.Set("X-Session-Id", tt.token)
		}
		env := do(req)
		if env.ErrorCode != tt.want {
			t.Errorf("%s as %q: error_code = %q, want %q", tt.path, tt.token, env.ErrorCode, tt.want)
		}
	}

	req := post("/user", `{}`)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "alice"})
	if env := do(req); !env.Success {
		t.Errorf("cookie session rejected: %+v", env)
	}
}

func TestProductListBudget(t *testing.T) {
	r, do := newTestApp(t, &recordingCache{})
	budget := ratelimit.ProductList
	r.Post("/products", Endpoint{Budget: &budget, Handle: func(*Call) (interface{}, error) { return []int{}, nil }})

	for i := 1; i <= 60; i++ {
		if env := do(post("/products", `{}`)); !env.Success {
			t.Fatalf("request %d rejected: %+v", i, env)
		}
	}
	env := do(post("/products", `{}`))
	if env.ErrorCode != "RATE_LIMITED" {
		t.Fatalf("61st error_code = %q, want RATE_LIMITED", env.ErrorCode)
	}
	if env.RetryAfter < 1 {
		t.Errorf("retry_after_seconds = %d, want >= 1", env.RetryAfter)
	}
}

func TestBudgetIsCountedPerEndpoint(t *testing.T) {
	r, do := newTestApp(t, &recordingCache{})
	budget := ratelimit.Budget{Name: "TINY", Limit: 1, Window: time.Minute}
	ok := func(*Call) (interface{}, error) { return "ok", nil }
	r.Post("/a", Endpoint{Budget: &budget, Handle: ok})
	r.Post("/b", Endpoint{Budget: &budget, Handle: ok})

	for _, path := range []string{"/a", "/b"} {
		if env := do(post(path, `{}`)); !env.Success {
			t.Fatalf("first %s rejected: %+v", path, env)
		}
	}
	env := do(post("/a", `{}`))
	if env.ErrorCode != "RATE_LIMITED" || env.RetryAfter < 1 {
		t.Errorf("second /a = %q retry %d, want RATE_LIMITED with retry_after_seconds", env.ErrorCode, env.RetryAfter)
	}
}

func TestMutationInvalidatesDeclaredPrefixes(t *testing.T) {
	cache := &recordingCache{}
	r, do := newTestApp(t, cache)
	r.Post("/products/create", Endpoint{
		Access:      Admin,
		Action:      "product.create",
		Invalidates: []string{"products"},
		Handle: func(c *Call) (interface{}, error) {
			c.Target(11)
			return map[string]uint{"id": 11}, nil
		},
	})
	r.Post("/products/fail", Endpoint{
		Access:      Admin,
		Action:      "product.fail",
		Invalidates: []string{"products"},
		Handle: func(*Call) (interface{}, error) {
			return nil, apperr.Validationf("name", "name is required")
		},
	})

	if env := do(post("/products/fail", `{}`, "X-Session-Id", "admin")); env.Success {
		t.Fatal("expected failure")
	}
	if len(cache.prefixes) != 0 {
		t.Fatalf("failed mutation invalidated %v", cache.prefixes)
	}
	if env := do(post("/products/create", `{}`, "X-Session-Id", "admin")); !env.Success {
		t.Fatalf("create failed: %+v", env)
	}
	if len(cache.prefixes) != 1 || cache.prefixes[0] != "products" {
		t.Errorf("invalidated = %v, want [products]", cache.prefixes)
	}
}

func TestCheckOwnership(t *testing.T) {
	alice := &authdomain.User{Login: "alice", PartnerID: partnerID(7)}
	admin := &authdomain.User{Login: "root", Groups: []authdomain.Group{{Code: authdomain.GroupSystem}}}
	p7 := Owner{PartnerID: 7, Email: "alice@x.io"}
	p8 := Owner{PartnerID: 8, Email: "bob@x.io"}

	tests := []struct {
		name  string
		user  *authdomain.User
		owner Owner
		guest string
		want  apperr.Code
	}{
		{"owner", alice, p7, "", ""},
		{"other partner", alice, p8, "", apperr.OwnershipViolation},
		{"admin", admin, p8, "", ""},
		{"guest email match", nil, p8, "BOB@x.io", ""},
		{"guest email mismatch", nil, p8, "eve@x.io", apperr.GuestEmailMismatch},
		{"anonymous", nil, p8, "", apperr.OwnershipViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOwnership(tt.user, tt.owner, tt.guest)
			if got := apperr.CodeOf(err); got != tt.want {
				t.Errorf("code = %q, want %q", got, tt.want)
			}
		})
	}
}
