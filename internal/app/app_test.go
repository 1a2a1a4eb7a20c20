package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tair/tenant-commerce/internal/config"
	"github.com/tair/tenant-commerce/internal/gateway"
)

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"error_code"`
}

func newMemoryApp(t *testing.T) *Application {
	t.Helper()
	cfg := config.Defaults()
	cfg.Storage.Driver = config.StorageMemory
	cfg.Auth.SessionSecret = "test-secret"
	cfg.Auth.AdminPassword = "admin-password"
	cfg.Auth.BcryptCost = 4

	application, cleanup, err := InitializeApplication(&cfg, &Infra{})
	if err != nil {
		t.Fatalf("InitializeApplication: %v", err)
	}
	t.Cleanup(cleanup)
	return application
}

func call(t *testing.T, a *Application, path, body, session string) envelope {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "http://platform.local"+gateway.BasePath+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("X-Session-Id", session)
	}
	resp, err := a.API.Test(req, -1)
	if err != nil {
		t.Fatalf("API.Test: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return env
}

func TestSeedIsIdempotent(t *testing.T) {
	a := newMemoryApp(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := a.Seed(ctx); err != nil {
			t.Fatalf("Seed #%d: %v", i+1, err)
		}
	}
}

func TestSeededAdminCanLogIn(t *testing.T) {
	a := newMemoryApp(t)
	if err := a.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	env := call(t, a, "/auth/login", `{"login":"admin","password":"admin-password"}`, "")
	if !env.Success {
		t.Fatalf("login failed: %s", env.ErrorCode)
	}
	var login struct {
		Token string `json:"session_id"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Token == "" {
		t.Fatal("login returned no session")
	}

	env = call(t, a, "/auth/session", `{}`, login.Token)
	var info struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := json.Unmarshal(env.Data, &info); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if !info.IsAdmin {
		t.Errorf("is_admin = false, want true")
	}
}

func TestStorefrontRoutesNeedATenant(t *testing.T) {
	a := newMemoryApp(t)
	env := call(t, a, "/cart", `{}`, "")
	if env.Success || env.ErrorCode != "NOT_FOUND" {
		t.Errorf("cart on unknown host = %+v, want NOT_FOUND", env)
	}
}

func TestModelsCoverEveryContext(t *testing.T) {
	if got := len(Models()); got < 7 {
		t.Errorf("len(Models()) = %d, want at least one per context", got)
	}
}
