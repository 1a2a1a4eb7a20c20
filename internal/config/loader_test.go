package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Cache.ProductListTTL != 5*time.Minute {
		t.Errorf("ProductListTTL = %v, want 5m", cfg.Cache.ProductListTTL)
	}
	if cfg.Redis.DialTimeout != 2*time.Second || cfg.Redis.OpTimeout != 2*time.Second {
		t.Errorf("redis timeouts = %v/%v, want 2s/2s", cfg.Redis.DialTimeout, cfg.Redis.OpTimeout)
	}
	if cfg.Auth.SessionSecret == "" {
		t.Error("development config should receive a session secret")
	}
}

func TestLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "service:\n  api_port: 7000\nratelimit:\n  product_list_per_minute: 30\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("API_PORT", "7100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://*.b.test")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Service.APIPort != 7100 {
		t.Errorf("APIPort = %d, want env override 7100", cfg.Service.APIPort)
	}
	if cfg.RateLimit.ProductListPerMinute != 30 {
		t.Errorf("ProductListPerMinute = %d, want yaml value 30", cfg.RateLimit.ProductListPerMinute)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://*.b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.Driver = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestValidateRequiresSecretInProduction(t *testing.T) {
	cfg := Defaults()
	cfg.Service.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing session secret")
	}
}
