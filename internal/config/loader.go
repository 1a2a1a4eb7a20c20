package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when CONFIG_FILE is unset.
const DefaultConfigFile = "config.yaml"

// Load builds the configuration: defaults < YAML < environment.
// A .env file in the working directory is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}
	return LoadFrom(getEnv("CONFIG_FILE", DefaultConfigFile))
}

// LoadFrom is Load without the .env step. A missing YAML file is not an error.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) {
	setString(&cfg.Service.Name, "SERVICE_NAME")
	setString(&cfg.Service.Environment, "ENVIRONMENT")
	setInt(&cfg.Service.APIPort, "API_PORT")
	setInt(&cfg.Service.OpsPort, "OPS_PORT")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setBool(&cfg.Log.Pretty, "LOG_PRETTY")

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setString(&cfg.Postgres.Host, "DB_HOST")
	setInt(&cfg.Postgres.Port, "DB_PORT")
	setString(&cfg.Postgres.User, "DB_USER")
	setString(&cfg.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Postgres.DBName, "DB_NAME")
	setString(&cfg.Postgres.SSLMode, "DB_SSLMODE")
	setInt(&cfg.Postgres.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	setInt(&cfg.Postgres.MaxIdleConns, "DB_MAX_IDLE_CONNS")
	setDuration(&cfg.Postgres.ConnMaxLifetime, "DB_CONN_MAX_LIFETIME")
	setBool(&cfg.Postgres.AutoMigrate, "DB_AUTO_MIGRATE")

	setBool(&cfg.Redis.Enabled, "REDIS_ENABLED")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setDuration(&cfg.Redis.DialTimeout, "REDIS_DIAL_TIMEOUT")
	setDuration(&cfg.Redis.OpTimeout, "REDIS_OP_TIMEOUT")

	setBool(&cfg.Kafka.Enabled, "KAFKA_ENABLED")
	setList(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&cfg.Kafka.GroupID, "KAFKA_GROUP_ID")

	setBool(&cfg.Tracing.Enabled, "TRACING_ENABLED")
	setString(&cfg.Tracing.JaegerEndpoint, "JAEGER_ENDPOINT")
	setFloat(&cfg.Tracing.SampleRatio, "TRACING_SAMPLE_RATIO")

	setString(&cfg.Auth.SessionSecret, "SESSION_SECRET")
	setDuration(&cfg.Auth.SessionTTL, "SESSION_TTL")
	setString(&cfg.Auth.CookieName, "SESSION_COOKIE_NAME")
	setInt(&cfg.Auth.BcryptCost, "BCRYPT_COST")
	setString(&cfg.Auth.AdminLogin, "ADMIN_LOGIN")
	setString(&cfg.Auth.AdminPassword, "ADMIN_PASSWORD")

	setList(&cfg.CORS.AllowedOrigins, "CORS_ALLOWED_ORIGINS")
	setBool(&cfg.CORS.AllowTenantDomains, "CORS_ALLOW_TENANT_DOMAINS")

	setDuration(&cfg.Cache.ProductListTTL, "CACHE_PRODUCT_LIST_TTL")
	setDuration(&cfg.Cache.ReferenceMaxAge, "CACHE_REFERENCE_MAX_AGE")

	setInt(&cfg.Catalog.CardImages, "CATALOG_CARD_IMAGES")
	setInt(&cfg.Catalog.PTAVImageCap, "CATALOG_PTAV_IMAGE_CAP")

	setInt(&cfg.RateLimit.ProductListPerMinute, "RATELIMIT_PRODUCT_LIST")
	setInt(&cfg.RateLimit.CheckoutPerMinute, "RATELIMIT_CHECKOUT")

	setBool(&cfg.Mail.Enabled, "MAIL_ENABLED")
	setString(&cfg.Mail.Host, "SMTP_HOST")
	setInt(&cfg.Mail.Port, "SMTP_PORT")
	setString(&cfg.Mail.Username, "SMTP_USERNAME")
	setString(&cfg.Mail.Password, "SMTP_PASSWORD")
	setString(&cfg.Mail.From, "MAIL_FROM")
	setString(&cfg.Mail.StorefrontBaseURL, "STOREFRONT_BASE_URL")

	setInt(&cfg.Stock.LotAlertDays, "STOCK_LOT_ALERT_DAYS")
	setInt(&cfg.Stock.ForecastDays, "STOCK_FORECAST_DAYS")
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Service.APIPort <= 0 || c.Service.OpsPort <= 0 {
		return errors.New("api_port and ops_port must be positive")
	}
	if c.Service.APIPort == c.Service.OpsPort {
		return errors.New("api_port and ops_port must differ")
	}
	switch c.Storage.Driver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.SessionSecret == "" {
		if !c.Service.IsDevelopment() {
			return errors.New("session_secret is required outside development")
		}
		c.Auth.SessionSecret = "development-only-session-secret"
	}
	if c.Cache.ProductListTTL <= 0 {
		return errors.New("cache.product_list_ttl must be positive")
	}
	if c.RateLimit.ProductListPerMinute <= 0 || c.RateLimit.CheckoutPerMinute <= 0 {
		return errors.New("rate limits must be positive")
	}
	return nil
}

// PostgresDSN returns the configured DSN or builds one from the parts.
func (c *Config) PostgresDSN() string {
	if c.Postgres.DSN != "" {
		return c.Postgres.DSN
	}
	p := c.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
