package config

import "time"

// Config is the full service configuration.
type Config struct {
	Service   Service   `yaml:"service"`
	Log       Log       `yaml:"log"`
	Storage   Storage   `yaml:"storage"`
	Postgres  Postgres  `yaml:"postgres"`
	Redis     Redis     `yaml:"redis"`
	Kafka     Kafka     `yaml:"kafka"`
	Tracing   Tracing   `yaml:"tracing"`
	Auth      Auth      `yaml:"auth"`
	CORS      CORS      `yaml:"cors"`
	Cache     Cache     `yaml:"cache"`
	Catalog   Catalog   `yaml:"catalog"`
	RateLimit RateLimit `yaml:"ratelimit"`
	Mail      Mail      `yaml:"mail"`
	Stock     Stock     `yaml:"stock"`
}

type Service struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	APIPort     int    `yaml:"api_port"`
	OpsPort     int    `yaml:"ops_port"`
}

// IsDevelopment reports whether the service runs with development defaults.
func (s Service) IsDevelopment() bool {
	return s.Environment == "" || s.Environment == "development" || s.Environment == "dev"
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Storage struct {
	Driver string `yaml:"driver"`
}

type Postgres struct {
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type Redis struct {
	Enabled     bool          `yaml:"enabled"`
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	OpTimeout   time.Duration `yaml:"op_timeout"`
}

type Kafka struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

type Tracing struct {
	Enabled        bool    `yaml:"enabled"`
	JaegerEndpoint string  `yaml:"jaeger_endpoint"`
	SampleRatio    float64 `yaml:"sample_ratio"`
}

type Auth struct {
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	CookieName    string        `yaml:"cookie_name"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
	AdminLogin    string        `yaml:"admin_login"`
	AdminPassword string        `yaml:"admin_password"`
}

type CORS struct {
	// AllowedOrigins accepts exact origins and "*" wildcards such as "https://*.acme.com".
	AllowedOrigins     []string `yaml:"allowed_origins"`
	AllowTenantDomains bool     `yaml:"allow_tenant_domains"`
}

type Cache struct {
	ProductListTTL  time.Duration `yaml:"product_list_ttl"`
	ReferenceMaxAge time.Duration `yaml:"reference_max_age"`
	MemoryMaxCost   int64         `yaml:"memory_max_cost"`
}

type Catalog struct {
	CardImages   int `yaml:"card_images"`
	PTAVImageCap int `yaml:"ptav_image_cap"`
}

type RateLimit struct {
	ProductListPerMinute int `yaml:"product_list_per_minute"`
	CheckoutPerMinute    int `yaml:"checkout_per_minute"`
}

type Mail struct {
	Enabled           bool   `yaml:"enabled"`
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password"`
	From              string `yaml:"from"`
	StorefrontBaseURL string `yaml:"storefront_base_url"`
}

type Stock struct {
	LotAlertDays int `yaml:"lot_alert_days"`
	ForecastDays int `yaml:"forecast_days"`
}

// Defaults returns the compiled-in configuration.
func Defaults() Config {
	return Config{
		Service: Service{
			Name:        "tenant-commerce",
			Environment: "development",
			APIPort:     8080,
			OpsPort:     9090,
		},
		Log:     Log{Level: "info"},
		Storage: Storage{Driver: StoragePostgres},
		Postgres: Postgres{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			DBName:          "ecommerce",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Redis: Redis{
			Enabled:     true,
			Addr:        "localhost:6379",
			DialTimeout: 2 * time.Second,
			OpTimeout:   2 * time.Second,
		},
		Kafka: Kafka{
			Brokers: []string{"localhost:9092"},
			GroupID: "tenant-commerce",
		},
		Tracing: Tracing{
			JaegerEndpoint: "http://localhost:14268/api/traces",
			SampleRatio:    1,
		},
		Auth: Auth{
			SessionTTL: 7 * 24 * time.Hour,
			CookieName: "session_id",
			BcryptCost: 10,
			AdminLogin: "admin",
		},
		Cache: Cache{
			ProductListTTL:  5 * time.Minute,
			ReferenceMaxAge: 6 * time.Hour,
			MemoryMaxCost:   64 << 20,
		},
		Catalog: Catalog{
			CardImages:   5,
			PTAVImageCap: 10,
		},
		RateLimit: RateLimit{
			ProductListPerMinute: 60,
			CheckoutPerMinute:    20,
		},
		Mail: Mail{
			Port:              587,
			From:              "no-reply@localhost",
			StorefrontBaseURL: "http://localhost:3000",
		},
		Stock: Stock{
			LotAlertDays: 30,
			ForecastDays: 90,
		},
	}
}
