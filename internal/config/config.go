package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/config"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/database"
)

// Config holds all configuration for the pricing service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"storefront_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Payment gateway
	GatewayProvider string        `env:"GATEWAY_PROVIDER" envDefault:"mock"`
	GatewayURL      string        `env:"GATEWAY_URL" envDefault:"http://localhost:9090"`
	GatewayAPIKey   string        `env:"GATEWAY_API_KEY" envDefault:""`
	GatewayTimeout  time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"15s"`
	GatewayCurrency string        `env:"GATEWAY_CURRENCY" envDefault:"USD"`

	// Analytics report cache
	ReportCacheTTL time.Duration `env:"REPORT_CACHE_TTL" envDefault:"60s"`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string  `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampler  float64 `env:"TRACING_SAMPLER" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GatewayProvider != "mock" && c.GatewayProvider != "rest" {
		return fmt.Errorf("unknown gateway provider: %q", c.GatewayProvider)
	}
	if c.ReportCacheTTL < 0 {
		return fmt.Errorf("report cache TTL must not be negative: %s", c.ReportCacheTTL)
	}
	return nil
}

// Postgres returns the PostgreSQL pool configuration.
func (c *Config) Postgres() *database.PostgresConfig {
	pc := database.DefaultPostgresConfig()
	pc.Host = c.PostgresHost
	pc.Port = c.PostgresPort
	pc.User = c.PostgresUser
	pc.Password = c.PostgresPass
	pc.DBName = c.PostgresDB
	pc.SSLMode = c.PostgresSSL
	return &pc
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	cfg := database.DefaultRedisConfig()
	cfg.Host = c.RedisHost
	cfg.Port = c.RedisPort
	cfg.DB = c.RedisDB
	return cfg
}
