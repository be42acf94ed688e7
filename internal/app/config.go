package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/shipbridge/internal/provider"
	"github.com/xenking/shipbridge/internal/ratecache"
	"github.com/xenking/shipbridge/internal/shipment"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (SHIPPING_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (SHIPPING_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	// WarehouseID is the last-resort origin when neither the request nor
	// SHIPENGINE_WAREHOUSE_ID names one.
	WarehouseID  string `usage:"Default warehouse id" flag:"warehouse-id"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (SHIPPING_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Provider     ProviderConfig
	Cache        CacheConfig
	Webhook      WebhookConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// ProviderConfig configures the shipping provider client.
type ProviderConfig struct {
	APIKey     string        `usage:"Provider API key (SHIPPING_PROVIDER_API_KEY or SHIPENGINE_API_KEY)" flag:"provider-api-key"`
	Sandbox    bool          `default:"false" usage:"Use the provider sandbox endpoint"`
	BaseURL    string        `usage:"Override the provider endpoint" flag:"provider-base-url"`
	MaxRetries int           `default:"3" usage:"Retries after a retryable provider failure"`
	RetryDelay time.Duration `default:"1s" usage:"Base delay of the exponential retry backoff"`
	Timeout    time.Duration `default:"30s" usage:"Per-attempt provider HTTP timeout"`
	CarrierIDs []string      `usage:"Carriers quoted when a rate request names none"`
}

// CacheConfig controls the rate cache.
type CacheConfig struct {
	Enabled       bool          `default:"true" usage:"Cache rate quotes"`
	TTL           time.Duration `default:"5m" usage:"Rate quote lifetime"`
	RedisURL      string        `usage:"Redis URL; empty uses the in-process cache" flag:"redis-url"`
	SweepInterval time.Duration `default:"1m" usage:"In-process cache expiry sweep interval"`
}

// WebhookConfig controls provider webhook verification.
type WebhookConfig struct {
	Secret string `usage:"HMAC-SHA256 secret shared with the provider; empty rejects every webhook" flag:"webhook-secret"`
}

// RateLimitConfig controls the per-client token bucket limiter on /api.
type RateLimitConfig struct {
	RPS   float64 `default:"20" usage:"Sustained requests per second per client; 0 disables limiting"`
	Burst int     `default:"40" usage:"Token bucket size"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHIPPING",
		Files:     []string{"config.yaml", "/etc/shipbridge/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on settings the service cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set SHIPPING_DATABASE_URL or DATABASE_URL")
	}
	if err := c.ProviderClient().Validate(); err != nil {
		return errors.Wrap(err, "provider config")
	}
	if c.RateLimit.RPS < 0 {
		return errors.New("rate limit rps must not be negative")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names to the SHIPPING_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("SHIPENGINE_API_KEY")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// ProviderClient returns the provider client configuration.
func (c *Config) ProviderClient() provider.Config {
	return provider.Config{
		APIKey:     c.Provider.APIKey,
		BaseURL:    c.Provider.BaseURL,
		Sandbox:    c.Provider.Sandbox,
		MaxRetries: c.Provider.MaxRetries,
		RetryDelay: c.Provider.RetryDelay,
		Timeout:    c.Provider.Timeout,
	}
}

// Warehouses returns the origin cascade below a per-request override.
func (c *Config) Warehouses() shipment.Warehouses {
	return shipment.Warehouses{
		Environment: os.Getenv("SHIPENGINE_WAREHOUSE_ID"),
		Configured:  c.WarehouseID,
	}
}

// RateCache returns the rate cache configuration.
func (c *Config) RateCache() ratecache.Config {
	return ratecache.Config{
		Enabled:       c.Cache.Enabled,
		TTL:           c.Cache.TTL,
		RedisURL:      c.Cache.RedisURL,
		SweepInterval: c.Cache.SweepInterval,
	}
}
