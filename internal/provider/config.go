package provider

import (
	"net/url"
	"time"

	"github.com/go-faster/errors"
)

const (
	// ProductionBaseURL is the provider's production API endpoint.
	ProductionBaseURL = "https://api.shipengine.com"
	// SandboxBaseURL is the provider's sandbox API endpoint.
	SandboxBaseURL = "https://api.sandbox.shipengine.com"

	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
	DefaultTimeout    = 30 * time.Second
)

var (
	ErrMissingAPIKey     = errors.New("provider: API key is required")
	ErrInvalidBaseURL    = errors.New("provider: invalid base URL")
	ErrInvalidMaxRetries = errors.New("provider: max retries must not be negative")
	ErrInvalidRetryDelay = errors.New("provider: retry delay must be positive")
)

// Config holds provider credentials and retry policy.
type Config struct {
	APIKey string
	// BaseURL overrides the endpoint selected by Sandbox.
	BaseURL    string
	Sandbox    bool
	MaxRetries int
	RetryDelay time.Duration
	// Timeout bounds each HTTP attempt at the transport layer.
	Timeout time.Duration
}

// DefaultConfig returns a production configuration with default retry policy.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:     apiKey,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		Timeout:    DefaultTimeout,
	}
}

// Endpoint returns the base URL requests are sent to.
func (c Config) Endpoint() string {
	switch {
	case c.BaseURL != "":
		return c.BaseURL
	case c.Sandbox:
		return SandboxBaseURL
	default:
		return ProductionBaseURL
	}
}

// Validate checks that the configuration can be used to build a client.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if u, err := url.Parse(c.Endpoint()); err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Wrapf(ErrInvalidBaseURL, "%q", c.Endpoint())
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.RetryDelay <= 0 {
		return ErrInvalidRetryDelay
	}
	return nil
}
