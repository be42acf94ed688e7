package ratecache

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const (
	// DefaultSweepInterval is how often the in-process backend drops
	// expired entries.
	DefaultSweepInterval = time.Minute

	pingTimeout = 5 * time.Second
)

// Config selects and tunes the backend.
type Config struct {
	Enabled bool
	TTL     time.Duration
	// RedisURL selects the Redis backend when set.
	RedisURL      string
	SweepInterval time.Duration
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	lg            *zap.Logger
	meter         metric.MeterProvider
	ttl           time.Duration
	sweepInterval time.Duration
}

// WithLogger sets the cache logger.
func WithLogger(lg *zap.Logger) Option {
	return func(o *options) { o.lg = lg }
}

// WithMeterProvider enables lookup counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meter = mp }
}

func buildOptions(cfg Config, opts []Option) options {
	o := options{
		lg:            zap.NewNop(),
		meter:         noop.NewMeterProvider(),
		ttl:           cfg.TTL,
		sweepInterval: cfg.SweepInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds a Cache from cfg. It never fails: a disabled cache gets the
// no-op backend and a Redis backend that cannot be reached is replaced with
// the in-process one.
func New(ctx context.Context, cfg Config, opts ...Option) *Cache {
	o := buildOptions(cfg, opts)

	if !cfg.Enabled {
		o.lg.Info("Rate cache disabled")
		return newCache(Disabled{}, BackendDisabled, o)
	}

	if cfg.RedisURL != "" {
		r, err := connectRedis(ctx, cfg.RedisURL)
		if err == nil {
			o.lg.Info("Using Redis rate cache")
			return newCache(r, BackendRedis, o)
		}
		o.lg.Warn("Redis unavailable, falling back to in-memory rate cache", zap.Error(err))
	}

	return NewWithBackend(NewMemory(), BackendMemory, cfg, opts...)
}

// NewWithBackend wraps an explicit backend.
func NewWithBackend(b Backend, name string, cfg Config, opts ...Option) *Cache {
	return newCache(b, name, buildOptions(cfg, opts))
}

func connectRedis(ctx context.Context, rawURL string) (*Redis, error) {
	r, err := NewRedis(rawURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}
