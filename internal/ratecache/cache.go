// Package ratecache caches provider rate quotes for a short TTL.
//
// Caching is an optimization only. Backend failures are logged and reported
// to callers as misses, and an unreachable Redis at startup falls back to the
// in-process backend instead of failing.
package ratecache

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// DefaultTTL is used when Set is called without a positive TTL.
const DefaultTTL = 5 * time.Minute

// Cache fronts a Backend and never returns backend errors.
type Cache struct {
	backend       Backend
	name          string
	ttl           time.Duration
	sweepInterval time.Duration
	lg            *zap.Logger

	lookups metric.Int64Counter
}

func newCache(b Backend, name string, o options) *Cache {
	c := &Cache{
		backend:       b,
		name:          name,
		ttl:           o.ttl,
		sweepInterval: o.sweepInterval,
		lg:            o.lg,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.sweepInterval <= 0 {
		c.sweepInterval = DefaultSweepInterval
	}

	counter, err := o.meter.Meter("github.com/xenking/shipbridge/internal/ratecache").
		Int64Counter("shipbridge.ratecache.lookups",
			metric.WithDescription("Rate cache lookups by backend and result"))
	if err != nil {
		c.lg.Warn("Rate cache metrics unavailable", zap.Error(err))
		counter, _ = noop.NewMeterProvider().Meter("").Int64Counter("")
	}
	c.lookups = counter
	return c
}

// Backend returns the name of the active backend.
func (c *Cache) Backend() string { return c.name }

// TTL returns the default entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the rates stored under key. Expired entries, backend errors
// and undecodable entries all read as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]shipping.Rate, bool) {
	rates, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.lg.Warn("Rate cache get failed",
			zap.String("backend", c.name),
			zap.String("key", key),
			zap.Error(err),
		)
		c.count(ctx, "error")
		return nil, false
	}
	if !ok {
		c.count(ctx, "miss")
		return nil, false
	}
	c.count(ctx, "hit")
	return rates, true
}

// Set stores rates under key for ttl, or for the cache TTL when ttl is not
// positive.
func (c *Cache) Set(ctx context.Context, key string, rates []shipping.Rate, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if err := c.backend.Set(ctx, key, rates, ttl); err != nil {
		c.lg.Warn("Rate cache set failed",
			zap.String("backend", c.name),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Invalidate removes the entry stored under key.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if err := c.backend.Delete(ctx, key); err != nil {
		c.lg.Warn("Rate cache invalidate failed",
			zap.String("backend", c.name),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Clear removes all cached rates.
func (c *Cache) Clear(ctx context.Context) {
	if err := c.backend.Clear(ctx); err != nil {
		c.lg.Warn("Rate cache clear failed", zap.String("backend", c.name), zap.Error(err))
	}
}

// Ping reports backend reachability for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// Run sweeps expired entries until ctx is done. Backends that expire
// entries on their own make Run a plain wait.
func (c *Cache) Run(ctx context.Context) error {
	s, ok := c.backend.(sweeper)
	if !ok {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				c.lg.Debug("Swept expired rate entries", zap.Int("removed", n))
			}
		}
	}
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}

func (c *Cache) count(ctx context.Context, result string) {
	c.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", c.name),
		attribute.String("result", result),
	))
}
