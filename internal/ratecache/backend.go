package ratecache

import (
	"context"
	"time"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// Backend stores rate lists under opaque keys. Implementations must be safe
// for concurrent use. A miss is reported as ok=false with a nil error.
type Backend interface {
	Get(ctx context.Context, key string) (rates []shipping.Rate, ok bool, err error)
	Set(ctx context.Context, key string, rates []shipping.Rate, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names reported by Cache.Backend.
const (
	BackendRedis    = "redis"
	BackendMemory   = "memory"
	BackendDisabled = "disabled"
)

// sweeper is implemented by backends that need periodic eviction.
type sweeper interface {
	Sweep() int
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*Redis)(nil)
	_ Backend = Disabled{}
	_ sweeper = (*Memory)(nil)
)
