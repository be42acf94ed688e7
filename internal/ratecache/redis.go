package ratecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

const (
	// DefaultKeyPrefix namespaces rate entries in a shared Redis.
	DefaultKeyPrefix = "shipbridge:rates:"

	scanBatch = 500
)

// Redis is the durable backend shared between service instances.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a backend from a redis:// connection URL. It does not
// contact the server; use Ping for that.
func NewRedis(rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	return NewRedisFromClient(redis.NewClient(opts)), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: DefaultKeyPrefix}
}

func (r *Redis) Get(ctx context.Context, key string) ([]shipping.Rate, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}

	var rates []shipping.Rate
	if err := json.Unmarshal(data, &rates); err != nil {
		return nil, false, errors.Wrap(err, "decode cached rates")
	}
	return rates, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, rates []shipping.Rate, ttl time.Duration) error {
	data, err := json.Marshal(rates)
	if err != nil {
		return errors.Wrap(err, "encode rates")
	}
	if err := r.client.Set(ctx, r.prefix+key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

// Clear removes every key under the backend prefix. Keys written by other
// applications in the same database are left alone.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return errors.Wrap(err, "redis del")
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "redis scan")
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return errors.Wrap(err, "redis del")
		}
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
