// Package rates implements rate lookup: cache first, provider on a miss.
package rates

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/shipbridge/internal/domain/shipping"
	"github.com/xenking/shipbridge/internal/ratecache"
)

// sharedLookupTimeout bounds a cache-miss lookup shared by concurrent
// callers.
const sharedLookupTimeout = 2 * time.Minute

// Provider is the subset of the provider client used for rate lookups.
type Provider interface {
	GetRates(ctx context.Context, criteria shipping.RateCriteria) []shipping.Rate
	ListCarriers(ctx context.Context) ([]shipping.Carrier, error)
}

// Cache is the subset of ratecache.Cache used here.
type Cache interface {
	Get(ctx context.Context, key string) ([]shipping.Rate, bool)
	Set(ctx context.Context, key string, rates []shipping.Rate, ttl time.Duration)
}

var _ Cache = (*ratecache.Cache)(nil)

// Config holds lookup defaults.
type Config struct {
	// CarrierIDs are quoted when the criteria names none. Empty means every
	// carrier connected to the provider account.
	CarrierIDs []string
	// WarehouseID is the origin when the criteria names none.
	WarehouseID string
	// TTL overrides the cache default when positive.
	TTL time.Duration
}

// Service looks up rates. Like the provider call underneath, it never
// fails: every problem ends as an empty slice and a log line.
type Service struct {
	provider Provider
	cache    Cache
	cfg      Config
	lg       *zap.Logger
	group    singleflight.Group
}

// NewService creates a rate lookup service.
func NewService(p Provider, c Cache, cfg Config, lg *zap.Logger) *Service {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Service{provider: p, cache: c, cfg: cfg, lg: lg}
}

// Lookup returns rates for criteria. Requests naming their own carriers or
// an origin other than the default warehouse bypass the cache, since
// neither is part of the cache key.
func (s *Service) Lookup(ctx context.Context, criteria shipping.RateCriteria) []shipping.Rate {
	criteria, err := criteria.Normalize()
	if err != nil {
		s.lg.Warn("Invalid rate criteria", zap.Error(err))
		return []shipping.Rate{}
	}
	// The cache key is built from the rounded weight, so quote that weight.
	criteria.Weight.Value = shipping.RoundWeight(criteria.Weight.Value)
	if criteria.ShipFrom == nil && criteria.WarehouseID == "" {
		criteria.WarehouseID = s.cfg.WarehouseID
	}

	if len(criteria.CarrierIDs) > 0 {
		return s.provider.GetRates(ctx, criteria)
	}
	if criteria.ShipFrom != nil || criteria.WarehouseID != s.cfg.WarehouseID {
		criteria.CarrierIDs = s.carriers(ctx)
		return s.provider.GetRates(ctx, criteria)
	}

	key, err := ratecache.KeyFor(criteria)
	if err != nil {
		s.lg.Warn("Rate cache key", zap.Error(err))
		return []shipping.Rate{}
	}
	if rates, ok := s.cache.Get(ctx, key); ok {
		return rates
	}

	// The shared call outlives any single caller: it runs detached from the
	// first caller's cancellation, bounded by sharedLookupTimeout, and each
	// caller stops waiting when its own context ends.
	ch := s.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		criteria.CarrierIDs = s.carriers(ctx)
		rates := s.provider.GetRates(ctx, criteria)
		if len(rates) > 0 {
			s.cache.Set(ctx, key, rates, s.cfg.TTL)
		}
		return rates, nil
	})

	select {
	case <-ctx.Done():
		return []shipping.Rate{}
	case res := <-ch:
		rates, _ := res.Val.([]shipping.Rate)
		if rates == nil {
			return []shipping.Rate{}
		}
		return slices.Clone(rates)
	}
}

func (s *Service) carriers(ctx context.Context) []string {
	if len(s.cfg.CarrierIDs) > 0 {
		return s.cfg.CarrierIDs
	}
	carriers, err := s.provider.ListCarriers(ctx)
	if err != nil {
		s.lg.Warn("List carriers for rate lookup", zap.Error(err))
		return nil
	}
	ids := make([]string, 0, len(carriers))
	for _, c := range carriers {
		ids = append(ids, c.CarrierID)
	}
	return ids
}
