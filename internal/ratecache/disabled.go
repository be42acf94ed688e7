package ratecache

import (
	"context"
	"time"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// Disabled caches nothing. Every Get is a miss.
type Disabled struct{}

func (Disabled) Get(context.Context, string) ([]shipping.Rate, bool, error) { return nil, false, nil }

func (Disabled) Set(context.Context, string, []shipping.Rate, time.Duration) error { return nil }

func (Disabled) Delete(context.Context, string) error { return nil }

func (Disabled) Clear(context.Context) error { return nil }

func (Disabled) Ping(context.Context) error { return nil }

func (Disabled) Close() error { return nil }
