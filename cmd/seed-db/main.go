package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/db"
	"github.com/xenking/shipbridge/internal/domain/auth"
	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/storage/postgres"
)

const (
	defaultKeyName = "Default operator key"
)

func main() {
	var (
		databaseURL  string
		ordersFile   string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&ordersFile, "orders-file", "", "path to an orders JSON file (default: embedded demo orders)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or SHIPPING_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SHIPPING_API_KEY_PEPPER env)")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	if apiKey == "" {
		apiKey = os.Getenv("SHIPPING_SEED_API_KEY")
	}
	if apiKey == "" {
		lg.Fatal("API key is required: set --api-key or SHIPPING_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SHIPPING_API_KEY_PEPPER")
	}

	data := db.SeedOrders
	if ordersFile != "" {
		if data, err = os.ReadFile(ordersFile); err != nil {
			lg.Fatal("Read orders file", zap.String("path", ordersFile), zap.Error(err))
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, data, apiKey, apiKeyPepper); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string, ordersJSON []byte, apiKey, pepper string) error {
	orders, err := parseOrders(ordersJSON)
	if err != nil {
		return errors.Wrap(err, "parse orders")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedOrders(ctx, lg, postgres.NewOrderRepository(pool), orders); err != nil {
		return errors.Wrap(err, "seed orders")
	}

	id, err := postgres.NewAPIKeyRepository(pool).Upsert(ctx,
		auth.Hash([]byte(pepper), apiKey), defaultKeyName, []string{auth.ScopeWrite})
	if err != nil {
		return errors.Wrap(err, "upsert api key")
	}
	lg.Info("Upserted API key", zap.String("id", id), zap.String("name", defaultKeyName))
	return nil
}

type orderStore interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	Create(ctx context.Context, o *order.Order) error
}

// seedOrders inserts orders that do not exist yet. Existing orders keep
// their shipping state so re-seeding never resets a shipped order.
func seedOrders(ctx context.Context, lg *zap.Logger, store orderStore, orders []*order.Order) error {
	var created int
	for _, o := range orders {
		_, err := store.Get(ctx, o.ID)
		switch {
		case err == nil:
			lg.Debug("Order exists, skipping", zap.String("order_id", o.ID))
			continue
		case !errors.Is(err, order.ErrNotFound):
			return errors.Wrapf(err, "get order %s", o.ID)
		}
		if err := store.Create(ctx, o); err != nil {
			return errors.Wrapf(err, "create order %s", o.ID)
		}
		created++
		lg.Info("Created order", zap.String("order_id", o.ID), zap.Int("items", len(o.Items)))
	}
	lg.Info("Seeded orders", zap.Int("created", created), zap.Int("total", len(orders)))
	return nil
}
