package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/shipbridge/internal/domain/auth"
	"github.com/xenking/shipbridge/internal/handler"
	"github.com/xenking/shipbridge/internal/provider"
	"github.com/xenking/shipbridge/internal/ratecache"
	"github.com/xenking/shipbridge/internal/rates"
	"github.com/xenking/shipbridge/internal/shipment"
	"github.com/xenking/shipbridge/internal/storage/postgres"
	"github.com/xenking/shipbridge/internal/webhook"
	"github.com/xenking/shipbridge/pkg/health"
	"github.com/xenking/shipbridge/pkg/httpmiddleware"
)

const serviceName = "shipbridge"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application. m is
// usually the *app.Telemetry handed out by the go-faster/sdk runner.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("provider", cfg.ProviderClient().Endpoint()),
	)

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	orderRepo := postgres.NewOrderRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Provider client and rate cache.
	client, err := provider.New(cfg.ProviderClient(),
		provider.WithLogger(lg.Named("provider")),
		provider.WithMeterProvider(m.MeterProvider()),
		provider.WithTracerProvider(m.TracerProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create provider client")
	}

	cache := ratecache.New(ctx, cfg.RateCache(),
		ratecache.WithLogger(lg.Named("ratecache")),
		ratecache.WithMeterProvider(m.MeterProvider()),
	)
	defer func() { _ = cache.Close() }()

	// Domain services.
	rateSvc := rates.NewService(client, cache, rates.Config{
		CarrierIDs:  cfg.Provider.CarrierIDs,
		WarehouseID: cfg.Warehouses().Resolve(""),
		TTL:         cfg.Cache.TTL,
	}, lg.Named("rates"))
	orchestrator := shipment.NewOrchestrator(shipment.NewBuilder(cfg.Warehouses()), client, orderRepo)
	dispatcher := shipment.NewDispatcher(orderRepo, orchestrator)
	events := webhook.NewProcessor(orderRepo)
	if cfg.Webhook.Secret == "" {
		lg.Warn("Webhook secret not configured, provider webhooks will be rejected")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddReadinessCheck("ratecache", 5*time.Second, health.PingCheck(cache), health.NonCritical())
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second), health.NonCritical())
	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()

	h := handler.New(
		handler.Config{WebhookSecret: []byte(cfg.Webhook.Secret)},
		rateSvc,
		client,
		dispatcher,
		orderRepo,
		events,
	)

	routerCfg := handler.RouterConfig{
		Service:   serviceName,
		Logger:    zctx.From(ctx),
		Auth:      auth.NewAuthenticator(apikeyRepo, []byte(cfg.APIKeyPepper)),
		Health:    healthSvc,
		Telemetry: m,
		CORS: httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", handler.APIKeyHeader, httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		},
	}
	if cfg.RateLimit.RPS > 0 {
		routerCfg.RateLimit = httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			RPS:     cfg.RateLimit.RPS,
			Burst:   cfg.RateLimit.Burst,
			KeyFunc: httpmiddleware.HeaderOrIP(handler.APIKeyHeader),
		})
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Shipment creation may retry the provider several times.
		WriteTimeout:   2 * time.Minute,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler:        handler.NewRouter(h, routerCfg),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cache.Run(gctx)
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	healthSvc.SetReady(true)
	return g.Wait()
}
