package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/auth"
	"github.com/xenking/shipbridge/pkg/health"
	"github.com/xenking/shipbridge/pkg/httpmiddleware"
)

// RouterConfig holds the cross-cutting pieces of the HTTP surface.
type RouterConfig struct {
	Service string
	Logger  *zap.Logger
	Auth    *auth.Authenticator
	Health  *health.Health
	// Telemetry enables otelhttp instrumentation when set.
	Telemetry httpmiddleware.Telemetry
	CORS      httpmiddleware.CORSConfig
	// RateLimit applies to /api routes when set.
	RateLimit httpmiddleware.Middleware
}

// NewRouter mounts the probes, the API key protected /api routes and the
// signature verified provider webhook.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.LogRequests(),
		httpmiddleware.Labeler(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if cfg.Health != nil {
		r.Get("/livez", cfg.Health.LiveEndpoint)
		r.Get("/readyz", cfg.Health.ReadyEndpoint)
	}

	r.Post("/webhooks/shipping", h.ShippingWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Use(httpmiddleware.CORS(cfg.CORS))
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}

		r.Group(func(r chi.Router) {
			r.Use(RequireScope(cfg.Auth, auth.ScopeRead))
			r.Post("/rates", h.GetRates)
			r.Post("/addresses/validate", h.ValidateAddress)
			r.Get("/carriers", h.ListCarriers)
			r.Get("/carriers/{id}", h.GetCarrier)
			r.Get("/carriers/{id}/services", h.ListCarrierServices)
			r.Get("/shipments/{id}", h.GetShipment)
			r.Get("/orders", h.ListOrders)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireScope(cfg.Auth, auth.ScopeWrite))
			r.Post("/orders/{id}/shipment", h.TriggerShipment)
			r.Post("/hooks/order-placed", h.OrderPlaced)
			r.Put("/shipments/{id}/cancel", h.CancelShipment)
			r.Post("/shipments/{id}/cancel", h.CancelShipment)
		})
	})

	if cfg.Telemetry == nil {
		return r
	}
	return httpmiddleware.Wrap(r, httpmiddleware.Instrument(cfg.Service, cfg.Telemetry))
}
