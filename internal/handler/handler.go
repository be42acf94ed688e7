// Package handler exposes the shipping integration over HTTP with chi.
package handler

import (
	"context"

	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/domain/shipping"
	"github.com/xenking/shipbridge/internal/provider"
	"github.com/xenking/shipbridge/internal/rates"
	"github.com/xenking/shipbridge/internal/shipment"
	"github.com/xenking/shipbridge/internal/webhook"
)

// RateLookup quotes rates. It never fails; an empty slice means no quote.
type RateLookup interface {
	Lookup(ctx context.Context, criteria shipping.RateCriteria) []shipping.Rate
}

// Provider is the subset of provider operations proxied to operators.
type Provider interface {
	ValidateAddress(ctx context.Context, addr shipping.Address) shipping.AddressValidation
	ListCarriers(ctx context.Context) ([]shipping.Carrier, error)
	GetCarrier(ctx context.Context, id string) (*shipping.Carrier, error)
	ListCarrierServices(ctx context.Context, id string) ([]shipping.CarrierService, error)
	GetShipment(ctx context.Context, id string) (*shipping.Shipment, error)
	CancelShipment(ctx context.Context, id string) (*shipping.CancelResult, error)
}

// Shipments runs shipment creation for the two caller paths.
type Shipments interface {
	OrderPlaced(ctx context.Context, orderID string) (shipment.Result, error)
	Trigger(ctx context.Context, orderID, warehouseID string) (shipment.Result, error)
}

// OrderLister lists orders by shipping status.
type OrderLister interface {
	ListByShippingStatus(ctx context.Context, status shipping.Status, limit int) ([]order.Order, error)
}

// EventApplier applies verified provider webhook events.
type EventApplier interface {
	Apply(ctx context.Context, ev webhook.Event) (webhook.Outcome, error)
}

var (
	_ RateLookup   = (*rates.Service)(nil)
	_ Provider     = (*provider.Client)(nil)
	_ Shipments    = (*shipment.Dispatcher)(nil)
	_ EventApplier = (*webhook.Processor)(nil)
)

// Config holds non-dependency handler settings.
type Config struct {
	// WebhookSecret signs provider webhooks. Empty rejects every delivery.
	WebhookSecret []byte
	// MaxWebhookBytes caps the webhook body size.
	MaxWebhookBytes int64
}

const defaultMaxWebhookBytes = 1 << 20

// Handler serves the HTTP API.
type Handler struct {
	rates     RateLookup
	provider  Provider
	shipments Shipments
	orders    OrderLister
	events    EventApplier

	webhookSecret   []byte
	maxWebhookBytes int64
}

// New creates a Handler.
func New(
	cfg Config,
	rateLookup RateLookup,
	p Provider,
	s Shipments,
	orders OrderLister,
	events EventApplier,
) *Handler {
	if cfg.MaxWebhookBytes <= 0 {
		cfg.MaxWebhookBytes = defaultMaxWebhookBytes
	}
	return &Handler{
		rates:           rateLookup,
		provider:        p,
		shipments:       s,
		orders:          orders,
		events:          events,
		webhookSecret:   cfg.WebhookSecret,
		maxWebhookBytes: cfg.MaxWebhookBytes,
	}
}
