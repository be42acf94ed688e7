package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// ErrNotFound is returned when an order does not exist.
var ErrNotFound = errors.New("order not found")

// ErrStatusConflict is returned by UpdateShipping when the stored shipping
// status no longer matches ShippingUpdate.From.
var ErrStatusConflict = errors.New("shipping status changed concurrently")

// ShippingMethod is how the buyer receives the order.
type ShippingMethod string

const (
	MethodShipping ShippingMethod = "shipping"
	MethodPickup   ShippingMethod = "pickup"
)

// Order is the snapshot of an order read for one shipment-creation attempt.
// All money fields are in minor units (cents). The shipping core never
// mutates it; status changes go through Repository.UpdateShipping.
type Order struct {
	ID              string
	ShippingMethod  ShippingMethod
	ShippingAddress *shipping.Address
	Items           []LineItem
	SelectedRate    *SelectedRate
	Currency        string
	Subtotal        *int64
	Total           *int64
	ShippingCost    *int64
	Notes           string

	ShippingStatus shipping.Status
	ShipmentID     string
	ShippingNote   string
	UpdatedAt      time.Time
}

// LineItem is one product line of an order.
type LineItem struct {
	ProductID    string
	VariantID    string
	ProductTitle string
	VariantTitle string
	SKU          string
	Quantity     int
	Weight       *shipping.Weight
	UnitPrice    *int64
}

// SelectedRate is the rate the buyer chose at checkout.
type SelectedRate struct {
	CarrierID   string
	ServiceCode string
	Cost        *int64
}

// ShippingUpdate is a status change to persist for an order. The write
// only applies while the stored status still equals From.
type ShippingUpdate struct {
	From       shipping.Status
	Status     shipping.Status
	ShipmentID string
	Note       string
}

// Reader resolves orders by identifier.
type Reader interface {
	Get(ctx context.Context, id string) (*Order, error)
}

// Repository defines persistence operations for order shipping state.
type Repository interface {
	Reader
	FindByShipmentID(ctx context.Context, shipmentID string) (*Order, error)
	UpdateShipping(ctx context.Context, id string, upd ShippingUpdate) error
}
