// Package shipment turns orders into provider shipments.
//
// Builder validates an order and maps it to a canonical shipment request
// without touching the network. Orchestrator sends the request and reports
// a uniform Result. Dispatcher is the caller that owns the idempotency guard
// and persists the resulting shipping status.
package shipment

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// defaultItemName is used for line items without any title.
const defaultItemName = "Item"

// Reason classifies a validation failure.
type Reason string

const (
	ReasonNotForShipping         Reason = "not_for_shipping"
	ReasonMissingAddress         Reason = "missing_address_fields"
	ReasonWarehouseNotConfigured Reason = "warehouse_not_configured"
	ReasonInvalidWeight          Reason = "invalid_item_weight"
)

// Sentinel errors matched by ValidationError.Is.
var (
	ErrNotForShipping         = errors.New("order is not flagged for shipping")
	ErrMissingAddress         = errors.New("missing required address fields")
	ErrWarehouseNotConfigured = errors.New("warehouse not configured")
	ErrInvalidWeight          = errors.New("invalid item weight")
)

var reasonErrors = map[Reason]error{
	ReasonNotForShipping:         ErrNotForShipping,
	ReasonMissingAddress:         ErrMissingAddress,
	ReasonWarehouseNotConfigured: ErrWarehouseNotConfigured,
	ReasonInvalidWeight:          ErrInvalidWeight,
}

// ValidationError is a local, pre-network failure to build a request.
type ValidationError struct {
	Reason Reason
	// Fields names the offending address fields or line items.
	Fields []string
}

func (e *ValidationError) Error() string {
	msg := reasonErrors[e.Reason].Error()
	if len(e.Fields) > 0 {
		msg += ": " + strings.Join(e.Fields, ", ")
	}
	return msg
}

// Is matches the sentinel for the failure reason.
func (e *ValidationError) Is(target error) bool {
	return reasonErrors[e.Reason] == target
}

// BuildResult is the outcome of Builder.Build. Exactly one of Request and
// Err is set.
type BuildResult struct {
	Request *shipping.ShipmentRequest
	Err     *ValidationError
}

// OK reports whether a request was built.
func (r BuildResult) OK() bool { return r.Err == nil }

// Warehouses lists the warehouse id sources below an explicit override, in
// priority order.
type Warehouses struct {
	// Environment is the deployment-level default.
	Environment string
	// Configured is the service configuration value.
	Configured string
}

// Resolve returns the first non-empty of override, Environment and
// Configured.
func (w Warehouses) Resolve(override string) string {
	for _, id := range []string{override, w.Environment, w.Configured} {
		if id = strings.TrimSpace(id); id != "" {
			return id
		}
	}
	return ""
}

// Builder maps orders to shipment requests. It is stateless.
type Builder struct {
	warehouses Warehouses
}

// NewBuilder creates a Builder.
func NewBuilder(w Warehouses) *Builder {
	return &Builder{warehouses: w}
}

// Build validates o and maps it to a shipment request. Checks run in a
// fixed order: shipping method, then address, then warehouse.
func (b *Builder) Build(ctx context.Context, o *order.Order, warehouseOverride string) BuildResult {
	fail := func(reason Reason, fields ...string) BuildResult {
		return BuildResult{Err: &ValidationError{Reason: reason, Fields: fields}}
	}

	if o.ShippingMethod != order.MethodShipping {
		return fail(ReasonNotForShipping)
	}
	if missing := o.ShippingAddress.MissingFields(); len(missing) > 0 {
		return fail(ReasonMissingAddress, missing...)
	}
	warehouseID := b.warehouses.Resolve(warehouseOverride)
	if warehouseID == "" {
		return fail(ReasonWarehouseNotConfigured)
	}

	items, totalKg, bad := mapItems(o)
	if len(bad) > 0 {
		return fail(ReasonInvalidWeight, bad...)
	}

	req := &shipping.ShipmentRequest{
		ExternalOrderID: o.ID,
		WarehouseID:     warehouseID,
		ShipTo:          *o.ShippingAddress,
		Items:           items,
		Notes:           o.Notes,
	}
	if o.SelectedRate != nil {
		req.CarrierID = o.SelectedRate.CarrierID
		req.ServiceCode = o.SelectedRate.ServiceCode
	}
	if totalKg > 0 {
		req.Packages = []shipping.Package{{
			Weight: shipping.Weight{Value: totalKg, Unit: shipping.Kilogram},
		}}
	} else {
		zctx.From(ctx).Warn("Order has no item weights, sending shipment without packages",
			zap.String("order_id", o.ID))
	}
	if o.Total != nil {
		paid := shipping.MinorToMajor(*o.Total, o.Currency)
		req.AmountPaid = &paid
	}
	if cents, ok := ShippingPaid(o); ok {
		paid := shipping.MinorToMajor(cents, o.Currency)
		req.ShippingPaid = &paid
	} else {
		zctx.From(ctx).Warn("No shipping amount paid for order", zap.String("order_id", o.ID))
	}

	return BuildResult{Request: req}
}

// mapItems converts line items and sums their weight in kilograms. Items
// without weight contribute nothing. It returns the titles of items whose
// weight is unusable.
func mapItems(o *order.Order) (items []shipping.ShipmentItem, totalKg float64, bad []string) {
	for _, li := range o.Items {
		it := shipping.ShipmentItem{
			Name:     itemName(li),
			SKU:      li.SKU,
			Quantity: li.Quantity,
		}
		if li.UnitPrice != nil {
			price := shipping.MinorToMajor(*li.UnitPrice, o.Currency)
			it.UnitPrice = &price
		}
		if w := li.Weight; w != nil && w.Value != 0 {
			norm, err := w.Normalize()
			if err != nil || w.Value < 0 {
				bad = append(bad, fmt.Sprintf("%s (%v %s)", it.Name, w.Value, w.Unit))
				continue
			}
			kg, _ := norm.Kilograms()
			it.Weight = &norm
			if li.Quantity > 0 {
				totalKg += kg * float64(li.Quantity)
			}
		}
		items = append(items, it)
	}
	return items, shipping.RoundWeight(totalKg), bad
}

func itemName(li order.LineItem) string {
	for _, name := range []string{li.VariantTitle, li.ProductTitle} {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return defaultItemName
}

// ShippingPaid resolves the shipping amount the buyer paid, in minor units:
// the explicit shipping cost, else the selected rate cost, else total minus
// subtotal when the total is larger. ok is false when none applies.
func ShippingPaid(o *order.Order) (cents int64, ok bool) {
	switch {
	case o.ShippingCost != nil:
		return *o.ShippingCost, true
	case o.SelectedRate != nil && o.SelectedRate.Cost != nil:
		return *o.SelectedRate.Cost, true
	case o.Total != nil && o.Subtotal != nil && *o.Total > *o.Subtotal:
		return *o.Total - *o.Subtotal, true
	}
	return 0, false
}
