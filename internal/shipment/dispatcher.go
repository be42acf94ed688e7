package shipment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/domain/shipping"
)

var (
	// ErrAlreadyShipped guards against creating a second provider shipment
	// for an order.
	ErrAlreadyShipped = errors.New("order already has a shipment")
	// ErrNotPending is returned when the order's shipping status does not
	// allow a new shipment attempt.
	ErrNotPending = errors.New("order shipping status is not pending")
)

// Dispatcher runs the orchestrator on behalf of its two callers, the
// automatic order-placed hook and the direct API trigger, and persists the
// outcome.
type Dispatcher struct {
	orders order.Repository
	orch   *Orchestrator
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(orders order.Repository, orch *Orchestrator) *Dispatcher {
	return &Dispatcher{orders: orders, orch: orch}
}

// OrderPlaced is the automatic hook. Pickup orders, orders that already
// have a shipment and orders past pending are skipped with a nil error and
// a zero Result. A failed attempt moves the order to manual review.
func (d *Dispatcher) OrderPlaced(ctx context.Context, orderID string) (Result, error) {
	lg := zctx.From(ctx).With(zap.String("order_id", orderID))

	o, err := d.orders.Get(ctx, orderID)
	if err != nil {
		return Result{}, errors.Wrap(err, "load order")
	}
	switch {
	case o.ShippingMethod != order.MethodShipping:
		lg.Debug("Skipping automatic shipment for non-shipping order")
		return Result{}, nil
	case o.ShipmentID != "":
		lg.Debug("Skipping automatic shipment, order already shipped", zap.String("shipment_id", o.ShipmentID))
		return Result{}, nil
	case o.ShippingStatus.OrPending() != shipping.StatusPending:
		lg.Debug("Skipping automatic shipment", zap.String("status", string(o.ShippingStatus)))
		return Result{}, nil
	}

	res := d.orch.Create(ctx, Request{OrderID: o.ID, Order: o})
	if res.Success {
		return res, d.persist(ctx, o, shipping.StatusPending, order.ShippingUpdate{
			Status:     shipping.StatusProcessing,
			ShipmentID: res.ShipmentID,
		})
	}

	lg.Warn("Automatic shipment failed, flagging for manual review",
		zap.String("failure", string(res.Failure)),
		zap.String("error", res.Error),
	)
	res.Status = shipping.StatusManualReview
	return res, d.persist(ctx, o, shipping.StatusPending, order.ShippingUpdate{
		Status: shipping.StatusManualReview,
		Note:   res.Error,
	})
}

// Trigger is the direct API entry point. Unlike OrderPlaced it reports
// guard violations as errors and leaves the order untouched on failure, so
// the caller decides what to do next. Orders in manual review re-enter the
// flow as pending.
func (d *Dispatcher) Trigger(ctx context.Context, orderID, warehouseID string) (Result, error) {
	o, err := d.orders.Get(ctx, orderID)
	if err != nil {
		return Result{}, errors.Wrap(err, "load order")
	}
	if o.ShipmentID != "" {
		return Result{ShipmentID: o.ShipmentID, Status: o.ShippingStatus}, ErrAlreadyShipped
	}

	from := o.ShippingStatus.OrPending()
	if from == shipping.StatusManualReview {
		if from, err = shipping.Transition(from, shipping.StatusPending); err != nil {
			return Result{}, err
		}
	}
	if from != shipping.StatusPending {
		return Result{Status: from}, errors.Wrapf(ErrNotPending, "status %s", from)
	}

	res := d.orch.Create(ctx, Request{OrderID: o.ID, Order: o, WarehouseID: warehouseID})
	if !res.Success {
		return res, nil
	}
	return res, d.persist(ctx, o, from, order.ShippingUpdate{
		Status:     shipping.StatusProcessing,
		ShipmentID: res.ShipmentID,
	})
}

// persist validates the move from from to upd.Status and writes it only
// while the stored status is still the one o was read with.
func (d *Dispatcher) persist(ctx context.Context, o *order.Order, from shipping.Status, upd order.ShippingUpdate) error {
	if _, err := shipping.Transition(from, upd.Status); err != nil {
		return err
	}
	upd.From = o.ShippingStatus.OrPending()
	if err := d.orders.UpdateShipping(ctx, o.ID, upd); err != nil {
		return errors.Wrapf(err, "persist shipping status %s", upd.Status)
	}
	return nil
}
