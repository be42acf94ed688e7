package webhook

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// Outcome describes what Apply did with an event.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeRejected  Outcome = "rejected"
)

// Processor applies verified events to order shipping status.
type Processor struct {
	orders order.Repository
}

// NewProcessor creates a Processor.
func NewProcessor(orders order.Repository) *Processor {
	return &Processor{orders: orders}
}

// maxConflictRetries bounds how often Apply re-reads an order whose status
// changed between the read and the write.
const maxConflictRetries = 3

// Apply moves the order owning the event's shipment to the reported
// status. Repeated events are no-ops. Transitions the state machine does
// not allow, such as a late in-transit event after delivery, are rejected
// without error so the provider does not redeliver them. The write is
// conditional on the status the transition was checked against; when a
// concurrent event wins, Apply re-reads the order and checks again.
func (p *Processor) Apply(ctx context.Context, ev Event) (Outcome, error) {
	to, err := ev.Status()
	if err != nil {
		return "", err
	}

	for attempt := 0; ; attempt++ {
		outcome, err := p.apply(ctx, ev, to)
		if !errors.Is(err, order.ErrStatusConflict) || attempt >= maxConflictRetries {
			return outcome, err
		}
		zctx.From(ctx).Debug("Shipping status changed concurrently, retrying",
			zap.String("shipment_id", ev.Data.ShipmentID),
			zap.Int("attempt", attempt+1),
		)
	}
}

func (p *Processor) apply(ctx context.Context, ev Event, to shipping.Status) (Outcome, error) {
	lg := zctx.From(ctx).With(
		zap.String("event", ev.Type),
		zap.String("shipment_id", ev.Data.ShipmentID),
	)

	o, err := p.orders.FindByShipmentID(ctx, ev.Data.ShipmentID)
	if err != nil {
		return "", errors.Wrap(err, "find order by shipment")
	}

	from := o.ShippingStatus.OrPending()
	if from == to {
		return OutcomeUnchanged, nil
	}
	if !shipping.CanTransition(from, to) {
		lg.Info("Ignoring out-of-order shipping event",
			zap.String("order_id", o.ID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return OutcomeRejected, nil
	}

	if err := p.orders.UpdateShipping(ctx, o.ID, order.ShippingUpdate{
		From:       from,
		Status:     to,
		ShipmentID: o.ShipmentID,
		Note:       ev.Data.StatusDescription,
	}); err != nil {
		return "", errors.Wrap(err, "update shipping status")
	}
	lg.Info("Shipping status updated",
		zap.String("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return OutcomeUpdated, nil
}
