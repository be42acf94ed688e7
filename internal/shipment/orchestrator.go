package shipment

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/domain/shipping"
	"github.com/xenking/shipbridge/internal/provider"
)

// Creator is the provider operation the orchestrator depends on.
type Creator interface {
	CreateShipment(ctx context.Context, req shipping.ShipmentRequest) (*shipping.ShipmentResponse, error)
}

var _ Creator = (*provider.Client)(nil)

// Failure classifies why an orchestration attempt did not produce a
// shipment.
type Failure string

const (
	FailureNone       Failure = ""
	FailureLookup     Failure = "order_lookup"
	FailureValidation Failure = "validation"
	FailureProvider   Failure = "provider"
	FailureRejected   Failure = "rejected"
)

// Request identifies the order to ship. Order may be pre-fetched; when nil
// it is resolved by OrderID.
type Request struct {
	OrderID     string
	Order       *order.Order
	WarehouseID string
}

// Result is the uniform outcome of Orchestrator.Create. On success Status
// is processing and ShipmentID is set; on failure Error describes why.
type Result struct {
	Success    bool
	ShipmentID string
	Status     shipping.Status
	Error      string
	Failure    Failure
	// Cause is the underlying error for lookup, validation and provider
	// failures.
	Cause error
}

func failed(kind Failure, err error) Result {
	return Result{Failure: kind, Error: err.Error(), Cause: err}
}

// Orchestrator sequences build, send and interpretation for one order.
// It does not check whether the order was already shipped and does not
// persist anything; see Dispatcher.
type Orchestrator struct {
	builder *Builder
	creator Creator
	orders  order.Reader
}

// NewOrchestrator creates an Orchestrator. orders may be nil when callers
// always pass pre-fetched orders.
func NewOrchestrator(b *Builder, c Creator, orders order.Reader) *Orchestrator {
	return &Orchestrator{builder: b, creator: c, orders: orders}
}

// Create builds and submits a shipment. It never returns an error: every
// failure, including a provider response whose shipment carries errors, is
// reported as Result{Success: false}.
func (o *Orchestrator) Create(ctx context.Context, req Request) Result {
	lg := zctx.From(ctx).With(zap.String("order_id", req.OrderID))

	ord := req.Order
	if ord == nil {
		if o.orders == nil {
			return failed(FailureLookup, errors.New("no order supplied and no order reader configured"))
		}
		var err error
		if ord, err = o.orders.Get(ctx, req.OrderID); err != nil {
			lg.Error("Load order for shipment", zap.Error(err))
			return failed(FailureLookup, errors.Wrap(err, "load order"))
		}
	}

	built := o.builder.Build(ctx, ord, req.WarehouseID)
	if !built.OK() {
		lg.Error("Shipment validation failed", zap.Error(built.Err))
		return failed(FailureValidation, built.Err)
	}

	resp, err := o.creator.CreateShipment(ctx, *built.Request)
	if err != nil {
		lg.Error("Create shipment failed", zap.Error(err))
		return failed(FailureProvider, err)
	}

	if err := checkResponse(resp); err != nil {
		lg.Error("Provider rejected shipment", zap.Error(err))
		return Result{Failure: FailureRejected, Error: err.Error()}
	}

	id := resp.Shipments[0].ShipmentID
	lg.Info("Shipment created", zap.String("shipment_id", id))
	return Result{
		Success:    true,
		ShipmentID: id,
		Status:     shipping.StatusProcessing,
	}
}

// checkResponse applies the business-level success rules to a response
// that arrived with a 2xx status.
func checkResponse(resp *shipping.ShipmentResponse) error {
	if resp == nil || len(resp.Shipments) == 0 {
		return errors.New("provider returned no shipments")
	}
	s := resp.Shipments[0]
	if len(s.Errors) > 0 {
		return errors.Errorf("provider reported shipment errors: %s", strings.Join(s.Errors, "; "))
	}
	if resp.HasErrors {
		return errors.New("provider reported errors for the shipment batch")
	}
	if s.ShipmentID == "" {
		return errors.New("provider returned a shipment without an id")
	}
	return nil
}
