package provider

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// idempotencyNamespace scopes idempotency keys derived from order ids.
var idempotencyNamespace = uuid.MustParse("5b0c3c1e-8f8e-4c55-9d43-0e1f6c1a7a21")

// IdempotencyKey derives the create-shipment idempotency key for an order.
// The same order always maps to the same key, so a create retried after a
// lost response cannot produce a second shipment.
func IdempotencyKey(externalOrderID string) string {
	return uuid.NewSHA1(idempotencyNamespace, []byte(externalOrderID)).String()
}

// CreateShipment creates a single shipment. A response whose shipment
// carries errors is still returned without error; interpreting it is the
// caller's job.
func (c *Client) CreateShipment(ctx context.Context, req shipping.ShipmentRequest) (*shipping.ShipmentResponse, error) {
	cl := call{
		op:     "create_shipment",
		method: http.MethodPost,
		path:   "/v1/shipments",
		in:     wireCreateShipmentsRequest{Shipments: []wireShipmentRequest{toWireShipment(req)}},
	}
	if req.ExternalOrderID != "" {
		cl.headers = map[string]string{headerIdempotencyKey: IdempotencyKey(req.ExternalOrderID)}
	}

	var resp wireCreateShipmentsResponse
	cl.out = &resp
	if err := c.do(ctx, cl); err != nil {
		return nil, errors.Wrap(err, "create shipment")
	}

	out := &shipping.ShipmentResponse{HasErrors: resp.HasErrors}
	for _, s := range resp.Shipments {
		out.Shipments = append(out.Shipments, fromWireShipment(s))
	}
	return out, nil
}

// GetShipment fetches a shipment by provider id.
func (c *Client) GetShipment(ctx context.Context, id string) (*shipping.Shipment, error) {
	if id == "" {
		return nil, errors.New("get shipment: empty shipment id")
	}
	var resp wireShipment
	err := c.do(ctx, call{
		op:     "get_shipment",
		method: http.MethodGet,
		path:   "/v1/shipments/" + url.PathEscape(id),
		out:    &resp,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get shipment %s", id)
	}
	s := fromWireShipment(resp)
	return &s, nil
}

// CancelShipment cancels a shipment. The provider answers 204 on success.
func (c *Client) CancelShipment(ctx context.Context, id string) (*shipping.CancelResult, error) {
	if id == "" {
		return nil, errors.New("cancel shipment: empty shipment id")
	}
	err := c.do(ctx, call{
		op:     "cancel_shipment",
		method: http.MethodPut,
		path:   "/v1/shipments/" + url.PathEscape(id) + "/cancel",
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cancel shipment %s", id)
	}
	return &shipping.CancelResult{Success: true}, nil
}
