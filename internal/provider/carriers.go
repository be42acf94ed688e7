package provider

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// ListCarriers returns the carrier accounts connected to the provider.
func (c *Client) ListCarriers(ctx context.Context) ([]shipping.Carrier, error) {
	var resp wireCarriersResponse
	err := c.do(ctx, call{
		op:     "list_carriers",
		method: http.MethodGet,
		path:   "/v1/carriers",
		out:    &resp,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list carriers")
	}
	carriers := make([]shipping.Carrier, 0, len(resp.Carriers))
	for _, wc := range resp.Carriers {
		carriers = append(carriers, fromWireCarrier(wc))
	}
	return carriers, nil
}

// GetCarrier returns one carrier account.
func (c *Client) GetCarrier(ctx context.Context, id string) (*shipping.Carrier, error) {
	var resp wireCarrier
	err := c.do(ctx, call{
		op:     "get_carrier",
		method: http.MethodGet,
		path:   "/v1/carriers/" + url.PathEscape(id),
		out:    &resp,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get carrier %s", id)
	}
	carrier := fromWireCarrier(resp)
	return &carrier, nil
}

// ListCarrierServices returns the service levels a carrier offers.
func (c *Client) ListCarrierServices(ctx context.Context, id string) ([]shipping.CarrierService, error) {
	var resp wireServicesResponse
	err := c.do(ctx, call{
		op:     "list_carrier_services",
		method: http.MethodGet,
		path:   "/v1/carriers/" + url.PathEscape(id) + "/services",
		out:    &resp,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list services for carrier %s", id)
	}
	services := make([]shipping.CarrierService, 0, len(resp.Services))
	for _, s := range resp.Services {
		services = append(services, fromWireService(s))
	}
	return services, nil
}
