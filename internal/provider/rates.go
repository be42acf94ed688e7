package provider

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// GetRates quotes the package described by criteria. Rate lookup is
// advisory: any failure, including a request without carrier ids, yields an
// empty slice so checkout can fall back to its own rate strategy.
func (c *Client) GetRates(ctx context.Context, criteria shipping.RateCriteria) []shipping.Rate {
	rates := []shipping.Rate{}
	if len(criteria.CarrierIDs) == 0 {
		c.lg.Warn("Rate request without carrier ids, skipping provider call")
		return rates
	}

	var resp wireRateResponse
	err := c.do(ctx, call{
		op:     "get_rates",
		method: http.MethodPost,
		path:   "/v1/rates",
		in:     toWireRateRequest(criteria),
		out:    &resp,
	})
	if err != nil {
		c.lg.Warn("Rate lookup failed", zap.Error(err))
		return rates
	}

	for _, e := range resp.RateResponse.Errors {
		c.lg.Debug("Provider rate error", zap.String("code", e.Code), zap.String("message", e.Message))
	}
	for _, r := range resp.RateResponse.Rates {
		rates = append(rates, fromWireRate(r))
	}
	return rates
}
