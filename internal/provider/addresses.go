package provider

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// ValidateAddress checks an address with the provider. It never fails: when
// the provider is unreachable or answers garbage the result is invalid and
// carries an explanatory error, leaving the decision to the caller.
func (c *Client) ValidateAddress(ctx context.Context, addr shipping.Address) shipping.AddressValidation {
	var resp []wireValidationResult
	err := c.do(ctx, call{
		op:     "validate_address",
		method: http.MethodPost,
		path:   "/v1/addresses/validate",
		in:     []wireAddress{toWireAddress(addr)},
		out:    &resp,
	})
	if err != nil {
		c.lg.Warn("Address validation failed", zap.Error(err))
		return shipping.AddressValidation{
			IsValid: false,
			Errors:  []string{"address validation unavailable: " + err.Error()},
		}
	}
	if len(resp) == 0 {
		return shipping.AddressValidation{
			IsValid: false,
			Errors:  []string{"address validation returned no result"},
		}
	}

	r := resp[0]
	out := shipping.AddressValidation{
		IsValid: r.Status == "verified" || r.Status == "warning",
	}
	if r.MatchedAddress != nil {
		normalized := fromWireAddress(*r.MatchedAddress)
		out.NormalizedAddress = &normalized
	}
	for _, m := range r.Messages {
		switch m.kind() {
		case "error":
			out.Errors = append(out.Errors, m.Message)
		case "warning":
			out.Warnings = append(out.Warnings, m.Message)
		}
	}
	if !out.IsValid && len(out.Errors) == 0 {
		out.Errors = append(out.Errors, "address status: "+r.Status)
	}
	return out
}
