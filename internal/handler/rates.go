package handler

import (
	"net/http"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// GetRates quotes rates for a package. Lookup failures yield an empty list,
// never an error; only malformed requests are rejected.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if !decode(w, r, &req, false) {
		return
	}

	unit, err := shipping.ParseWeightUnit(req.Weight.Unit)
	if err != nil {
		fieldError(w, "weight.unit", err)
		return
	}
	criteria := shipping.RateCriteria{
		ShipTo:        req.ShipTo.toDomain(),
		WarehouseID:   req.WarehouseID,
		Weight:        shipping.Weight{Value: req.Weight.Value, Unit: unit},
		CarrierIDs:    req.CarrierIDs,
		ShippingClass: req.ShippingClass,
	}
	if req.ShipFrom != nil {
		from := req.ShipFrom.toDomain()
		criteria.ShipFrom = &from
	}
	if d := req.Dimensions; d != nil {
		dims, err := shipping.Dimensions{Length: d.Length, Width: d.Width, Height: d.Height, Unit: shipping.DimensionUnit(d.Unit)}.Normalize()
		if err != nil {
			fieldError(w, "dimensions.unit", err)
			return
		}
		criteria.Dimensions = &dims
	}

	writeJSON(w, http.StatusOK, rateResponse{Rates: h.rates.Lookup(r.Context(), criteria)})
}

// ValidateAddress checks an address with the provider. The check is best
// effort: provider failures come back as an invalid result, not an error.
func (h *Handler) ValidateAddress(w http.ResponseWriter, r *http.Request) {
	var req validateAddressRequest
	if !decode(w, r, &req, false) {
		return
	}
	addr := req.addressDTO.toDomain()
	addr.AddressLine1 = req.AddressLine1

	writeJSON(w, http.StatusOK, h.provider.ValidateAddress(r.Context(), addr))
}
