package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/shipment"
)

// TriggerShipment creates a provider shipment for one order on operator
// request. Failures are reported to the caller and leave the order as is.
func (h *Handler) TriggerShipment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req triggerRequest
	if !decode(w, r, &req, true) {
		return
	}

	res, err := h.shipments.Trigger(r.Context(), orderID, req.WarehouseID)
	switch {
	case errors.Is(err, shipment.ErrAlreadyShipped):
		writeJSON(w, http.StatusConflict, toShipmentResult(orderID, res))
		return
	case errors.Is(err, shipment.ErrNotPending):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeOrderError(w, r, err)
		return
	}

	out := toShipmentResult(orderID, res)
	if res.Success {
		writeJSON(w, http.StatusCreated, out)
		return
	}
	writeJSON(w, failureStatus(res), out)
}

// OrderPlaced is the automatic hook called when an order is placed.
// Skipped orders and failed attempts are both accepted: failures have
// already moved the order to manual review.
func (h *Handler) OrderPlaced(w http.ResponseWriter, r *http.Request) {
	var req orderPlacedRequest
	if !decode(w, r, &req, false) {
		return
	}

	res, err := h.shipments.OrderPlaced(r.Context(), req.OrderID)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	out := toShipmentResult(req.OrderID, res)
	if !res.Success && res.Failure == shipment.FailureNone {
		out.Skipped = true
	}
	writeJSON(w, http.StatusAccepted, out)
}

// GetShipment proxies a provider shipment lookup.
func (h *Handler) GetShipment(w http.ResponseWriter, r *http.Request) {
	s, err := h.provider.GetShipment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeProviderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CancelShipment asks the provider to cancel a shipment.
func (h *Handler) CancelShipment(w http.ResponseWriter, r *http.Request) {
	res, err := h.provider.CancelShipment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeProviderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// failureStatus maps an unsuccessful orchestration to an HTTP status.
func failureStatus(res shipment.Result) int {
	switch res.Failure {
	case shipment.FailureValidation:
		return http.StatusUnprocessableEntity
	case shipment.FailureLookup:
		if errors.Is(res.Cause, order.ErrNotFound) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, order.ErrStatusConflict):
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	zctx.From(r.Context()).Error("Order shipment request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}
