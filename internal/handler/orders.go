package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

const (
	defaultOrderLimit = 50
	maxOrderLimit     = 500
)

// ListOrders lists orders in one shipping status, manual_review by default,
// so operators can find orders that need attention.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := shipping.StatusManualReview
	if s := q.Get("shipping_status"); s != "" {
		status = shipping.Status(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "unknown shipping_status "+strconv.Quote(s))
			return
		}
	}
	limit := defaultOrderLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxOrderLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxOrderLimit))
			return
		}
		limit = n
	}

	orders, err := h.orders.ListByShippingStatus(r.Context(), status, limit)
	if err != nil {
		zctx.From(r.Context()).Error("List orders failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	resp := ordersResponse{Orders: make([]orderSummary, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, toOrderSummary(o))
	}
	writeJSON(w, http.StatusOK, resp)
}
