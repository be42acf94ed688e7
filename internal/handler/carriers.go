package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/provider"
)

// ListCarriers returns the carriers connected to the provider account.
func (h *Handler) ListCarriers(w http.ResponseWriter, r *http.Request) {
	carriers, err := h.provider.ListCarriers(r.Context())
	if err != nil {
		writeProviderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, carriersResponse{Carriers: carriers})
}

// GetCarrier returns one carrier.
func (h *Handler) GetCarrier(w http.ResponseWriter, r *http.Request) {
	c, err := h.provider.GetCarrier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeProviderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListCarrierServices returns the service levels of one carrier.
func (h *Handler) ListCarrierServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.provider.ListCarrierServices(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeProviderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, servicesResponse{Services: services})
}

// writeProviderError maps provider 404s to 404 and everything else to 502.
func writeProviderError(w http.ResponseWriter, r *http.Request, err error) {
	if provider.IsNotFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	zctx.From(r.Context()).Warn("Provider request failed", zap.Error(err))
	writeError(w, http.StatusBadGateway, err.Error())
}
