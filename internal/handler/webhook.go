package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/webhook"
)

const outcomeIgnored = "ignored"

// ShippingWebhook receives provider events. The raw body is verified
// against the HMAC signature header before it is parsed. Events that can
// never apply, such as unsupported types or unknown shipments, are
// acknowledged so the provider stops redelivering them; storage failures
// return 500 so it retries.
func (h *Handler) ShippingWebhook(w http.ResponseWriter, r *http.Request) {
	lg := zctx.From(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "webhook body too large")
		return
	}
	if err := webhook.Verify(h.webhookSecret, body, r.Header.Get(webhook.SignatureHeader)); err != nil {
		lg.Warn("Webhook signature rejected", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	ev, err := webhook.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.events.Apply(r.Context(), ev)
	switch {
	case errors.Is(err, webhook.ErrUnsupportedEvent), errors.Is(err, order.ErrNotFound):
		lg.Info("Webhook event ignored",
			zap.String("event", ev.Type),
			zap.String("shipment_id", ev.Data.ShipmentID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusAccepted, webhookResponse{Outcome: outcomeIgnored})
	case err != nil:
		lg.Error("Webhook event failed", zap.String("event", ev.Type), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, webhookResponse{Outcome: string(outcome)})
	}
}
