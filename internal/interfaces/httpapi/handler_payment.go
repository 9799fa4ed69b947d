package httpapi

import (
	"io"
	"net/http"

	"github.com/pleaguefc/registration-api/internal/usecase"
)

const (
	headerWebhookSignature = "x-webhook-signature"
	headerWebhookTimestamp = "x-webhook-timestamp"
)

type createOrderRequest struct {
	TeamName string `json:"teamName" validate:"required,min=1,max=80"`
}

type createOrderResponse struct {
	OK         bool   `json:"ok"`
	OrderID    string `json:"orderId,omitempty"`
	OrderToken string `json:"orderToken,omitempty"`
	Amount     int64  `json:"amount,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateOrder")
	defer span.End()

	var req createOrderRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.paymentService.CreateOrder(ctx, req.TeamName)
	if err != nil {
		h.logger.WarnContext(ctx, "create order failed", "team_name", req.TeamName, "error", err)
		writeError(ctx, w, err)
		return
	}

	if result.AlreadyPaid {
		writeJSON(ctx, w, http.StatusOK, createOrderResponse{
			OK:      true,
			Message: "Already paid",
		})
		return
	}

	writeJSON(ctx, w, http.StatusOK, createOrderResponse{
		OK:         true,
		OrderID:    result.OrderID,
		OrderToken: result.OrderToken,
		Amount:     result.Amount,
	})
}

// Webhook acknowledges every delivery with a 200 text body so the provider
// never retries on our account. Outcome detail lives in the logs.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Webhook")
	defer span.End()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "webhook body read failed", "error", err)
		writeAck(w, usecase.AckOK)
		return
	}

	ack := h.paymentService.HandleWebhook(ctx, body, usecase.WebhookHeaders{
		Signature: r.Header.Get(headerWebhookSignature),
		Timestamp: r.Header.Get(headerWebhookTimestamp),
	})

	writeAck(w, ack)
}

func writeAck(w http.ResponseWriter, ack usecase.WebhookAck) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ack))
}
