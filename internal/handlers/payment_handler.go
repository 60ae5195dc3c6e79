package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"aurumvault/internal/models"
	"aurumvault/internal/services"
)

type PaymentHandler struct {
	Service *services.PaymentService
}

func NewPaymentHandler(s *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: s}
}

// RecordPayment handles POST /payments/record: a payment taken on this
// side is settled locally and the partner is notified out of band. The
// response never depends on the notification outcome.
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req services.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.Service.RecordPayment(r.Context(), req)
	if err != nil {
		respondError(w, paymentErrorStatus(err), err.Error())
		return
	}
	respondData(w, http.StatusOK, res)
}

func paymentErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvoiceNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAlreadySettled), errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
