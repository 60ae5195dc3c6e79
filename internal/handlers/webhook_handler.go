package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"aurumvault/internal/models"
	"aurumvault/internal/services"
)

const maxWebhookBody = 1 << 20

// ReceiptLog records inbound deliveries for audit.
type ReceiptLog interface {
	Save(ctx context.Context, receipt models.WebhookReceipt) error
}

// WebhookHandler terminates the inbound side of the payment webhook.
// It is signature-authenticated; no JWT is involved.
type WebhookHandler struct {
	Settlement *services.SettlementService
	Receipts   ReceiptLog
	Logger     *slog.Logger
}

func NewWebhookHandler(settlement *services.SettlementService, receipts ReceiptLog, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{Settlement: settlement, Receipts: receipts, Logger: logger}
}

// Receive handles POST /webhook/payment.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unreadable body")
		return
	}
	signature := r.Header.Get(services.SignatureHeader)

	res, err := h.Settlement.Process(r.Context(), body, signature)
	h.audit(r.Context(), body, signature, res, err)
	if err != nil {
		status, message := settlementStatus(err)
		if status == http.StatusInternalServerError {
			h.Logger.Error("settlement failed", "err", err)
		}
		respondError(w, status, message)
		return
	}
	respondData(w, http.StatusOK, res)
}

func settlementStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrSignatureMissing):
		return http.StatusUnauthorized, "Missing signature"
	case errors.Is(err, models.ErrSignatureInvalid):
		return http.StatusUnauthorized, "Invalid signature"
	case errors.Is(err, models.ErrInvoiceNotFound):
		return http.StatusNotFound, "Invoice not found"
	case errors.Is(err, models.ErrInvalidAmount):
		return http.StatusBadRequest, "Invalid amount"
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusConflict, "Settlement exceeds loan balance"
	case errors.Is(err, models.ErrDuplicateTransactionRef):
		return http.StatusConflict, "Transaction reference already used"
	default:
		// storage failures are retryable: the operation is idempotent
		// by transaction reference
		return http.StatusInternalServerError, "Settlement failed"
	}
}

func (h *WebhookHandler) audit(ctx context.Context, body []byte, signature string, res models.SettlementResult, procErr error) {
	if h.Receipts == nil {
		return
	}
	outcome := "settled"
	switch {
	case procErr != nil:
		outcome = "rejected"
	case res.Replayed:
		outcome = "replayed"
	}
	receipt := models.WebhookReceipt{
		InvoiceNum: res.Invoice.InvoiceNumber,
		Signature:  signature,
		Body:       body,
		Outcome:    outcome,
	}
	if err := h.Receipts.Save(ctx, receipt); err != nil {
		h.Logger.Error("save webhook receipt", "err", err)
	}
}
