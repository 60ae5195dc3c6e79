package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"aurumvault/internal/models"
)

// Notifier delivers the outbound side of the webhook contract.
type Notifier interface {
	Notify(ctx context.Context, payload models.WebhookPayload)
}

// PaymentService records payments taken on this side (teller/portal)
// and tells the partner system about them. Settlement reuses the same
// transactional store as the inbound webhook path.
type PaymentService struct {
	Store    SettlementStore
	Notifier Notifier
	Cache    ReplayCache
	Logger   *slog.Logger
}

type RecordPaymentRequest struct {
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// RecordPayment settles an invoice locally and fires the partner
// notification. The notification is fire and forget: its outcome never
// reaches the caller.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (models.SettlementResult, error) {
	if !req.Amount.IsPositive() {
		return models.SettlementResult{}, models.ErrInvalidAmount
	}

	txRef := "TX-" + uuid.NewString()
	paidAt := time.Now().UTC()

	res, err := s.Store.Settle(ctx, req.InvoiceNumber, req.Amount.Round(2), txRef, paidAt)
	if err != nil {
		return models.SettlementResult{}, err
	}
	s.logger().Info("payment recorded", "invoice", req.InvoiceNumber,
		"tx_ref", txRef, "amount", req.Amount.StringFixed(2))
	if s.Cache != nil {
		s.Cache.MarkSettled(ctx, txRef, req.InvoiceNumber)
	}

	if s.Notifier != nil {
		payload := models.WebhookPayload{
			InvoiceNumber:  req.InvoiceNumber,
			Amount:         req.Amount.Round(2),
			TransactionRef: txRef,
			PaymentDate:    paidAt.Format(time.RFC3339),
		}
		// Detached from the request context so a finished request does
		// not cancel the delivery; the notifier applies its own timeout.
		go s.Notifier.Notify(context.WithoutCancel(ctx), payload)
	}
	return res, nil
}

func (s *PaymentService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
