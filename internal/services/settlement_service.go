package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"aurumvault/internal/models"
	"aurumvault/internal/pay"
)

// SettlementStore is the transactional unit of work behind settlement.
type SettlementStore interface {
	Settle(ctx context.Context, invoiceNumber string, amount decimal.Decimal, txRef string, paidAt time.Time) (models.SettlementResult, error)
}

// InvoiceFinder resolves invoices outside the settlement transaction,
// used only to answer cached replays.
type InvoiceFinder interface {
	GetByNumber(ctx context.Context, invoiceNumber string) (models.Invoice, error)
}

// LoanFinder resolves the loan behind an invoice.
type LoanFinder interface {
	GetByID(ctx context.Context, id int64) (models.Loan, error)
}

// ReplayCache remembers recently settled transaction refs. Best effort;
// a miss just falls through to the store.
type ReplayCache interface {
	MarkSettled(ctx context.Context, txRef, invoiceNumber string)
	SettledInvoice(ctx context.Context, txRef string) string
}

// SettlementService drives an inbound payment notification through
// verify -> match -> settle. Any rejection surfaces as a sentinel error
// from internal/models; a replayed delivery surfaces as success.
type SettlementService struct {
	Signer      *pay.Signer
	Store       SettlementStore
	InvoiceRepo InvoiceFinder
	LoanRepo    LoanFinder
	Cache       ReplayCache
	Logger      *slog.Logger
}

// Process handles one inbound delivery. The signature arrives in the
// X-Webhook-Signature header; body carries the payload JSON. The raw
// body participates in verification, so it is passed through untouched.
func (s *SettlementService) Process(ctx context.Context, body []byte, headerSignature string) (models.SettlementResult, error) {
	logger := s.logger().With("op", "Process")

	if headerSignature == "" {
		return models.SettlementResult{}, models.ErrSignatureMissing
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		// An unreadable payload can never verify.
		logger.Warn("undecodable webhook body", "err", err)
		return models.SettlementResult{}, models.ErrSignatureInvalid
	}

	if !s.verify(body, payload, headerSignature) {
		return models.SettlementResult{}, models.ErrSignatureInvalid
	}

	if !payload.Amount.IsPositive() {
		return models.SettlementResult{}, models.ErrInvalidAmount
	}
	if payload.InvoiceNumber == "" || payload.TransactionRef == "" {
		return models.SettlementResult{}, models.ErrInvoiceNotFound
	}

	if res, ok := s.cachedReplay(ctx, payload); ok {
		logger.Info("replayed settlement answered from cache",
			"invoice", payload.InvoiceNumber, "tx_ref", payload.TransactionRef)
		return res, nil
	}

	paidAt := parsePaymentDate(payload.PaymentDate)
	res, err := s.Store.Settle(ctx, payload.InvoiceNumber, payload.Amount, payload.TransactionRef, paidAt)
	switch {
	case err == nil:
		s.markSettled(ctx, payload)
		logger.Info("settled", "invoice", payload.InvoiceNumber,
			"tx_ref", payload.TransactionRef, "amount", payload.Amount.StringFixed(2))
		return res, nil
	case errors.Is(err, models.ErrAlreadySettled):
		s.markSettled(ctx, payload)
		logger.Info("replayed settlement", "invoice", payload.InvoiceNumber, "tx_ref", payload.TransactionRef)
		return res, nil
	default:
		return models.SettlementResult{}, err
	}
}

// verify tries the canonical field scheme first, then the legacy
// whole-body scheme for partners that have not migrated. The schemes
// are never combined on one delivery.
func (s *SettlementService) verify(body []byte, payload models.WebhookPayload, signature string) bool {
	if s.Signer.Verify(payload, signature) {
		return true
	}
	return s.Signer.VerifyBody(body, signature)
}

func (s *SettlementService) cachedReplay(ctx context.Context, payload models.WebhookPayload) (models.SettlementResult, bool) {
	if s.Cache == nil || s.InvoiceRepo == nil || s.LoanRepo == nil {
		return models.SettlementResult{}, false
	}
	if s.Cache.SettledInvoice(ctx, payload.TransactionRef) != payload.InvoiceNumber {
		return models.SettlementResult{}, false
	}
	inv, err := s.InvoiceRepo.GetByNumber(ctx, payload.InvoiceNumber)
	if err != nil || inv.Status != models.InvoiceStatusPaid {
		return models.SettlementResult{}, false
	}
	loan, err := s.LoanRepo.GetByID(ctx, inv.LoanID)
	if err != nil {
		return models.SettlementResult{}, false
	}
	return models.SettlementResult{Invoice: inv, Loan: loan, Replayed: true}, true
}

func (s *SettlementService) markSettled(ctx context.Context, payload models.WebhookPayload) {
	if s.Cache != nil {
		s.Cache.MarkSettled(ctx, payload.TransactionRef, payload.InvoiceNumber)
	}
}

func (s *SettlementService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// parsePaymentDate accepts the ISO-8601 timestamp partners send and
// falls back to now when it is absent or unreadable. Settlement must
// not fail over a sloppy timestamp.
func parsePaymentDate(value string) time.Time {
	if value == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
