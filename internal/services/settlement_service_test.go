package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"aurumvault/internal/models"
	"aurumvault/internal/pay"
)

// memStore implements settlement semantics over one invoice/loan pair.
type memStore struct {
	invoice models.Invoice
	loan    models.Loan
	txRefs  map[string]string
	calls   int
}

func newMemStore() *memStore {
	return &memStore{
		invoice: models.Invoice{
			ID:            1,
			InvoiceNumber: "INV-123",
			LoanID:        7,
			Amount:        decimal.NewFromInt(500),
			Status:        models.InvoiceStatusPending,
		},
		loan: models.Loan{
			ID:         7,
			LoanNumber: "LOAN-5555",
			Balance:    decimal.NewFromInt(1000),
			Status:     models.LoanStatusActive,
		},
		txRefs: map[string]string{},
	}
}

func (m *memStore) Settle(ctx context.Context, invoiceNumber string, amount decimal.Decimal, txRef string, paidAt time.Time) (models.SettlementResult, error) {
	m.calls++
	if invoiceNumber != m.invoice.InvoiceNumber {
		return models.SettlementResult{}, models.ErrInvoiceNotFound
	}
	if m.invoice.Status == models.InvoiceStatusPaid {
		return models.SettlementResult{Invoice: m.invoice, Loan: m.loan, Replayed: true}, models.ErrAlreadySettled
	}
	if m.loan.Balance.LessThan(amount) {
		return models.SettlementResult{}, models.ErrInsufficientFunds
	}
	if _, used := m.txRefs[txRef]; used {
		return models.SettlementResult{}, models.ErrDuplicateTransactionRef
	}
	m.txRefs[txRef] = invoiceNumber
	m.loan.Balance = m.loan.Balance.Sub(amount)
	m.invoice.Status = models.InvoiceStatusPaid
	m.invoice.TransactionRef = &txRef
	m.invoice.PaidAt = &paidAt
	return models.SettlementResult{Invoice: m.invoice, Loan: m.loan, Settled: amount}, nil
}

type memCache struct {
	settled map[string]string
}

func (c *memCache) MarkSettled(ctx context.Context, txRef, invoiceNumber string) {
	if c.settled == nil {
		c.settled = map[string]string{}
	}
	c.settled[txRef] = invoiceNumber
}

func (c *memCache) SettledInvoice(ctx context.Context, txRef string) string {
	return c.settled[txRef]
}

func signedDelivery(t *testing.T, signer *pay.Signer, payload models.WebhookPayload) ([]byte, string) {
	t.Helper()
	sig := signer.Sign(payload)
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return body, sig
}

func testPayload() models.WebhookPayload {
	return models.WebhookPayload{
		InvoiceNumber:  "INV-123",
		Amount:         decimal.NewFromInt(500),
		TransactionRef: "TX-999",
		PaymentDate:    "2026-08-29T10:00:00Z",
	}
}

func newService(store SettlementStore) (*SettlementService, *pay.Signer) {
	signer := pay.NewSigner("secret")
	return &SettlementService{Signer: signer, Store: store, Cache: &memCache{}}, signer
}

func TestProcessMissingSignature(t *testing.T) {
	svc, _ := newService(newMemStore())
	_, err := svc.Process(context.Background(), []byte(`{}`), "")
	if !errors.Is(err, models.ErrSignatureMissing) {
		t.Fatalf("expected ErrSignatureMissing, got %v", err)
	}
}

func TestProcessInvalidSignature(t *testing.T) {
	store := newMemStore()
	svc, signer := newService(store)
	body, _ := signedDelivery(t, signer, testPayload())

	_, err := svc.Process(context.Background(), body, "deadbeef")
	if !errors.Is(err, models.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
	if store.calls != 0 {
		t.Fatalf("store must not be touched on rejected signature, got %d calls", store.calls)
	}
}

func TestProcessUndecodableBody(t *testing.T) {
	svc, _ := newService(newMemStore())
	_, err := svc.Process(context.Background(), []byte(`{not json`), "deadbeef")
	if !errors.Is(err, models.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestProcessSettles(t *testing.T) {
	store := newMemStore()
	svc, signer := newService(store)
	body, sig := signedDelivery(t, signer, testPayload())

	res, err := svc.Process(context.Background(), body, sig)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Invoice.Status != models.InvoiceStatusPaid {
		t.Fatalf("invoice status = %s", res.Invoice.Status)
	}
	if got := res.Loan.Balance.String(); got != "500" {
		t.Fatalf("balance = %s, want 500", got)
	}
	if res.Invoice.TransactionRef == nil || *res.Invoice.TransactionRef != "TX-999" {
		t.Fatalf("transaction ref = %v", res.Invoice.TransactionRef)
	}
	if res.Replayed {
		t.Fatal("first settlement must not be marked replayed")
	}
}

func TestProcessIdempotentReplay(t *testing.T) {
	store := newMemStore()
	signer := pay.NewSigner("secret")
	// no cache: the replay must be answered by the store itself
	svc := &SettlementService{Signer: signer, Store: store}
	body, sig := signedDelivery(t, signer, testPayload())

	if _, err := svc.Process(context.Background(), body, sig); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	res, err := svc.Process(context.Background(), body, sig)
	if err != nil {
		t.Fatalf("replayed delivery must succeed, got %v", err)
	}
	if !res.Replayed {
		t.Fatal("expected replayed result")
	}
	if got := store.loan.Balance.String(); got != "500" {
		t.Fatalf("balance after replay = %s, want 500 (single decrement)", got)
	}
}

func TestProcessReplayedFromCache(t *testing.T) {
	store := newMemStore()
	signer := pay.NewSigner("secret")
	cache := &memCache{}
	invoices := &stubInvoiceFinder{}
	loans := &stubLoanFinder{loan: store.loan}
	svc := &SettlementService{Signer: signer, Store: store, Cache: cache, InvoiceRepo: invoices, LoanRepo: loans}

	body, sig := signedDelivery(t, signer, testPayload())
	if _, err := svc.Process(context.Background(), body, sig); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	invoices.invoice = store.invoice
	loans.loan = store.loan
	settleCalls := store.calls

	res, err := svc.Process(context.Background(), body, sig)
	if err != nil {
		t.Fatalf("cached replay: %v", err)
	}
	if !res.Replayed {
		t.Fatal("expected replayed result")
	}
	if store.calls != settleCalls {
		t.Fatalf("cached replay must not open a settlement transaction, calls went %d -> %d", settleCalls, store.calls)
	}
}

type stubInvoiceFinder struct{ invoice models.Invoice }

func (s *stubInvoiceFinder) GetByNumber(ctx context.Context, invoiceNumber string) (models.Invoice, error) {
	if s.invoice.InvoiceNumber != invoiceNumber {
		return models.Invoice{}, models.ErrInvoiceNotFound
	}
	return s.invoice, nil
}

type stubLoanFinder struct{ loan models.Loan }

func (s *stubLoanFinder) GetByID(ctx context.Context, id int64) (models.Loan, error) {
	return s.loan, nil
}

func TestProcessLegacyBodySignature(t *testing.T) {
	store := newMemStore()
	signer := pay.NewSigner("secret")
	svc := &SettlementService{Signer: signer, Store: store}

	body, err := json.Marshal(testPayload())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	sig := signer.SignBody(body)
	if _, err := svc.Process(context.Background(), body, sig); err != nil {
		t.Fatalf("legacy body signature must verify, got %v", err)
	}
}

func TestProcessUnknownInvoice(t *testing.T) {
	store := newMemStore()
	svc, signer := newService(store)
	payload := testPayload()
	payload.InvoiceNumber = "INV-404"
	body, sig := signedDelivery(t, signer, payload)

	_, err := svc.Process(context.Background(), body, sig)
	if !errors.Is(err, models.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestProcessOverdraftRejected(t *testing.T) {
	store := newMemStore()
	store.loan.Balance = decimal.NewFromInt(100)
	svc, signer := newService(store)
	body, sig := signedDelivery(t, signer, testPayload())

	_, err := svc.Process(context.Background(), body, sig)
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := store.loan.Balance.String(); got != "100" {
		t.Fatalf("rejected settlement must not move the balance, got %s", got)
	}
	if store.invoice.Status != models.InvoiceStatusPending {
		t.Fatalf("rejected settlement must not mark invoice paid")
	}
}

func TestProcessNonPositiveAmount(t *testing.T) {
	store := newMemStore()
	svc, signer := newService(store)
	payload := testPayload()
	payload.Amount = decimal.NewFromInt(-5)
	body, sig := signedDelivery(t, signer, payload)

	_, err := svc.Process(context.Background(), body, sig)
	if !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if store.calls != 0 {
		t.Fatal("store must not be touched for a non-positive amount")
	}
}

func TestProcessTimestampKeyAccepted(t *testing.T) {
	store := newMemStore()
	signer := pay.NewSigner("secret")
	svc := &SettlementService{Signer: signer, Store: store}

	// partner sends "timestamp" instead of "paymentDate"
	payload := testPayload()
	sig := signer.Sign(payload)
	body := []byte(`{"invoiceNumber":"INV-123","amount":500,"transactionRef":"TX-999","timestamp":"2026-08-29T10:00:00Z"}`)

	if _, err := svc.Process(context.Background(), body, sig); err != nil {
		t.Fatalf("timestamp key must be accepted, got %v", err)
	}
}
