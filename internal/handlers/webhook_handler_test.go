package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"aurumvault/internal/models"
	"aurumvault/internal/pay"
	"aurumvault/internal/services"
)

type fakeStore struct {
	invoice models.Invoice
	loan    models.Loan
	calls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		invoice: models.Invoice{
			ID: 1, InvoiceNumber: "INV-123", LoanID: 7,
			Amount: decimal.NewFromInt(500), Status: models.InvoiceStatusPending,
		},
		loan: models.Loan{
			ID: 7, LoanNumber: "LOAN-5555",
			Balance: decimal.NewFromInt(1000), Status: models.LoanStatusActive,
		},
	}
}

func (f *fakeStore) Settle(ctx context.Context, invoiceNumber string, amount decimal.Decimal, txRef string, paidAt time.Time) (models.SettlementResult, error) {
	f.calls++
	if invoiceNumber != f.invoice.InvoiceNumber {
		return models.SettlementResult{}, models.ErrInvoiceNotFound
	}
	if f.invoice.Status == models.InvoiceStatusPaid {
		return models.SettlementResult{Invoice: f.invoice, Loan: f.loan, Replayed: true}, models.ErrAlreadySettled
	}
	if f.loan.Balance.LessThan(amount) {
		return models.SettlementResult{}, models.ErrInsufficientFunds
	}
	f.loan.Balance = f.loan.Balance.Sub(amount)
	f.invoice.Status = models.InvoiceStatusPaid
	f.invoice.TransactionRef = &txRef
	return models.SettlementResult{Invoice: f.invoice, Loan: f.loan, Settled: amount}, nil
}

type fakeReceipts struct {
	saved []models.WebhookReceipt
}

func (f *fakeReceipts) Save(ctx context.Context, receipt models.WebhookReceipt) error {
	f.saved = append(f.saved, receipt)
	return nil
}

func newWebhookServer(store *fakeStore, receipts *fakeReceipts) (*httptest.Server, *pay.Signer) {
	signer := pay.NewSigner("secret")
	settlement := &services.SettlementService{Signer: signer, Store: store}
	h := NewWebhookHandler(settlement, receipts, nil)
	return httptest.NewServer(http.HandlerFunc(h.Receive)), signer
}

func deliver(t *testing.T, url string, body []byte, signature string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(services.SignatureHeader, signature)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func signedBody(t *testing.T, signer *pay.Signer) ([]byte, string) {
	t.Helper()
	payload := models.WebhookPayload{
		InvoiceNumber:  "INV-123",
		Amount:         decimal.NewFromInt(500),
		TransactionRef: "TX-999",
		PaymentDate:    "2026-08-29T10:00:00Z",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body, signer.Sign(payload)
}

func TestReceiveMissingSignature(t *testing.T) {
	srv, signer := newWebhookServer(newFakeStore(), &fakeReceipts{})
	defer srv.Close()
	body, _ := signedBody(t, signer)

	resp, decoded := deliver(t, srv.URL, body, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if decoded["error"] != "Missing signature" {
		t.Fatalf("error = %v", decoded["error"])
	}
}

func TestReceiveInvalidSignature(t *testing.T) {
	srv, signer := newWebhookServer(newFakeStore(), &fakeReceipts{})
	defer srv.Close()
	body, _ := signedBody(t, signer)

	resp, decoded := deliver(t, srv.URL, body, "deadbeef")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if decoded["error"] != "Invalid signature" {
		t.Fatalf("error = %v", decoded["error"])
	}
}

func TestReceiveUnknownInvoice(t *testing.T) {
	srv, signer := newWebhookServer(newFakeStore(), &fakeReceipts{})
	defer srv.Close()

	payload := models.WebhookPayload{
		InvoiceNumber:  "INV-404",
		Amount:         decimal.NewFromInt(500),
		TransactionRef: "TX-1",
		PaymentDate:    "2026-08-29T10:00:00Z",
	}
	body, _ := json.Marshal(payload)
	resp, decoded := deliver(t, srv.URL, body, signer.Sign(payload))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if decoded["error"] != "Invoice not found" {
		t.Fatalf("error = %v", decoded["error"])
	}
}

func TestReceiveSettlesAndReplays(t *testing.T) {
	store := newFakeStore()
	receipts := &fakeReceipts{}
	srv, signer := newWebhookServer(store, receipts)
	defer srv.Close()
	body, sig := signedBody(t, signer)

	resp, decoded := deliver(t, srv.URL, body, sig)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if decoded["success"] != true {
		t.Fatalf("success = %v", decoded["success"])
	}
	if got := store.loan.Balance.String(); got != "500" {
		t.Fatalf("balance = %s, want 500", got)
	}
	if store.invoice.TransactionRef == nil || *store.invoice.TransactionRef != "TX-999" {
		t.Fatalf("transaction ref = %v", store.invoice.TransactionRef)
	}

	// identical replay: 200 again, no second decrement
	resp, decoded = deliver(t, srv.URL, body, sig)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("replay status = %d, want 200", resp.StatusCode)
	}
	if decoded["success"] != true {
		t.Fatalf("replay success = %v", decoded["success"])
	}
	if got := store.loan.Balance.String(); got != "500" {
		t.Fatalf("balance after replay = %s, want 500", got)
	}

	if len(receipts.saved) != 2 {
		t.Fatalf("expected 2 audit receipts, got %d", len(receipts.saved))
	}
	if receipts.saved[0].Outcome != "settled" || receipts.saved[1].Outcome != "replayed" {
		t.Fatalf("receipt outcomes = %s, %s", receipts.saved[0].Outcome, receipts.saved[1].Outcome)
	}
}

func TestReceiveOverdraft(t *testing.T) {
	store := newFakeStore()
	store.loan.Balance = decimal.NewFromInt(100)
	srv, signer := newWebhookServer(store, &fakeReceipts{})
	defer srv.Close()
	body, sig := signedBody(t, signer)

	resp, decoded := deliver(t, srv.URL, body, sig)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if decoded["error"] != "Settlement exceeds loan balance" {
		t.Fatalf("error = %v", decoded["error"])
	}
	if got := store.loan.Balance.String(); got != "100" {
		t.Fatalf("balance must be untouched, got %s", got)
	}
}
