package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WebhookPayload is the payment notification exchanged with partner
// systems, in both directions. It is transient: only the transaction
// reference it carries is persisted, onto the invoice it settles.
type WebhookPayload struct {
	InvoiceNumber  string          `json:"invoiceNumber"`
	Amount         decimal.Decimal `json:"amount"`
	TransactionRef string          `json:"transactionRef"`
	PaymentDate    string          `json:"paymentDate"`
	Signature      string          `json:"signature,omitempty"`
}

// UnmarshalJSON tolerates the variations partners actually send: the
// payment date arrives as either "paymentDate" or "timestamp", and the
// amount as either a JSON number or a string.
func (p *WebhookPayload) UnmarshalJSON(data []byte) error {
	type rawPayload struct {
		InvoiceNumber  string          `json:"invoiceNumber"`
		Amount         json.RawMessage `json:"amount"`
		TransactionRef string          `json:"transactionRef"`
		PaymentDate    string          `json:"paymentDate"`
		Timestamp      string          `json:"timestamp"`
		Signature      string          `json:"signature"`
	}

	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var amount decimal.Decimal
	if len(raw.Amount) > 0 {
		if err := json.Unmarshal(raw.Amount, &amount); err != nil {
			var amountStr string
			if err := json.Unmarshal(raw.Amount, &amountStr); err != nil {
				return fmt.Errorf("parse webhook amount: %w", err)
			}
			amountStr = strings.TrimSpace(amountStr)
			if amountStr != "" {
				parsed, err := decimal.NewFromString(amountStr)
				if err != nil {
					return fmt.Errorf("parse webhook amount: %w", err)
				}
				amount = parsed
			}
		}
	}

	paymentDate := strings.TrimSpace(raw.PaymentDate)
	if paymentDate == "" {
		paymentDate = strings.TrimSpace(raw.Timestamp)
	}

	p.InvoiceNumber = strings.TrimSpace(raw.InvoiceNumber)
	p.Amount = amount
	p.TransactionRef = strings.TrimSpace(raw.TransactionRef)
	p.PaymentDate = paymentDate
	p.Signature = strings.TrimSpace(raw.Signature)
	return nil
}

// SettlementResult is the invoice/loan summary returned after a
// successful (or idempotently replayed) settlement.
type SettlementResult struct {
	Invoice  Invoice         `json:"invoice"`
	Loan     Loan            `json:"loan"`
	Replayed bool            `json:"replayed"`
	Settled  decimal.Decimal `json:"settled_amount"`
}

// WebhookReceipt is the audit record kept for every inbound delivery,
// accepted or not.
type WebhookReceipt struct {
	ID         int64     `json:"id"`
	InvoiceNum string    `json:"invoice_number"`
	Signature  string    `json:"signature"`
	Body       []byte    `json:"-"`
	Outcome    string    `json:"outcome"`
	ReceivedAt time.Time `json:"received_at"`
}
