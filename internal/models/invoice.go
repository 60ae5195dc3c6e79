package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
)

// Invoice is a bill issued against a loan. Invoices are never deleted;
// the only status transition is pending -> paid and it happens at most once.
type Invoice struct {
	ID             int64            `json:"id"`
	InvoiceNumber  string           `json:"invoice_number"`
	LoanID         int64            `json:"loan_id"`
	Amount         decimal.Decimal  `json:"amount"`
	Principal      *decimal.Decimal `json:"principal,omitempty"`
	Tax            *decimal.Decimal `json:"tax,omitempty"`
	Fee            *decimal.Decimal `json:"fee,omitempty"`
	ServiceCode    *string          `json:"service_code,omitempty"`
	ReferenceCode  *string          `json:"reference_code,omitempty"`
	LoanCode       *string          `json:"loan_code,omitempty"`
	PaymentPIN     *string          `json:"payment_pin,omitempty"`
	Status         string           `json:"status"`
	TransactionRef *string          `json:"transaction_ref,omitempty"`
	PaidAt         *time.Time       `json:"paid_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// InvoiceFields is the result of extracting labelled fields from invoice
// text. Every field is optional; absence is not an error.
type InvoiceFields struct {
	InvoiceNumber *string          `json:"invoice_number,omitempty"`
	Total         *decimal.Decimal `json:"total,omitempty"`
	Principal     *decimal.Decimal `json:"principal,omitempty"`
	Tax           *decimal.Decimal `json:"tax,omitempty"`
	Fee           *decimal.Decimal `json:"fee,omitempty"`
	ServiceCode   *string          `json:"service_code,omitempty"`
	ReferenceCode *string          `json:"reference_code,omitempty"`
	LoanCode      *string          `json:"loan_code,omitempty"`
	PaymentPIN    *string          `json:"payment_pin,omitempty"`
}
