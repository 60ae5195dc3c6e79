package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive  = "active"
	LoanStatusPaidOff = "paid_off"
)

// Loan carries the outstanding balance an invoice settles against.
// Settlement is the only path that decrements the balance and it must
// never drive it negative.
type Loan struct {
	ID         int64           `json:"id"`
	LoanNumber string          `json:"loan_number"`
	UserID     int64           `json:"user_id"`
	Balance    decimal.Decimal `json:"balance"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
