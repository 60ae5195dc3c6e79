package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"aurumvault/internal/models"
)

// SettlementRepository owns the one transactional unit of the system:
// marking an invoice paid and decrementing the loan balance together.
// Row locks serialize concurrent deliveries of the same invoice; the
// UNIQUE constraint on settlements.transaction_ref backs the
// idempotency key at the storage layer.
type SettlementRepository struct {
	DB *sql.DB
}

func NewSettlementRepository(db *sql.DB) *SettlementRepository { return &SettlementRepository{DB: db} }

// Settle applies a confirmed payment. Both mutations commit together or
// not at all. A replayed delivery (invoice already paid) returns the
// current state together with models.ErrAlreadySettled and touches
// nothing.
func (r *SettlementRepository) Settle(ctx context.Context, invoiceNumber string, amount decimal.Decimal, txRef string, paidAt time.Time) (res models.SettlementResult, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.SettlementResult{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_number = ? FOR UPDATE`, invoiceNumber)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = models.ErrInvoiceNotFound
		return
	}
	if err != nil {
		return
	}

	loanRow := tx.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ? FOR UPDATE`, inv.LoanID)
	loan, err := scanLoan(loanRow)
	if err != nil {
		return
	}

	if inv.Status == models.InvoiceStatusPaid {
		res = models.SettlementResult{Invoice: inv, Loan: loan, Replayed: true}
		err = models.ErrAlreadySettled
		return
	}

	if loan.Balance.LessThan(amount) {
		err = models.ErrInsufficientFunds
		return
	}

	newBalance := loan.Balance.Sub(amount)
	newStatus := loan.Status
	if newBalance.IsZero() {
		newStatus = models.LoanStatusPaidOff
	}

	if _, err = tx.ExecContext(ctx, `UPDATE loans SET balance = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newBalance.StringFixed(2), newStatus, loan.ID); err != nil {
		return
	}

	if _, err = tx.ExecContext(ctx, `UPDATE invoices SET status = ?, transaction_ref = ?, paid_at = ? WHERE id = ?`,
		models.InvoiceStatusPaid, txRef, paidAt, inv.ID); err != nil {
		return
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO settlements (transaction_ref, invoice_id, amount, paid_at) VALUES (?,?,?,?)`,
		txRef, inv.ID, amount.StringFixed(2), paidAt); err != nil {
		if isDuplicateEntry(err) {
			err = models.ErrDuplicateTransactionRef
		}
		return
	}

	if err = tx.Commit(); err != nil {
		return
	}

	inv.Status = models.InvoiceStatusPaid
	inv.TransactionRef = &txRef
	inv.PaidAt = &paidAt
	loan.Balance = newBalance
	loan.Status = newStatus
	res = models.SettlementResult{Invoice: inv, Loan: loan, Settled: amount}
	return res, nil
}
