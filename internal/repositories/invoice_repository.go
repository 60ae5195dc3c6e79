package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"aurumvault/internal/models"
)

type InvoiceRepository struct {
	DB *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository { return &InvoiceRepository{DB: db} }

const invoiceColumns = `id, invoice_number, loan_id, amount, principal, tax, fee,
	service_code, reference_code, loan_code, payment_pin,
	status, transaction_ref, paid_at, created_at`

func (r *InvoiceRepository) Create(ctx context.Context, inv models.Invoice) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO invoices
		(invoice_number, loan_id, amount, principal, tax, fee, service_code, reference_code, loan_code, payment_pin, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		inv.InvoiceNumber, inv.LoanID, inv.Amount.StringFixed(2),
		decimalOrNil(inv.Principal), decimalOrNil(inv.Tax), decimalOrNil(inv.Fee),
		inv.ServiceCode, inv.ReferenceCode, inv.LoanCode, inv.PaymentPIN,
		models.InvoiceStatusPending)
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, models.ErrDuplicateInvoiceNumber
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *InvoiceRepository) GetByNumber(ctx context.Context, invoiceNumber string) (models.Invoice, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_number = ?`, invoiceNumber)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invoice{}, models.ErrInvoiceNotFound
	}
	return inv, err
}

func (r *InvoiceRepository) GetByLoan(ctx context.Context, loanID int64) ([]models.Invoice, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE loan_id = ? ORDER BY created_at DESC, id DESC`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (models.Invoice, error) {
	var (
		inv                   models.Invoice
		amount                string
		principal, tax, fee   sql.NullString
		svc, ref, loanC, pin  sql.NullString
		txRef                 sql.NullString
		paidAt                sql.NullTime
	)
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.LoanID, &amount, &principal, &tax, &fee,
		&svc, &ref, &loanC, &pin, &inv.Status, &txRef, &paidAt, &inv.CreatedAt)
	if err != nil {
		return models.Invoice{}, err
	}
	inv.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return models.Invoice{}, err
	}
	inv.Principal = nullDecimal(principal)
	inv.Tax = nullDecimal(tax)
	inv.Fee = nullDecimal(fee)
	inv.ServiceCode = nullString(svc)
	inv.ReferenceCode = nullString(ref)
	inv.LoanCode = nullString(loanC)
	inv.PaymentPIN = nullString(pin)
	inv.TransactionRef = nullString(txRef)
	if paidAt.Valid {
		t := paidAt.Time
		inv.PaidAt = &t
	}
	return inv, nil
}

func decimalOrNil(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.StringFixed(2)
}

func nullDecimal(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid {
		return nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil
	}
	return &d
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
