package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"aurumvault/internal/models"
)

type LoanRepository struct {
	DB *sql.DB
}

func NewLoanRepository(db *sql.DB) *LoanRepository { return &LoanRepository{DB: db} }

const loanColumns = `id, loan_number, user_id, balance, status, created_at, updated_at`

func (r *LoanRepository) GetByID(ctx context.Context, id int64) (models.Loan, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
	return scanLoan(row)
}

func (r *LoanRepository) GetByNumber(ctx context.Context, loanNumber string) (models.Loan, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE loan_number = ?`, loanNumber)
	return scanLoan(row)
}

func scanLoan(row rowScanner) (models.Loan, error) {
	var (
		loan    models.Loan
		balance string
	)
	err := row.Scan(&loan.ID, &loan.LoanNumber, &loan.UserID, &balance, &loan.Status, &loan.CreatedAt, &loan.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Loan{}, models.ErrLoanNotFound
	}
	if err != nil {
		return models.Loan{}, err
	}
	loan.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return models.Loan{}, err
	}
	return loan, nil
}
