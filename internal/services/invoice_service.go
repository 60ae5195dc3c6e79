package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"aurumvault/internal/extract"
	"aurumvault/internal/models"
)

type InvoiceStore interface {
	Create(ctx context.Context, inv models.Invoice) (int64, error)
	GetByNumber(ctx context.Context, invoiceNumber string) (models.Invoice, error)
	GetByLoan(ctx context.Context, loanID int64) ([]models.Invoice, error)
}

type LoanStore interface {
	GetByID(ctx context.Context, id int64) (models.Loan, error)
	GetByNumber(ctx context.Context, loanNumber string) (models.Loan, error)
}

type CreateInvoiceRequest struct {
	LoanNumber    string           `json:"loan_number"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	Principal     *decimal.Decimal `json:"principal,omitempty"`
	Tax           *decimal.Decimal `json:"tax,omitempty"`
	Fee           *decimal.Decimal `json:"fee,omitempty"`
	ServiceCode   *string          `json:"service_code,omitempty"`
	ReferenceCode *string          `json:"reference_code,omitempty"`
	PaymentPIN    *string          `json:"payment_pin,omitempty"`
}

// InvoiceSummary pairs an invoice with the loan it settles against.
type InvoiceSummary struct {
	Invoice models.Invoice `json:"invoice"`
	Loan    models.Loan    `json:"loan"`
}

type InvoiceService struct {
	InvoiceRepo InvoiceStore
	LoanRepo    LoanStore
}

// CreateInvoice issues a pending invoice against an active loan. An
// omitted invoice number gets a generated one.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (models.Invoice, error) {
	if !req.Amount.IsPositive() {
		return models.Invoice{}, models.ErrInvalidAmount
	}
	loan, err := s.LoanRepo.GetByNumber(ctx, strings.TrimSpace(req.LoanNumber))
	if err != nil {
		return models.Invoice{}, err
	}

	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		number = newInvoiceNumber()
	}
	loanCode := loan.LoanNumber

	inv := models.Invoice{
		InvoiceNumber: number,
		LoanID:        loan.ID,
		Amount:        req.Amount.Round(2),
		Principal:     req.Principal,
		Tax:           req.Tax,
		Fee:           req.Fee,
		ServiceCode:   req.ServiceCode,
		ReferenceCode: req.ReferenceCode,
		LoanCode:      &loanCode,
		PaymentPIN:    req.PaymentPIN,
		Status:        models.InvoiceStatusPending,
	}
	id, err := s.InvoiceRepo.Create(ctx, inv)
	if err != nil {
		return models.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	return s.reload(ctx, id, number)
}

func (s *InvoiceService) reload(ctx context.Context, id int64, number string) (models.Invoice, error) {
	inv, err := s.InvoiceRepo.GetByNumber(ctx, number)
	if err != nil {
		return models.Invoice{}, err
	}
	if inv.ID == 0 {
		inv.ID = id
	}
	return inv, nil
}

// Get returns an invoice together with its loan.
func (s *InvoiceService) Get(ctx context.Context, invoiceNumber string) (InvoiceSummary, error) {
	inv, err := s.InvoiceRepo.GetByNumber(ctx, strings.TrimSpace(invoiceNumber))
	if err != nil {
		return InvoiceSummary{}, err
	}
	loan, err := s.LoanRepo.GetByID(ctx, inv.LoanID)
	if err != nil {
		return InvoiceSummary{}, err
	}
	return InvoiceSummary{Invoice: inv, Loan: loan}, nil
}

// History lists a loan's invoices, newest first.
func (s *InvoiceService) History(ctx context.Context, loanNumber string) ([]models.Invoice, error) {
	loan, err := s.LoanRepo.GetByNumber(ctx, strings.TrimSpace(loanNumber))
	if err != nil {
		return nil, err
	}
	return s.InvoiceRepo.GetByLoan(ctx, loan.ID)
}

// Parse runs the field extractor over raw invoice text.
func (s *InvoiceService) Parse(text string) models.InvoiceFields {
	return extract.Extract(text)
}

func newInvoiceNumber() string {
	return "INV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
