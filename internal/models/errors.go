package models

import "errors"

var (
	ErrNoRecord                = errors.New("models: no matching record found")
	ErrSignatureMissing        = errors.New("missing signature")
	ErrSignatureInvalid        = errors.New("invalid signature")
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrLoanNotFound            = errors.New("loan not found")
	ErrInsufficientFunds       = errors.New("settlement exceeds loan balance")
	ErrDuplicateTransactionRef = errors.New("transaction reference already used")
	ErrDuplicateInvoiceNumber  = errors.New("invoice number already exists")
	ErrInvalidAmount           = errors.New("amount must be positive")

	// ErrAlreadySettled marks an idempotent replay: the invoice is paid and
	// the balance was not touched again. Callers report it as success.
	ErrAlreadySettled = errors.New("invoice already settled")
)
