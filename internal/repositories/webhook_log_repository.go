package repositories

import (
	"context"
	"database/sql"

	"aurumvault/internal/models"
)

// WebhookLogRepository persists every inbound delivery for audit,
// whatever the verification outcome.
type WebhookLogRepository struct {
	DB *sql.DB
}

func NewWebhookLogRepository(db *sql.DB) *WebhookLogRepository { return &WebhookLogRepository{DB: db} }

func (r *WebhookLogRepository) Save(ctx context.Context, receipt models.WebhookReceipt) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO webhook_receipts (invoice_number, signature, body_json, outcome) VALUES (?,?,?,?)`,
		receipt.InvoiceNum, receipt.Signature, receipt.Body, receipt.Outcome)
	return err
}
