package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aurumvault/internal/models"
	"aurumvault/internal/pay"
)

// SignatureHeader carries the hex HMAC on both directions of the wire.
const SignatureHeader = "X-Webhook-Signature"

const notifyTimeout = 5 * time.Second

type NotifierConfig struct {
	// Endpoint is the partner's webhook URL (UHI_WEBHOOK_URL).
	Endpoint string
	Signer   *pay.Signer
	Client   *http.Client
	Logger   *slog.Logger
}

// NotifierService delivers signed payment notifications to the partner
// system. Delivery is best effort: failures are logged and swallowed so
// the payment path that triggered the notification never fails on them.
type NotifierService struct {
	endpoint   string
	signer     *pay.Signer
	httpClient *http.Client
	logger     *slog.Logger
}

func NewNotifierService(cfg NotifierConfig) *NotifierService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: notifyTimeout}
	}
	return &NotifierService{
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		signer:     cfg.Signer,
		httpClient: client,
		logger:     logger,
	}
}

// Notify signs the payload and POSTs it to the configured endpoint with
// the signature both in the body and in the header. There is no retry
// queue; a lost notification is an operational concern, not a caller
// error.
func (s *NotifierService) Notify(ctx context.Context, payload models.WebhookPayload) {
	logger := s.logger.With("op", "Notify", "invoice", payload.InvoiceNumber, "tx_ref", payload.TransactionRef)
	if s.endpoint == "" {
		logger.Warn("webhook endpoint not configured, notification dropped")
		return
	}

	payload.Signature = s.signer.Sign(payload)
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("marshal notification", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Error("build notification request", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, payload.Signature)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Error("deliver notification", "err", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		logger.Error("notification rejected", "status", resp.Status, "body", strings.TrimSpace(string(b)))
		return
	}
	logger.Info("notification delivered", "status", resp.Status)
}
