package pay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"aurumvault/internal/models"
)

// Signer computes and checks HMAC-SHA256 signatures for payment
// notifications. The secret is injected at construction; the package
// never reads process environment.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Canonical returns the string both sides sign: the payload fields
// concatenated in wire-contract order. Amount is always rendered with
// two fraction digits so "500" and "500.00" canonicalize identically.
func Canonical(p models.WebhookPayload) string {
	return p.InvoiceNumber + p.Amount.StringFixed(2) + p.TransactionRef + p.PaymentDate
}

// Sign returns the lowercase hex HMAC-SHA256 of the canonical payload.
func (s *Signer) Sign(p models.WebhookPayload) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(Canonical(p)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the expected signature and compares in constant
// time. Any malformed or mismatched signature yields false, never an
// error.
func (s *Signer) Verify(p models.WebhookPayload, signature string) bool {
	sig, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(Canonical(p)))
	return hmac.Equal(mac.Sum(nil), sig)
}

// SignBody signs raw request bytes. This is the legacy whole-body
// scheme some partners still send; it must never be mixed with the
// canonical field scheme on the same delivery.
func (s *Signer) SignBody(body []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyBody checks a legacy whole-body signature.
func (s *Signer) VerifyBody(body []byte, signature string) bool {
	sig, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), sig)
}
