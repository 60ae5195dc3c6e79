package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"aurumvault/internal/models"
)

// TextExtractor pulls raw text out of a PDF buffer. The concrete
// implementation lives outside this package; its failure is the only
// error this package propagates.
type TextExtractor interface {
	Text(data []byte) (string, error)
}

// FromPDF runs the collaborator's text extraction and then the field
// matchers. Missing fields never produce an error here.
func FromPDF(ex TextExtractor, data []byte) (models.InvoiceFields, error) {
	text, err := ex.Text(data)
	if err != nil {
		return models.InvoiceFields{}, fmt.Errorf("extract text: %w", err)
	}
	return Extract(text), nil
}

// Each matcher is evaluated independently against the whole text and
// takes the first match only. Matchers run in the order listed; the
// order is part of the documented behaviour because generated invoices
// may repeat labels.
var matchers = []struct {
	re    *regexp.Regexp
	apply func(f *models.InvoiceFields, raw string)
}{
	{
		regexp.MustCompile(`(?i)invoice\s*(?:number|no\.?|#)\s*:?\s*([A-Za-z0-9][A-Za-z0-9-]*)`),
		func(f *models.InvoiceFields, raw string) { f.InvoiceNumber = &raw },
	},
	{
		regexp.MustCompile(`(?i)\b(?:total\s+due|amount\s+due|total)\s*:?\s*(\$?\s*[0-9][0-9,]*(?:\.[0-9]+)?)`),
		func(f *models.InvoiceFields, raw string) { f.Total = parseAmount(raw) },
	},
	{
		regexp.MustCompile(`(?i)\bprincipal\s+amount\s*:?\s*(\$?\s*[0-9][0-9,]*(?:\.[0-9]+)?)`),
		func(f *models.InvoiceFields, raw string) { f.Principal = parseAmount(raw) },
	},
	{
		regexp.MustCompile(`(?i)\btax\s*:?\s*(\$?\s*[0-9][0-9,]*(?:\.[0-9]+)?)`),
		func(f *models.InvoiceFields, raw string) { f.Tax = parseAmount(raw) },
	},
	{
		regexp.MustCompile(`(?i)\bfee\s*:?\s*(\$?\s*[0-9][0-9,]*(?:\.[0-9]+)?)`),
		func(f *models.InvoiceFields, raw string) { f.Fee = parseAmount(raw) },
	},
	{
		regexp.MustCompile(`(?i)\bservice\s+code\s*:?\s*([A-Za-z0-9][A-Za-z0-9-]*)`),
		func(f *models.InvoiceFields, raw string) { f.ServiceCode = &raw },
	},
	{
		regexp.MustCompile(`(?i)\breference\s+code\s*:?\s*([A-Za-z0-9][A-Za-z0-9-]*)`),
		func(f *models.InvoiceFields, raw string) { f.ReferenceCode = &raw },
	},
	{
		regexp.MustCompile(`\b(LOAN-[0-9]+)\b`),
		func(f *models.InvoiceFields, raw string) { f.LoanCode = &raw },
	},
	{
		regexp.MustCompile(`(?i)\bpayment\s+reference\s+pin\s*:?\s*([A-Za-z0-9][A-Za-z0-9-]*)`),
		func(f *models.InvoiceFields, raw string) { f.PaymentPIN = &raw },
	},
}

// Extract applies the ordered matchers to invoice text. Every field is
// optional; a label that never appears, or an amount that fails to
// parse, simply leaves the field nil.
func Extract(text string) models.InvoiceFields {
	var fields models.InvoiceFields
	for _, m := range matchers {
		groups := m.re.FindStringSubmatch(text)
		if len(groups) < 2 {
			continue
		}
		m.apply(&fields, groups[1])
	}
	return fields
}

// parseAmount turns "$1,234.56" into 1234.56 with two fraction digits.
// Anything that does not parse becomes nil.
func parseAmount(raw string) *decimal.Decimal {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	d = d.Round(2)
	return &d
}
