package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aurumvault/internal/models"
	"aurumvault/internal/services"
)

type InvoiceHandler struct {
	Service *services.InvoiceService
}

func NewInvoiceHandler(s *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{Service: s}
}

// CreateInvoice handles POST /invoice.
func (h *InvoiceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req services.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	inv, err := h.Service.CreateInvoice(r.Context(), req)
	if err != nil {
		respondError(w, invoiceErrorStatus(err), err.Error())
		return
	}
	respondData(w, http.StatusCreated, inv)
}

// GetInvoice handles GET /invoice/:invoice_number.
func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get(":invoice_number")
	summary, err := h.Service.Get(r.Context(), number)
	if err != nil {
		respondError(w, invoiceErrorStatus(err), err.Error())
		return
	}
	respondData(w, http.StatusOK, summary)
}

// History handles GET /loan/:loan_number/invoices.
func (h *InvoiceHandler) History(w http.ResponseWriter, r *http.Request) {
	loanNumber := r.URL.Query().Get(":loan_number")
	invoices, err := h.Service.History(r.Context(), loanNumber)
	if err != nil {
		respondError(w, invoiceErrorStatus(err), err.Error())
		return
	}
	respondData(w, http.StatusOK, invoices)
}

// ParseText handles POST /invoice/parse: raw invoice text in, the
// structured optional fields out. Text extraction from the PDF itself
// happens upstream.
func (h *InvoiceHandler) ParseText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	respondData(w, http.StatusOK, h.Service.Parse(req.Text))
}

func invoiceErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvoiceNotFound), errors.Is(err, models.ErrLoanNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrDuplicateInvoiceNumber):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
