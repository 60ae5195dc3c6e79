package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("operator"))
	adminAuthMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("admin"))

	mux := pat.New()

	// Partner webhook: authenticated by signature, not by JWT
	mux.Post("/webhook/payment", standardMiddleware.ThenFunc(app.webhookHandler.Receive))

	// Invoices
	mux.Post("/invoice", adminAuthMiddleware.ThenFunc(app.invoiceHandler.CreateInvoice))
	mux.Get("/invoice/:invoice_number", authMiddleware.ThenFunc(app.invoiceHandler.GetInvoice))
	mux.Post("/invoice/parse", authMiddleware.ThenFunc(app.invoiceHandler.ParseText))
	mux.Get("/loan/:loan_number/invoices", authMiddleware.ThenFunc(app.invoiceHandler.History))

	// Payments taken on this side
	mux.Post("/payments/record", authMiddleware.ThenFunc(app.paymentHandler.RecordPayment))

	mux.Get("/health", standardMiddleware.ThenFunc(app.healthcheck))

	return mux
}
