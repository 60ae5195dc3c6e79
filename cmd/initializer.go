package main

import (
	"database/sql"
	"log"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"aurumvault/internal/config"
	"aurumvault/internal/handlers"
	"aurumvault/internal/pay"
	"aurumvault/internal/repositories"
	"aurumvault/internal/services"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	logger   *slog.Logger
	db       *sql.DB

	jwtSecret string

	invoiceHandler *handlers.InvoiceHandler
	paymentHandler *handlers.PaymentHandler
	webhookHandler *handlers.WebhookHandler
}

func initializeApp(db *sql.DB, rdb *redis.Client, cfg config.Config, errorLog, infoLog *log.Logger, logger *slog.Logger) *application {
	// Repositories
	invoiceRepo := repositories.NewInvoiceRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	settlementRepo := repositories.NewSettlementRepository(db)
	receiptRepo := repositories.NewWebhookLogRepository(db)
	cache := repositories.NewSettlementCache(rdb)

	// Services
	signer := pay.NewSigner(cfg.Webhook.Secret)
	notifier := services.NewNotifierService(services.NotifierConfig{
		Endpoint: cfg.Webhook.PartnerURL,
		Signer:   signer,
		Logger:   logger,
	})
	settlementService := &services.SettlementService{
		Signer:      signer,
		Store:       settlementRepo,
		InvoiceRepo: invoiceRepo,
		LoanRepo:    loanRepo,
		Cache:       cache,
		Logger:      logger,
	}
	invoiceService := &services.InvoiceService{
		InvoiceRepo: invoiceRepo,
		LoanRepo:    loanRepo,
	}
	paymentService := &services.PaymentService{
		Store:    settlementRepo,
		Notifier: notifier,
		Cache:    cache,
		Logger:   logger,
	}

	return &application{
		errorLog:       errorLog,
		infoLog:        infoLog,
		logger:         logger,
		db:             db,
		jwtSecret:      cfg.Auth.JWTSecret,
		invoiceHandler: handlers.NewInvoiceHandler(invoiceService),
		paymentHandler: handlers.NewPaymentHandler(paymentService),
		webhookHandler: handlers.NewWebhookHandler(settlementService, receiptRepo, logger),
	}
}
