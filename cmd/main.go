package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/coworking-payments/internal/api"
	"github.com/akylbek/coworking-payments/internal/config"
	"github.com/akylbek/coworking-payments/internal/email"
	"github.com/akylbek/coworking-payments/internal/events"
	"github.com/akylbek/coworking-payments/internal/gateway"
	"github.com/akylbek/coworking-payments/internal/handlers"
	"github.com/akylbek/coworking-payments/internal/interfaces"
	"github.com/akylbek/coworking-payments/internal/ledger"
	"github.com/akylbek/coworking-payments/internal/models"
	"github.com/akylbek/coworking-payments/internal/pricing"
	"github.com/akylbek/coworking-payments/internal/service"
	"github.com/akylbek/coworking-payments/internal/telemetry"
)

const serviceName = "coworking-payments"

func main() {
	cfg := config.Load()

	// Initialize telemetry
	if err := telemetry.InitTelemetry(serviceName, cfg.IsProduction(), cfg.OTLPEndpoint); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	log := telemetry.Logger
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	log.Info("Starting coworking payments",
		zap.String("environment", cfg.Environment),
		zap.Bool("email_configured", cfg.EmailEnabled()),
		zap.Bool("ledger_enabled", cfg.LedgerEnabled()),
		zap.String("events_driver", cfg.EventsDriver),
		zap.Bool("sandbox_enabled", cfg.SandboxEnabled()),
	)

	gw, err := gateway.NewClient(gateway.Options{
		BaseURL: cfg.GatewayURL,
		Token:   cfg.GatewayToken,
		Timeout: cfg.GatewayTimeout,
		Logger:  log.Named("gateway"),
	})
	if err != nil {
		log.Fatal("Failed to create gateway client", zap.Error(err))
	}

	var mailer interfaces.Mailer
	if cfg.EmailEnabled() {
		mailer = email.NewResendMailer(cfg.ResendAPIKey)
	} else {
		log.Warn("RESEND_API_KEY not set, confirmation emails disabled")
	}

	var sheet interfaces.Ledger
	if cfg.LedgerEnabled() {
		sheet = mustLedger(cfg, log)
	}

	publisher := mustPublisher(cfg, log)
	defer publisher.Close()

	calc := pricing.NewCalculator(pricing.Rates{
		Daily:   cfg.DailyRate,
		Monthly: cfg.MonthlyRate,
		Hourly:  cfg.HourlyRate,
	})
	checkout := service.NewCheckoutService(calc, gw, sheet, publisher, service.NewReferenceGenerator(nil), service.CheckoutConfig{
		Currency:            cfg.Currency,
		StatementDescriptor: cfg.StatementDescriptor,
		DefaultTaxIDType:    cfg.DefaultTaxIDType,
		ReturnURLBase:       cfg.ReturnURLBase,
		NotificationURL:     cfg.NotificationURL,
	}, log.Named("checkout"))
	notifier := service.NewNotifier(mailer, sheet, service.NotifierConfig{
		From:       cfg.FromEmail,
		ContactURL: cfg.ContactURL,
		Source:     service.ContactSource(cfg.ContactSource),
	}, log.Named("notifier"))
	resolver := service.NewResolver(gw, notifier, sheet, publisher, log.Named("resolver"))
	payments := service.NewPaymentService(gw, cfg.DefaultTaxIDType, sandboxProfile(cfg), log.Named("payments"))

	router := api.NewRouter(
		handlers.NewPaymentHandler(checkout, payments, resolver, cfg.IsProduction()),
		handlers.NewSystemHandler(handlers.HealthInfo{
			Environment:       cfg.Environment,
			GatewayConfigured: cfg.GatewayToken != "",
			EmailConfigured:   cfg.EmailEnabled(),
			FromEmail:         cfg.FromEmail,
			LedgerEnabled:     cfg.LedgerEnabled(),
			SheetName:         cfg.SheetName,
			EventsDriver:      cfg.EventsDriver,
		}, notifier, service.NewLedgerCheck(sheet, log.Named("ledger"))),
		api.Options{AllowedOrigins: cfg.AllowedOrigins, Production: cfg.IsProduction()},
	)

	// Setup HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func mustLedger(cfg *config.Config, log *zap.Logger) interfaces.Ledger {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sheet, err := ledger.NewSheetLedger(ctx, cfg.SpreadsheetID, cfg.SheetName, ledger.Credentials{
		JSON:        cfg.ServiceAccountJSON,
		ClientEmail: cfg.ServiceAccountEmail,
		PrivateKey:  cfg.PrivateKey,
	}, log.Named("ledger"))
	if err != nil {
		log.Fatal("Failed to create ledger", zap.Error(err))
	}
	if err := sheet.EnsureHeader(ctx); err != nil {
		// the sheet may be temporarily unreachable; ledger writes stay best-effort
		log.Warn("Failed to ensure ledger header", zap.Error(err))
	}
	return sheet
}

func sandboxProfile(cfg *config.Config) *gateway.SandboxProfile {
	if !cfg.SandboxEnabled() {
		return nil
	}
	sb := cfg.Sandbox
	return &gateway.SandboxProfile{
		Card: gateway.Card{
			CardNumber:      sb.Number,
			ExpirationMonth: sb.ExpirationMonth,
			ExpirationYear:  sb.ExpirationYear,
			SecurityCode:    sb.SecurityCode,
			Cardholder: gateway.Cardholder{
				Name:           sb.HolderName,
				Identification: &models.Identification{Type: cfg.DefaultTaxIDType, Number: sb.HolderTaxID},
			},
		},
		PaymentMethodID: sb.PaymentMethodID,
		PayerEmail:      sb.PayerEmail,
	}
}

func mustPublisher(cfg *config.Config, log *zap.Logger) interfaces.EventPublisher {
	switch cfg.EventsDriver {
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers)
	case "nats":
		p, err := events.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		return p
	}
	return events.Noop{}
}
