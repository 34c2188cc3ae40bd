package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/coworking-payments/internal/events"
	"github.com/akylbek/coworking-payments/internal/interfaces"
	"github.com/akylbek/coworking-payments/internal/models"
	"github.com/akylbek/coworking-payments/internal/telemetry"
)

const notificationTypePayment = "payment"

// Reconciliation reports the side effects fired for one payment lookup.
type Reconciliation struct {
	Approved     bool           `json:"approved"`
	Notification models.Outcome `json:"notification"`
	Ledger       models.Outcome `json:"ledger"`
}

// WebhookResult is what a notification led to. Ignored notifications never
// reach the gateway.
type WebhookResult struct {
	Ignored        bool
	Payment        *models.PaymentRecord
	Reconciliation Reconciliation
}

// Resolver fetches payment status from the gateway and, on approval, fires
// the confirmation email and the ledger update.
type Resolver struct {
	gateway  interfaces.PaymentGateway
	notifier *Notifier
	ledger   interfaces.Ledger
	events   interfaces.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewResolver(gw interfaces.PaymentGateway, notifier *Notifier, ledger interfaces.Ledger, publisher interfaces.EventPublisher, logger *zap.Logger) *Resolver {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		gateway:  gw,
		notifier: notifier,
		ledger:   ledger,
		events:   publisher,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolve is the poll entry point.
func (r *Resolver) Resolve(ctx context.Context, paymentID string) (*models.PaymentRecord, Reconciliation, error) {
	if paymentID == "" {
		return nil, Reconciliation{}, invalid("payment id is required", "")
	}

	payment, err := r.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, Reconciliation{}, gatewayErr("get payment", err)
	}

	r.logger.Info("Payment status fetched",
		zap.String("payment_id", paymentID),
		zap.String("status", payment.Status),
		zap.String("trace_id", telemetry.TraceID(ctx)),
	)
	return payment, r.reconcile(ctx, payment), nil
}

// HandleNotification is the webhook entry point. Only "payment" notifications
// trigger a lookup; everything else is acknowledged and ignored.
func (r *Resolver) HandleNotification(ctx context.Context, n models.Notification) (*WebhookResult, error) {
	typ := n.Type
	if typ == "" {
		typ = "unknown"
	}
	telemetry.WebhooksReceived.WithLabelValues(typ).Inc()

	if n.Type != notificationTypePayment {
		r.logger.Info("Ignoring webhook notification", zap.String("type", n.Type))
		return &WebhookResult{Ignored: true}, nil
	}
	if n.Data.ID == "" {
		r.logger.Warn("Payment notification without data.id")
		return &WebhookResult{Ignored: true}, nil
	}

	payment, rec, err := r.Resolve(ctx, string(n.Data.ID))
	if err != nil {
		return nil, err
	}
	return &WebhookResult{Payment: payment, Reconciliation: rec}, nil
}

func (r *Resolver) reconcile(ctx context.Context, p *models.PaymentRecord) Reconciliation {
	rec := Reconciliation{
		Notification: models.Skipped("payment not approved"),
		Ledger:       models.Skipped("payment not approved"),
	}
	if !p.Approved() {
		return rec
	}
	rec.Approved = true

	rec.Notification = r.notifier.Notify(ctx, p)
	rec.Ledger = r.markPaid(ctx, p)

	if err := r.events.Publish(ctx, events.TopicPaymentApproved, p.ExternalReference, events.PaymentApproved{
		PaymentID:         p.ID,
		ExternalReference: p.ExternalReference,
		Amount:            p.TransactionAmount.StringFixed(2),
		Description:       p.Description,
		EmailSent:         rec.Notification.OK,
		LedgerUpdated:     rec.Ledger.OK,
		Timestamp:         r.now(),
	}); err != nil {
		r.logger.Warn("Failed to publish payment approved event",
			zap.Int64("payment_id", p.ID),
			zap.Error(err),
		)
	}
	return rec
}

func (r *Resolver) markPaid(ctx context.Context, p *models.PaymentRecord) models.Outcome {
	if r.ledger == nil {
		return models.Skipped("ledger disabled")
	}
	if p.ExternalReference == "" {
		r.logger.Warn("Ledger update skipped: payment has no external reference", zap.Int64("payment_id", p.ID))
		return models.Skipped(errMissingReference.Error())
	}

	err := r.ledger.UpdateStatus(ctx, p.ExternalReference, models.LedgerPaid)
	switch {
	case errors.Is(err, models.ErrLedgerRowNotFound):
		r.logger.Warn("No ledger row for reference",
			zap.String("external_reference", p.ExternalReference),
		)
		return models.Failed("no ledger row for " + p.ExternalReference)
	case err != nil:
		r.logger.Error("Failed to update ledger row",
			zap.String("external_reference", p.ExternalReference),
			zap.Error(err),
		)
		return models.Failed(err.Error())
	}
	return models.Succeeded("status " + string(models.LedgerPaid))
}
