package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/coworking-payments/internal/email"
	"github.com/akylbek/coworking-payments/internal/interfaces"
	"github.com/akylbek/coworking-payments/internal/models"
	"github.com/akylbek/coworking-payments/internal/telemetry"
)

// ContactSource selects where the confirmation recipient comes from.
type ContactSource string

const (
	// ContactFromPayer uses the payer block of the gateway payment.
	ContactFromPayer ContactSource = "payer"
	// ContactFromLedger looks the reference up in the ledger, for checkouts
	// whose payer email never reached the gateway.
	ContactFromLedger ContactSource = "ledger"
)

type NotifierConfig struct {
	From       string
	ContactURL string
	Source     ContactSource
}

type Notifier struct {
	mailer interfaces.Mailer
	ledger interfaces.Ledger
	cfg    NotifierConfig
	logger *zap.Logger
}

// NewNotifier builds the confirmation notifier. mailer is nil when email is
// not configured; ledger is only consulted with ContactFromLedger.
func NewNotifier(mailer interfaces.Mailer, ledger interfaces.Ledger, cfg NotifierConfig, logger *zap.Logger) *Notifier {
	if cfg.Source == "" {
		cfg.Source = ContactFromPayer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{mailer: mailer, ledger: ledger, cfg: cfg, logger: logger}
}

type contact struct {
	name  string
	email string
}

// Notify sends the confirmation for an approved payment. Failures are
// reported in the Outcome and logged, never returned.
func (n *Notifier) Notify(ctx context.Context, p *models.PaymentRecord) models.Outcome {
	to, err := n.resolveContact(ctx, p)
	if err != nil {
		n.logger.Warn("Confirmation email not sent: recipient unresolved",
			zap.Int64("payment_id", p.ID),
			zap.String("external_reference", p.ExternalReference),
			zap.String("contact_source", string(n.cfg.Source)),
			zap.Error(err),
		)
		telemetry.Notifications.WithLabelValues("unresolved").Inc()
		return models.Failed(err.Error())
	}

	return n.deliver(ctx, to, email.Confirmation{
		Description: p.Description,
		Amount:      p.TransactionAmount,
		Reference:   p.ExternalReference,
	})
}

// SendTest delivers a confirmation for a synthetic payment to address.
func (n *Notifier) SendTest(ctx context.Context, address string) models.Outcome {
	return n.deliver(ctx, contact{name: "Teste", email: address}, email.Confirmation{
		Description: "Teste de envio de email",
		Amount:      decimal.NewFromInt(10),
		Reference:   "TEST-" + time.Now().Format("20060102150405"),
	})
}

var (
	errNoRecipient        = errors.New("recipient email not found")
	errMissingReference   = errors.New("payment has no external reference")
	errEmailNotConfigured = errors.New("email provider not configured")
)

func (n *Notifier) resolveContact(ctx context.Context, p *models.PaymentRecord) (contact, error) {
	var c contact
	switch n.cfg.Source {
	case ContactFromLedger:
		if p.ExternalReference == "" {
			return c, errMissingReference
		}
		if n.ledger == nil {
			return c, errors.New("ledger not configured")
		}
		row, err := n.ledger.FindByReference(ctx, p.ExternalReference)
		if err != nil {
			return c, err
		}
		c = contact{name: row.PayerName, email: row.PayerEmail}
	default:
		c = contact{name: p.Payer.FirstName, email: p.Payer.Email}
	}

	if c.email == "" {
		return c, errNoRecipient
	}
	return c, nil
}

func (n *Notifier) deliver(ctx context.Context, to contact, conf email.Confirmation) models.Outcome {
	if n.mailer == nil {
		telemetry.Notifications.WithLabelValues("disabled").Inc()
		return models.Failed(errEmailNotConfigured.Error())
	}

	conf.Name = to.name
	conf.Email = to.email
	conf.ContactURL = n.cfg.ContactURL

	html, err := email.RenderConfirmation(conf)
	if err != nil {
		n.logger.Error("Failed to render confirmation email", zap.Error(err))
		telemetry.Notifications.WithLabelValues("failure").Inc()
		return models.Failed(err.Error())
	}

	err = n.mailer.Send(ctx, &models.Email{
		From:    n.cfg.From,
		To:      []string{to.email},
		Subject: email.ConfirmationSubject,
		HTML:    html,
	})
	telemetry.Notifications.WithLabelValues(telemetry.OutcomeLabel(err == nil)).Inc()
	if err != nil {
		n.logger.Error("Failed to send confirmation email",
			zap.String("external_reference", conf.Reference),
			zap.Error(err),
		)
		return models.Failed(err.Error())
	}

	n.logger.Info("Confirmation email sent",
		zap.String("external_reference", conf.Reference),
	)
	return models.Succeeded("sent to " + to.email)
}
