package interfaces

import (
	"context"

	"github.com/akylbek/coworking-payments/internal/gateway"
	"github.com/akylbek/coworking-payments/internal/models"
)

// PaymentGateway is the payment provider REST API.
type PaymentGateway interface {
	CreatePreference(ctx context.Context, pref *gateway.Preference) (*gateway.PreferenceResponse, error)
	CreatePayment(ctx context.Context, req *gateway.PaymentRequest) (*models.PaymentRecord, error)
	GetPayment(ctx context.Context, id string) (*models.PaymentRecord, error)
	CreateCardToken(ctx context.Context, card *gateway.Card) (string, error)
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, msg *models.Email) error
}

// Ledger is the spreadsheet bookkeeping of checkouts. Lookups scan the whole
// sheet and the first row with a matching reference wins.
type Ledger interface {
	Append(ctx context.Context, row models.LedgerRow) error
	FindByReference(ctx context.Context, ref string) (*models.LedgerRow, error)
	UpdateStatus(ctx context.Context, ref string, status models.LedgerStatus) error
}

// EventPublisher emits payment lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
	Close() error
}
