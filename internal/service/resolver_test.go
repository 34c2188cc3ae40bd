package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/coworking-payments/internal/events"
	"github.com/akylbek/coworking-payments/internal/gateway"
	"github.com/akylbek/coworking-payments/internal/models"
)

func approvedPayment(ref string) *models.PaymentRecord {
	return &models.PaymentRecord{
		ID:                123,
		Status:            models.StatusApproved,
		Description:       "Reserva de coworking - Diária (3 dias)",
		TransactionAmount: decimal.NewFromInt(150),
		ExternalReference: ref,
		Payer:             models.PaymentPayer{Email: "ana@x.com", FirstName: "Ana"},
	}
}

type resolverFixture struct {
	gw     *fakeGateway
	mailer *fakeMailer
	ledger *fakeLedger
	pub    *fakePublisher
	r      *Resolver
}

func newResolverFixture(source ContactSource, payment *models.PaymentRecord) *resolverFixture {
	f := &resolverFixture{
		gw: &fakeGateway{getPayment: func(string) (*models.PaymentRecord, error) {
			p := *payment
			return &p, nil
		}},
		mailer: &fakeMailer{},
		ledger: &fakeLedger{},
		pub:    &fakePublisher{},
	}
	notifier := NewNotifier(f.mailer, f.ledger, NotifierConfig{
		From:       "coworking@exemplo.com",
		ContactURL: "https://wa.me/5500000000000",
		Source:     source,
	}, nil)
	f.r = NewResolver(f.gw, notifier, f.ledger, f.pub, nil)
	return f
}

func TestResolve_ApprovedFiresSideEffectsOnce(t *testing.T) {
	f := newResolverFixture(ContactFromPayer, approvedPayment("COWORKING-999"))
	f.ledger.rows = []models.LedgerRow{{ExternalReference: "COWORKING-999", Status: models.LedgerCreated}}

	payment, rec, err := f.r.Resolve(context.Background(), "123")
	require.NoError(t, err)

	assert.Equal(t, int64(123), payment.ID)
	assert.True(t, rec.Approved)
	assert.True(t, rec.Notification.OK)
	assert.True(t, rec.Ledger.OK)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, []string{"ana@x.com"}, f.mailer.sent[0].To)
	assert.Equal(t, "coworking@exemplo.com", f.mailer.sent[0].From)
	assert.Contains(t, f.mailer.sent[0].HTML, "COWORKING-999")
	assert.Contains(t, f.mailer.sent[0].HTML, "https://wa.me/5500000000000")

	assert.Equal(t, []string{"COWORKING-999"}, f.ledger.updates)
	assert.Equal(t, models.LedgerPaid, f.ledger.rows[0].Status)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, events.TopicPaymentApproved, f.pub.events[0].topic)
	assert.Equal(t, []string{"123"}, f.gw.lookups)
}

func TestResolve_NotApprovedDoesNothing(t *testing.T) {
	for _, status := range []string{"pending", "rejected", "in_process", "cancelled"} {
		t.Run(status, func(t *testing.T) {
			p := approvedPayment("COWORKING-1")
			p.Status = status
			f := newResolverFixture(ContactFromPayer, p)

			_, rec, err := f.r.Resolve(context.Background(), "123")
			require.NoError(t, err)

			assert.False(t, rec.Approved)
			assert.False(t, rec.Notification.Attempted)
			assert.False(t, rec.Ledger.Attempted)
			assert.Empty(t, f.mailer.sent)
			assert.Empty(t, f.ledger.updates)
			assert.Empty(t, f.pub.events)
		})
	}
}

func TestResolve_GatewayError(t *testing.T) {
	f := newResolverFixture(ContactFromPayer, approvedPayment("COWORKING-1"))
	f.gw.getPayment = func(string) (*models.PaymentRecord, error) {
		return nil, &gateway.APIError{StatusCode: 404, Message: "Payment not found"}
	}

	_, _, err := f.r.Resolve(context.Background(), "404")

	var gErr *GatewayError
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, "Payment not found", gErr.Message())
	assert.Empty(t, f.mailer.sent)
}

func TestResolve_EmptyID(t *testing.T) {
	f := newResolverFixture(ContactFromPayer, approvedPayment("COWORKING-1"))

	_, _, err := f.r.Resolve(context.Background(), "")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, f.gw.lookups)
}

func TestResolve_SoftFailures(t *testing.T) {
	t.Run("email and ledger fail", func(t *testing.T) {
		f := newResolverFixture(ContactFromPayer, approvedPayment("COWORKING-7"))
		f.mailer.err = errors.New("resend down")
		f.ledger.updateErr = errors.New("sheets down")

		payment, rec, err := f.r.Resolve(context.Background(), "123")
		require.NoError(t, err)
		require.NotNil(t, payment)

		assert.True(t, rec.Notification.Attempted)
		assert.False(t, rec.Notification.OK)
		assert.True(t, rec.Ledger.Attempted)
		assert.False(t, rec.Ledger.OK)
		assert.Len(t, f.mailer.sent, 1)
		assert.Len(t, f.ledger.updates, 1)
	})

	t.Run("no ledger row", func(t *testing.T) {
		f := newResolverFixture(ContactFromPayer, approvedPayment("COWORKING-404"))

		_, rec, err := f.r.Resolve(context.Background(), "123")
		require.NoError(t, err)
		assert.True(t, rec.Notification.OK)
		assert.False(t, rec.Ledger.OK)
		assert.Contains(t, rec.Ledger.Detail, "COWORKING-404")
	})

	t.Run("missing payer email", func(t *testing.T) {
		p := approvedPayment("COWORKING-8")
		p.Payer.Email = ""
		f := newResolverFixture(ContactFromPayer, p)
		f.ledger.rows = []models.LedgerRow{{ExternalReference: "COWORKING-8"}}

		_, rec, err := f.r.Resolve(context.Background(), "123")
		require.NoError(t, err)
		assert.True(t, rec.Notification.Attempted)
		assert.False(t, rec.Notification.OK)
		assert.Empty(t, f.mailer.sent)
		assert.True(t, rec.Ledger.OK)
	})

	t.Run("empty reference skips ledger", func(t *testing.T) {
		f := newResolverFixture(ContactFromPayer, approvedPayment(""))

		_, rec, err := f.r.Resolve(context.Background(), "123")
		require.NoError(t, err)
		assert.True(t, rec.Notification.OK)
		assert.False(t, rec.Ledger.Attempted)
		assert.False(t, rec.Ledger.OK)
		assert.Empty(t, f.ledger.updates)
	})
}

func TestResolve_LedgerContactSource(t *testing.T) {
	p := approvedPayment("COWORKING-555")
	p.Payer = models.PaymentPayer{}
	f := newResolverFixture(ContactFromLedger, p)
	f.ledger.rows = []models.LedgerRow{
		{ExternalReference: "COWORKING-555", PayerName: "Bruno", PayerEmail: "bruno@x.com"},
		{ExternalReference: "COWORKING-555", PayerName: "Duplicate", PayerEmail: "dup@x.com"},
	}

	_, rec, err := f.r.Resolve(context.Background(), "123")
	require.NoError(t, err)

	assert.True(t, rec.Notification.OK)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, []string{"bruno@x.com"}, f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].HTML, "Bruno")
}

func TestResolve_LedgerContactSourceWithoutReference(t *testing.T) {
	f := newResolverFixture(ContactFromLedger, approvedPayment(""))

	_, rec, err := f.r.Resolve(context.Background(), "123")
	require.NoError(t, err)
	assert.False(t, rec.Notification.OK)
	assert.Equal(t, errMissingReference.Error(), rec.Notification.Detail)
	assert.Empty(t, f.mailer.sent)
}

func TestResolve_LedgerDisabled(t *testing.T) {
	mailer := &fakeMailer{}
	gw := &fakeGateway{getPayment: func(string) (*models.PaymentRecord, error) {
		return approvedPayment("COWORKING-1"), nil
	}}
	r := NewResolver(gw, NewNotifier(mailer, nil, NotifierConfig{}, nil), nil, nil, nil)

	_, rec, err := r.Resolve(context.Background(), "123")
	require.NoError(t, err)
	assert.True(t, rec.Notification.OK)
	assert.False(t, rec.Ledger.Attempted)
	assert.Equal(t, "ledger disabled", rec.Ledger.Detail)
}

func TestHandleNotification(t *testing.T) {
	t.Run("non payment types are ignored", func(t *testing.T) {
		f := newResolverFixture(ContactFromPayer, approvedPayment("COWORKING-1"))
		for _, typ := range []string{"merchant_order", "plan", "", "subscription"} {
			n := models.Notification{Type: typ}
			n.Data.ID = "123"

			res, err := f.r.HandleNotification(context.Background(), n)
			require.NoError(t, err)
			assert.True(t, res.Ignored)
		}
		assert.Empty(t, f.gw.lookups)
	})

	t.Run("payment without id", func(t *testing.T) {
		f := newResolverFixture(ContactFromPayer, approvedPayment("COWORKING-1"))

		res, err := f.r.HandleNotification(context.Background(), models.Notification{Type: "payment"})
		require.NoError(t, err)
		assert.True(t, res.Ignored)
		assert.Empty(t, f.gw.lookups)
	})

	t.Run("payment is resolved", func(t *testing.T) {
		f := newResolverFixture(ContactFromPayer, approvedPayment("COWORKING-1"))
		f.ledger.rows = []models.LedgerRow{{ExternalReference: "COWORKING-1"}}
		n := models.Notification{Type: "payment"}
		n.Data.ID = "123"

		res, err := f.r.HandleNotification(context.Background(), n)
		require.NoError(t, err)
		assert.False(t, res.Ignored)
		assert.True(t, res.Reconciliation.Approved)
		assert.Equal(t, []string{"123"}, f.gw.lookups)
		assert.Len(t, f.mailer.sent, 1)
		assert.Len(t, f.ledger.updates, 1)
	})
}
