package api

import (
	"context"
	"sync"

	"github.com/akylbek/coworking-payments/internal/gateway"
	"github.com/akylbek/coworking-payments/internal/models"
)

type fakeGateway struct {
	mu          sync.Mutex
	payments    map[string]*models.PaymentRecord
	raw         map[string]string
	preferences []*gateway.Preference
	charges     []*gateway.PaymentRequest
	lookups     int
	err         error
}

func (g *fakeGateway) CreatePreference(_ context.Context, pref *gateway.Preference) (*gateway.PreferenceResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.preferences = append(g.preferences, pref)
	return &gateway.PreferenceResponse{
		ID:        "pref-1",
		InitPoint: "https://www.mercadopago.com.br/checkout/v1/redirect?pref_id=pref-1",
	}, nil
}

func (g *fakeGateway) CreatePayment(_ context.Context, req *gateway.PaymentRequest) (*models.PaymentRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.charges = append(g.charges, req)
	return &models.PaymentRecord{
		ID:     555,
		Status: "approved",
		Raw:    []byte(`{"id":555,"status":"approved"}`),
	}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, id string) (*models.PaymentRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups++
	if g.err != nil {
		return nil, g.err
	}
	p, ok := g.payments[id]
	if !ok {
		return nil, &gateway.APIError{StatusCode: 404, Message: "Payment not found"}
	}
	cp := *p
	cp.Raw = []byte(g.raw[id])
	return &cp, nil
}

func (g *fakeGateway) CreateCardToken(context.Context, *gateway.Card) (string, error) {
	return "sandbox-token", nil
}

type fakeMailer struct {
	sent []*models.Email
}

func (m *fakeMailer) Send(_ context.Context, msg *models.Email) error {
	m.sent = append(m.sent, msg)
	return nil
}

type fakeLedger struct {
	rows []models.LedgerRow
}

func (l *fakeLedger) Append(_ context.Context, row models.LedgerRow) error {
	l.rows = append(l.rows, row)
	return nil
}

func (l *fakeLedger) FindByReference(_ context.Context, ref string) (*models.LedgerRow, error) {
	for i := range l.rows {
		if l.rows[i].ExternalReference == ref {
			row := l.rows[i]
			return &row, nil
		}
	}
	return nil, models.ErrLedgerRowNotFound
}

func (l *fakeLedger) UpdateStatus(_ context.Context, ref string, status models.LedgerStatus) error {
	for i := range l.rows {
		if l.rows[i].ExternalReference == ref {
			l.rows[i].Status = status
			return nil
		}
	}
	return models.ErrLedgerRowNotFound
}
