package service

import (
	"context"
	"sync"

	"github.com/akylbek/coworking-payments/internal/gateway"
	"github.com/akylbek/coworking-payments/internal/models"
)

type fakeGateway struct {
	mu sync.Mutex

	createPreference func(*gateway.Preference) (*gateway.PreferenceResponse, error)
	createPayment    func(*gateway.PaymentRequest) (*models.PaymentRecord, error)
	getPayment       func(string) (*models.PaymentRecord, error)
	createCardToken  func(*gateway.Card) (string, error)

	preferences []*gateway.Preference
	payments    []*gateway.PaymentRequest
	lookups     []string
	tokenized   int
}

func (g *fakeGateway) CreatePreference(_ context.Context, pref *gateway.Preference) (*gateway.PreferenceResponse, error) {
	g.mu.Lock()
	g.preferences = append(g.preferences, pref)
	g.mu.Unlock()
	if g.createPreference != nil {
		return g.createPreference(pref)
	}
	return &gateway.PreferenceResponse{
		ID:        "pref-" + pref.ExternalReference,
		InitPoint: "https://www.mercadopago.com.br/checkout/v1/redirect?pref_id=" + pref.ExternalReference,
	}, nil
}

func (g *fakeGateway) CreatePayment(_ context.Context, req *gateway.PaymentRequest) (*models.PaymentRecord, error) {
	g.mu.Lock()
	g.payments = append(g.payments, req)
	g.mu.Unlock()
	if g.createPayment != nil {
		return g.createPayment(req)
	}
	return &models.PaymentRecord{ID: 1, Status: "approved", Description: req.Description}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, id string) (*models.PaymentRecord, error) {
	g.mu.Lock()
	g.lookups = append(g.lookups, id)
	g.mu.Unlock()
	if g.getPayment != nil {
		return g.getPayment(id)
	}
	return &models.PaymentRecord{Status: "pending"}, nil
}

func (g *fakeGateway) CreateCardToken(_ context.Context, card *gateway.Card) (string, error) {
	g.mu.Lock()
	g.tokenized++
	g.mu.Unlock()
	if g.createCardToken != nil {
		return g.createCardToken(card)
	}
	return "card-token", nil
}

type fakeMailer struct {
	err  error
	sent []*models.Email
}

func (m *fakeMailer) Send(_ context.Context, msg *models.Email) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type fakeLedger struct {
	rows      []models.LedgerRow
	appendErr error
	updateErr error

	appends int
	updates []string
}

func (l *fakeLedger) Append(_ context.Context, row models.LedgerRow) error {
	l.appends++
	if l.appendErr != nil {
		return l.appendErr
	}
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
	l.updates = append(l.updates, ref)
	if l.updateErr != nil {
		return l.updateErr
	}
	for i := range l.rows {
		if l.rows[i].ExternalReference == ref {
			l.rows[i].Status = status
			return nil
		}
	}
	return models.ErrLedgerRowNotFound
}

type published struct {
	topic string
	key   string
}

type fakePublisher struct {
	err    error
	events []published
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, _ any) error {
	p.events = append(p.events, published{topic: topic, key: key})
	return p.err
}

func (p *fakePublisher) Close() error { return nil }
