package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/coworking-payments/internal/interfaces"
	"github.com/akylbek/coworking-payments/internal/models"
)

var errLedgerDisabled = errors.New("ledger not configured")

// LedgerCheck writes a synthetic row and reads it back, for the test-sheets
// route.
type LedgerCheck struct {
	ledger interfaces.Ledger
	logger *zap.Logger
	now    func() time.Time
}

func NewLedgerCheck(ledger interfaces.Ledger, logger *zap.Logger) *LedgerCheck {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerCheck{ledger: ledger, logger: logger, now: time.Now}
}

func (p *LedgerCheck) Run(ctx context.Context) models.Outcome {
	if p.ledger == nil {
		return models.Failed(errLedgerDisabled.Error())
	}

	now := p.now()
	ref := "TEST-" + now.Format("20060102150405")
	err := p.ledger.Append(ctx, models.LedgerRow{
		CreatedAt:         now,
		PayerName:         "Teste",
		PayerEmail:        "teste@exemplo.com",
		TaxID:             "00000000000",
		Kind:              "test",
		Description:       "Teste de integração com planilha",
		Amount:            decimal.NewFromInt(1),
		ExternalReference: ref,
		Status:            models.LedgerCreated,
	})
	if err != nil {
		p.logger.Error("Ledger check append failed", zap.Error(err))
		return models.Failed(err.Error())
	}

	if _, err := p.ledger.FindByReference(ctx, ref); err != nil {
		p.logger.Error("Ledger check lookup failed", zap.String("external_reference", ref), zap.Error(err))
		return models.Failed(err.Error())
	}
	return models.Succeeded("row " + ref + " written")
}
