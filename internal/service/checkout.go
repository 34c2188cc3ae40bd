package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/coworking-payments/internal/events"
	"github.com/akylbek/coworking-payments/internal/gateway"
	"github.com/akylbek/coworking-payments/internal/interfaces"
	"github.com/akylbek/coworking-payments/internal/models"
	"github.com/akylbek/coworking-payments/internal/pricing"
	"github.com/akylbek/coworking-payments/internal/telemetry"
)

type CheckoutConfig struct {
	Currency            string
	StatementDescriptor string
	DefaultTaxIDType    string
	ReturnURLBase       string
	NotificationURL     string
}

type CheckoutService struct {
	calc    *pricing.Calculator
	gateway interfaces.PaymentGateway
	ledger  interfaces.Ledger
	events  interfaces.EventPublisher
	refs    *ReferenceGenerator
	cfg     CheckoutConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewCheckoutService builds the checkout initiator. ledger may be nil when the
// spreadsheet is not configured.
func NewCheckoutService(
	calc *pricing.Calculator,
	gw interfaces.PaymentGateway,
	ledger interfaces.Ledger,
	publisher interfaces.EventPublisher,
	refs *ReferenceGenerator,
	cfg CheckoutConfig,
	logger *zap.Logger,
) *CheckoutService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		calc:    calc,
		gateway: gw,
		ledger:  ledger,
		events:  publisher,
		refs:    refs,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

type CheckoutResult struct {
	Session models.CheckoutSession
	Ledger  models.Outcome
}

// Price applies the pricing rules when a reservation kind is given and
// otherwise takes the explicit amount and description.
func (s *CheckoutService) Price(req models.ReservationRequest) (models.PricingResult, error) {
	var res models.PricingResult
	if req.ResolvedKind() != "" {
		res = s.calc.Calculate(req)
	} else {
		res = models.PricingResult{Amount: req.Amount, Description: strings.TrimSpace(req.Description)}
	}
	if !res.Valid() {
		return res, invalid("Dados inválidos",
			"Não foi possível calcular o valor do pagamento. Verifique os campos enviados.")
	}
	return res, nil
}

func (s *CheckoutService) CreateCheckout(ctx context.Context, req models.ReservationRequest) (*CheckoutResult, error) {
	price, err := s.Price(req)
	if err != nil {
		return nil, err
	}

	ref := s.refs.Next()
	pref := s.buildPreference(price, req.Payer, ref)

	s.logger.Info("Creating checkout preference",
		zap.String("external_reference", ref),
		zap.String("kind", string(req.ResolvedKind())),
		zap.String("amount", price.Amount.String()),
		zap.String("trace_id", telemetry.TraceID(ctx)),
	)

	resp, err := s.gateway.CreatePreference(ctx, pref)
	if err != nil {
		return nil, gatewayErr("create preference", err)
	}

	kind := string(req.ResolvedKind())
	if kind == "" {
		kind = "custom"
	}
	telemetry.CheckoutsCreated.WithLabelValues(kind).Inc()

	result := &CheckoutResult{
		Session: models.CheckoutSession{
			ID:                resp.ID,
			InitPoint:         resp.InitPoint,
			SandboxInitPoint:  resp.SandboxInitPoint,
			ExternalReference: ref,
			Amount:            price.Amount,
			Description:       price.Description,
		},
		Ledger: models.Skipped("ledger disabled"),
	}

	if s.ledger != nil {
		result.Ledger = s.recordLedgerRow(ctx, req, price, ref)
	}

	if err := s.events.Publish(ctx, events.TopicCheckoutCreated, ref, events.CheckoutCreated{
		ExternalReference: ref,
		PreferenceID:      resp.ID,
		Kind:              string(req.ResolvedKind()),
		Amount:            price.Amount.StringFixed(2),
		Description:       price.Description,
		PayerEmail:        req.Payer.Email,
		CreatedAt:         s.now(),
	}); err != nil {
		s.logger.Warn("Failed to publish checkout event",
			zap.String("external_reference", ref),
			zap.Error(err),
		)
	}

	s.logger.Info("Checkout preference created",
		zap.String("preference_id", resp.ID),
		zap.String("external_reference", ref),
	)
	return result, nil
}

func (s *CheckoutService) buildPreference(price models.PricingResult, payer models.Payer, ref string) *gateway.Preference {
	pref := &gateway.Preference{
		Items: []gateway.Item{{
			Title:      price.Description,
			UnitPrice:  price.Amount.InexactFloat64(),
			Quantity:   1,
			CurrencyID: s.cfg.Currency,
		}},
		Payer: gateway.PreferencePayer{
			Name:  payer.Name,
			Email: payer.Email,
			Identification: &models.Identification{
				Type:   payer.TaxIDType(s.cfg.DefaultTaxIDType),
				Number: payer.TaxIDNumber(),
			},
		},
		BackURLs: gateway.BackURLs{
			Success: s.cfg.ReturnURLBase + "/payment-success",
			Failure: s.cfg.ReturnURLBase + "/pending",
			Pending: s.cfg.ReturnURLBase + "/pending",
		},
		AutoReturn: models.StatusApproved,
		PaymentMethods: gateway.PaymentMethods{
			ExcludedPaymentMethods: []gateway.IDRef{},
			ExcludedPaymentTypes:   []gateway.IDRef{},
			Installments:           1,
		},
		StatementDescriptor: s.cfg.StatementDescriptor,
		ExternalReference:   ref,
		BinaryMode:          true,
		NotificationURL:     s.cfg.NotificationURL,
	}
	return pref
}

func (s *CheckoutService) recordLedgerRow(ctx context.Context, req models.ReservationRequest, price models.PricingResult, ref string) models.Outcome {
	row := models.LedgerRow{
		CreatedAt:         s.now(),
		PayerName:         req.Payer.Name,
		PayerEmail:        req.Payer.Email,
		TaxID:             req.Payer.TaxIDNumber(),
		Kind:              string(req.ResolvedKind()),
		Description:       price.Description,
		Amount:            price.Amount,
		ExternalReference: ref,
		Status:            models.LedgerCreated,
	}
	if err := s.ledger.Append(ctx, row); err != nil {
		s.logger.Error("Failed to record checkout in ledger",
			zap.String("external_reference", ref),
			zap.Error(err),
		)
		return models.Failed(err.Error())
	}
	return models.Succeeded("row created")
}
