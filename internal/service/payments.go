package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/coworking-payments/internal/gateway"
	"github.com/akylbek/coworking-payments/internal/interfaces"
	"github.com/akylbek/coworking-payments/internal/models"
)

const (
	paymentTypeCreditCard = "credit_card"

	defaultPaymentDescription = "Pagamento Coworking"
	sandboxDescription        = "Teste de pagamento"
)

var ErrSandboxDisabled = errors.New("sandbox payments are not configured")

// PaymentService charges directly through the gateway, without a checkout
// redirect.
type PaymentService struct {
	gateway          interfaces.PaymentGateway
	defaultTaxIDType string
	sandbox          *gateway.SandboxProfile
	logger           *zap.Logger
}

// NewPaymentService builds the service. A nil sandbox disables Sandbox.
func NewPaymentService(gw interfaces.PaymentGateway, defaultTaxIDType string, sandbox *gateway.SandboxProfile, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{gateway: gw, defaultTaxIDType: defaultTaxIDType, sandbox: sandbox, logger: logger}
}

func (s *PaymentService) Process(ctx context.Context, req models.DirectPaymentRequest) (*models.PaymentRecord, error) {
	if !req.Amount.IsPositive() {
		return nil, invalid("Valor da transação inválido", "")
	}
	payer := req.Payer
	if payer == nil || payer.Email == "" || payer.Name == "" || payer.TaxIDNumber() == "" {
		return nil, invalid("Dados do pagador inválidos", "")
	}

	first, last := splitName(payer.Name)
	payment := &gateway.PaymentRequest{
		TransactionAmount: req.Amount.InexactFloat64(),
		Description:       orDefault(req.Description, defaultPaymentDescription),
		Installments:      1,
		PaymentMethodID:   req.SelectedPaymentMethod,
		Payer: models.PaymentPayer{
			Email:     payer.Email,
			FirstName: first,
			LastName:  last,
			Identification: &models.Identification{
				Type:   payer.TaxIDType(s.defaultTaxIDType),
				Number: payer.TaxIDNumber(),
			},
		},
	}

	if req.PaymentType == paymentTypeCreditCard {
		if req.FormData.Token == "" {
			return nil, invalid("Dados do cartão inválidos", "formData.token is required for credit_card payments")
		}
		payment.Token = req.FormData.Token
		payment.IssuerID = req.FormData.IssuerID
		if req.FormData.PaymentMethodID != "" {
			payment.PaymentMethodID = req.FormData.PaymentMethodID
		}
		if req.FormData.Installments > 0 {
			payment.Installments = req.FormData.Installments
		}
	}
	if payment.PaymentMethodID == "" {
		return nil, invalid("Método de pagamento inválido", "selectedPaymentMethod is required")
	}

	s.logger.Info("Creating direct payment",
		zap.String("payment_type", req.PaymentType),
		zap.String("payment_method", payment.PaymentMethodID),
		zap.String("amount", req.Amount.String()),
	)

	record, err := s.gateway.CreatePayment(ctx, payment)
	if err != nil {
		return nil, gatewayErr("create payment", err)
	}
	return record, nil
}

// Sandbox tokenizes the configured test card and charges it. It only
// succeeds with test credentials.
func (s *PaymentService) Sandbox(ctx context.Context, amount decimal.Decimal, description string) (*models.PaymentRecord, error) {
	if s.sandbox == nil {
		return nil, ErrSandboxDisabled
	}
	if !amount.IsPositive() {
		return nil, invalid("Valor inválido", "")
	}

	card := s.sandbox.Card
	token, err := s.gateway.CreateCardToken(ctx, &card)
	if err != nil {
		return nil, gatewayErr("create card token", err)
	}

	record, err := s.gateway.CreatePayment(ctx, &gateway.PaymentRequest{
		TransactionAmount: amount.InexactFloat64(),
		Token:             token,
		Description:       orDefault(description, sandboxDescription),
		Installments:      1,
		PaymentMethodID:   s.sandbox.PaymentMethodID,
		Payer: models.PaymentPayer{
			Email:          s.sandbox.PayerEmail,
			Identification: card.Cardholder.Identification,
		},
	})
	if err != nil {
		return nil, gatewayErr("create payment", err)
	}
	return record, nil
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
