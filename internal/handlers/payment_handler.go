package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/coworking-payments/internal/models"
	"github.com/akylbek/coworking-payments/internal/service"
	"github.com/akylbek/coworking-payments/internal/telemetry"
)

type PaymentHandler struct {
	checkout   *service.CheckoutService
	payments   *service.PaymentService
	resolver   *service.Resolver
	production bool
}

func NewPaymentHandler(checkout *service.CheckoutService, payments *service.PaymentService, resolver *service.Resolver, production bool) *PaymentHandler {
	return &PaymentHandler{
		checkout:   checkout,
		payments:   payments,
		resolver:   resolver,
		production: production,
	}
}

type preferenceResponse struct {
	ID                string         `json:"id"`
	InitPoint         string         `json:"initPoint"`
	SandboxInitPoint  string         `json:"sandboxInitPoint,omitempty"`
	ExternalReference string         `json:"externalReference"`
	Amount            float64        `json:"amount"`
	Description       string         `json:"description"`
	Ledger            models.Outcome `json:"ledger"`
}

func (h *PaymentHandler) CreatePreference(c *gin.Context) {
	var req models.ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.Logger.Warn("Invalid preference request", zap.Error(err))
		badRequest(c, "Dados inválidos", err)
		return
	}

	res, err := h.checkout.CreateCheckout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, h.production)
		return
	}

	s := res.Session
	c.JSON(http.StatusOK, preferenceResponse{
		ID:                s.ID,
		InitPoint:         s.InitPoint,
		SandboxInitPoint:  s.SandboxInitPoint,
		ExternalReference: s.ExternalReference,
		Amount:            s.Amount.InexactFloat64(),
		Description:       s.Description,
		Ledger:            res.Ledger,
	})
}

func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req models.DirectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.Logger.Warn("Invalid payment request", zap.Error(err))
		badRequest(c, "Dados inválidos", err)
		return
	}

	payment, err := h.payments.Process(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, h.production)
		return
	}

	telemetry.Logger.Info("Direct payment created",
		zap.Int64("payment_id", payment.ID),
		zap.String("status", payment.Status),
		zap.String("idempotency_key", c.GetString("idempotency_key")),
	)
	writePayment(c, payment)
}

type testPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// TestPayment charges the configured sandbox card. Disabled in production
// and when no card is configured.
func (h *PaymentHandler) TestPayment(c *gin.Context) {
	if h.production {
		c.JSON(http.StatusForbidden, gin.H{"error": "Pagamentos de teste desativados em produção"})
		return
	}

	var req testPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Valor inválido", err)
		return
	}

	payment, err := h.payments.Sandbox(c.Request.Context(), req.Amount, req.Description)
	if errors.Is(err, service.ErrSandboxDisabled) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Pagamentos de teste não configurados"})
		return
	}
	if err != nil {
		respondError(c, err, h.production)
		return
	}
	writePayment(c, payment)
}

// GetPayment is the poll endpoint. An approved payment fires the
// confirmation side effects before the gateway document is returned.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, rec, err := h.resolver.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, h.production)
		return
	}

	if rec.Approved {
		telemetry.Logger.Info("Approved payment reconciled",
			zap.Int64("payment_id", payment.ID),
			zap.Bool("email_sent", rec.Notification.OK),
			zap.Bool("ledger_updated", rec.Ledger.OK),
		)
	}
	writePayment(c, payment)
}

// writePayment returns the gateway document untouched when it is available.
func writePayment(c *gin.Context, p *models.PaymentRecord) {
	if len(p.Raw) > 0 {
		c.Data(http.StatusOK, "application/json; charset=utf-8", p.Raw)
		return
	}
	c.JSON(http.StatusOK, p)
}
