package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/coworking-payments/internal/models"
	"github.com/akylbek/coworking-payments/internal/telemetry"
)

// Webhook acknowledges every notification with 200 OK so the gateway does
// not redeliver. Only a failed payment lookup answers 500.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	n := parseNotification(c)

	telemetry.Logger.Info("Webhook received",
		zap.String("type", n.Type),
		zap.String("action", n.Action),
		zap.String("data_id", string(n.Data.ID)),
	)

	res, err := h.resolver.HandleNotification(c.Request.Context(), n)
	if err != nil {
		respondError(c, err, h.production)
		return
	}

	if !res.Ignored && res.Reconciliation.Approved {
		telemetry.Logger.Info("Approved payment reconciled via webhook",
			zap.Int64("payment_id", res.Payment.ID),
			zap.Bool("email_sent", res.Reconciliation.Notification.OK),
			zap.Bool("ledger_updated", res.Reconciliation.Ledger.OK),
		)
	}
	c.String(http.StatusOK, "OK")
}

// parseNotification reads the JSON body and falls back to the query string
// forms ?type=payment&data.id=N and ?topic=payment&id=N.
func parseNotification(c *gin.Context) models.Notification {
	var n models.Notification
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&n); err != nil {
			telemetry.Logger.Warn("Unreadable webhook body", zap.Error(err))
		}
	}

	if n.Type == "" {
		n.Type = c.Query("type")
	}
	if n.Type == "" {
		n.Type = c.Query("topic")
	}
	if n.Data.ID == "" {
		id := c.Query("data.id")
		if id == "" {
			id = c.Query("id")
		}
		n.Data.ID = models.ResourceID(id)
	}
	return n
}
