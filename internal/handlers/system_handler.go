package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/coworking-payments/internal/service"
)

// HealthInfo is the static part of the health report, filled at boot.
type HealthInfo struct {
	Environment       string
	GatewayConfigured bool
	EmailConfigured   bool
	FromEmail         string
	LedgerEnabled     bool
	SheetName         string
	EventsDriver      string
}

type SystemHandler struct {
	info     HealthInfo
	notifier *service.Notifier
	check    *service.LedgerCheck
}

func NewSystemHandler(info HealthInfo, notifier *service.Notifier, check *service.LedgerCheck) *SystemHandler {
	return &SystemHandler{info: info, notifier: notifier, check: check}
}

func (h *SystemHandler) Health(c *gin.Context) {
	events := h.info.EventsDriver
	if events == "" {
		events = "disabled"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"environment": h.info.Environment,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"gateway": gin.H{
			"token_defined": h.info.GatewayConfigured,
		},
		"email": gin.H{
			"configured": h.info.EmailConfigured,
			"from_email": h.info.FromEmail,
		},
		"ledger": gin.H{
			"enabled": h.info.LedgerEnabled,
			"sheet":   h.info.SheetName,
		},
		"events": events,
	})
}

type testEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *SystemHandler) TestEmail(c *gin.Context) {
	var req testEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email é obrigatório", err)
		return
	}

	out := h.notifier.SendTest(c.Request.Context(), req.Email)
	if !out.OK {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Falha ao enviar email de teste",
			"details": out.Detail,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email de teste enviado com sucesso!"})
}

func (h *SystemHandler) TestSheets(c *gin.Context) {
	out := h.check.Run(c.Request.Context())
	if !out.OK {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Falha ao acessar a planilha",
			"details": out.Detail,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Planilha atualizada com sucesso! " + out.Detail})
}
