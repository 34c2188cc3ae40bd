package handlers

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/coworking-payments/internal/service"
	"github.com/akylbek/coworking-payments/internal/telemetry"
)

const noDetails = "Sem detalhes adicionais"

// respondError maps the service error taxonomy onto HTTP.
func respondError(c *gin.Context, err error, production bool) {
	_ = c.Error(err)

	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		body := gin.H{"error": vErr.Message}
		if vErr.Details != "" {
			body["details"] = vErr.Details
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	var gErr *service.GatewayError
	if errors.As(err, &gErr) {
		telemetry.Logger.Error("Gateway request failed",
			zap.String("operation", gErr.Op),
			zap.Int("gateway_status", gErr.StatusCode()),
			zap.Error(gErr.Err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   gErr.Message(),
			"details": gErr.Error(),
		})
		return
	}

	telemetry.Logger.Error("Unhandled error", zap.Error(err))
	body := gin.H{"error": err.Error(), "details": noDetails}
	if !production {
		body["stack"] = string(debug.Stack())
	}
	c.JSON(http.StatusInternalServerError, body)
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
