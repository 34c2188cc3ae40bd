package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akylbek/coworking-payments/internal/telemetry"
)

const RequestIDHeader = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one line per request once the handler chain is done.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
			zap.String("trace_id", telemetry.TraceID(c.Request.Context())),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			telemetry.Logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			telemetry.Logger.Warn("Request rejected", fields...)
		default:
			telemetry.Logger.Info("Request handled", fields...)
		}
	}
}

// Recovery turns a panic into a 500 with the usual error body. The stack is
// only included outside production.
func Recovery(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			stack := string(debug.Stack())
			telemetry.Logger.Error("Panic recovered",
				zap.Any("panic", recovered),
				zap.String("path", c.Request.URL.Path),
				zap.String("stack", stack),
			)

			body := gin.H{
				"error":   fmt.Sprint(recovered),
				"details": "Erro interno do servidor",
			}
			if !production {
				body["stack"] = stack
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}
