package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/akylbek/coworking-payments/internal/gateway"
)

const IdempotencyHeader = "Idempotency-Key"

// Idempotency forwards the caller's Idempotency-Key to the gateway payment
// call. Without a header a fresh key is issued and echoed back so the client
// can retry safely.
func Idempotency() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			key = uuid.NewString()
		}

		c.Set("idempotency_key", key)
		c.Header(IdempotencyHeader, key)
		c.Request = c.Request.WithContext(gateway.WithIdempotencyKey(c.Request.Context(), key))
		c.Next()
	}
}
