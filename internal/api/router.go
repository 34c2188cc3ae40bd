package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/coworking-payments/internal/handlers"
	"github.com/akylbek/coworking-payments/internal/middleware"
	"github.com/akylbek/coworking-payments/internal/telemetry"
)

type Options struct {
	AllowedOrigins []string
	Production     bool
}

func NewRouter(payments *handlers.PaymentHandler, system *handlers.SystemHandler, opts Options) *gin.Engine {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(opts.Production))
	r.Use(middleware.RequestID())
	r.Use(telemetry.TracingMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "coworking-payments"})
	})

	api := r.Group("/api")
	{
		api.GET("/health", system.Health)
		api.POST("/create-preference", payments.CreatePreference)
		api.POST("/create-payment/process", middleware.Idempotency(), payments.ProcessPayment)
		api.POST("/test-payment", middleware.Idempotency(), payments.TestPayment)
		api.GET("/payment/:id", payments.GetPayment)
		api.POST("/webhook", payments.Webhook)
		api.POST("/test-email", system.TestEmail)
		api.POST("/test-sheets", system.TestSheets)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.IdempotencyHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.IdempotencyHeader, middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
