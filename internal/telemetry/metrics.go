package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coworking_checkouts_created_total",
		Help: "Checkout sessions created, by reservation kind.",
	}, []string{"kind"})

	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coworking_gateway_requests_total",
		Help: "Payment gateway calls, by operation and outcome.",
	}, []string{"operation", "outcome"})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coworking_gateway_request_duration_seconds",
		Help:    "Payment gateway call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coworking_webhooks_received_total",
		Help: "Webhook notifications received, by notification type.",
	}, []string{"type"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coworking_confirmation_emails_total",
		Help: "Confirmation email attempts, by outcome.",
	}, []string{"outcome"})

	LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coworking_ledger_operations_total",
		Help: "Spreadsheet ledger operations, by operation and outcome.",
	}, []string{"operation", "outcome"})
)

func OutcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
