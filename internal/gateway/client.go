// Package gateway wraps the MercadoPago SDK with metrics, a circuit breaker
// and the request types the services build.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mercadopago/sdk-go/pkg/cardtoken"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/mperror"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/akylbek/coworking-payments/internal/models"
	"github.com/akylbek/coworking-payments/internal/telemetry"
)

const (
	opCreatePreference = "create_preference"
	opCreatePayment    = "create_payment"
	opGetPayment       = "get_payment"
	opCreateCardToken  = "create_card_token"
)

type Options struct {
	Token   string
	Timeout time.Duration
	Logger  *zap.Logger

	// BaseURL replaces the SDK's API host. Empty keeps the default.
	BaseURL string
	// Transport is wrapped by the tracing transport. Nil uses
	// http.DefaultTransport.
	Transport http.RoundTripper
}

type Client struct {
	preferences preference.Client
	payments    payment.Client
	cardTokens  cardtoken.Client
	breaker     *gobreaker.CircuitBreaker[[]byte]
	logger      *zap.Logger
}

func NewClient(opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.BaseURL != "" {
		rebased, err := newRebaseTransport(opts.BaseURL, transport)
		if err != nil {
			return nil, err
		}
		transport = rebased
	}

	// The SDK retries only inside its default requester; handing it our own
	// client keeps every call to a single attempt.
	httpClient := &http.Client{
		Timeout:   opts.Timeout,
		Transport: otelhttp.NewTransport(&idempotencyTransport{next: transport}),
	}

	cfg, err := config.New(opts.Token, config.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("configure mercadopago sdk: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "mercadopago",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Gateway circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		preferences: preference.NewClient(cfg),
		payments:    payment.NewClient(cfg),
		cardTokens:  cardtoken.NewClient(cfg),
		breaker:     breaker,
		logger:      logger,
	}, nil
}

func (c *Client) CreatePreference(ctx context.Context, pref *Preference) (*PreferenceResponse, error) {
	req, err := convert[preference.Request](pref)
	if err != nil {
		return nil, fmt.Errorf("encode preference: %w", err)
	}

	body, err := c.do(ctx, opCreatePreference, func() (any, error) {
		return c.preferences.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	var resp PreferenceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode preference: %w", err)
	}
	return &resp, nil
}

func (c *Client) CreatePayment(ctx context.Context, p *PaymentRequest) (*models.PaymentRecord, error) {
	req, err := convert[payment.Request](p)
	if err != nil {
		return nil, fmt.Errorf("encode payment: %w", err)
	}

	body, err := c.do(ctx, opCreatePayment, func() (any, error) {
		return c.payments.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return decodePayment(body)
}

func (c *Client) GetPayment(ctx context.Context, id string) (*models.PaymentRecord, error) {
	paymentID, err := strconv.Atoi(id)
	if err != nil || paymentID <= 0 {
		return nil, &APIError{StatusCode: http.StatusBadRequest, Message: fmt.Sprintf("invalid payment id %q", id)}
	}

	body, err := c.do(ctx, opGetPayment, func() (any, error) {
		return c.payments.Get(ctx, paymentID)
	})
	if err != nil {
		return nil, err
	}
	return decodePayment(body)
}

func (c *Client) CreateCardToken(ctx context.Context, card *Card) (string, error) {
	req, err := convert[cardtoken.Request](card)
	if err != nil {
		return "", fmt.Errorf("encode card: %w", err)
	}

	body, err := c.do(ctx, opCreateCardToken, func() (any, error) {
		return c.cardTokens.Create(ctx, req)
	})
	if err != nil {
		return "", err
	}

	var resp cardTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode card token: %w", err)
	}
	if resp.ID == "" {
		return "", ErrMissingCardToken
	}
	return resp.ID, nil
}

// decodePayment reads the SDK payment document. Raw keeps that document as
// the SDK models it.
func decodePayment(body []byte) (*models.PaymentRecord, error) {
	var p models.PaymentRecord
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}
	// SDK responses carry zero times for absent dates.
	if p.DateCreated != nil && p.DateCreated.IsZero() {
		p.DateCreated = nil
	}
	if p.DateApproved != nil && p.DateApproved.IsZero() {
		p.DateApproved = nil
	}
	p.Raw = json.RawMessage(body)
	return &p, nil
}

// convert moves a value between our request types and the SDK ones through
// their shared JSON field names.
func convert[T any](v any) (T, error) {
	var out T
	b, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}

// do performs a single SDK call through the circuit breaker and returns the
// response re-encoded as JSON. There is no retry.
func (c *Client) do(ctx context.Context, op string, call func() (any, error)) ([]byte, error) {
	start := time.Now()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := call()
		if err != nil {
			return nil, toAPIError(err, op+" request failed")
		}
		return json.Marshal(resp)
	})

	telemetry.GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	telemetry.GatewayRequests.WithLabelValues(op, telemetry.OutcomeLabel(err == nil)).Inc()

	if err != nil {
		c.logger.Error("Gateway call failed",
			zap.String("operation", op),
			zap.Error(err),
		)
		return nil, err
	}
	return body, nil
}

// toAPIError turns an SDK response error into an APIError carrying the
// gateway's own message. Transport errors pass through.
func toAPIError(err error, fallback string) error {
	var respErr *mperror.ResponseError
	if errors.As(err, &respErr) {
		return parseAPIError(respErr.StatusCode, []byte(respErr.Message), fallback)
	}
	return err
}
