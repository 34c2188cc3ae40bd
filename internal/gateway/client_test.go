package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/coworking-payments/internal/models"
)

var testCard = Card{
	CardNumber:      "5031433215406351",
	ExpirationMonth: "11",
	ExpirationYear:  "2030",
	SecurityCode:    "123",
	Cardholder: Cardholder{
		Name:           "APRO",
		Identification: &models.Identification{Type: "CPF", Number: "12345678909"},
	},
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{BaseURL: srv.URL + "/", Token: "TEST-token", Transport: srv.Client().Transport})
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "not a url", Token: "TEST-token"})
	assert.ErrorContains(t, err, "invalid gateway base url")
}

func TestCreatePreference(t *testing.T) {
	var got Preference
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"pref-1","init_point":"https://mp.test/checkout?pref_id=pref-1"}`)
	})

	pref := &Preference{
		Items:             []Item{{Title: "Reserva", UnitPrice: 3, Quantity: 1, CurrencyID: "BRL"}},
		ExternalReference: "COWORKING-1",
		BinaryMode:        true,
		PaymentMethods: PaymentMethods{
			ExcludedPaymentMethods: []IDRef{},
			ExcludedPaymentTypes:   []IDRef{},
			Installments:           1,
		},
	}

	resp, err := client.CreatePreference(context.Background(), pref)
	require.NoError(t, err)
	assert.Equal(t, "pref-1", resp.ID)
	assert.Equal(t, "https://mp.test/checkout?pref_id=pref-1", resp.InitPoint)
	assert.Equal(t, "COWORKING-1", got.ExternalReference)
	assert.True(t, got.BinaryMode)
	assert.Equal(t, 3.0, got.Items[0].UnitPrice)
}

func TestCreatePreference_BackURLsAndPayer(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id":"pref-2","init_point":"https://mp.test/2"}`)
	})

	_, err := client.CreatePreference(context.Background(), &Preference{
		Items:      []Item{{Title: "Reserva", UnitPrice: 45.5, Quantity: 1, CurrencyID: "BRL"}},
		Payer:      PreferencePayer{Name: "Ana", Email: "ana@x.com", Identification: &models.Identification{Type: "CPF", Number: "01234567890"}},
		BackURLs:   BackURLs{Success: "http://localhost:5173/success", Failure: "http://localhost:5173/failure", Pending: "http://localhost:5173/pending"},
		AutoReturn: "approved",
	})
	require.NoError(t, err)

	backURLs := got["back_urls"].(map[string]any)
	assert.Equal(t, "http://localhost:5173/success", backURLs["success"])
	assert.Equal(t, "approved", got["auto_return"])
	payer := got["payer"].(map[string]any)
	assert.Equal(t, "ana@x.com", payer["email"])
	assert.Equal(t, "01234567890", payer["identification"].(map[string]any)["number"])
	assert.NotContains(t, got, "notification_url")
}

func TestGetPayment(t *testing.T) {
	raw := `{"id":123,"status":"approved","transaction_amount":3,"external_reference":"COWORKING-999","payer":{"email":"ana@x.com"}}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/123", r.URL.Path)
		_, _ = io.WriteString(w, raw)
	})

	payment, err := client.GetPayment(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, int64(123), payment.ID)
	assert.True(t, payment.Approved())
	assert.Equal(t, "COWORKING-999", payment.ExternalReference)
	assert.Nil(t, payment.DateApproved)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(payment.Raw, &doc))
	assert.Equal(t, "approved", doc["status"])
	assert.Equal(t, "COWORKING-999", doc["external_reference"])
}

func TestGetPayment_InvalidID(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.GetPayment(context.Background(), "abc")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Zero(t, calls.Load())
}

func TestCreatePayment_SendsIdempotencyKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))

		var req PaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tok-1", req.Token)
		assert.Equal(t, "Ana", req.Payer.FirstName)

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":77,"status":"approved"}`)
	})

	payment, err := client.CreatePayment(context.Background(), &PaymentRequest{
		TransactionAmount: 10,
		Token:             "tok-1",
		Installments:      1,
		PaymentMethodID:   "master",
		Payer:             models.PaymentPayer{Email: "ana@x.com", FirstName: "Ana"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), payment.ID)
}

func TestCreatePayment_UsesIdempotencyKeyFromContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "client-key-1", r.Header.Get("X-Idempotency-Key"))
		_, _ = io.WriteString(w, `{"id":78,"status":"pending"}`)
	})

	ctx := WithIdempotencyKey(context.Background(), "client-key-1")
	_, err := client.CreatePayment(ctx, &PaymentRequest{TransactionAmount: 1, PaymentMethodID: "pix"})
	require.NoError(t, err)
}

func TestCreateCardToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/card_tokens", r.URL.Path)
		var card Card
		require.NoError(t, json.NewDecoder(r.Body).Decode(&card))
		assert.Equal(t, testCard.CardNumber, card.CardNumber)
		assert.Equal(t, "11", card.ExpirationMonth)
		assert.Equal(t, "12345678909", card.Cardholder.Identification.Number)
		_, _ = io.WriteString(w, `{"id":"card-token-1"}`)
	})

	card := testCard
	token, err := client.CreateCardToken(context.Background(), &card)
	require.NoError(t, err)
	assert.Equal(t, "card-token-1", token)
}

func TestCreateCardToken_MissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	card := testCard
	_, err := client.CreateCardToken(context.Background(), &card)
	assert.ErrorIs(t, err, ErrMissingCardToken)
}

func TestAPIError_MessagePassedThrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"invalid unit_price","error":"bad_request","status":400}`)
	})

	_, err := client.CreatePreference(context.Background(), &Preference{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid unit_price", apiErr.Message)
	assert.Equal(t, "bad_request", apiErr.Code)
	assert.False(t, apiErr.Temporary())
}

func TestAPIError_FallbackMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html>bad gateway</html>`)
	})

	_, err := client.GetPayment(context.Background(), "1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "get_payment request failed", apiErr.Message)
	assert.True(t, apiErr.Temporary())
}

func TestCircuitBreaker_OpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := client.GetPayment(context.Background(), "1")
		require.Error(t, err)
	}

	_, err := client.GetPayment(context.Background(), "1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), calls.Load())
}

func TestCircuitBreaker_IgnoresClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Payment not found"}`)
	})

	for i := 0; i < 7; i++ {
		_, err := client.GetPayment(context.Background(), "404")
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	assert.Equal(t, int32(7), calls.Load())
}
