package gateway

import "github.com/akylbek/coworking-payments/internal/models"

type Item struct {
	Title      string  `json:"title"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	CurrencyID string  `json:"currency_id"`
}

type PreferencePayer struct {
	Name           string                 `json:"name,omitempty"`
	Email          string                 `json:"email,omitempty"`
	Identification *models.Identification `json:"identification,omitempty"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type IDRef struct {
	ID string `json:"id"`
}

type PaymentMethods struct {
	ExcludedPaymentMethods []IDRef `json:"excluded_payment_methods"`
	ExcludedPaymentTypes   []IDRef `json:"excluded_payment_types"`
	Installments           int     `json:"installments"`
}

// Preference is a checkout session request (POST /checkout/preferences).
type Preference struct {
	Items               []Item          `json:"items"`
	Payer               PreferencePayer `json:"payer"`
	BackURLs            BackURLs        `json:"back_urls"`
	AutoReturn          string          `json:"auto_return"`
	PaymentMethods      PaymentMethods  `json:"payment_methods"`
	StatementDescriptor string          `json:"statement_descriptor"`
	ExternalReference   string          `json:"external_reference"`
	BinaryMode          bool            `json:"binary_mode"`
	NotificationURL     string          `json:"notification_url,omitempty"`
}

type PreferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// PaymentRequest is a direct charge (POST /v1/payments).
type PaymentRequest struct {
	TransactionAmount float64             `json:"transaction_amount"`
	Token             string              `json:"token,omitempty"`
	Description       string              `json:"description"`
	Installments      int                 `json:"installments"`
	PaymentMethodID   string              `json:"payment_method_id"`
	IssuerID          string              `json:"issuer_id,omitempty"`
	ExternalReference string              `json:"external_reference,omitempty"`
	Payer             models.PaymentPayer `json:"payer"`
}

type Cardholder struct {
	Name           string                 `json:"name"`
	Identification *models.Identification `json:"identification,omitempty"`
}

// Card is raw card data for tokenization (POST /v1/card_tokens).
type Card struct {
	CardNumber      string     `json:"card_number"`
	ExpirationMonth string     `json:"expiration_month"`
	ExpirationYear  string     `json:"expiration_year"`
	SecurityCode    string     `json:"security_code"`
	Cardholder      Cardholder `json:"cardholder"`
}

type cardTokenResponse struct {
	ID string `json:"id"`
}
