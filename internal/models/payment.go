package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const StatusApproved = "approved"

type CheckoutSession struct {
	ID                string          `json:"id"`
	InitPoint         string          `json:"init_point"`
	SandboxInitPoint  string          `json:"sandbox_init_point,omitempty"`
	ExternalReference string          `json:"external_reference"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
}

type PaymentPayer struct {
	Email          string          `json:"email,omitempty"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

// PaymentRecord mirrors the gateway payment resource. The service only reads it.
type PaymentRecord struct {
	ID                int64           `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail,omitempty"`
	Description       string          `json:"description"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id,omitempty"`
	ExternalReference string          `json:"external_reference"`
	PaymentMethodID   string          `json:"payment_method_id,omitempty"`
	PaymentTypeID     string          `json:"payment_type_id,omitempty"`
	DateCreated       *time.Time      `json:"date_created,omitempty"`
	DateApproved      *time.Time      `json:"date_approved,omitempty"`
	Payer             PaymentPayer    `json:"payer"`

	// Raw keeps the gateway document so it can be returned untouched.
	Raw json.RawMessage `json:"-"`
}

func (p *PaymentRecord) Approved() bool {
	return p.Status == StatusApproved
}

// ResourceID is a gateway identifier that may arrive as a JSON string or number.
type ResourceID string

func (id *ResourceID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ResourceID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ResourceID(n.String())
	return nil
}

func ResourceIDFromInt(n int64) ResourceID {
	return ResourceID(strconv.FormatInt(n, 10))
}

// Notification is a gateway webhook payload.
type Notification struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Data   struct {
		ID ResourceID `json:"id"`
	} `json:"data"`
}

// Outcome reports a best-effort side effect. It never fails the parent request.
type Outcome struct {
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"`
}

func Succeeded(detail string) Outcome { return Outcome{Attempted: true, OK: true, Detail: detail} }

func Failed(detail string) Outcome { return Outcome{Attempted: true, OK: false, Detail: detail} }

func Skipped(detail string) Outcome { return Outcome{Detail: detail} }

type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

type CardForm struct {
	Token           string `json:"token"`
	Installments    int    `json:"installments"`
	IssuerID        string `json:"issuer_id"`
	PaymentMethodID string `json:"payment_method_id"`
}

// DirectPaymentRequest is the body of POST /api/create-payment/process.
type DirectPaymentRequest struct {
	PaymentType           string          `json:"paymentType"`
	SelectedPaymentMethod string          `json:"selectedPaymentMethod"`
	FormData              CardForm        `json:"formData"`
	Amount                decimal.Decimal `json:"amount"`
	Description           string          `json:"description"`
	Payer                 *Payer          `json:"payer"`
}
