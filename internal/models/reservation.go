package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type ReservationKind string

const (
	KindDaily   ReservationKind = "daily"
	KindMonthly ReservationKind = "monthly"
	KindHourly  ReservationKind = "hourly"
)

type Identification struct {
	Type   string `json:"type,omitempty"`
	Number string `json:"number,omitempty"`
}

type Payer struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	TaxID          string          `json:"taxId,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

// TaxIDNumber prefers the identification block and falls back to taxId.
func (p Payer) TaxIDNumber() string {
	if p.Identification != nil && p.Identification.Number != "" {
		return p.Identification.Number
	}
	return p.TaxID
}

func (p Payer) TaxIDType(fallback string) string {
	if p.Identification != nil && p.Identification.Type != "" {
		return p.Identification.Type
	}
	return fallback
}

// DayCount accepts either a list of selected days or a plain number.
type DayCount int

func (d *DayCount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = 0
		return nil
	}
	var days []json.RawMessage
	if err := json.Unmarshal(b, &days); err == nil {
		*d = DayCount(len(days))
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("dias must be a list of days or a number: %w", err)
	}
	*d = DayCount(n)
	return nil
}

// ReservationRequest is the body of POST /api/create-preference. Either Kind
// (or its Portuguese alias Tipo) or an explicit Amount + Description is set.
type ReservationRequest struct {
	Kind        ReservationKind `json:"kind"`
	Tipo        ReservationKind `json:"tipo"`
	Days        DayCount        `json:"dias"`
	Months      int             `json:"mes"`
	Hours       int             `json:"horario"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Payer       Payer           `json:"payer"`
}

func (r ReservationRequest) ResolvedKind() ReservationKind {
	if r.Kind != "" {
		return r.Kind
	}
	return r.Tipo
}

type PricingResult struct {
	Amount      decimal.Decimal
	Description string
}

func (p PricingResult) Valid() bool {
	return p.Amount.IsPositive() && p.Description != ""
}
