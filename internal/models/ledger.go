package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type LedgerStatus string

const (
	LedgerCreated LedgerStatus = "Created"
	LedgerPaid    LedgerStatus = "Paid"
)

// LedgerRow is one spreadsheet row per checkout, in column order.
type LedgerRow struct {
	CreatedAt         time.Time
	PayerName         string
	PayerEmail        string
	TaxID             string
	Kind              string
	Description       string
	Amount            decimal.Decimal
	ExternalReference string
	Status            LedgerStatus
}

var ErrLedgerRowNotFound = errors.New("ledger row not found")
