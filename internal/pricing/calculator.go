// Package pricing turns a reservation request into a charge amount and the
// human readable description shown on the checkout and the email.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/akylbek/coworking-payments/internal/models"
)

type Rates struct {
	Daily   decimal.Decimal
	Monthly decimal.Decimal
	Hourly  decimal.Decimal
}

type Calculator struct {
	rates Rates
}

func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Calculate never fails: an unknown kind yields a zero amount and an empty
// description, which PricingResult.Valid rejects.
func (c *Calculator) Calculate(req models.ReservationRequest) models.PricingResult {
	days := atLeastOne(int(req.Days))

	switch req.ResolvedKind() {
	case models.KindDaily:
		return models.PricingResult{
			Amount:      c.rates.Daily.Mul(decimal.NewFromInt(int64(days))),
			Description: fmt.Sprintf("Reserva de coworking - Diária (%d %s)", days, plural(days, "dia", "dias")),
		}
	case models.KindMonthly:
		months := defaultOne(req.Months)
		return models.PricingResult{
			Amount:      c.rates.Monthly.Mul(decimal.NewFromInt(int64(months))),
			Description: fmt.Sprintf("Reserva de coworking - Mensal (%d %s)", months, plural(months, "mês", "meses")),
		}
	case models.KindHourly:
		hours := defaultOne(req.Hours)
		return models.PricingResult{
			Amount: c.rates.Hourly.Mul(decimal.NewFromInt(int64(hours))).Mul(decimal.NewFromInt(int64(days))),
			Description: fmt.Sprintf("Reserva de coworking - Por Hora (%d %s em %d %s)",
				hours, plural(hours, "hora", "horas"), days, plural(days, "dia", "dias")),
		}
	}
	return models.PricingResult{Amount: decimal.Zero}
}

// defaultOne only fills in an absent count. A negative count is kept so the
// amount goes non-positive and the request is rejected.
func defaultOne(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func plural(n int, one, many string) string {
	if n > 1 {
		return many
	}
	return one
}
