// README: Common money value object used across modules (EUR, 2 decimals).
package types

import (
	"math"

	"github.com/shopspring/decimal"
)

const CurrencyEUR = "EUR"

type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// EUR rounds v to cents. NaN and infinities have no decimal form and become zero.
func EUR(v float64) Money {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{Amount: decimal.Zero, Currency: CurrencyEUR}
	}
	return Money{Amount: decimal.NewFromFloat(v).Round(2), Currency: CurrencyEUR}
}

func (m Money) Float() float64 {
	f, _ := m.Amount.Float64()
	return f
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}
