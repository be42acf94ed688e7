package shipping

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when an order carries no currency code.
const DefaultCurrency = "USD"

var hundred = decimal.NewFromInt(100)

// Money is an amount in major currency units (dollars, not cents), the
// representation the provider API uses.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// MinorToMajor converts an amount in minor units (cents) to Money.
func MinorToMajor(minor int64, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{
		Amount:   decimal.NewFromInt(minor).Div(hundred),
		Currency: strings.ToUpper(currency),
	}
}

// MinorUnits converts m back to minor units, rounding half away from zero
// to the nearest cent.
func (m Money) MinorUnits() int64 {
	return m.Amount.Mul(hundred).Round(0).IntPart()
}
