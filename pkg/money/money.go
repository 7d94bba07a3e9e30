// Package money formats ledger totals with ISO-4217 currency rules. Amounts
// are kept as integer minor units so summaries never accumulate float error.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes seen on Hungarian statements
const (
	HUF = "HUF" // Hungarian Forint
	EUR = "EUR" // Euro
	USD = "USD" // US Dollar
)

// Money represents a monetary value with currency.
type Money struct {
	m *money.Money
}

// New creates Money from minor units.
func New(amountMinor int64, currencyCode string) *Money {
	return &Money{m: money.New(amountMinor, currencyCode)}
}

// NewFromDecimal creates Money from a decimal amount, rounding to the
// currency's minor unit. Unknown codes fall back to HUF.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currencyCode = HUF
		currency = money.GetCurrency(HUF)
	}

	multiplier := decimal.New(1, int32(currency.Fraction))
	minor := amount.Mul(multiplier).Round(0).IntPart()

	return New(minor, currencyCode)
}

// Sum adds decimal amounts and returns the total in currencyCode.
func Sum(amounts []decimal.Decimal, currencyCode string) *Money {
	return NewFromDecimal(decimal.Sum(decimal.Zero, amounts...), currencyCode)
}

// Abs returns the absolute value
func (m *Money) Abs() *Money {
	if m == nil || m.m == nil {
		return New(0, HUF)
	}
	return &Money{m: m.m.Absolute()}
}

// Display returns the amount formatted with the currency grapheme.
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return New(0, HUF).Display()
	}
	return m.m.Display()
}
