// Package money formats decimal amounts for display in a configured currency.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = gomoney.USD

// Formatter renders amounts in one currency.
type Formatter struct {
	currency *gomoney.Currency
}

// NewFormatter returns a Formatter for an ISO 4217 code. An empty code means
// DefaultCurrency.
func NewFormatter(code string) (*Formatter, error) {
	if code == "" {
		code = DefaultCurrency
	}
	cur := gomoney.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return nil, fmt.Errorf("unknown currency %q", code)
	}
	return &Formatter{currency: cur}, nil
}

// Code returns the currency code.
func (f *Formatter) Code() string {
	return f.currency.Code
}

// Display formats amount with the currency's symbol and separators, e.g.
// "$1,234.50". The amount is rounded to the currency's minor unit.
func (f *Formatter) Display(amount decimal.Decimal) string {
	minor := amount.Shift(int32(f.currency.Fraction)).Round(0).IntPart()
	return gomoney.New(minor, f.currency.Code).Display()
}

// Fixed formats amount as a plain fixed-point number in the currency's
// precision, e.g. "1234.50", for machine-readable fields.
func (f *Formatter) Fixed(amount decimal.Decimal) string {
	return amount.StringFixed(int32(f.currency.Fraction))
}
