// Package money provides monetary amounts with currency normalization.
// Every amount is stored in the base currency (USD) alongside the original
// entry so display and audit never lose the user's input.
package money

import (
	"fmt"

	"travel_backoffice_backend/platform/apperr"
)

// Currency is an ISO-4217 code accepted by the wizard.
type Currency string

const (
	// CurrencyUSD is the base currency all amounts normalize into.
	CurrencyUSD Currency = "USD"
	// CurrencyARS is the Argentine peso, entered with a user-supplied rate.
	CurrencyARS Currency = "ARS"
)

// BaseCurrency is the currency BaseAmount is always denominated in.
const BaseCurrency = CurrencyUSD

// Valid reports whether the currency is one the wizard accepts.
func (c Currency) Valid() bool {
	return c == CurrencyUSD || c == CurrencyARS
}

// Amount is a monetary value with provenance. BaseAmount is always USD;
// the original entry and rate are retained for display and audit.
type Amount struct {
	OriginalAmount   float64  `json:"originalAmount"`
	OriginalCurrency Currency `json:"originalCurrency"`
	ExchangeRate     float64  `json:"exchangeRate,omitempty"`
	BaseAmount       float64  `json:"baseAmount"`
}

// Zero returns an empty base-currency amount.
func Zero() Amount {
	return Amount{OriginalCurrency: BaseCurrency}
}

// Normalize converts a user entry to the base currency.
// Base-currency entries ignore the rate entirely; foreign entries require a
// positive rate and divide by it. The function is pure: identical inputs
// always produce an identical BaseAmount.
func Normalize(amount float64, currency Currency, rate float64) (Amount, error) {
	if !currency.Valid() {
		return Amount{}, apperr.Validation(fmt.Sprintf("unsupported currency %q", currency))
	}

	if currency == BaseCurrency {
		return Amount{
			OriginalAmount:   amount,
			OriginalCurrency: currency,
			BaseAmount:       amount,
		}, nil
	}

	if rate <= 0 {
		return Amount{}, apperr.InvalidExchangeRate(
			fmt.Sprintf("exchange rate must be greater than zero for %s amounts", currency))
	}

	return Amount{
		OriginalAmount:   amount,
		OriginalCurrency: currency,
		ExchangeRate:     rate,
		BaseAmount:       amount / rate,
	}, nil
}

// Renormalize re-runs normalization on the amount's own inputs.
// Useful for verifying provenance integrity; yields BaseAmount bit-for-bit
// identical to the stored value for any amount produced by Normalize.
func (a Amount) Renormalize() (Amount, error) {
	return Normalize(a.OriginalAmount, a.OriginalCurrency, a.ExchangeRate)
}

// IsPositive reports whether the normalized value is greater than zero.
func (a Amount) IsPositive() bool {
	return a.BaseAmount > 0
}
