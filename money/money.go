// Package money represents monetary values as an integer count of minor
// currency units (cents) plus a currency code.
//
// Invariants:
//   - Amounts are always stored in minor units; no float64 is ever used for
//     arithmetic, comparison, or accumulation.
//   - Operations on two values require matching currencies.
//
// Floats appear only at the API boundary (JSON request bodies) and are
// converted once, via FromFloat, on the way in.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrCurrencyMismatch is returned when combining values in different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrInvalidCurrency is returned for malformed currency codes.
	ErrInvalidCurrency = errors.New("invalid currency code")
)

// Code is a 3-letter ISO 4217 currency code (e.g. "USD", "INR").
type Code string

// Common codes.
const (
	USD Code = "USD"
	EUR Code = "EUR"
	INR Code = "INR"
)

// IsValid reports whether the code looks like an ISO 4217 code.
func (c Code) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}
	return true
}

func (c Code) String() string { return string(c) }

// minorPerMajor is the number of minor units per major unit. All supported
// currencies use two decimal places.
const minorPerMajor = 100

// Money is a monetary value: an amount in minor units and its currency.
// The zero value is 0 units of the empty currency and is not valid; use the
// constructors.
type Money struct {
	amount   int64
	currency Code
}

// FromMinor builds a Money from an amount already expressed in minor units.
func FromMinor(amount int64, currency Code) (Money, error) {
	if !currency.IsValid() {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustMinor is FromMinor but panics on an invalid currency. Intended for
// constants and tests.
func MustMinor(amount int64, currency Code) Money {
	m, err := FromMinor(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromFloat converts a major-unit float (e.g. 12.34 from a JSON body) into
// minor units, rounding half away from zero. This is the only place a float
// touches a monetary amount.
func FromFloat(amount float64, currency Code) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, fmt.Errorf("non-finite amount: %v", amount)
	}
	return FromMinor(int64(math.Round(amount*minorPerMajor)), currency)
}

// Zero returns a zero amount in the given currency.
func Zero(currency Code) Money {
	return Money{amount: 0, currency: currency}
}

// Minor returns the amount in minor units.
func (m Money) Minor() int64 { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() Code { return m.currency }

// Add returns m + other. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Sub returns m - other. Currencies must match. The result may be negative.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// Neg returns the negation of m.
func (m Money) Neg() Money {
	return Money{amount: -m.amount, currency: m.currency}
}

// Abs returns the absolute value of m.
func (m Money) Abs() Money {
	if m.amount < 0 {
		return m.Neg()
	}
	return m
}

func (m Money) IsZero() bool     { return m.amount == 0 }
func (m Money) IsPositive() bool { return m.amount > 0 }
func (m Money) IsNegative() bool { return m.amount < 0 }

// Float returns the amount in major units for display only. Never feed the
// result back into arithmetic.
func (m Money) Float() float64 {
	return float64(m.amount) / minorPerMajor
}

// String renders the value in major units, e.g. "12.34 USD".
func (m Money) String() string {
	sign := ""
	a := m.amount
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, a/minorPerMajor, a%minorPerMajor, m.currency)
}

type moneyJSON struct {
	Amount   int64 `json:"amount"`
	Currency Code  `json:"currency"`
}

// MarshalJSON encodes the value as {"amount": <minor units>, "currency": <code>}.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount, Currency: m.currency})
}

// UnmarshalJSON decodes the minor-unit representation.
func (m *Money) UnmarshalJSON(data []byte) error {
	var aux moneyJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if !aux.Currency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, aux.Currency)
	}
	m.amount = aux.Amount
	m.currency = aux.Currency
	return nil
}
