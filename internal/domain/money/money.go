// Package money provides the fixed-point amount type used for all balances
// and transaction amounts. Amounts carry exactly two fraction digits.
package money

import (
	"encoding/json"
	"errors"
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidFormat    = errors.New("amount must match a decimal with at most 2 fraction digits")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrNonPositiveValue = errors.New("amount must be greater than zero")
)

// amountPattern is the wire format accepted from clients.
var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// Money is a non-negative fixed-point decimal with 2 fraction digits.
// The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// Parse converts a decimal string (e.g. "100.00", "50.5", "7") into Money.
// Input not matching the accepted wire format is rejected.
func Parse(s string) (Money, error) {
	if !amountPattern.MatchString(s) {
		return Money{}, ErrInvalidFormat
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidFormat
	}

	return Money{d: d.Round(2)}, nil
}

// ParsePositive is Parse with an additional > 0 check, used for operation amounts.
func ParsePositive(s string) (Money, error) {
	m, err := Parse(s)
	if err != nil {
		return Money{}, err
	}
	if !m.IsPositive() {
		return Money{}, ErrNonPositiveValue
	}
	return m, nil
}

// Zero returns a 0.00 amount.
func Zero() Money {
	return Money{}
}

// FromDecimal wraps an arbitrary decimal, rounding to 2 fraction digits.
// Negative values are rejected.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{d: d.Round(2)}, nil
}

func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

// Sub returns m - other. It errors instead of going negative so callers
// cannot silently produce a negative balance.
func (m Money) Sub(other Money) (Money, error) {
	res := m.d.Sub(other.d)
	if res.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{d: res}, nil
}

func (m Money) LessThan(other Money) bool {
	return m.d.LessThan(other.d)
}

func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// String renders the amount with exactly two fraction digits ("100.00").
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// MarshalJSON renders the amount as a decimal string, matching the wire format.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
