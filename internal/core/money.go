// Package core provides money parsing and handling utilities.
//
// Amounts are stored as integer cents. Parsing goes through shopspring/decimal
// so that bank notation such as "1,23,456.78" and plain "12.5" both convert
// without floating point error.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents is the largest amount a single transaction or budget may
// carry (10,000,000,000.00). Month totals stay well inside int64 with it.
const MaxAmountCents int64 = 1_000_000_000_000

var (
	hundred  = decimal.NewFromInt(100)
	maxMajor = decimal.New(MaxAmountCents, -2)
)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// Comma is treated as a thousands separator, matching how Indian bank alerts
// print amounts. Only positive, non-zero values are accepted.
//
// Examples:
//
//	ParseDecimalToCents("12.34")     -> 1234, nil
//	ParseDecimalToCents("1,250.00")  -> 125000, nil
//	ParseDecimalToCents("12.345")    -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	m, err := MoneyFromDecimal(d)
	if err != nil {
		return 0, err
	}
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return m.Cents, nil
}

// MoneyFromDecimal rounds d half away from zero to whole cents. Amounts
// beyond MaxAmountCents in either direction are rejected.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.Abs().GreaterThan(maxMajor) {
		return Money{}, fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, d.String(), maxMajor.StringFixed(2))
	}
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with two decimals, e.g. "110.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns the sum of both amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m minus o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// MarshalJSON writes the amount as a JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Out-of-range
// values fail here; the sign is left to Validate.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
