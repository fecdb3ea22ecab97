// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer millimes (three fractional digits). Decimal
// strings are only used at the edges, for parsing input and rendering output.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MillimesPerUnit is the number of minor units in one currency unit.
const MillimesPerUnit = 1000

type Money struct {
	Millimes int64
}

// Millimes builds a Money from minor units.
func Millimes(m int64) Money {
	return Money{Millimes: m}
}

// ParseAmount converts a decimal string to millimes with half-up rounding.
//
// It accepts both dot (12.345) and comma (12,345) decimal separators. A fourth
// fractional digit rounds the third. Negative values are rejected; zero is
// accepted so that callers can decide whether a zero amount is meaningful.
//
// Examples:
//
//	ParseAmount("12.5")    -> 12500
//	ParseAmount("12,345")  -> 12345
//	ParseAmount("0.0005")  -> 1
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// Exponent notation is accepted by the decimal parser but never by us.
	if strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	scaled := d.Round(3).Shift(3)
	if !scaled.IsInteger() || scaled.GreaterThan(decimal.NewFromInt(maxMillimes)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Millimes: scaled.IntPart()}, nil
}

const maxMillimes = (1<<63 - 1) / 4

// MustParseAmount is ParseAmount for literals in tests and fixtures.
func MustParseAmount(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal returns the exact decimal value, for display and serialization.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Millimes, -3)
}

// String renders the amount with exactly three fractional digits, e.g. "75.000".
func (m Money) String() string {
	return m.Decimal().StringFixed(3)
}

func (m Money) Add(o Money) Money { return Money{Millimes: m.Millimes + o.Millimes} }
func (m Money) Sub(o Money) Money { return Money{Millimes: m.Millimes - o.Millimes} }
func (m Money) Neg() Money        { return Money{Millimes: -m.Millimes} }

func (m Money) IsZero() bool     { return m.Millimes == 0 }
func (m Money) IsNegative() bool { return m.Millimes < 0 }

// Max returns the larger of two amounts.
func Max(a, b Money) Money {
	if a.Millimes >= b.Millimes {
		return a
	}
	return b
}

// Sum adds amounts in order.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func (m Money) Validate() error {
	if m.Millimes <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalText renders the fixed three-digit form so JSON and YAML carry
// amounts as strings rather than floats.
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts signed amounts; balances can be negative.
func (m *Money) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, string(b))
	}
	if neg {
		parsed = parsed.Neg()
	}
	*m = parsed
	return nil
}
