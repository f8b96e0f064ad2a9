package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a quantity of house currency in minor units (cents).
type Amount int64

const minorDigits = 2

var (
	minorScale = decimal.New(1, minorDigits)
	maxMinor   = decimal.NewFromInt(1 << 52)
)

// ParseAmount reads a decimal string such as "12.50" into minor units.
// More than two fractional digits is rejected rather than rounded.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, &BetError{Reason: ErrInvalidAmount, Detail: fmt.Sprintf("invalid amount format %q", s)}
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal converts a decimal value into minor units.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	minor := d.Mul(minorScale)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, &BetError{Reason: ErrInvalidAmount, Detail: fmt.Sprintf("amount %s has more than %d decimals", d.String(), minorDigits)}
	}
	if minor.Abs().GreaterThan(maxMinor) {
		return 0, &BetError{Reason: ErrInvalidAmount, Detail: fmt.Sprintf("amount %s out of range", d.String())}
	}
	return Amount(minor.IntPart()), nil
}

// MustAmount is ParseAmount for constants and tests.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -minorDigits)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(minorDigits)
}

// Times multiplies by a whole-number payout factor.
func (a Amount) Times(n int64) Amount {
	return a * Amount(n)
}

// MarshalJSON renders the amount as a JSON number in major units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := json.Unmarshal(b, &d); err != nil {
		return &BetError{Reason: ErrInvalidAmount, Detail: fmt.Sprintf("invalid amount %s", string(b))}
	}
	v, err := AmountFromDecimal(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// UnmarshalText parses a decimal string, as found in environment values.
func (a *Amount) UnmarshalText(b []byte) error {
	v, err := ParseAmount(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
