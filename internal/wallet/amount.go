// Package wallet holds the money arithmetic and the confirmation-aware
// balance resolver. All comparisons and fee math happen in integer base
// units; decimals exist only at the parse and format boundaries.
package wallet

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a quantity in the ledger's smallest indivisible unit.
type Amount int64

var (
	ErrInvalidAmount  = errors.New("wallet: invalid amount")
	ErrNegativeAmount = errors.New("wallet: amount must not be negative")
)

// Converter translates between user-facing decimal quantities and base
// units using a fixed precision factor (base units per whole coin).
type Converter struct {
	factor decimal.Decimal
}

func NewConverter(invPrecision int64) Converter {
	return Converter{factor: decimal.NewFromInt(invPrecision)}
}

// Parse converts a user-supplied decimal string to base units. Values
// with more precision than the factor supports are rejected rather than
// silently truncated.
func (c Converter) Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q", ErrNegativeAmount, s)
	}
	units := d.Mul(c.factor)
	if !units.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more precision than the ledger supports", ErrInvalidAmount, s)
	}
	return Amount(units.IntPart()), nil
}

// Format renders base units as a user-facing decimal: whole-coin values
// print as plain integers, fractional values with five decimal places.
func (c Converter) Format(a Amount) string {
	d := decimal.NewFromInt(int64(a)).Div(c.factor)
	if d.IsInteger() {
		return d.String()
	}
	return d.StringFixed(5)
}
