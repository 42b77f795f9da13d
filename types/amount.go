package types

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scales of the two ledgers' smallest units.
const (
	LegacyScale  int32 = 7 // stroops
	CurrentScale int32 = 5 // quarks
)

// Amount is a ledger balance held as an integer count of the ledger's
// smallest unit. Arithmetic is integer-only.
type Amount struct {
	Units int64 `json:"units"`
	Scale int32 `json:"scale"`
}

// Kin returns an Amount in current-ledger quarks.
func Kin(quarks int64) Amount { return Amount{Units: quarks, Scale: CurrentScale} }

// LegacyKin returns an Amount in legacy-ledger stroops.
func LegacyKin(stroops int64) Amount { return Amount{Units: stroops, Scale: LegacyScale} }

// ParseAmount parses a decimal string such as "12.5" at the given scale.
// More fractional digits than scale allows is an error.
func ParseAmount(s string, scale int32) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("amount: parse %q: %w", s, err)
	}

	shifted := d.Shift(scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return Amount{}, fmt.Errorf("amount: %q has more than %d decimal places", s, scale)
	}
	if !shifted.BigInt().IsInt64() {
		return Amount{}, fmt.Errorf("amount: %q overflows", s)
	}

	return Amount{Units: shifted.IntPart(), Scale: scale}, nil
}

// Add adds two amounts. Panics if scales differ.
func (a Amount) Add(other Amount) Amount {
	a.assertSameScale(other)
	return Amount{Units: a.Units + other.Units, Scale: a.Scale}
}

// Subtract subtracts other from a. Panics if scales differ.
func (a Amount) Subtract(other Amount) Amount {
	a.assertSameScale(other)
	return Amount{Units: a.Units - other.Units, Scale: a.Scale}
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.Units == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.Units > 0 }

// LessThan reports whether a < other. Panics if scales differ.
func (a Amount) LessThan(other Amount) bool {
	a.assertSameScale(other)
	return a.Units < other.Units
}

// Decimal returns the amount in whole units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.Units, -a.Scale)
}

// String formats the amount with all scale digits, e.g. "12.50000".
func (a Amount) String() string {
	return a.Decimal().StringFixed(a.Scale)
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Units   int64  `json:"units"`
		Scale   int32  `json:"scale"`
		Display string `json:"display"`
	}{
		Units:   a.Units,
		Scale:   a.Scale,
		Display: a.String(),
	})
}

func (a Amount) assertSameScale(other Amount) {
	if a.Scale != other.Scale {
		panic(fmt.Sprintf("amount: scale mismatch: %d != %d", a.Scale, other.Scale))
	}
}
