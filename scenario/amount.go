package scenario

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const exactPrefix = "=="

// AmountSpec is a requirement on an amount of an asset, in whole units of the asset.
//
// A plain amount is a net target: positive amounts are supplied positions, negative amounts are
// borrowed positions. An exact amount, written "== K", asserts the resulting balance is K whatever
// the balance was before.
type AmountSpec struct {
	value decimal.Decimal
	exact bool
}

// Amount is a signed net amount.
func Amount(n float64) AmountSpec {
	return AmountSpec{value: decimal.NewFromFloat(n)}
}

// Exact is an exact resulting balance.
func Exact(n float64) AmountSpec {
	return AmountSpec{value: decimal.NewFromFloat(n), exact: true}
}

// ParseAmount parses "100", "-1000", "0.000001" or "== 3000".
func ParseAmount(s string) (AmountSpec, error) {
	raw := strings.TrimSpace(s)
	exact := strings.HasPrefix(raw, exactPrefix)
	if exact {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, exactPrefix))
	}

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return AmountSpec{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	return AmountSpec{value: v, exact: exact}, nil
}

// MustParseAmount is ParseAmount that panics on malformed input.
func MustParseAmount(s string) AmountSpec {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}

	return a
}

// Decimal returns the amount in whole units.
func (a AmountSpec) Decimal() decimal.Decimal {
	return a.value
}

// IsExact reports whether the amount is an exact balance assertion.
func (a AmountSpec) IsExact() bool {
	return a.exact
}

// Sign returns -1, 0 or 1.
func (a AmountSpec) Sign() int {
	return a.value.Sign()
}

// Scaled converts the amount to base units of an asset with the given scale, truncating any
// precision below one base unit.
func (a AmountSpec) Scaled(scale *big.Int) *big.Int {
	return a.value.Mul(decimal.NewFromBigInt(scale, 0)).BigInt()
}

// Target returns the balance, in base units, that realises the amount given the current balance.
// Plain amounts are added to current, exact amounts replace it.
func (a AmountSpec) Target(current, scale *big.Int) *big.Int {
	want := a.Scaled(scale)
	if a.exact {
		return want
	}

	return new(big.Int).Add(current, want)
}

// String renders the amount in the form ParseAmount accepts.
func (a AmountSpec) String() string {
	if a.exact {
		return exactPrefix + " " + a.value.String()
	}

	return a.value.String()
}

// MarshalText implements encoding.TextMarshaler.
func (a AmountSpec) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AmountSpec) UnmarshalText(b []byte) error {
	parsed, err := ParseAmount(string(b))
	if err != nil {
		return err
	}
	*a = parsed

	return nil
}
