// Package money converts between decimal amount strings and integer minor units.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid_amount")

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ToMinor parses a decimal string and returns the amount in minor units,
// rounding half away from zero to the nearest unit. Amounts that do not fit
// in an int64 are rejected.
func ToMinor(amount string) (int64, error) {
	value, err := Parse(amount)
	if err != nil {
		return 0, err
	}
	minor := value.Mul(hundred).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// FromMinor renders minor units as a two-decimal string.
func FromMinor(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// Parse reads a decimal amount, tolerating a leading currency symbol.
func Parse(amount string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(amount)
	trimmed = strings.TrimPrefix(trimmed, "$")
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return value, nil
}

// Normalize renders any decimal string with exactly two decimals. Unparseable
// input normalizes to "0.00".
func Normalize(amount string) string {
	value, err := Parse(amount)
	if err != nil {
		return "0.00"
	}
	return value.StringFixed(2)
}

// Sum adds decimal strings, skipping values that do not parse.
func Sum(amounts ...string) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		value, err := Parse(amount)
		if err != nil {
			continue
		}
		total = total.Add(value)
	}
	return total
}
