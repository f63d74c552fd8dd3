// Package money centralizes monetary arithmetic rules for the ledger.
// All amounts are shopspring decimals; rounding happens here and only
// at persistence/reporting boundaries, never inside intermediate math.
package money

import (
	"github.com/shopspring/decimal"
)

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Round applies the ledger rounding rule: 2 decimal places, half-up.
// Amounts in this system are non-negative, so decimal's half-away-from-zero
// behaves as half-up.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromFloat converts a float (e.g. from an API payload) into a decimal amount.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// FromInt converts whole currency units into a decimal amount.
func FromInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// IsPositive reports whether the amount is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}
