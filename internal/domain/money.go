package domain

import "github.com/shopspring/decimal"

// moneyPlaces matches the NUMERIC(12, 2) columns amounts are stored in.
const moneyPlaces = 2

// IsMoneyAmount reports whether d has no precision beyond whole cents.
func IsMoneyAmount(d decimal.Decimal) bool {
	return d.Equal(d.Round(moneyPlaces))
}
