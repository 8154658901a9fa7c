package domain

import "github.com/shopspring/decimal"

const (
	TierBronze = "Bronze"
	TierSilver = "Silver"
	TierGold   = "Gold"

	goldThreshold   = 1000
	silverThreshold = 500

	currencyPerPoint = 10
)

// TierFor derives the loyalty tier from a point balance.
func TierFor(points int) string {
	switch {
	case points >= goldThreshold:
		return TierGold
	case points >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// PointsFor returns the points a net amount earns: one per full 10 spent.
func PointsFor(net decimal.Decimal) int {
	if !net.IsPositive() {
		return 0
	}
	return int(net.Div(decimal.NewFromInt(currencyPerPoint)).Floor().IntPart())
}
