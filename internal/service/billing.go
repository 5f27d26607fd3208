package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ride pricing: a flat unlock fee, a per-minute rate for the first ten
// minutes, and a cheaper per-minute rate after that. Elapsed time is
// truncated to whole minutes before pricing.
var (
	baseFee       = decimal.NewFromFloat(1.00)
	firstTierRate = decimal.NewFromFloat(0.50)
	extraTierRate = decimal.NewFromFloat(0.30)
)

const firstTierMinutes = 10

// CalculateCost prices a reservation from its start and end instants.
// Pure and deterministic: same inputs, same cost, exact decimal arithmetic
// throughout with half-up rounding to two places at the end.
func CalculateCost(startTime, endTime time.Time) decimal.Decimal {
	totalMinutes := int64(endTime.Sub(startTime) / time.Minute)
	if totalMinutes < 0 {
		totalMinutes = 0
	}

	firstTier := totalMinutes
	if firstTier > firstTierMinutes {
		firstTier = firstTierMinutes
	}
	extra := totalMinutes - firstTierMinutes
	if extra < 0 {
		extra = 0
	}

	cost := baseFee.
		Add(firstTierRate.Mul(decimal.NewFromInt(firstTier))).
		Add(extraTierRate.Mul(decimal.NewFromInt(extra)))

	return cost.Round(2)
}
