package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tariff holds the pricing rules used at check-out.
type Tariff struct {
	First15      decimal.Decimal // flat fee up to 15 minutes
	FirstHour    decimal.Decimal // flat fee from 16 to 60 minutes
	Extra15      decimal.Decimal // per started 15-minute block after the first hour
	LoyaltyRate  decimal.Decimal // fraction of the fee discounted on loyalty visits
	LoyaltyEvery int64           // every Nth completed visit earns the discount
}

// DefaultTariff returns the standard lot pricing.
func DefaultTariff() Tariff {
	return Tariff{
		First15:      decimal.RequireFromString("5.00"),
		FirstHour:    decimal.RequireFromString("9.25"),
		Extra15:      decimal.RequireFromString("1.75"),
		LoyaltyRate:  decimal.RequireFromString("0.30"),
		LoyaltyEvery: 10,
	}
}

// ComputeFee returns the parking fee for a stay from entry to exit. Elapsed
// time is counted in whole minutes, truncating partial minutes. Durations of
// zero or less are billed as the first bracket.
func (t Tariff) ComputeFee(entry, exit time.Time) decimal.Decimal {
	minutes := int64(exit.Sub(entry) / time.Minute)

	var fee decimal.Decimal
	switch {
	case minutes <= 15:
		fee = t.First15
	case minutes <= 60:
		fee = t.FirstHour
	default:
		blocks := (minutes - 60 + 14) / 15
		fee = t.FirstHour.Add(t.Extra15.Mul(decimal.NewFromInt(blocks)))
	}
	return fee.RoundBank(2)
}

// ComputeDiscount returns the loyalty discount on fee given the number of
// visits the client completed before this one. Only every LoyaltyEvery-th
// visit qualifies; a client with no prior visits never does.
func (t Tariff) ComputeDiscount(fee decimal.Decimal, priorCompletedVisits int64) decimal.Decimal {
	if priorCompletedVisits <= 0 || t.LoyaltyEvery <= 0 || priorCompletedVisits%t.LoyaltyEvery != 0 {
		return decimal.Zero
	}
	return fee.Mul(t.LoyaltyRate).RoundBank(2)
}
