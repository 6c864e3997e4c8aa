package domain

import (
	"math"
	"time"
)

// CommissionPolicy carries the sponsor-bonus rates and eligibility
// windows. Windows are measured from the referred ambassador's JoinedAt,
// not the sponsor's.
type CommissionPolicy struct {
	SponsorL1Rate         float64
	SponsorL2Rate         float64
	SponsorL1WindowMonths int
	SponsorL2WindowMonths int
}

func DefaultCommissionPolicy() CommissionPolicy {
	return CommissionPolicy{
		SponsorL1Rate:         0.05,
		SponsorL2Rate:         0.02,
		SponsorL1WindowMonths: 12,
		SponsorL2WindowMonths: 6,
	}
}

// Shares is the frozen monetary split of one conversion. Once a
// conversion leaves pending/confirmed these values are never recomputed.
type Shares struct {
	CommissionTotal float64
	AmbassadorShare float64
	SponsorL1Share  float64
	SponsorL2Share  float64
	BuyerShare      float64
	PlatformShare   float64
	Tier            string
	// ConfigAlert is set when tier and sponsor rates would drive the
	// platform residual negative. The residual is clamped to zero and the
	// conversion must be surfaced for manual review, not silently absorbed.
	ConfigAlert bool
}

// ComputeShares splits a purchase into commission shares. A nil
// ambassador (unattributed or unknown ref) zeroes the ambassador and
// sponsor shares; buyer cashback and the platform residual are still
// computed. Cashback is funded off the purchase amount, not the
// commission pool.
func ComputeShares(amount float64, program AffiliateProgram, ambassador *Ambassador, validatedSales30d int, chain SponsorChain, policy CommissionPolicy, now time.Time) Shares {
	out := Shares{
		CommissionTotal: Round2(amount * program.NetworkCommissionRate),
		BuyerShare:      Round2(amount * program.BuyerCashbackRate),
	}
	if ambassador == nil {
		out.PlatformShare = out.CommissionTotal
		return out
	}

	tier := TierFor(validatedSales30d)
	out.Tier = tier.Name
	out.AmbassadorShare = Round2(out.CommissionTotal * tier.Rate)
	if chain.Level1ID != "" && withinMonths(ambassador.JoinedAt, policy.SponsorL1WindowMonths, now) {
		out.SponsorL1Share = Round2(out.CommissionTotal * policy.SponsorL1Rate)
	}
	if chain.Level2ID != "" && withinMonths(ambassador.JoinedAt, policy.SponsorL2WindowMonths, now) {
		out.SponsorL2Share = Round2(out.CommissionTotal * policy.SponsorL2Rate)
	}

	residual := Round2(out.CommissionTotal - out.AmbassadorShare - out.SponsorL1Share - out.SponsorL2Share)
	if residual < 0 {
		residual = 0
		out.ConfigAlert = true
	}
	out.PlatformShare = residual
	return out
}

func withinMonths(joinedAt time.Time, months int, now time.Time) bool {
	return now.Before(joinedAt.AddDate(0, months, 0))
}

func Round2(v float64) float64 { return math.Round(v*100) / 100 }
