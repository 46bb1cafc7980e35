package checkout

import "math"

// Pricing rules for the purchase procedure.
//
// A buyer earns the loyalty discount once their cumulative spend strictly
// exceeds DiscountThreshold. Eligibility is always judged on the spend total
// as it stood before the current purchase, so the purchase that pushes a
// buyer over the threshold is itself charged at full price.
const (
	// DiscountThreshold is the cumulative-spend amount above which the
	// loyalty discount applies. The comparison is strict: a buyer at
	// exactly 150.00 is not yet eligible.
	DiscountThreshold = 150.0

	// LoyaltyRate is the flat discount granted to eligible buyers.
	LoyaltyRate = 0.05

	// MinQuantity and MaxQuantity bound how many copies a single purchase
	// may cover.
	MinQuantity = 1
	MaxQuantity = 5
)

// DiscountRate returns the discount rate earned by a buyer whose cumulative
// spend, before the current purchase, is totalSpent.
func DiscountRate(totalSpent float64) float64 {
	if totalSpent > DiscountThreshold {
		return LoyaltyRate
	}
	return 0
}

// Total computes the charge for quantity copies at unitPrice with
// discountRate applied, rounded to the nearest cent with halves rounding
// away from zero. The rounding happens once, on the final amount.
func Total(unitPrice float64, quantity int, discountRate float64) float64 {
	itemTotal := unitPrice * float64(quantity)
	return roundCents(itemTotal * (1 - discountRate))
}

// roundCents rounds v to two decimal places, halves away from zero.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
