package statement

import "math"

// cleaningMarkup is the fixed markup added to the actual cleaning cost
// before the percentage uplift in the guest-facing charge.
const cleaningMarkup = 50

// ActualCleaningFee reconstructs the actual (non-marked-up) cleaning cost
// from the guest-paid amount: max(0, round2(guestPaid/(1+pct/100) - 50)).
// Applied only when pass-through is enabled and the guest paid anything.
//
// The forward charge rounds up to the nearest $5, so the reconstruction can
// differ from the true original by up to 5/(1+pct/100) dollars. That error
// is bounded and accepted, not a bug.
func ActualCleaningFee(guestPaid, pmFeePercentage float64, passThrough bool) float64 {
	if !passThrough || guestPaid <= 0 {
		return 0
	}
	actual := RoundCurrency(guestPaid/(1+pmFeePercentage/100) - cleaningMarkup)
	return math.Max(0, actual)
}

// GuestCleaningCharge is the historical forward formula:
// CEILING((actual + 50) * (1 + pct/100), 5). Kept for reconciliation and to
// exercise the round-trip bound in tests.
func GuestCleaningCharge(actualFee, pmFeePercentage float64) float64 {
	raw := (actualFee + cleaningMarkup) * (1 + pmFeePercentage/100)
	return math.Ceil(raw/5) * 5
}
