package statement

// CommissionFee is the PM commission computed from revenue. It is always
// computed and always shown on the statement line, even when nothing is
// deducted ("ghost fee"): owners see what they are not being charged.
func CommissionFee(revenue, pmFeePercentage float64) float64 {
	return revenue * (pmFeePercentage / 100)
}

// WaiverActive reports whether a commission waiver covers the statement end
// date. A waiver with no until date is indefinite while the flag is on; a
// dated waiver covers statement ends up to and including the waiver date,
// treated as end-of-day so same-day equality still counts.
func WaiverActive(settings PropertySettings, statementEnd Date) bool {
	if !settings.WaiveCommission {
		return false
	}
	if settings.WaiveCommissionUntil == nil {
		return true
	}
	return !statementEnd.After(*settings.WaiveCommissionUntil)
}

// CommissionDeducted is the commission actually withheld from the payout.
// Co-host Airbnb bookings and active waivers both zero the deduction; when
// both apply the result is still zero, never a double subtraction.
func CommissionDeducted(displayed float64, cohostAirbnb, waiverActive bool) float64 {
	if cohostAirbnb || waiverActive {
		return 0
	}
	return displayed
}
