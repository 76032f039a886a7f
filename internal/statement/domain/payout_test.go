package statement

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// revenue=1000, pm=15%, non-Airbnb, tax=80: 1000 - 150 + 80 = 930.
func TestReservationPayoutNonAirbnb(t *testing.T) {
	r := Reservation{
		ID: "r-1", PropertyID: 7, Source: "Booking.com",
		Status: ReservationConfirmed, Revenue: 1000, Tax: 80,
		CheckIn: MustDate("2025-11-05"), CheckOut: MustDate("2025-11-08"),
	}
	settings := PropertySettings{PMFeePercentage: 15}
	line := ReservationPayout(r, settings, MustDate("2025-11-30"))
	if !almostEqual(line.Payout, 930) {
		t.Fatalf("payout = %v, want 930", line.Payout)
	}
	if !almostEqual(line.FeeDisplayed, 150) || !almostEqual(line.FeeDeducted, 150) {
		t.Fatalf("fee displayed=%v deducted=%v", line.FeeDisplayed, line.FeeDeducted)
	}
	if !almostEqual(line.TaxAdded, 80) {
		t.Fatalf("tax added = %v", line.TaxAdded)
	}
}

// Co-hosted Airbnb: owner sees only the negative commission line,
// regardless of tax flags.
func TestReservationPayoutCohostAirbnb(t *testing.T) {
	r := Reservation{
		ID: "r-2", PropertyID: 7, Source: "Airbnb",
		Status: ReservationConfirmed, Revenue: 500, Tax: 45,
		CheckIn: MustDate("2025-11-05"), CheckOut: MustDate("2025-11-08"),
	}
	for _, passThrough := range []bool{false, true} {
		for _, disregard := range []bool{false, true} {
			settings := PropertySettings{
				PMFeePercentage:      15,
				IsCohostOnAirbnb:     true,
				AirbnbPassThroughTax: passThrough,
				DisregardTax:         disregard,
			}
			line := ReservationPayout(r, settings, MustDate("2025-11-30"))
			if !almostEqual(line.Payout, -75) {
				t.Fatalf("passThrough=%v disregard=%v: payout = %v, want -75",
					passThrough, disregard, line.Payout)
			}
			if !line.CohostAirbnb {
				t.Fatal("line must be marked cohost")
			}
		}
	}
}

// Co-host status is channel-scoped: a VRBO booking on a co-hosted property
// still deducts normal commission.
func TestCohostOnlyAppliesToAirbnbChannel(t *testing.T) {
	r := Reservation{
		ID: "r-3", PropertyID: 7, Source: "VRBO",
		Status: ReservationConfirmed, Revenue: 1000,
		CheckIn: MustDate("2025-11-05"), CheckOut: MustDate("2025-11-08"),
	}
	settings := PropertySettings{PMFeePercentage: 15, IsCohostOnAirbnb: true}
	line := ReservationPayout(r, settings, MustDate("2025-11-30"))
	if !almostEqual(line.Payout, 850) {
		t.Fatalf("payout = %v, want 850", line.Payout)
	}
	if line.CohostAirbnb {
		t.Fatal("vrbo booking must not be cohost")
	}
}

// Waiver zeroes the deduction while the displayed fee stays on the line.
func TestReservationPayoutGhostFee(t *testing.T) {
	until := MustDate("2025-06-30")
	r := Reservation{
		ID: "r-4", PropertyID: 7, Source: "Direct",
		Status: ReservationConfirmed, Revenue: 1000,
		CheckIn: MustDate("2025-06-05"), CheckOut: MustDate("2025-06-08"),
	}
	settings := PropertySettings{PMFeePercentage: 15, WaiveCommission: true, WaiveCommissionUntil: &until}

	active := ReservationPayout(r, settings, MustDate("2025-06-30"))
	if !almostEqual(active.Payout, 1000) || !almostEqual(active.FeeDisplayed, 150) || active.FeeDeducted != 0 {
		t.Fatalf("waiver active: payout=%v displayed=%v deducted=%v",
			active.Payout, active.FeeDisplayed, active.FeeDeducted)
	}
	if !active.WaiverApplied {
		t.Fatal("waiver must be marked on the line")
	}

	expired := ReservationPayout(r, settings, MustDate("2025-07-01"))
	if !almostEqual(expired.Payout, 850) || !almostEqual(expired.FeeDeducted, 150) {
		t.Fatalf("waiver expired: payout=%v deducted=%v", expired.Payout, expired.FeeDeducted)
	}
}

func TestReservationPayoutCleaningPassThrough(t *testing.T) {
	r := Reservation{
		ID: "r-5", PropertyID: 7, Source: "Direct",
		Status: ReservationConfirmed, Revenue: 1000, GuestCleaningFee: 350,
		CheckIn: MustDate("2025-11-05"), CheckOut: MustDate("2025-11-08"),
	}
	settings := PropertySettings{PMFeePercentage: 20, CleaningFeePassThrough: true}
	line := ReservationPayout(r, settings, MustDate("2025-11-30"))
	// 1000 - 200 + 241.67
	if !almostEqual(line.Payout, 1041.67) {
		t.Fatalf("payout = %v, want 1041.67", line.Payout)
	}
	if !almostEqual(line.CleaningFee, 241.67) {
		t.Fatalf("cleaning fee = %v", line.CleaningFee)
	}
}

// Combined statement resolves settings per owning property: property A is
// co-hosted Airbnb (rev 416.90, pm 15%), property B normal Booking.com
// (rev 1000, tax 100, pm 15%). Total = -62.535 + 950 = 887.465.
func TestCombinedStatementPerPropertySettings(t *testing.T) {
	reservations := []Reservation{
		{
			ID: "a-1", PropertyID: 1, Source: "Airbnb", Status: ReservationConfirmed,
			Revenue: 416.90,
			CheckIn: MustDate("2025-11-03"), CheckOut: MustDate("2025-11-06"),
		},
		{
			ID: "b-1", PropertyID: 2, Source: "Booking.com", Status: ReservationConfirmed,
			Revenue: 1000, Tax: 100,
			CheckIn: MustDate("2025-11-10"), CheckOut: MustDate("2025-11-14"),
		},
	}
	settings := SettingsMap{
		1: {PMFeePercentage: 15, IsCohostOnAirbnb: true},
		2: {PMFeePercentage: 15},
	}
	period := Period{Start: MustDate("2025-11-01"), End: MustDate("2025-11-30"), Calculation: CalculationCheckout}
	stmt := BuildStatement(reservations, nil, settings, DefaultSettings(), []PropertyID{1, 2}, period)

	if len(stmt.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(stmt.Lines))
	}
	if !almostEqual(stmt.OwnerPayout, 887.465) {
		t.Fatalf("owner payout = %v, want 887.465", stmt.OwnerPayout)
	}
}

// The statement total must equal the sum of independently recomputed
// per-reservation payouts: row and totals views are the same function.
func TestRowTotalsConsistency(t *testing.T) {
	until := MustDate("2025-11-30")
	reservations := []Reservation{
		{ID: "r-1", PropertyID: 1, Source: "Airbnb", Status: ReservationConfirmed, Revenue: 416.90, Tax: 30, CheckIn: MustDate("2025-11-03"), CheckOut: MustDate("2025-11-06")},
		{ID: "r-2", PropertyID: 1, Source: "VRBO", Status: ReservationModified, Revenue: 522.13, Tax: 41.77, GuestCleaningFee: 185, CheckIn: MustDate("2025-11-08"), CheckOut: MustDate("2025-11-12")},
		{ID: "r-3", PropertyID: 2, Source: "Booking.com", Status: ReservationAccepted, Revenue: 999.99, Tax: 80, CheckIn: MustDate("2025-11-14"), CheckOut: MustDate("2025-11-18")},
		{ID: "r-4", PropertyID: 3, Source: "Direct", Status: ReservationNew, Revenue: 250, CheckIn: MustDate("2025-11-20"), CheckOut: MustDate("2025-11-22")},
	}
	expenses := []Expense{
		{ID: "e-1", PropertyID: 1, Amount: -75.50, Date: MustDate("2025-11-10")},
		{ID: "e-2", PropertyID: 2, Amount: 120, Date: MustDate("2025-11-15")},
	}
	settings := SettingsMap{
		1: {PMFeePercentage: 15, IsCohostOnAirbnb: true, CleaningFeePassThrough: true},
		2: {PMFeePercentage: 18, AirbnbPassThroughTax: true},
		3: {PMFeePercentage: 20, WaiveCommission: true, WaiveCommissionUntil: &until},
	}
	period := Period{Start: MustDate("2025-11-01"), End: MustDate("2025-11-30"), Calculation: CalculationCheckout}
	stmt := BuildStatement(reservations, expenses, settings, DefaultSettings(), []PropertyID{1, 2, 3}, period)

	var recomputed float64
	for _, r := range reservations {
		recomputed += ReservationPayout(r, settings.Resolve(r.PropertyID, DefaultSettings()), period.End).Payout
	}
	recomputed += SumExpenses(expenses)
	if !almostEqual(stmt.OwnerPayout, recomputed) {
		t.Fatalf("total %v drifts from row sum %v", stmt.OwnerPayout, recomputed)
	}
	var lineSum float64
	for _, line := range stmt.Lines {
		lineSum += line.Payout
	}
	if !almostEqual(stmt.GrossPayout, lineSum) {
		t.Fatalf("gross %v drifts from line sum %v", stmt.GrossPayout, lineSum)
	}
}

// An unknown property id in a combined settings map falls back to the
// explicit defaults, never to another property's settings.
func TestCombinedStatementUnknownPropertyFallback(t *testing.T) {
	reservations := []Reservation{
		{ID: "r-1", PropertyID: 99, Source: "Direct", Status: ReservationConfirmed, Revenue: 1000, CheckIn: MustDate("2025-11-05"), CheckOut: MustDate("2025-11-08")},
	}
	settings := SettingsMap{1: {PMFeePercentage: 50, IsCohostOnAirbnb: true}}
	period := Period{Start: MustDate("2025-11-01"), End: MustDate("2025-11-30"), Calculation: CalculationCheckout}
	stmt := BuildStatement(reservations, nil, settings, DefaultSettings(), []PropertyID{1, 99}, period)
	// Default 15% commission, no cohost leak from property 1.
	if !almostEqual(stmt.OwnerPayout, 850) {
		t.Fatalf("owner payout = %v, want 850", stmt.OwnerPayout)
	}
}
