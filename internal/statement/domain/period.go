package statement

import "fmt"

// CalculationType selects the period-attribution convention.
type CalculationType string

const (
	// CalculationCheckout attributes a reservation's full revenue to the
	// period containing its checkout date.
	CalculationCheckout CalculationType = "checkout"
	// CalculationCalendar attributes any reservation overlapping the period.
	CalculationCalendar CalculationType = "calendar"
)

// Valid reports whether the calculation type is one of the known modes.
func (c CalculationType) Valid() bool {
	return c == CalculationCheckout || c == CalculationCalendar
}

// Period describes a statement window and its attribution convention.
type Period struct {
	Start       Date            `json:"start"`
	End         Date            `json:"end"`
	Calculation CalculationType `json:"calculation_type"`
}

// Validate checks the period bounds and mode.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return ErrInvalidPeriod
	}
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	if !p.Calculation.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

// FilterPeriodReservations selects the reservations belonging to the period
// for one property under the period's calculation mode.
//
// Checkout mode includes a reservation iff start <= checkOut <= end,
// inclusive both ends. Calendar mode uses the half-open overlap test:
// checkIn <= end AND checkOut > start, so a stay checking out exactly on
// start does not overlap while one checking in exactly on end does.
func FilterPeriodReservations(reservations []Reservation, propertyID PropertyID, period Period) []Reservation {
	var out []Reservation
	for _, r := range reservations {
		if r.PropertyID != propertyID || !r.Status.IsBillable() {
			continue
		}
		switch period.Calculation {
		case CalculationCalendar:
			if overlapsPeriod(r, period.Start, period.End) {
				out = append(out, r)
			}
		default:
			if !r.CheckOut.Before(period.Start) && !r.CheckOut.After(period.End) {
				out = append(out, r)
			}
		}
	}
	return out
}

// FindOverlappingReservations returns every billable reservation of the
// property whose stay intersects [start, end] under the half-open test,
// independent of the statement's calculation mode. This is "true" occupancy.
func FindOverlappingReservations(reservations []Reservation, propertyID PropertyID, start, end Date) []Reservation {
	var out []Reservation
	for _, r := range reservations {
		if r.PropertyID != propertyID || !r.Status.IsBillable() {
			continue
		}
		if overlapsPeriod(r, start, end) {
			out = append(out, r)
		}
	}
	return out
}

func overlapsPeriod(r Reservation, start, end Date) bool {
	return !r.CheckIn.After(end) && r.CheckOut.After(start)
}

// ShouldConvertToCalendar decides whether a statement deserves the advisory
// conversion flag. In checkout mode the flag fires when occupancy exists but
// no checkout landed inside the period, because checkout accounting would
// silently report $0. In calendar mode it fires when a long stay spans
// beyond either boundary, which is informative rather than corrective.
func ShouldConvertToCalendar(period Period, periodReservations, overlapping []Reservation) bool {
	switch period.Calculation {
	case CalculationCheckout:
		return len(overlapping) > 0 && len(periodReservations) == 0
	case CalculationCalendar:
		for _, r := range overlapping {
			if r.CheckIn.Before(period.Start) || r.CheckOut.After(period.End) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CalendarConversionNotice builds the human-readable advisory attached to a
// flagged statement. Empty when the flag would not fire.
func CalendarConversionNotice(period Period, periodReservations, overlapping []Reservation) string {
	if !ShouldConvertToCalendar(period, periodReservations, overlapping) {
		return ""
	}
	if period.Calculation == CalculationCheckout {
		noun := "reservations overlap"
		if len(overlapping) == 1 {
			noun = "reservation overlaps"
		}
		return fmt.Sprintf(
			"%d %s this period but none check out within it, so checkout accounting shows $0 revenue. Switching this statement to calendar mode is recommended.",
			len(overlapping), noun)
	}
	return "A long-stay reservation extends beyond this period; its revenue is being prorated across the periods it covers."
}

// ShouldSkipStatement reports whether generation should be skipped entirely:
// zero occupancy and zero expenses produce only noise. A lone expense is
// enough to generate.
func ShouldSkipStatement(overlapping []Reservation, expenses []Expense) bool {
	return len(overlapping) == 0 && len(expenses) == 0
}
