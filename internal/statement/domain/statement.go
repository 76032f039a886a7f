package statement

import "time"

// Statement lifecycle statuses.
const (
	StatusDraft                = "draft"
	StatusSent                 = "sent"
	StatusFlaggedNegative      = "flagged_negative_balance"
	StatusSentNegative         = "sent_negative_balance"
	StatusReviewedApproved     = "reviewed_approved"
	StatusReviewedSentManually = "reviewed_sent_manually"
	StatusReviewedWaived       = "reviewed_waived"
)

// Statement actions.
const (
	ActionSend         = "send"
	ActionForceSend    = "force_send"
	ActionReview       = "review"
	ActionSendManually = "send_manually"
	ActionWaive        = "waive"
)

// Statement is an owner-payout statement for a period. It snapshots the
// reservations and expenses it was generated from; settings are never part
// of the snapshot and are re-resolved on every recomputation.
type Statement struct {
	ID          string       `json:"id"`
	TenantID    string       `json:"tenant_id"`
	PropertyIDs []PropertyID `json:"property_ids"`
	Period      Period       `json:"period"`
	Version     int          `json:"version"`
	Status      string       `json:"status"`

	// Reservations is the raw snapshot the statement was generated from:
	// every reservation that either belongs to the period or overlaps it.
	// Lines and totals are always derivable from it plus settings.
	Reservations []Reservation `json:"reservations"`
	Lines        []PayoutLine  `json:"lines"`
	Expenses     []Expense     `json:"expenses"`

	TotalRevenue        float64 `json:"total_revenue"`
	CommissionDisplayed float64 `json:"pm_commission_displayed"`
	CommissionDeducted  float64 `json:"pm_commission_deducted"`
	TaxAdded            float64 `json:"tax_added"`
	CleaningFeeActual   float64 `json:"cleaning_fee_actual"`
	ExpenseTotal        float64 `json:"expense_total"`
	GrossPayout         float64 `json:"gross_payout"`
	OwnerPayout         float64 `json:"owner_payout"`

	ShouldConvertToCalendar  bool   `json:"should_convert_to_calendar"`
	CalendarConversionNotice string `json:"calendar_conversion_notice"`
	OverlappingCount         int    `json:"overlapping_reservation_count"`

	RecipientEmail string    `json:"recipient_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Combined reports whether the statement spans multiple properties.
func (s *Statement) Combined() bool { return s != nil && len(s.PropertyIDs) > 1 }

// BuildStatement assembles a statement from raw inputs. For combined
// statements settings resolve per reservation's owning property from the
// map, never from a statement-level object. The totals are the reduce of
// ReservationPayout over the selected lines plus the signed expenses.
func BuildStatement(reservations []Reservation, expenses []Expense, settings SettingsMap, fallback PropertySettings, propertyIDs []PropertyID, period Period) *Statement {
	stmt := &Statement{
		PropertyIDs: propertyIDs,
		Period:      period,
		Status:      StatusDraft,
		Expenses:    expenses,
	}

	var periodReservations, overlapping []Reservation
	for _, propertyID := range propertyIDs {
		periodReservations = append(periodReservations,
			FilterPeriodReservations(reservations, propertyID, period)...)
		overlapping = append(overlapping,
			FindOverlappingReservations(reservations, propertyID, period.Start, period.End)...)
	}

	seen := make(map[string]bool, len(periodReservations)+len(overlapping))
	for _, r := range append(append([]Reservation(nil), periodReservations...), overlapping...) {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		stmt.Reservations = append(stmt.Reservations, r)
	}

	for _, r := range periodReservations {
		line := ReservationPayout(r, settings.Resolve(r.PropertyID, fallback), period.End)
		stmt.Lines = append(stmt.Lines, line)
		stmt.TotalRevenue += line.Revenue
		stmt.CommissionDisplayed += line.FeeDisplayed
		stmt.CommissionDeducted += line.FeeDeducted
		stmt.TaxAdded += line.TaxAdded
		stmt.CleaningFeeActual += line.CleaningFee
		stmt.GrossPayout += line.Payout
	}

	stmt.ExpenseTotal = SumExpenses(expenses)
	stmt.OwnerPayout = stmt.GrossPayout + stmt.ExpenseTotal
	stmt.OverlappingCount = len(overlapping)
	stmt.ShouldConvertToCalendar = ShouldConvertToCalendar(period, periodReservations, overlapping)
	stmt.CalendarConversionNotice = CalendarConversionNotice(period, periodReservations, overlapping)
	return stmt
}

// Recomputed rebuilds every derived figure of the statement from its
// reservation/expense snapshot under the supplied current settings. The
// snapshot, identity and lifecycle are preserved; only settings-dependent
// values change. This is the two-stage model: snapshots hold facts, current
// settings hold policy.
func (s *Statement) Recomputed(current SettingsMap, fallback PropertySettings) *Statement {
	if s == nil {
		return nil
	}
	rebuilt := BuildStatement(s.Reservations, s.Expenses, current, fallback, s.PropertyIDs, s.Period)
	rebuilt.ID = s.ID
	rebuilt.TenantID = s.TenantID
	rebuilt.Version = s.Version
	rebuilt.Status = s.Status
	rebuilt.RecipientEmail = s.RecipientEmail
	rebuilt.CreatedAt = s.CreatedAt
	rebuilt.UpdatedAt = s.UpdatedAt
	return rebuilt
}

// NextStatus applies an action to a status and returns the resulting status.
// Unknown actions and transitions that do not apply are no-ops.
func NextStatus(current, action string, ownerPayout float64) string {
	switch action {
	case ActionSend:
		if current != StatusDraft {
			return current
		}
		if ownerPayout < 0 {
			return StatusFlaggedNegative
		}
		return StatusSent
	case ActionForceSend:
		if current != StatusDraft && current != StatusFlaggedNegative {
			return current
		}
		if ownerPayout < 0 {
			return StatusSentNegative
		}
		return StatusSent
	case ActionReview:
		if current == StatusFlaggedNegative || current == StatusSentNegative {
			return StatusReviewedApproved
		}
		return current
	case ActionSendManually:
		if current == StatusFlaggedNegative {
			return StatusReviewedSentManually
		}
		return current
	case ActionWaive:
		if current == StatusFlaggedNegative {
			return StatusReviewedWaived
		}
		return current
	default:
		return current
	}
}
