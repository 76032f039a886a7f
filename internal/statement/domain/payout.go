package statement

// PayoutLine is the full per-reservation breakdown. Every figure on a
// statement, row or total, comes from this one computation: totals are the
// literal sum of lines, never a second code path.
type PayoutLine struct {
	ReservationID string     `json:"reservation_id"`
	PropertyID    PropertyID `json:"property_id"`
	Channel       Channel    `json:"channel"`
	CheckIn       Date       `json:"check_in"`
	CheckOut      Date       `json:"check_out"`
	Revenue       float64    `json:"revenue"`
	FeeDisplayed  float64    `json:"fee_displayed"`
	FeeDeducted   float64    `json:"fee_deducted"`
	TaxAdded      float64    `json:"tax_added"`
	CleaningFee   float64    `json:"cleaning_fee"`
	CohostAirbnb  bool       `json:"cohost_airbnb"`
	WaiverApplied bool       `json:"waiver_applied"`
	Payout        float64    `json:"payout"`
}

// ReservationPayout computes the payout line for one reservation under one
// property's settings.
//
// Co-host only applies when the booking channel is Airbnb and the owning
// property is flagged; a VRBO booking on a co-hosted property still uses
// normal commission. A co-hosted Airbnb booking bypasses the owner entirely
// except for a negative commission line.
func ReservationPayout(r Reservation, settings PropertySettings, statementEnd Date) PayoutLine {
	channel := ClassifySource(r.Source)
	isAirbnb := channel == ChannelAirbnb
	cohostAirbnb := isAirbnb && settings.IsCohostOnAirbnb
	waiver := WaiverActive(settings, statementEnd)

	feeDisplayed := CommissionFee(r.Revenue, settings.PMFeePercentage)
	feeDeducted := CommissionDeducted(feeDisplayed, cohostAirbnb, waiver)
	taxAdded := TaxToAdd(r.Tax, isAirbnb, settings.AirbnbPassThroughTax, settings.DisregardTax)
	cleaning := ActualCleaningFee(r.GuestCleaningFee, settings.PMFeePercentage, settings.CleaningFeePassThrough)

	var payout float64
	if cohostAirbnb {
		payout = -feeDisplayed
	} else {
		payout = r.Revenue - feeDeducted + taxAdded + cleaning
	}

	return PayoutLine{
		ReservationID: r.ID,
		PropertyID:    r.PropertyID,
		Channel:       channel,
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		Revenue:       r.Revenue,
		FeeDisplayed:  feeDisplayed,
		FeeDeducted:   feeDeducted,
		TaxAdded:      taxAdded,
		CleaningFee:   cleaning,
		CohostAirbnb:  cohostAirbnb,
		WaiverApplied: waiver && !cohostAirbnb,
		Payout:        payout,
	}
}
