package statement

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PropertyID identifies a rental property. Upstream systems are inconsistent
// about whether ids travel as numbers or strings; decoding coerces both into
// one numeric type so map lookups can never miss on representation.
type PropertyID int64

// ParsePropertyID coerces a string id into a PropertyID.
func ParsePropertyID(value string) (PropertyID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("statement: empty property id")
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("statement: invalid property id %q", value)
	}
	return PropertyID(parsed), nil
}

// UnmarshalJSON accepts both numeric and string-typed ids.
func (p *PropertyID) UnmarshalJSON(data []byte) error {
	var number int64
	if err := json.Unmarshal(data, &number); err == nil {
		*p = PropertyID(number)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("statement: invalid property id %s", string(data))
	}
	parsed, err := ParsePropertyID(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ReservationStatus is the lifecycle status of a reservation.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationModified  ReservationStatus = "modified"
	ReservationNew       ReservationStatus = "new"
	ReservationAccepted  ReservationStatus = "accepted"
)

// IsBillable reports whether a lifecycle status participates in statements.
// Cancelled, pending and anything unrecognized never bill.
func (s ReservationStatus) IsBillable() bool {
	switch ReservationStatus(strings.ToLower(string(s))) {
	case ReservationConfirmed, ReservationModified, ReservationNew, ReservationAccepted:
		return true
	default:
		return false
	}
}

// Reservation is a guest stay as recorded by the channel manager.
// Immutable once recorded; this package only reads it.
type Reservation struct {
	ID               string            `json:"id"`
	PropertyID       PropertyID        `json:"property_id"`
	Source           string            `json:"source"`
	CheckIn          Date              `json:"check_in"`
	CheckOut         Date              `json:"check_out"`
	Status           ReservationStatus `json:"status"`
	Revenue          float64           `json:"revenue"`
	Tax              float64           `json:"tax"`
	GuestCleaningFee float64           `json:"guest_cleaning_fee"`
}
