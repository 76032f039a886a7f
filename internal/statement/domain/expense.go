package statement

// Expense is a signed per-property charge within a statement period.
// Negative amounts are costs passed to the owner, positive amounts are
// credits or upsells. Immutable once recorded.
type Expense struct {
	ID          string     `json:"id"`
	PropertyID  PropertyID `json:"property_id"`
	Amount      float64    `json:"amount"`
	Date        Date       `json:"date"`
	Description string     `json:"description"`
}

// SumExpenses reduces the signed expense amounts.
func SumExpenses(expenses []Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}
