package statement

// ShouldAddTax decides whether a reservation's tax responsibility is added
// to the owner payout.
//
// Priority, highest first: disregardTax always wins (the company remits tax
// on the client's behalf, so it never appears on the payout). Non-Airbnb
// channels add tax by default since they do not centrally remit. Airbnb adds
// tax only when the jurisdiction requires pass-through.
func ShouldAddTax(isAirbnb, airbnbPassThroughTax, disregardTax bool) bool {
	return !disregardTax && (!isAirbnb || airbnbPassThroughTax)
}

// TaxToAdd returns the tax amount added to payout, or 0.
func TaxToAdd(taxAmount float64, isAirbnb, airbnbPassThroughTax, disregardTax bool) float64 {
	if ShouldAddTax(isAirbnb, airbnbPassThroughTax, disregardTax) {
		return taxAmount
	}
	return 0
}
