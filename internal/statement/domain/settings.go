package statement

// PropertySettings holds the financial configuration of a single property.
// Current settings, not the ones in force at statement creation, govern any
// recomputation: statements snapshot reservations and expenses, never flags.
type PropertySettings struct {
	PMFeePercentage        float64 `json:"pm_fee_percentage"`
	DisregardTax           bool    `json:"disregard_tax"`
	AirbnbPassThroughTax   bool    `json:"airbnb_pass_through_tax"`
	IsCohostOnAirbnb       bool    `json:"is_cohost_on_airbnb"`
	CleaningFeePassThrough bool    `json:"cleaning_fee_pass_through"`
	WaiveCommission        bool    `json:"waive_commission"`
	WaiveCommissionUntil   *Date   `json:"waive_commission_until,omitempty"`
}

// DefaultSettings is the documented fallback when a property has no stored
// settings or a combined statement references an unknown property id.
func DefaultSettings() PropertySettings {
	return PropertySettings{PMFeePercentage: 15}
}

// SettingsMap maps property ids to their current settings. Combined
// statements resolve settings per reservation's owning property from this
// map; a single statement-wide settings object is exactly the historical
// cross-property leak this type exists to prevent.
type SettingsMap map[PropertyID]PropertySettings

// Resolve returns the settings for a property, falling back to the supplied
// default when the id is missing from the map.
func (m SettingsMap) Resolve(id PropertyID, fallback PropertySettings) PropertySettings {
	if m != nil {
		if s, ok := m[id]; ok {
			return s
		}
	}
	return fallback
}

// ResolveEffectiveSettings picks the settings used for recomputation when a
// statement is viewed. Current settings always win; the snapshot is only
// consulted when the property no longer has stored settings.
func ResolveEffectiveSettings(snapshot, current *PropertySettings) PropertySettings {
	if current != nil {
		return *current
	}
	if snapshot != nil {
		return *snapshot
	}
	return DefaultSettings()
}
