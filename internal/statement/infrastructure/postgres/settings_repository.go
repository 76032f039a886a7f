package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	statement "stayledger/internal/statement/domain"
)

// SettingsRepository loads current per-property financial settings. Stored
// flags are SQLite-era 0/1 smallints; they become canonical booleans here
// and nowhere else.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository constructs a repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// SettingsFor returns the current settings of the given properties.
// Properties without a row are simply absent; the domain falls back to
// DefaultSettings.
func (r *SettingsRepository) SettingsFor(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID) (statement.SettingsMap, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("settings repo: nil db")
	}
	if len(propertyIDs) == 0 {
		return statement.SettingsMap{}, nil
	}
	placeholders, args := idArgs(propertyIDs, 2)
	query := fmt.Sprintf(`
SELECT property_id, pm_fee_percentage, disregard_tax, airbnb_pass_through_tax,
	is_cohost_on_airbnb, cleaning_fee_pass_through, waive_commission, waive_commission_until
FROM property_settings
WHERE tenant_id = $1 AND property_id IN (%s)`, placeholders)
	args = append([]any{tenantID}, args...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := statement.SettingsMap{}
	for rows.Next() {
		var rawPropertyID string
		var settings statement.PropertySettings
		var disregard, passThrough, cohost, cleaning, waive int
		var until sql.NullTime
		if err := rows.Scan(&rawPropertyID, &settings.PMFeePercentage, &disregard, &passThrough,
			&cohost, &cleaning, &waive, &until); err != nil {
			return nil, err
		}
		propertyID, err := statement.ParsePropertyID(rawPropertyID)
		if err != nil {
			return nil, fmt.Errorf("settings repo: %w", err)
		}
		settings.DisregardTax = disregard != 0
		settings.AirbnbPassThroughTax = passThrough != 0
		settings.IsCohostOnAirbnb = cohost != 0
		settings.CleaningFeePassThrough = cleaning != 0
		settings.WaiveCommission = waive != 0
		if until.Valid {
			date := statement.DateOf(until.Time)
			settings.WaiveCommissionUntil = &date
		}
		out[propertyID] = settings
	}
	return out, rows.Err()
}

// PropertyTags returns the delivery tags of a property, comma-separated in
// storage.
func (r *SettingsRepository) PropertyTags(ctx context.Context, tenantID string, propertyID statement.PropertyID) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("settings repo: nil db")
	}
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, `
SELECT tags FROM properties WHERE tenant_id = $1 AND id = $2 LIMIT 1`,
		tenantID, fmt.Sprintf("%d", int64(propertyID))).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var tags []string
	for _, tag := range strings.Split(raw.String, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}
