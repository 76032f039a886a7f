package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	statement "stayledger/internal/statement/domain"
)

// BookingRepository loads raw reservation and expense records. It is the
// canonicalization point for storage quirks: property ids stored as text are
// coerced to numeric ids, and malformed rows fail the load instead of
// silently skewing a statement.
type BookingRepository struct {
	db *sql.DB
}

// NewBookingRepository constructs a repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ListReservations returns reservations of the properties whose stay could
// matter to the window: check_in <= end AND check_out >= start.
func (r *BookingRepository) ListReservations(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID, start, end statement.Date) ([]statement.Reservation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("booking repo: nil db")
	}
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	placeholders, args := idArgs(propertyIDs, 3)
	query := fmt.Sprintf(`
SELECT id, property_id, source, check_in, check_out, status, revenue, tax, COALESCE(guest_cleaning_fee, 0)
FROM reservations
WHERE tenant_id = $1 AND check_in <= $2 AND check_out >= $3 AND property_id IN (%s)
ORDER BY check_in, id`, placeholders)
	args = append([]any{tenantID, end, start}, args...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []statement.Reservation
	for rows.Next() {
		var res statement.Reservation
		var rawPropertyID, status string
		if err := rows.Scan(&res.ID, &rawPropertyID, &res.Source, &res.CheckIn, &res.CheckOut,
			&status, &res.Revenue, &res.Tax, &res.GuestCleaningFee); err != nil {
			return nil, err
		}
		propertyID, err := statement.ParsePropertyID(rawPropertyID)
		if err != nil {
			return nil, fmt.Errorf("booking repo: reservation %s: %w", res.ID, err)
		}
		res.PropertyID = propertyID
		res.Status = statement.ReservationStatus(strings.ToLower(status))
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListExpenses returns expenses incurred within the window.
func (r *BookingRepository) ListExpenses(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID, start, end statement.Date) ([]statement.Expense, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("booking repo: nil db")
	}
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	placeholders, args := idArgs(propertyIDs, 4)
	query := fmt.Sprintf(`
SELECT id, property_id, amount, incurred_on, COALESCE(description, '')
FROM expenses
WHERE tenant_id = $1 AND incurred_on >= $2 AND incurred_on <= $3 AND property_id IN (%s)
ORDER BY incurred_on, id`, placeholders)
	args = append([]any{tenantID, start, end}, args...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []statement.Expense
	for rows.Next() {
		var exp statement.Expense
		var rawPropertyID string
		if err := rows.Scan(&exp.ID, &rawPropertyID, &exp.Amount, &exp.Date, &exp.Description); err != nil {
			return nil, err
		}
		propertyID, err := statement.ParsePropertyID(rawPropertyID)
		if err != nil {
			return nil, fmt.Errorf("booking repo: expense %s: %w", exp.ID, err)
		}
		exp.PropertyID = propertyID
		out = append(out, exp)
	}
	return out, rows.Err()
}

// idArgs builds an IN-clause placeholder list starting at the given
// positional index. Property ids are compared as text in storage.
func idArgs(ids []statement.PropertyID, from int) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", from+i)
		args[i] = fmt.Sprintf("%d", int64(id))
	}
	return strings.Join(placeholders, ","), args
}
