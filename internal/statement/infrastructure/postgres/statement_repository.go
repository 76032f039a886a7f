package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	statement "stayledger/internal/statement/domain"
)

// StatementRepository persists owner statements and their snapshots.
//
// Tables: owner_statements, owner_statement_properties,
// owner_statement_reservations, owner_statement_expenses. The reservation
// and expense rows are the immutable snapshot; totals on the statement row
// are the figures at creation time and are recomputed on read.
type StatementRepository struct {
	db *sql.DB
}

// NewStatementRepository constructs a repository.
func NewStatementRepository(db *sql.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

// Create inserts a statement with its snapshot rows.
func (r *StatementRepository) Create(ctx context.Context, stmt *statement.Statement) error {
	if r == nil || r.db == nil {
		return errors.New("statement repo: nil db")
	}
	if stmt == nil {
		return statement.ErrNilStatement
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO owner_statements (
	id, tenant_id, property_key, period_start, period_end, calculation_type,
	version, status, total_revenue, commission_displayed, commission_deducted,
	tax_added, cleaning_fee_actual, expense_total, gross_payout, owner_payout,
	should_convert_to_calendar, conversion_notice, overlapping_count,
	recipient_email, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22
)`,
		stmt.ID, stmt.TenantID, propertyKey(stmt.PropertyIDs), stmt.Period.Start, stmt.Period.End,
		string(stmt.Period.Calculation), stmt.Version, stmt.Status, stmt.TotalRevenue,
		stmt.CommissionDisplayed, stmt.CommissionDeducted, stmt.TaxAdded, stmt.CleaningFeeActual,
		stmt.ExpenseTotal, stmt.GrossPayout, stmt.OwnerPayout, stmt.ShouldConvertToCalendar,
		stmt.CalendarConversionNotice, stmt.OverlappingCount, stmt.RecipientEmail,
		stmt.CreatedAt, stmt.UpdatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, propertyID := range stmt.PropertyIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO owner_statement_properties (statement_id, property_id) VALUES ($1,$2)`,
			stmt.ID, int64(propertyID)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for _, res := range stmt.Reservations {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO owner_statement_reservations (
	statement_id, reservation_id, property_id, source, check_in, check_out,
	status, revenue, tax, guest_cleaning_fee
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			stmt.ID, res.ID, int64(res.PropertyID), res.Source, res.CheckIn, res.CheckOut,
			string(res.Status), res.Revenue, res.Tax, res.GuestCleaningFee); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for _, exp := range stmt.Expenses {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO owner_statement_expenses (
	statement_id, expense_id, property_id, amount, incurred_on, description
) VALUES ($1,$2,$3,$4,$5,$6)`,
			stmt.ID, exp.ID, int64(exp.PropertyID), exp.Amount, exp.Date, exp.Description); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetByID fetches a statement with its snapshot. Returns nil when unknown.
func (r *StatementRepository) GetByID(ctx context.Context, id string) (*statement.Statement, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("statement repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, property_key, period_start, period_end, calculation_type,
	version, status, total_revenue, commission_displayed, commission_deducted,
	tax_added, cleaning_fee_actual, expense_total, gross_payout, owner_payout,
	should_convert_to_calendar, conversion_notice, overlapping_count,
	recipient_email, created_at, updated_at
FROM owner_statements
WHERE id = $1
LIMIT 1`, id)
	stmt, err := scanStatement(row)
	if err != nil || stmt == nil {
		return stmt, err
	}
	if stmt.Reservations, err = r.listSnapshotReservations(ctx, id); err != nil {
		return nil, err
	}
	if stmt.Expenses, err = r.listSnapshotExpenses(ctx, id); err != nil {
		return nil, err
	}
	return stmt, nil
}

// ListByProperty lists statement headers covering a property, newest first.
func (r *StatementRepository) ListByProperty(ctx context.Context, tenantID string, propertyID statement.PropertyID) ([]statement.Statement, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("statement repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT s.id, s.tenant_id, s.property_key, s.period_start, s.period_end, s.calculation_type,
	s.version, s.status, s.total_revenue, s.commission_displayed, s.commission_deducted,
	s.tax_added, s.cleaning_fee_actual, s.expense_total, s.gross_payout, s.owner_payout,
	s.should_convert_to_calendar, s.conversion_notice, s.overlapping_count,
	s.recipient_email, s.created_at, s.updated_at
FROM owner_statements s
JOIN owner_statement_properties p ON p.statement_id = s.id
WHERE s.tenant_id = $1 AND p.property_id = $2
ORDER BY s.period_start DESC, s.version DESC`, tenantID, int64(propertyID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []statement.Statement
	for rows.Next() {
		stmt, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *stmt)
	}
	return out, rows.Err()
}

// FindLatestActive returns the highest-version statement for a property set
// and period, or nil when none exists.
func (r *StatementRepository) FindLatestActive(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID, period statement.Period) (*statement.Statement, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("statement repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, property_key, period_start, period_end, calculation_type,
	version, status, total_revenue, commission_displayed, commission_deducted,
	tax_added, cleaning_fee_actual, expense_total, gross_payout, owner_payout,
	should_convert_to_calendar, conversion_notice, overlapping_count,
	recipient_email, created_at, updated_at
FROM owner_statements
WHERE tenant_id = $1 AND property_key = $2 AND period_start = $3 AND period_end = $4 AND calculation_type = $5
ORDER BY version DESC
LIMIT 1`, tenantID, propertyKey(propertyIDs), period.Start, period.End, string(period.Calculation))
	stmt, err := scanStatement(row)
	if err != nil || stmt == nil {
		return stmt, err
	}
	if stmt.Reservations, err = r.listSnapshotReservations(ctx, stmt.ID); err != nil {
		return nil, err
	}
	if stmt.Expenses, err = r.listSnapshotExpenses(ctx, stmt.ID); err != nil {
		return nil, err
	}
	return stmt, nil
}

// NextVersion returns the next version for a property set and period.
func (r *StatementRepository) NextVersion(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID, period statement.Period) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("statement repo: nil db")
	}
	var maxVersion sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
SELECT MAX(version)
FROM owner_statements
WHERE tenant_id = $1 AND property_key = $2 AND period_start = $3 AND period_end = $4 AND calculation_type = $5`,
		tenantID, propertyKey(propertyIDs), period.Start, period.End, string(period.Calculation)).Scan(&maxVersion)
	if err != nil {
		return 0, err
	}
	if !maxVersion.Valid {
		return 1, nil
	}
	return int(maxVersion.Int64) + 1, nil
}

// UpdateStatus sets the statement status.
func (r *StatementRepository) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("statement repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE owner_statements SET status = $2, updated_at = $3 WHERE id = $1`, id, status, updatedAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return statement.ErrStatementNotFound
	}
	return nil
}

func (r *StatementRepository) listSnapshotReservations(ctx context.Context, statementID string) ([]statement.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT reservation_id, property_id, source, check_in, check_out, status, revenue, tax, guest_cleaning_fee
FROM owner_statement_reservations
WHERE statement_id = $1
ORDER BY check_in, reservation_id`, statementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []statement.Reservation
	for rows.Next() {
		var res statement.Reservation
		var propertyID int64
		var status string
		if err := rows.Scan(&res.ID, &propertyID, &res.Source, &res.CheckIn, &res.CheckOut,
			&status, &res.Revenue, &res.Tax, &res.GuestCleaningFee); err != nil {
			return nil, err
		}
		res.PropertyID = statement.PropertyID(propertyID)
		res.Status = statement.ReservationStatus(status)
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *StatementRepository) listSnapshotExpenses(ctx context.Context, statementID string) ([]statement.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT expense_id, property_id, amount, incurred_on, description
FROM owner_statement_expenses
WHERE statement_id = $1
ORDER BY incurred_on, expense_id`, statementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []statement.Expense
	for rows.Next() {
		var exp statement.Expense
		var propertyID int64
		if err := rows.Scan(&exp.ID, &propertyID, &exp.Amount, &exp.Date, &exp.Description); err != nil {
			return nil, err
		}
		exp.PropertyID = statement.PropertyID(propertyID)
		out = append(out, exp)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatement(row rowScanner) (*statement.Statement, error) {
	var stmt statement.Statement
	var key, calculation string
	var recipient sql.NullString
	err := row.Scan(
		&stmt.ID, &stmt.TenantID, &key, &stmt.Period.Start, &stmt.Period.End, &calculation,
		&stmt.Version, &stmt.Status, &stmt.TotalRevenue, &stmt.CommissionDisplayed,
		&stmt.CommissionDeducted, &stmt.TaxAdded, &stmt.CleaningFeeActual, &stmt.ExpenseTotal,
		&stmt.GrossPayout, &stmt.OwnerPayout, &stmt.ShouldConvertToCalendar,
		&stmt.CalendarConversionNotice, &stmt.OverlappingCount, &recipient,
		&stmt.CreatedAt, &stmt.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	stmt.Period.Calculation = statement.CalculationType(calculation)
	stmt.RecipientEmail = recipient.String
	stmt.PropertyIDs, err = parsePropertyKey(key)
	if err != nil {
		return nil, err
	}
	return &stmt, nil
}

func propertyKey(ids []statement.PropertyID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, ",")
}

func parsePropertyKey(key string) ([]statement.PropertyID, error) {
	if key == "" {
		return nil, nil
	}
	parts := strings.Split(key, ",")
	out := make([]statement.PropertyID, 0, len(parts))
	for _, part := range parts {
		id, err := statement.ParsePropertyID(part)
		if err != nil {
			return nil, fmt.Errorf("statement repo: bad property key %q: %w", key, err)
		}
		out = append(out, id)
	}
	return out, nil
}
