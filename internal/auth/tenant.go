package auth

import (
	"context"
	"database/sql"
	"errors"
)

var (
	// ErrTenantMismatch indicates resource belongs to a different tenant.
	ErrTenantMismatch = errors.New("tenant mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("resource not found")
)

// PropertyTenantChecker validates property tenant ownership.
type PropertyTenantChecker interface {
	EnsurePropertyTenant(ctx context.Context, tenantID string, propertyID int64) error
}

// PropertyChecker checks property ownership against the properties table.
type PropertyChecker struct {
	db *sql.DB
}

// NewPropertyChecker constructs a PropertyChecker.
func NewPropertyChecker(db *sql.DB) *PropertyChecker {
	if db == nil {
		return nil
	}
	return &PropertyChecker{db: db}
}

// EnsurePropertyTenant verifies the property belongs to the tenant.
func (c *PropertyChecker) EnsurePropertyTenant(ctx context.Context, tenantID string, propertyID int64) error {
	if c == nil || c.db == nil {
		return nil
	}
	if tenantID == "" || propertyID == 0 {
		return nil
	}
	var owner string
	err := c.db.QueryRowContext(ctx,
		`SELECT tenant_id FROM properties WHERE id = $1`, propertyID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != tenantID {
		return ErrTenantMismatch
	}
	return nil
}
