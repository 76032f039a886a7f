package statement

import "errors"

var (
	// ErrInvalidPeriod is returned for malformed period bounds or mode.
	ErrInvalidPeriod = errors.New("statement: invalid period")
	// ErrNoProperties is returned when generation names no property ids.
	ErrNoProperties = errors.New("statement: no property ids")
	// ErrNothingToBill is returned when a period has neither occupancy nor
	// expenses and no statement should be generated.
	ErrNothingToBill = errors.New("statement: nothing to bill in period")
	// ErrStatementNotFound is returned when a statement id is unknown.
	ErrStatementNotFound = errors.New("statement: not found")
	// ErrNilStatement is returned when an operation requires a statement.
	ErrNilStatement = errors.New("statement: nil statement")
)
