package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"stayledger/internal/observability/metrics"
	statement "stayledger/internal/statement/domain"
)

// BookingStore loads the raw reservation and expense records for a window.
// Implementations canonicalize storage quirks (0/1 booleans, string ids)
// before anything reaches the domain.
type BookingStore interface {
	// ListReservations returns every reservation of the properties with
	// check_in <= end and check_out >= start. That superset covers both
	// calculation modes and the overlap advisor.
	ListReservations(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID, start, end statement.Date) ([]statement.Reservation, error)
	ListExpenses(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID, start, end statement.Date) ([]statement.Expense, error)
}

// SettingsStore loads current per-property financial settings.
type SettingsStore interface {
	SettingsFor(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID) (statement.SettingsMap, error)
}

// StatementStore persists statements and their snapshots.
type StatementStore interface {
	Create(ctx context.Context, stmt *statement.Statement) error
	GetByID(ctx context.Context, id string) (*statement.Statement, error)
	ListByProperty(ctx context.Context, tenantID string, propertyID statement.PropertyID) ([]statement.Statement, error)
	NextVersion(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID, period statement.Period) (int, error)
	UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// GenerateRequest describes one statement generation.
type GenerateRequest struct {
	PropertyIDs    []statement.PropertyID
	Start          statement.Date
	End            statement.Date
	Calculation    statement.CalculationType
	RecipientEmail string
}

// StatementService handles owner-statement workflows.
type StatementService struct {
	statements StatementStore
	bookings   BookingStore
	settings   SettingsStore
	tenantID   string
	clock      Clock
	logger     *log.Logger
}

// NewStatementService constructs a service.
func NewStatementService(statements StatementStore, bookings BookingStore, settings SettingsStore, tenantID string, clock Clock, logger *log.Logger) (*StatementService, error) {
	if statements == nil {
		return nil, errors.New("statement service: nil statement store")
	}
	if bookings == nil {
		return nil, errors.New("statement service: nil booking store")
	}
	if settings == nil {
		return nil, errors.New("statement service: nil settings store")
	}
	if tenantID == "" {
		return nil, errors.New("statement service: empty tenant id")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &StatementService{
		statements: statements,
		bookings:   bookings,
		settings:   settings,
		tenantID:   tenantID,
		clock:      clock,
		logger:     logger,
	}, nil
}

// TenantID returns the management-company tenant this service works for.
func (s *StatementService) TenantID() string { return s.tenantID }

// Generate computes and persists a statement draft for one or more
// properties. Periods with neither occupancy nor expenses are not generated
// and return ErrNothingToBill.
func (s *StatementService) Generate(ctx context.Context, req GenerateRequest) (*statement.Statement, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveStatementGenerate(result, time.Since(start))
	}()

	if len(req.PropertyIDs) == 0 {
		result = metrics.ResultError
		return nil, statement.ErrNoProperties
	}
	period := statement.Period{Start: req.Start, End: req.End, Calculation: req.Calculation}
	if period.Calculation == "" {
		period.Calculation = statement.CalculationCheckout
	}
	if err := period.Validate(); err != nil {
		result = metrics.ResultError
		return nil, err
	}

	reservations, err := s.bookings.ListReservations(ctx, s.tenantID, req.PropertyIDs, period.Start, period.End)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	expenses, err := s.bookings.ListExpenses(ctx, s.tenantID, req.PropertyIDs, period.Start, period.End)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	settingsMap, err := s.settings.SettingsFor(ctx, s.tenantID, req.PropertyIDs)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	var overlapping []statement.Reservation
	for _, propertyID := range req.PropertyIDs {
		overlapping = append(overlapping,
			statement.FindOverlappingReservations(reservations, propertyID, period.Start, period.End)...)
	}
	if statement.ShouldSkipStatement(overlapping, expenses) {
		result = metrics.ResultError
		return nil, statement.ErrNothingToBill
	}

	version, err := s.statements.NextVersion(ctx, s.tenantID, req.PropertyIDs, period)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	stmt := statement.BuildStatement(reservations, expenses, settingsMap, statement.DefaultSettings(), req.PropertyIDs, period)
	now := s.clock.Now()
	stmt.ID = buildStatementID(s.tenantID, req.PropertyIDs, period, version)
	stmt.TenantID = s.tenantID
	stmt.Version = version
	stmt.RecipientEmail = req.RecipientEmail
	stmt.CreatedAt = now
	stmt.UpdatedAt = now

	if err := s.statements.Create(ctx, stmt); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return stmt, nil
}

// Get returns a statement recomputed under the properties' current settings.
// The stored reservation/expense snapshot is authoritative for facts; the
// stored totals are not, because settings may have changed since creation.
func (s *StatementService) Get(ctx context.Context, id string) (*statement.Statement, error) {
	stored, err := s.statements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, statement.ErrStatementNotFound
	}
	current, err := s.settings.SettingsFor(ctx, s.tenantID, stored.PropertyIDs)
	if err != nil {
		return nil, err
	}
	return stored.Recomputed(current, statement.DefaultSettings()), nil
}

// List returns the statements of a property.
func (s *StatementService) List(ctx context.Context, propertyID statement.PropertyID) ([]statement.Statement, error) {
	if propertyID == 0 {
		return nil, statement.ErrNoProperties
	}
	return s.statements.ListByProperty(ctx, s.tenantID, propertyID)
}

// Apply runs a status action against a statement. The payout feeding the
// transition is the recomputed one, so a settings change that flips the sign
// is honored. Unknown actions leave the status unchanged.
func (s *StatementService) Apply(ctx context.Context, id, action string) (*statement.Statement, error) {
	stmt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := statement.NextStatus(stmt.Status, action, stmt.OwnerPayout)
	if next == stmt.Status {
		return stmt, nil
	}
	now := s.clock.Now()
	if err := s.statements.UpdateStatus(ctx, id, next, now); err != nil {
		return nil, err
	}
	stmt.Status = next
	stmt.UpdatedAt = now
	metrics.IncStatementTransition(action, next)
	return stmt, nil
}

// BulkResult is the outcome of one property in a bulk generation run.
type BulkResult struct {
	PropertyID statement.PropertyID
	Statement  *statement.Statement
	Skipped    bool
	Err        error
}

// GenerateAll generates one statement per property. Each property is
// independent, so the fan-out is concurrent; results come back sorted by
// property id.
func (s *StatementService) GenerateAll(ctx context.Context, propertyIDs []statement.PropertyID, start, end statement.Date, calculation statement.CalculationType) []BulkResult {
	results := make([]BulkResult, len(propertyIDs))
	var wg sync.WaitGroup
	for i, propertyID := range propertyIDs {
		wg.Add(1)
		go func(i int, propertyID statement.PropertyID) {
			defer wg.Done()
			stmt, err := s.Generate(ctx, GenerateRequest{
				PropertyIDs: []statement.PropertyID{propertyID},
				Start:       start,
				End:         end,
				Calculation: calculation,
			})
			result := BulkResult{PropertyID: propertyID, Statement: stmt, Err: err}
			if errors.Is(err, statement.ErrNothingToBill) {
				result.Skipped = true
				result.Err = nil
			}
			results[i] = result
		}(i, propertyID)
	}
	wg.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].PropertyID < results[j].PropertyID })
	if s.logger != nil {
		for _, r := range results {
			if r.Err != nil {
				s.logger.Printf("bulk generate error: property=%d err=%v", r.PropertyID, r.Err)
			}
		}
	}
	return results
}

func buildStatementID(tenantID string, propertyIDs []statement.PropertyID, period statement.Period, version int) string {
	base := tenantID
	for _, id := range propertyIDs {
		base += "|" + strconv.FormatInt(int64(id), 10)
	}
	base += "|" + period.Start.String() + "|" + period.End.String() + "|" + string(period.Calculation) + "|" + strconv.Itoa(version)
	hash := sha256.Sum256([]byte(base))
	return "stmt-" + hex.EncodeToString(hash[:8])
}
