package interfaces

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stayledger/internal/statement/application"
	statement "stayledger/internal/statement/domain"
)

type memoryBookings struct {
	reservations []statement.Reservation
	expenses     []statement.Expense
}

func (m *memoryBookings) ListReservations(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID, start, end statement.Date) ([]statement.Reservation, error) {
	return m.reservations, nil
}

func (m *memoryBookings) ListExpenses(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID, start, end statement.Date) ([]statement.Expense, error) {
	return m.expenses, nil
}

type memorySettings struct {
	settings statement.SettingsMap
}

func (m *memorySettings) SettingsFor(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID) (statement.SettingsMap, error) {
	return m.settings, nil
}

type memoryStatements struct {
	byID map[string]*statement.Statement
}

func (m *memoryStatements) Create(ctx context.Context, stmt *statement.Statement) error {
	copied := *stmt
	m.byID[stmt.ID] = &copied
	return nil
}

func (m *memoryStatements) GetByID(ctx context.Context, id string) (*statement.Statement, error) {
	stmt, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *stmt
	return &copied, nil
}

func (m *memoryStatements) ListByProperty(ctx context.Context, tenantID string, propertyID statement.PropertyID) ([]statement.Statement, error) {
	var out []statement.Statement
	for _, stmt := range m.byID {
		for _, id := range stmt.PropertyIDs {
			if id == propertyID {
				out = append(out, *stmt)
				break
			}
		}
	}
	return out, nil
}

func (m *memoryStatements) NextVersion(ctx context.Context, tenantID string, propertyIDs []statement.PropertyID, period statement.Period) (int, error) {
	return 1, nil
}

func (m *memoryStatements) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	stmt, ok := m.byID[id]
	if !ok {
		return statement.ErrStatementNotFound
	}
	stmt.Status = status
	stmt.UpdatedAt = updatedAt
	return nil
}

type recordingMailer struct {
	configured bool
	sent       []string
}

func (m *recordingMailer) IsConfigured() bool { return m.configured }

func (m *recordingMailer) Send(ctx context.Context, to, subject string, stmt *statement.Statement) error {
	m.sent = append(m.sent, to)
	return nil
}

func newTestHandler(t *testing.T, bookings *memoryBookings, settings statement.SettingsMap, mailer *recordingMailer) (*StatementHandler, *memoryStatements) {
	t.Helper()
	statements := &memoryStatements{byID: make(map[string]*statement.Statement)}
	svc, err := application.NewStatementService(statements, bookings,
		&memorySettings{settings: settings}, "tenant-1", nil, log.New(&strings.Builder{}, "", 0))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewStatementHandler(svc, mailer, nil, nil, log.New(&strings.Builder{}, "", 0))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, statements
}

func vrboNovember() *memoryBookings {
	return &memoryBookings{
		reservations: []statement.Reservation{{
			ID:         "r-1",
			PropertyID: 1,
			Source:     "VRBO",
			CheckIn:    statement.MustDate("2025-11-03"),
			CheckOut:   statement.MustDate("2025-11-08"),
			Status:     "confirmed",
			Revenue:    1000,
		}},
	}
}

func generateNovember(t *testing.T, handler *StatementHandler, recipient string) *statement.Statement {
	t.Helper()
	body := `{"property_ids":[1],"start":"2025-11-01","end":"2025-11-30","recipient_email":"` + recipient + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/statements/generate", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("generate: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var stmt statement.Statement
	if err := json.Unmarshal(resp.Body.Bytes(), &stmt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return &stmt
}

func TestStatementHandler_GenerateAndGet(t *testing.T) {
	mailer := &recordingMailer{configured: true}
	handler, _ := newTestHandler(t, vrboNovember(),
		statement.SettingsMap{1: {PMFeePercentage: 15, DisregardTax: true}}, mailer)

	stmt := generateNovember(t, handler, "owner@example.com")
	if stmt.OwnerPayout != 850 {
		t.Fatalf("expected payout 850, got %v", stmt.OwnerPayout)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/statements/"+stmt.ID, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.Code)
	}
}

func TestStatementHandler_GenerateRejectsMalformedDate(t *testing.T) {
	mailer := &recordingMailer{configured: true}
	handler, _ := newTestHandler(t, vrboNovember(), statement.SettingsMap{}, mailer)

	body := `{"property_ids":[1],"start":"11/01/2025","end":"2025-11-30"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/statements/generate", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", resp.Code)
	}
}

func TestStatementHandler_GenerateNothingToBill(t *testing.T) {
	mailer := &recordingMailer{configured: true}
	handler, _ := newTestHandler(t, &memoryBookings{}, statement.SettingsMap{}, mailer)

	body := `{"property_ids":[1],"start":"2025-11-01","end":"2025-11-30"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/statements/generate", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty period, got %d", resp.Code)
	}
}

func TestStatementHandler_SendTransitionsToSent(t *testing.T) {
	mailer := &recordingMailer{configured: true}
	handler, statements := newTestHandler(t, vrboNovember(),
		statement.SettingsMap{1: {PMFeePercentage: 15, DisregardTax: true}}, mailer)

	stmt := generateNovember(t, handler, "owner@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/statements/"+stmt.ID+"/send", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("send: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "owner@example.com" {
		t.Fatalf("expected one delivery, got %v", mailer.sent)
	}
	if statements.byID[stmt.ID].Status != statement.StatusSent {
		t.Fatalf("expected sent status, got %q", statements.byID[stmt.ID].Status)
	}
}

func TestStatementHandler_SendBlockedWithoutSMTP(t *testing.T) {
	mailer := &recordingMailer{configured: false}
	handler, statements := newTestHandler(t, vrboNovember(),
		statement.SettingsMap{1: {PMFeePercentage: 15, DisregardTax: true}}, mailer)

	stmt := generateNovember(t, handler, "owner@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/statements/"+stmt.ID+"/send", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
	var out actionResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Blocked) == 0 {
		t.Fatal("expected blocked reasons")
	}
	if statements.byID[stmt.ID].Status != statement.StatusDraft {
		t.Fatal("blocked positive statement must stay draft")
	}
}

func TestStatementHandler_SendNegativeFlags(t *testing.T) {
	mailer := &recordingMailer{configured: true}
	bookings := &memoryBookings{
		reservations: []statement.Reservation{{
			ID:         "r-1",
			PropertyID: 1,
			Source:     "Airbnb",
			CheckIn:    statement.MustDate("2025-11-03"),
			CheckOut:   statement.MustDate("2025-11-08"),
			Status:     "confirmed",
			Revenue:    500,
		}},
	}
	handler, statements := newTestHandler(t, bookings,
		statement.SettingsMap{1: {PMFeePercentage: 15, DisregardTax: true, IsCohostOnAirbnb: true}}, mailer)

	stmt := generateNovember(t, handler, "owner@example.com")
	if stmt.OwnerPayout >= 0 {
		t.Fatalf("precondition: expected negative payout, got %v", stmt.OwnerPayout)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/statements/"+stmt.ID+"/send", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("negative statement must not be emailed")
	}
	if statements.byID[stmt.ID].Status != statement.StatusFlaggedNegative {
		t.Fatalf("expected flagged status, got %q", statements.byID[stmt.ID].Status)
	}

	// Force-send overrides the balance guardrail.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/statements/"+stmt.ID+"/force-send", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("force-send: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected forced delivery, got %v", mailer.sent)
	}
	if statements.byID[stmt.ID].Status != statement.StatusSentNegative {
		t.Fatalf("expected sent_negative_balance, got %q", statements.byID[stmt.ID].Status)
	}
}

func TestStatementHandler_WaiveAction(t *testing.T) {
	mailer := &recordingMailer{configured: true}
	bookings := &memoryBookings{
		reservations: []statement.Reservation{{
			ID:         "r-1",
			PropertyID: 1,
			Source:     "Airbnb",
			CheckIn:    statement.MustDate("2025-11-03"),
			CheckOut:   statement.MustDate("2025-11-08"),
			Status:     "confirmed",
			Revenue:    500,
		}},
	}
	handler, statements := newTestHandler(t, bookings,
		statement.SettingsMap{1: {PMFeePercentage: 15, DisregardTax: true, IsCohostOnAirbnb: true}}, mailer)

	stmt := generateNovember(t, handler, "owner@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/statements/"+stmt.ID+"/send", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/statements/"+stmt.ID+"/waive", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("waive: expected 200, got %d", resp.Code)
	}
	if statements.byID[stmt.ID].Status != statement.StatusReviewedWaived {
		t.Fatalf("expected reviewed_waived, got %q", statements.byID[stmt.ID].Status)
	}
}

func TestStatementHandler_List(t *testing.T) {
	mailer := &recordingMailer{configured: true}
	handler, _ := newTestHandler(t, vrboNovember(),
		statement.SettingsMap{1: {PMFeePercentage: 15, DisregardTax: true}}, mailer)
	generateNovember(t, handler, "owner@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/statements?property_id=1", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.Code)
	}
	var out []statement.Statement
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/statements", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without property_id, got %d", resp.Code)
	}
}

func TestStatementHandler_Exports(t *testing.T) {
	mailer := &recordingMailer{configured: true}
	handler, _ := newTestHandler(t, vrboNovember(),
		statement.SettingsMap{1: {PMFeePercentage: 15, DisregardTax: true}}, mailer)
	stmt := generateNovember(t, handler, "owner@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/statements/"+stmt.ID+"/export.pdf", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("pdf export: expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected pdf content type %q", ct)
	}
	if resp.Body.Len() == 0 {
		t.Fatal("empty pdf payload")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/statements/"+stmt.ID+"/export.xlsx", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("xlsx export: expected 200, got %d", resp.Code)
	}
	if resp.Body.Len() == 0 {
		t.Fatal("empty xlsx payload")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/statements/stmt-missing/export.pdf", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown statement, got %d", resp.Code)
	}
}
