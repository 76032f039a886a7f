package interfaces

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"stayledger/internal/audit"
	"stayledger/internal/auth"
	"stayledger/internal/notify"
	"stayledger/internal/observability/metrics"
	"stayledger/internal/statement/application"
	statement "stayledger/internal/statement/domain"
)

// StatementHandler serves the owner-statement HTTP API under
// /api/v1/statements.
type StatementHandler struct {
	service *application.StatementService
	mailer  notify.Mailer
	tenants auth.PropertyTenantChecker
	audit   audit.Logger
	logger  *log.Logger
}

// NewStatementHandler constructs a StatementHandler. The tenant checker and
// audit logger are optional.
func NewStatementHandler(service *application.StatementService, mailer notify.Mailer, tenants auth.PropertyTenantChecker, auditLog audit.Logger, logger *log.Logger) (*StatementHandler, error) {
	if service == nil {
		return nil, errors.New("statement handler: nil service")
	}
	if mailer == nil {
		return nil, errors.New("statement handler: nil mailer")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &StatementHandler{service: service, mailer: mailer, tenants: tenants, audit: auditLog, logger: logger}, nil
}

type generateRequest struct {
	PropertyIDs    []statement.PropertyID `json:"property_ids"`
	Start          statement.Date         `json:"start"`
	End            statement.Date         `json:"end"`
	Calculation    string                 `json:"calculation_type"`
	RecipientEmail string                 `json:"recipient_email"`
}

type actionResponse struct {
	Statement *statement.Statement `json:"statement"`
	Blocked   []string             `json:"blocked_reasons,omitempty"`
}

// ServeHTTP routes /api/v1/statements requests.
func (h *StatementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/statements")
	rest = strings.TrimPrefix(rest, "/")

	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case rest == "generate" && r.Method == http.MethodPost:
		h.handleGenerate(w, r)
	case rest == "generate-all" && r.Method == http.MethodPost:
		h.handleGenerateAll(w, r)
	case rest != "":
		h.routeStatement(w, r, rest)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *StatementHandler) routeStatement(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		http.Error(w, "statement id is required", http.StatusBadRequest)
		return
	}
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleGet(w, r, id)
		return
	}

	switch parts[1] {
	case "export.pdf":
		h.handleExport(w, r, id, "pdf")
	case "export.xlsx":
		h.handleExport(w, r, id, "xlsx")
	case "send":
		h.handleSend(w, r, id, false)
	case "force-send":
		h.handleSend(w, r, id, true)
	case "review":
		h.handleAction(w, r, id, statement.ActionReview)
	case "send-manually":
		h.handleAction(w, r, id, statement.ActionSendManually)
	case "waive":
		h.handleAction(w, r, id, statement.ActionWaive)
	default:
		http.NotFound(w, r)
	}
}

func (h *StatementHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	stmt, err := h.service.Generate(r.Context(), application.GenerateRequest{
		PropertyIDs:    req.PropertyIDs,
		Start:          req.Start,
		End:            req.End,
		Calculation:    statement.CalculationType(req.Calculation),
		RecipientEmail: req.RecipientEmail,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.logAudit(r, "statement.generate", stmt)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(stmt)
}

type generateAllRequest struct {
	PropertyIDs []statement.PropertyID `json:"property_ids"`
	Start       statement.Date         `json:"start"`
	End         statement.Date         `json:"end"`
	Calculation string                 `json:"calculation_type"`
}

type bulkItem struct {
	PropertyID statement.PropertyID `json:"property_id"`
	Statement  *statement.Statement `json:"statement,omitempty"`
	Skipped    bool                 `json:"skipped,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func (h *StatementHandler) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
	var req generateAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.PropertyIDs) == 0 {
		http.Error(w, "property_ids is required", http.StatusBadRequest)
		return
	}

	results := h.service.GenerateAll(r.Context(), req.PropertyIDs, req.Start, req.End, statement.CalculationType(req.Calculation))
	items := make([]bulkItem, 0, len(results))
	for _, result := range results {
		item := bulkItem{PropertyID: result.PropertyID, Statement: result.Statement, Skipped: result.Skipped}
		if result.Err != nil {
			item.Error = result.Err.Error()
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

func (h *StatementHandler) handleList(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("property_id")
	if raw == "" {
		http.Error(w, "property_id is required", http.StatusBadRequest)
		return
	}
	propertyID, err := statement.ParsePropertyID(raw)
	if err != nil {
		http.Error(w, "property_id must be numeric", http.StatusBadRequest)
		return
	}

	if h.tenants != nil {
		if tenantID := auth.TenantIDFromContext(r.Context()); tenantID != "" {
			switch err := h.tenants.EnsurePropertyTenant(r.Context(), tenantID, int64(propertyID)); {
			case errors.Is(err, auth.ErrTenantMismatch):
				http.Error(w, "property belongs to another tenant", http.StatusForbidden)
				return
			case errors.Is(err, auth.ErrNotFound):
				http.Error(w, "property not found", http.StatusNotFound)
				return
			case err != nil:
				h.logger.Printf("statement handler: tenant check failed: %v", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
		}
	}

	statements, err := h.service.List(r.Context(), propertyID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statements)
}

func (h *StatementHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	stmt, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stmt)
}

func (h *StatementHandler) handleExport(w http.ResponseWriter, r *http.Request, id, format string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveStatementExport(format, result, time.Since(start))
	}()

	stmt, err := h.service.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		h.respondServiceError(w, err)
		return
	}

	var payload []byte
	var contentType string
	switch format {
	case "pdf":
		payload, err = BuildStatementPDF(stmt)
		contentType = "application/pdf"
	case "xlsx":
		payload, err = BuildStatementXLSX(stmt)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		result = metrics.ResultError
		h.logger.Printf("statement handler: export %s failed: id=%s err=%v", format, id, err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"."+format))
	_, _ = w.Write(payload)
}

// handleSend runs the automated send. A regular send is gated on the full
// CanSendEmail check; a negative payout flags the statement instead of
// sending. Force-send skips the balance guardrail but still needs a working
// mailer and a valid recipient.
func (h *StatementHandler) handleSend(w http.ResponseWriter, r *http.Request, id string, force bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	stmt, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	reasons := statement.CanSendEmail(stmt, stmt.RecipientEmail, h.mailer.IsConfigured())
	guard := statement.CheckNegativeBalanceGuardrail(stmt)

	if !force {
		if !guard.CanSend {
			flagged, err := h.service.Apply(r.Context(), id, statement.ActionSend)
			if err != nil {
				h.respondServiceError(w, err)
				return
			}
			metrics.IncStatementSend(metrics.SendBlocked)
			h.logAudit(r, "statement.send.blocked", flagged)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(actionResponse{Statement: flagged, Blocked: reasons})
			return
		}
		if len(reasons) > 0 {
			metrics.IncStatementSend(metrics.SendBlocked)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(actionResponse{Statement: stmt, Blocked: reasons})
			return
		}
	} else {
		var blocking []string
		for _, reason := range reasons {
			if guard.CanSend || reason != guard.Message {
				blocking = append(blocking, reason)
			}
		}
		if len(blocking) > 0 {
			metrics.IncStatementSend(metrics.SendBlocked)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(actionResponse{Statement: stmt, Blocked: blocking})
			return
		}
	}

	subject := application.EmailSubject(application.FrequencyMonthly, stmt.Period.Start, stmt.Period.End)
	if err := h.mailer.Send(r.Context(), stmt.RecipientEmail, subject, stmt); err != nil {
		metrics.IncStatementSend(metrics.SendError)
		h.logger.Printf("statement handler: send failed: id=%s err=%v", id, err)
		http.Error(w, "send failed", http.StatusBadGateway)
		return
	}

	action := statement.ActionSend
	if force {
		action = statement.ActionForceSend
	}
	updated, err := h.service.Apply(r.Context(), id, action)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	metrics.IncStatementSend(metrics.SendSuccess)
	h.logAudit(r, "statement."+action, updated)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(actionResponse{Statement: updated})
}

func (h *StatementHandler) handleAction(w http.ResponseWriter, r *http.Request, id, action string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	updated, err := h.service.Apply(r.Context(), id, action)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.logAudit(r, "statement."+action, updated)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(actionResponse{Statement: updated})
}

func (h *StatementHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, statement.ErrStatementNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, statement.ErrNothingToBill):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, statement.ErrNoProperties), errors.Is(err, statement.ErrInvalidPeriod):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Printf("statement handler: internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *StatementHandler) logAudit(r *http.Request, action string, stmt *statement.Statement) {
	if h.audit == nil || stmt == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{
		"period_start": stmt.Period.Start.String(),
		"period_end":   stmt.Period.End.String(),
		"status":       stmt.Status,
		"owner_payout": statement.RoundCurrency(stmt.OwnerPayout),
	})
	entry := audit.Entry{
		TenantID:     auth.TenantIDFromContext(r.Context()),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "owner_statement",
		ResourceID:   stmt.ID,
		PropertyID:   propertyList(stmt.PropertyIDs),
		Metadata:     meta,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.audit.Log(r.Context(), entry); err != nil {
		h.logger.Printf("statement handler: audit log failed: %v", err)
	}
}
