/*
handlers.go - HTTP API handlers for the rent ledger

PURPOSE:
  Exposes the rent ledger via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Assignments:
    GET    /api/assignments                   List leases (?active=true)
    POST   /api/assignments                   Create lease
    GET    /api/assignments/{id}              Get lease
    POST   /api/assignments/{id}/end          End lease
    GET    /api/assignments/{id}/statement    Month-by-month breakdown
    GET    /api/assignments/{id}/balance      ?month= | ?year= | all-time
    GET    /api/assignments/{id}/payments     Payment history

  Payments:
    POST   /api/payments                      Submit (PENDING)
    POST   /api/payments/{id}/approve         Approve + balance update
    POST   /api/payments/{id}/deny            Deny

  Admin:
    POST   /api/admin/rent-due                Manual balance override
    POST   /api/admin/reconcile               Run reconciliation now

  Reconciliation:
    GET    /api/reconciliation/runs           Audit trail

  Reports:
    GET    /api/reports/units                 Portfolio summary

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Assignment/payment not found
  - 409: Payment already decided
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/rent-ledger/billing"
	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      billing.TxStore
	Approvals  *billing.ApprovalService
	Projector  *billing.BalanceProjector
	Reconciler *billing.Reconciler
}

// NewHandler wires the domain services over one store.
func NewHandler(store billing.TxStore, notifier billing.Notifier) *Handler {
	return &Handler{
		Store:      store,
		Approvals:  billing.NewApprovalService(store, notifier),
		Projector:  billing.NewBalanceProjector(store),
		Reconciler: billing.NewReconciler(store, true),
	}
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// ListAssignments returns all leases, optionally only active ones.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	assignments, err := h.Store.ListAssignments(r.Context(), activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assignments", err)
		return
	}

	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAssignment creates a new lease.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	leaseStart, err := time.Parse("2006-01-02", req.LeaseStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid lease_start format (use YYYY-MM-DD)", err)
		return
	}
	rent, err := ledger.ParseMoney(req.MonthlyRent)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid monthly_rent (use a decimal string)", err)
		return
	}

	now := time.Now().UTC()
	a := billing.TenantAssignment{
		ID:          billing.AssignmentID(uuid.NewString()),
		TenantID:    billing.TenantID(req.TenantID),
		UnitID:      billing.UnitID(req.UnitID),
		LeaseStart:  leaseStart.UTC(),
		MonthlyRent: rent,
		Status:      billing.AssignmentActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.LeaseEnd != nil {
		end, err := time.Parse("2006-01-02", *req.LeaseEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid lease_end format (use YYYY-MM-DD)", err)
			return
		}
		a.LeaseEnd = &end
	}

	if err := a.Validate(); err != nil {
		writeDomainError(w, "Invalid assignment", err)
		return
	}

	// The balance cache starts at what a replay with zero payments yields,
	// so a brand-new mid-year lease immediately shows months owed.
	initialDue, err := ledger.ReplayRentDue(a.LeaseStart, a.MonthlyRent, ledger.ZeroMoney(), ledger.MonthOf(now))
	if err != nil {
		writeDomainError(w, "Invalid assignment", err)
		return
	}
	a.RentDue = initialDue

	if err := h.Store.SaveAssignment(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create assignment", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAssignmentDTO(a))
}

// GetAssignment returns a single lease.
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id := billing.AssignmentID(chi.URLParam(r, "id"))

	a, err := h.Store.GetAssignment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get assignment", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Assignment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*a))
}

// EndAssignment transitions a lease to ENDED.
func (h *Handler) EndAssignment(w http.ResponseWriter, r *http.Request) {
	id := billing.AssignmentID(chi.URLParam(r, "id"))

	if err := h.Store.EndAssignment(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to end assignment", err)
		return
	}

	a, err := h.Store.GetAssignment(r.Context(), id)
	if err != nil || a == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*a))
}

// GetStatement returns the month-by-month breakdown.
// GET /api/assignments/{id}/statement?as_of=YYYY-MM&extend=true
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	id := billing.AssignmentID(chi.URLParam(r, "id"))

	asOf := ledger.CurrentMonth()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := ledger.ParseMonth(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of month", err)
			return
		}
		asOf = parsed
	}
	extend := r.URL.Query().Get("extend") == "true"

	stmt, err := h.Projector.Statement(r.Context(), id, asOf, extend)
	if err != nil {
		writeDomainError(w, "Failed to build statement", err)
		return
	}

	writeJSON(w, http.StatusOK, StatementDTO{
		AssignmentID:     string(stmt.AssignmentID),
		TenantID:         string(stmt.TenantID),
		UnitID:           string(stmt.UnitID),
		AsOfMonth:        stmt.AsOfMonth.String(),
		MonthlyRent:      stmt.MonthlyRent.Float64(),
		Months:           toAllocationDTOs(stmt.Rows),
		TotalPaid:        stmt.TotalPaid.Float64(),
		Overpayment:      stmt.Overpayment.Float64(),
		RentDue:          stmt.RentDue.Float64(),
		PersistedRentDue: stmt.PersistedRentDue.Float64(),
		InSync:           stmt.InSync,
	})
}

// GetBalance dispatches on the query window:
// ?month=YYYY-MM, ?year=YYYY, or neither for the all-time summary.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := billing.AssignmentID(chi.URLParam(r, "id"))
	q := r.URL.Query()

	switch {
	case q.Get("month") != "":
		month, err := ledger.ParseMonth(q.Get("month"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		view, err := h.Projector.MonthStatus(r.Context(), id, month)
		if err != nil {
			writeDomainError(w, "Failed to compute month balance", err)
			return
		}
		writeJSON(w, http.StatusOK, MonthBalanceDTO{
			AssignmentID: string(view.AssignmentID),
			Month:        toAllocationDTO(view.Allocation),
		})

	case q.Get("year") != "":
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		view, err := h.Projector.YearSummary(r.Context(), id, year)
		if err != nil {
			writeDomainError(w, "Failed to compute year balance", err)
			return
		}
		writeJSON(w, http.StatusOK, YearBalanceDTO{
			AssignmentID:   string(view.AssignmentID),
			Year:           view.Year,
			Months:         toAllocationDTOs(view.Rows),
			TotalRent:      view.TotalRent.Float64(),
			TotalAllocated: view.TotalAllocated.Float64(),
		})

	default:
		view, err := h.Projector.AllTime(r.Context(), id)
		if err != nil {
			writeDomainError(w, "Failed to compute balance", err)
			return
		}
		writeJSON(w, http.StatusOK, AllTimeBalanceDTO{
			AssignmentID: string(view.AssignmentID),
			MonthlyRent:  view.MonthlyRent.Float64(),
			RentDue:      view.RentDue.Float64(),
			TotalPaid:    view.TotalPaid.Float64(),
			Status:       string(view.Status),
		})
	}
}

// ListAssignmentPayments returns a lease's payment history.
func (h *Handler) ListAssignmentPayments(w http.ResponseWriter, r *http.Request) {
	id := billing.AssignmentID(chi.URLParam(r, "id"))

	payments, err := h.Store.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// SubmitPayment records a tenant payment in PENDING state.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var req SubmitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := ledger.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount (use a decimal string)", err)
		return
	}

	p, err := h.Approvals.Submit(r.Context(), billing.Payment{
		AssignmentID: billing.AssignmentID(req.AssignmentID),
		Amount:       amount,
		Method:       req.Method,
		Reference:    req.Reference,
	})
	if err != nil {
		writeDomainError(w, "Failed to submit payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentDTO(*p))
}

// ApprovePayment approves a pending payment and updates the balance.
func (h *Handler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	id := billing.PaymentID(chi.URLParam(r, "id"))

	var req DecidePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Approvals.Approve(r.Context(), id, req.ReviewerID)
	if err != nil {
		writeDomainError(w, "Failed to approve payment", err)
		return
	}

	writeJSON(w, http.StatusOK, ApprovalResultDTO{
		Payment:    toPaymentDTO(result.Payment),
		NewRentDue: result.NewRentDue.Float64(),
	})
}

// DenyPayment denies a pending payment.
func (h *Handler) DenyPayment(w http.ResponseWriter, r *http.Request) {
	id := billing.PaymentID(chi.URLParam(r, "id"))

	var req DecidePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Approvals.Deny(r.Context(), id, req.ReviewerID, req.Reason); err != nil {
		writeDomainError(w, "Failed to deny payment", err)
		return
	}

	p, err := h.Store.GetPayment(r.Context(), id)
	if err != nil || p == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// SetRentDue is the manual landlord override. It bypasses the engine on
// purpose; the next reconciliation run will surface (and repair) the drift.
func (h *Handler) SetRentDue(w http.ResponseWriter, r *http.Request) {
	var req SetRentDueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rentDue, err := ledger.ParseMoney(req.RentDue)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rent_due (use a decimal string)", err)
		return
	}

	id := billing.AssignmentID(req.AssignmentID)
	if err := h.Store.SetRentDue(r.Context(), id, rentDue); err != nil {
		writeDomainError(w, "Failed to set rent due", err)
		return
	}

	a, err := h.Store.GetAssignment(r.Context(), id)
	if err != nil || a == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*a))
}

// TriggerReconciliation runs a full sweep immediately.
func (h *Handler) TriggerReconciliation(w http.ResponseWriter, r *http.Request) {
	run, err := h.Reconciler.ReconcileAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run))
}

// ListReconciliationRuns returns the audit trail, newest first.
func (h *Handler) ListReconciliationRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	runs, err := h.Store.ListReconciliationRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reconciliation runs", err)
		return
	}

	dtos := make([]ReconciliationRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// UnitsReport returns one summary row per active lease for the landlord's
// portfolio dashboard.
func (h *Handler) UnitsReport(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Store.ListAssignments(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assignments", err)
		return
	}

	rows := make([]UnitReportDTO, len(assignments))
	for i, a := range assignments {
		rows[i] = UnitReportDTO{
			AssignmentID: string(a.ID),
			TenantID:     string(a.TenantID),
			UnitID:       string(a.UnitID),
			MonthlyRent:  a.MonthlyRent.Float64(),
			RentDue:      a.RentDue.Float64(),
			Status:       string(ledger.ClassifyRentDue(a.RentDue, a.MonthlyRent)),
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
