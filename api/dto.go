/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY FIELDS:
  Monetary amounts cross the wire as float64 for display convenience. All
  arithmetic happens on decimals inside the ledger package; these values
  are never fed back into a computation.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/money.go: the decimal source of truth
*/
package api

import (
	"time"

	"github.com/warp/rent-ledger/billing"
	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// ASSIGNMENT TYPES
// =============================================================================

// AssignmentDTO represents a lease in API responses.
type AssignmentDTO struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	UnitID      string  `json:"unit_id"`
	LeaseStart  string  `json:"lease_start"`
	LeaseEnd    *string `json:"lease_end,omitempty"`
	MonthlyRent float64 `json:"monthly_rent"`
	RentDue     float64 `json:"rent_due"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// CreateAssignmentRequest is the request to create a lease.
type CreateAssignmentRequest struct {
	TenantID    string  `json:"tenant_id"`
	UnitID      string  `json:"unit_id"`
	LeaseStart  string  `json:"lease_start"` // YYYY-MM-DD
	LeaseEnd    *string `json:"lease_end,omitempty"`
	MonthlyRent string  `json:"monthly_rent"` // exact decimal string
}

// =============================================================================
// PAYMENT TYPES
// =============================================================================

// PaymentDTO represents a payment in API responses.
type PaymentDTO struct {
	ID            string  `json:"id"`
	AssignmentID  string  `json:"assignment_id"`
	TenantID      string  `json:"tenant_id"`
	UnitID        string  `json:"unit_id"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method,omitempty"`
	Reference     string  `json:"reference,omitempty"`
	ApprovalState string  `json:"approval_state"`
	DecidedBy     string  `json:"decided_by,omitempty"`
	DecidedAt     *string `json:"decided_at,omitempty"`
	DenialReason  string  `json:"denial_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// SubmitPaymentRequest is the request to record a pending payment.
type SubmitPaymentRequest struct {
	AssignmentID string `json:"assignment_id"`
	Amount       string `json:"amount"` // exact decimal string
	Method       string `json:"method,omitempty"`
	Reference    string `json:"reference,omitempty"`
}

// DecidePaymentRequest carries the reviewer for approve/deny.
type DecidePaymentRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Reason     string `json:"reason,omitempty"` // deny only
}

// ApprovalResultDTO reports the post-approval balance.
type ApprovalResultDTO struct {
	Payment    PaymentDTO `json:"payment"`
	NewRentDue float64    `json:"new_rent_due"`
}

// =============================================================================
// BALANCE / STATEMENT TYPES
// =============================================================================

// AllocationDTO is one month row of a statement.
type AllocationDTO struct {
	Month       string  `json:"month"` // YYYY-MM
	MonthlyRent float64 `json:"monthly_rent"`
	Allocated   float64 `json:"allocated"`
	Status      string  `json:"status"`
	Future      bool    `json:"future,omitempty"`
}

// StatementDTO is the full month-by-month breakdown.
type StatementDTO struct {
	AssignmentID     string          `json:"assignment_id"`
	TenantID         string          `json:"tenant_id"`
	UnitID           string          `json:"unit_id"`
	AsOfMonth        string          `json:"as_of_month"`
	MonthlyRent      float64         `json:"monthly_rent"`
	Months           []AllocationDTO `json:"months"`
	TotalPaid        float64         `json:"total_paid"`
	Overpayment      float64         `json:"overpayment"`
	RentDue          float64         `json:"rent_due"`
	PersistedRentDue float64         `json:"persisted_rent_due"`
	InSync           bool            `json:"in_sync"`
}

// MonthBalanceDTO answers the single-month query.
type MonthBalanceDTO struct {
	AssignmentID string        `json:"assignment_id"`
	Month        AllocationDTO `json:"month"`
}

// YearBalanceDTO sums one calendar year.
type YearBalanceDTO struct {
	AssignmentID   string          `json:"assignment_id"`
	Year           int             `json:"year"`
	Months         []AllocationDTO `json:"months"`
	TotalRent      float64         `json:"total_rent"`
	TotalAllocated float64         `json:"total_allocated"`
}

// AllTimeBalanceDTO is the persisted-cache summary.
type AllTimeBalanceDTO struct {
	AssignmentID string  `json:"assignment_id"`
	MonthlyRent  float64 `json:"monthly_rent"`
	RentDue      float64 `json:"rent_due"`
	TotalPaid    float64 `json:"total_paid"`
	Status       string  `json:"status"`
}

// =============================================================================
// ADMIN / RECONCILIATION TYPES
// =============================================================================

// SetRentDueRequest is the manual landlord override.
type SetRentDueRequest struct {
	AssignmentID string `json:"assignment_id"`
	RentDue      string `json:"rent_due"` // exact decimal string
}

// FindingDTO is one assignment's reconciliation outcome.
type FindingDTO struct {
	AssignmentID string  `json:"assignment_id"`
	Persisted    float64 `json:"persisted"`
	Replayed     float64 `json:"replayed"`
	Drifted      bool    `json:"drifted"`
	Repaired     bool    `json:"repaired"`
}

// ReconciliationRunDTO is one persisted sweep.
type ReconciliationRunDTO struct {
	ID        string       `json:"id"`
	StartedAt string       `json:"started_at"`
	AsOfMonth string       `json:"as_of_month"`
	Checked   int          `json:"checked"`
	Drifted   int          `json:"drifted"`
	Repaired  int          `json:"repaired"`
	Findings  []FindingDTO `json:"findings,omitempty"`
}

// UnitReportDTO is one row of the landlord's portfolio report.
type UnitReportDTO struct {
	AssignmentID string  `json:"assignment_id"`
	TenantID     string  `json:"tenant_id"`
	UnitID       string  `json:"unit_id"`
	MonthlyRent  float64 `json:"monthly_rent"`
	RentDue      float64 `json:"rent_due"`
	Status       string  `json:"status"` // allocation status band
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toAssignmentDTO(a billing.TenantAssignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:          string(a.ID),
		TenantID:    string(a.TenantID),
		UnitID:      string(a.UnitID),
		LeaseStart:  a.LeaseStart.Format("2006-01-02"),
		MonthlyRent: a.MonthlyRent.Float64(),
		RentDue:     a.RentDue.Float64(),
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
	if a.LeaseEnd != nil {
		end := a.LeaseEnd.Format("2006-01-02")
		dto.LeaseEnd = &end
	}
	return dto
}

func toPaymentDTO(p billing.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:            string(p.ID),
		AssignmentID:  string(p.AssignmentID),
		TenantID:      string(p.TenantID),
		UnitID:        string(p.UnitID),
		Amount:        p.Amount.Float64(),
		Method:        p.Method,
		Reference:     p.Reference,
		ApprovalState: string(p.ApprovalState),
		DecidedBy:     p.DecidedBy,
		DenialReason:  p.DenialReason,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
	if p.DecidedAt != nil {
		t := p.DecidedAt.Format(time.RFC3339)
		dto.DecidedAt = &t
	}
	return dto
}

func toAllocationDTO(row ledger.MonthlyAllocation) AllocationDTO {
	return AllocationDTO{
		Month:       row.Month.String(),
		MonthlyRent: row.MonthlyRent.Float64(),
		Allocated:   row.Allocated.Float64(),
		Status:      string(row.Status),
		Future:      row.Future,
	}
}

func toAllocationDTOs(rows []ledger.MonthlyAllocation) []AllocationDTO {
	dtos := make([]AllocationDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toAllocationDTO(row)
	}
	return dtos
}

func toRunDTO(run billing.ReconciliationRun) ReconciliationRunDTO {
	dto := ReconciliationRunDTO{
		ID:        run.ID,
		StartedAt: run.StartedAt.Format(time.RFC3339),
		AsOfMonth: run.AsOfMonth.String(),
		Checked:   run.Checked,
		Drifted:   run.Drifted,
		Repaired:  run.Repaired,
	}
	for _, f := range run.Findings {
		dto.Findings = append(dto.Findings, FindingDTO{
			AssignmentID: string(f.AssignmentID),
			Persisted:    f.Persisted.Float64(),
			Replayed:     f.Replayed.Float64(),
			Drifted:      f.Drifted,
			Repaired:     f.Repaired,
		})
	}
	return dto
}
