package billing

import (
	"time"

	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// PAYMENT - One tenant-submitted payment record
// =============================================================================

type PaymentID string

type ApprovalState string

const (
	PaymentPending  ApprovalState = "PENDING"
	PaymentApproved ApprovalState = "APPROVED"
	PaymentDenied   ApprovalState = "DENIED"
)

// Payment is created by the tenant, moves to APPROVED or DENIED exactly once
// by the landlord, and is immutable afterward. Only APPROVED payments ever
// participate in a balance computation.
type Payment struct {
	ID           PaymentID
	AssignmentID AssignmentID
	TenantID     TenantID
	UnitID       UnitID

	Amount    ledger.Money
	Method    string
	Reference string

	ApprovalState ApprovalState
	DecidedBy     string
	DecidedAt     *time.Time
	DenialReason  string

	// CreatedAt is the ledger ordering key: payments allocate to months in
	// insertion order, never by a tenant-chosen target month.
	CreatedAt time.Time
}

// IsTerminal reports whether the payment has been decided. Terminal states
// are one-way.
func (p Payment) IsTerminal() bool { return p.ApprovalState != PaymentPending }

// Line converts the payment to the engine's input shape.
func (p Payment) Line() ledger.PaymentLine {
	return ledger.PaymentLine{
		ID:        string(p.ID),
		Amount:    p.Amount,
		CreatedAt: p.CreatedAt,
	}
}

// Validate checks a freshly submitted payment.
func (p Payment) Validate() error {
	if p.AssignmentID == "" {
		return &ledger.ValidationError{Field: "assignment_id", Reason: "required"}
	}
	if !p.Amount.IsPositive() {
		return ledger.ErrInvalidAmount
	}
	return nil
}

// Lines converts approved payments into engine input, skipping anything not
// APPROVED so callers cannot accidentally allocate pending money.
func Lines(payments []Payment) []ledger.PaymentLine {
	var lines []ledger.PaymentLine
	for _, p := range payments {
		if p.ApprovalState == PaymentApproved {
			lines = append(lines, p.Line())
		}
	}
	return lines
}
