/*
store.go - Persistence interfaces for the billing domain

PURPOSE:
  Defines the boundary between domain logic and the database. The approval
  workflow needs one thing above all from a Store: WithTx, so that "mark
  payment approved" and "write the new rentDue" land atomically. A payment
  marked APPROVED without the balance change applied is a correctness bug,
  not a transient fault to retry.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite (same patterns apply to PostgreSQL)
  - store/memory: in-memory for tests and dev

SEE ALSO:
  - approval.go: the only writer of rentDue besides SetRentDue overrides
  - reconcile.go: reads and repairs the rentDue cache
*/
package billing

import (
	"context"

	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// STORE - Assignment + payment persistence
// =============================================================================

type Store interface {
	// Assignments
	SaveAssignment(ctx context.Context, a TenantAssignment) error
	GetAssignment(ctx context.Context, id AssignmentID) (*TenantAssignment, error)
	GetActiveAssignment(ctx context.Context, tenantID TenantID, unitID UnitID) (*TenantAssignment, error)
	ListAssignments(ctx context.Context, activeOnly bool) ([]TenantAssignment, error)

	// SetRentDue overwrites the persisted balance cache. Called by the
	// approval workflow, the reconciler, and the manual landlord override -
	// nothing else.
	SetRentDue(ctx context.Context, id AssignmentID, rentDue ledger.Money) error

	// EndAssignment transitions ACTIVE -> ENDED (unit reverts to available
	// in the collaborating unit service; not modeled here).
	EndAssignment(ctx context.Context, id AssignmentID) error

	// Payments
	SavePayment(ctx context.Context, p Payment) error
	GetPayment(ctx context.Context, id PaymentID) (*Payment, error)

	// ListPayments returns all payments for an assignment ordered by
	// CreatedAt ascending (the ledger order).
	ListPayments(ctx context.Context, id AssignmentID) ([]Payment, error)

	// ListApprovedPayments returns only APPROVED payments in ledger order.
	ListApprovedPayments(ctx context.Context, id AssignmentID) ([]Payment, error)

	// MarkDecided records a terminal approval state. Implementations MUST
	// refuse the write unless the stored state is still PENDING, returning
	// ledger.ErrAlreadyDecided otherwise. That store-level guard is what
	// makes double-approval safe under concurrency.
	MarkDecided(ctx context.Context, p Payment) error

	// Reconciliation audit trail
	SaveReconciliationRun(ctx context.Context, run ReconciliationRun) error
	ListReconciliationRuns(ctx context.Context, limit int) ([]ReconciliationRun, error)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support. WithTx serializes the
// read-modify-write of rentDue per assignment: two concurrent approvals for
// the same tenant cannot interleave and lose an update.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// NOTIFIER - Tenant-facing messages dispatched after commit
// =============================================================================

type NotificationKind string

const (
	NotifyPaymentApproved NotificationKind = "payment_approved"
	NotifyPaymentDenied   NotificationKind = "payment_denied"
)

type Notification struct {
	Kind      NotificationKind
	TenantID  TenantID
	PaymentID PaymentID
	Amount    ledger.Money
	RentDue   ledger.Money
	Reason    string
}

// Notifier delivers a notification to the tenant. Delivery failures must not
// undo an already-committed approval; callers log and move on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
