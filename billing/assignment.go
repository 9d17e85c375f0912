/*
Package billing holds the landlord-side domain around the pure ledger engine:
tenant assignments (leases), payments, the approval workflow, balance
projection and cache reconciliation.

The package owns the TenantAssignment record exclusively. Tenants submit
payments; only the approval workflow and the reconciler (plus an explicit
landlord override) ever touch the persisted rentDue.
*/
package billing

import (
	"time"

	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// TENANT ASSIGNMENT - One active lease of one unit by one tenant
// =============================================================================

type AssignmentID string
type TenantID string
type UnitID string

type AssignmentStatus string

const (
	AssignmentActive AssignmentStatus = "ACTIVE"
	AssignmentEnded  AssignmentStatus = "ENDED"
)

// TenantAssignment links a tenant to a unit for the duration of a lease.
// LeaseStart and MonthlyRent are immutable once set; there is no mid-lease
// rent change.
type TenantAssignment struct {
	ID       AssignmentID
	TenantID TenantID
	UnitID   UnitID

	LeaseStart time.Time
	LeaseEnd   *time.Time // nil = open-ended

	MonthlyRent ledger.Money

	// RentDue is the persisted running balance. Positive = tenant owes,
	// negative = credit. It is a cache of the engine replay; see
	// ledger/balance.go for the reconciliation rule.
	RentDue ledger.Money

	Status AssignmentStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a TenantAssignment) IsActive() bool { return a.Status == AssignmentActive }

// LeaseStartMonth is the first month rent is due.
func (a TenantAssignment) LeaseStartMonth() ledger.Month {
	return ledger.MonthOf(a.LeaseStart)
}

// Validate checks the immutable lease fields before first save.
func (a TenantAssignment) Validate() error {
	if a.TenantID == "" {
		return &ledger.ValidationError{Field: "tenant_id", Reason: "required"}
	}
	if a.UnitID == "" {
		return &ledger.ValidationError{Field: "unit_id", Reason: "required"}
	}
	if a.LeaseStart.IsZero() {
		return ledger.ErrInvalidLeaseStart
	}
	if !a.MonthlyRent.IsPositive() {
		return ledger.ErrInvalidRent
	}
	if a.LeaseEnd != nil && a.LeaseEnd.Before(a.LeaseStart) {
		return &ledger.ValidationError{Field: "lease_end", Reason: "before lease start"}
	}
	return nil
}
