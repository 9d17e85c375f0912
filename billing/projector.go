/*
projector.go - Balance views over the ledger engine

PURPOSE:
  Dispatches a requested time window onto the right computation and shapes
  the result for dashboards, breakdown reports and receipts. All windows are
  thin adapters over one engine run - the four hand-rolled copies of the
  walk this replaces are gone.

WINDOW DISPATCH:
  month     -> engine truncated to that month, report its row
  year      -> engine through December of that year, report the year's rows
  all-time  -> read the persisted rentDue cache directly and classify it
               (the only path that does not replay; the reconciler keeps it
               honest)

SEE ALSO:
  - ledger/engine.go: the FIFO walk
  - reconcile.go: persisted-vs-replayed drift
*/
package billing

import (
	"context"

	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// BALANCE PROJECTOR
// =============================================================================

type BalanceProjector struct {
	Store Store
}

func NewBalanceProjector(store Store) *BalanceProjector {
	return &BalanceProjector{Store: store}
}

// Statement is the full month-by-month view plus summary scalars, consumed
// by breakdown reports and receipts.
type Statement struct {
	AssignmentID AssignmentID
	TenantID     TenantID
	UnitID       UnitID
	AsOfMonth    ledger.Month
	MonthlyRent  ledger.Money

	Rows []ledger.MonthlyAllocation

	TotalPaid   ledger.Money
	Overpayment ledger.Money

	// RentDue is replay-derived; PersistedRentDue is the cached scalar on
	// the assignment. InSync is false when they disagree (e.g. after a
	// manual landlord override).
	RentDue          ledger.Money
	PersistedRentDue ledger.Money
	InSync           bool
}

// MonthView answers "what happened in this one month?".
type MonthView struct {
	AssignmentID AssignmentID
	Allocation   ledger.MonthlyAllocation
}

// YearView sums a calendar year's allocations.
type YearView struct {
	AssignmentID   AssignmentID
	Year           int
	Rows           []ledger.MonthlyAllocation
	TotalRent      ledger.Money
	TotalAllocated ledger.Money
}

// AllTimeView is the summary path that reads the persisted cache directly.
type AllTimeView struct {
	AssignmentID AssignmentID
	MonthlyRent  ledger.Money
	RentDue      ledger.Money
	TotalPaid    ledger.Money
	Status       ledger.AllocationStatus
}

// =============================================================================
// PROJECTIONS
// =============================================================================

// Statement replays the full approved-payment history through asOf.
func (bp *BalanceProjector) Statement(ctx context.Context, id AssignmentID, asOf ledger.Month, extendFuture bool) (*Statement, error) {
	a, sched, err := bp.replay(ctx, id, asOf, extendFuture)
	if err != nil {
		return nil, err
	}

	return &Statement{
		AssignmentID:     a.ID,
		TenantID:         a.TenantID,
		UnitID:           a.UnitID,
		AsOfMonth:        asOf,
		MonthlyRent:      a.MonthlyRent,
		Rows:             sched.Allocations,
		TotalPaid:        sched.TotalPaid,
		Overpayment:      sched.Overpayment,
		RentDue:          sched.RentDue,
		PersistedRentDue: a.RentDue,
		InSync:           sched.RentDue.Equal(a.RentDue),
	}, nil
}

// MonthStatus runs the engine truncated to the requested month. A month
// before the lease start comes back NOT_PAID with a zero allocation.
func (bp *BalanceProjector) MonthStatus(ctx context.Context, id AssignmentID, month ledger.Month) (*MonthView, error) {
	a, sched, err := bp.replay(ctx, id, month, false)
	if err != nil {
		return nil, err
	}
	_ = a
	return &MonthView{
		AssignmentID: id,
		Allocation:   sched.AllocationFor(month),
	}, nil
}

// YearSummary runs the engine through December of the year and sums the
// year's rows.
func (bp *BalanceProjector) YearSummary(ctx context.Context, id AssignmentID, year int) (*YearView, error) {
	asOf := ledger.NewMonth(year, 12)
	_, sched, err := bp.replay(ctx, id, asOf, false)
	if err != nil {
		return nil, err
	}

	view := &YearView{
		AssignmentID:   id,
		Year:           year,
		TotalRent:      ledger.ZeroMoney(),
		TotalAllocated: ledger.ZeroMoney(),
	}
	for _, row := range sched.DueAllocations() {
		if row.Month.Year != year {
			continue
		}
		view.Rows = append(view.Rows, row)
		view.TotalRent = view.TotalRent.Add(row.MonthlyRent)
		view.TotalAllocated = view.TotalAllocated.Add(row.Allocated)
	}
	return view, nil
}

// AllTime skips the replay entirely and classifies the persisted scalar.
func (bp *BalanceProjector) AllTime(ctx context.Context, id AssignmentID) (*AllTimeView, error) {
	a, err := bp.assignment(ctx, id)
	if err != nil {
		return nil, err
	}

	approved, err := bp.Store.ListApprovedPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	total := ledger.ZeroMoney()
	for _, p := range approved {
		total = total.Add(p.Amount)
	}

	return &AllTimeView{
		AssignmentID: id,
		MonthlyRent:  a.MonthlyRent,
		RentDue:      a.RentDue,
		TotalPaid:    total,
		Status:       ledger.ClassifyRentDue(a.RentDue, a.MonthlyRent),
	}, nil
}

// =============================================================================
// INTERNAL
// =============================================================================

func (bp *BalanceProjector) assignment(ctx context.Context, id AssignmentID) (*TenantAssignment, error) {
	a, err := bp.Store.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ledger.ErrAssignmentNotFound
	}
	return a, nil
}

func (bp *BalanceProjector) replay(ctx context.Context, id AssignmentID, asOf ledger.Month, extendFuture bool) (*TenantAssignment, *ledger.Schedule, error) {
	a, err := bp.assignment(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	approved, err := bp.Store.ListApprovedPayments(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	sched, err := ledger.Allocate(ledger.AllocateInput{
		LeaseStart:       a.LeaseStart,
		MonthlyRent:      a.MonthlyRent,
		Payments:         Lines(approved),
		AsOfMonth:        asOf,
		ExtendIntoFuture: extendFuture,
	})
	if err != nil {
		return nil, nil, err
	}
	return a, sched, nil
}
