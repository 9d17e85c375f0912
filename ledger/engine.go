/*
engine.go - FIFO payment allocation across calendar months

PURPOSE:
  The one place the rent math lives. Given a lease start date, a fixed
  monthly rent and the chronological sequence of approved payments, the
  engine answers: how much is owed, for which months, and is there a
  credit balance?

  Every read path (dashboard, billing breakdown, receipts, reports) runs
  this same function and formats the result. There is exactly one copy of
  the algorithm.

ALGORITHM (FIFO):
  1. Sort approved payments by CreatedAt ascending. Tenants cannot target
     a specific month; insertion order IS the allocation order.
  2. Pool the total.
  3. Walk months from the lease start (truncated to month) through the
     as-of month. Each month takes min(pool, monthlyRent):
       pool >= rent  -> FULLY_PAID
       0 < pool      -> PARTIALLY_PAID
       otherwise     -> NOT_PAID
  4. Whatever is left after the as-of month is overpayment - credit that
     conceptually pre-pays future months. With ExtendIntoFuture the walk
     continues into future months to show WHICH months the credit covers;
     the overpayment scalar is the same either way.

CRITICAL INVARIANTS:
  - Conservation: sum of due-month allocations + overpayment == total paid.
  - No allocation is negative or exceeds the monthly rent.
  - Pure function: same inputs, same output. The as-of month is an explicit
    parameter; the engine never consults the wall clock.

EDGE CASES:
  - A pool of exactly one month's rent fully pays that month, no remainder.
  - Months before the lease start never appear; asking for one yields a
    zero NOT_PAID row, not an error (see Schedule.AllocationFor).
  - Lease starting after the as-of month yields an empty schedule.

SEE ALSO:
  - balance.go: incremental running-balance step and replay-derived rentDue
  - billing/projector.go: window dispatch over this engine
*/
package ledger

import (
	"sort"
	"time"
)

// =============================================================================
// INPUT / OUTPUT TYPES
// =============================================================================

// PaymentLine is the engine's view of one approved payment. CreatedAt is the
// ledger ordering key.
type PaymentLine struct {
	ID        string
	Amount    Money
	CreatedAt time.Time
}

type AllocationStatus string

const (
	StatusNotPaid       AllocationStatus = "NOT_PAID"
	StatusPartiallyPaid AllocationStatus = "PARTIALLY_PAID"
	StatusFullyPaid     AllocationStatus = "FULLY_PAID"
)

// MonthlyAllocation is one derived row of the rent ledger. Never persisted;
// regenerated on every read.
type MonthlyAllocation struct {
	Month       Month
	MonthlyRent Money
	Allocated   Money
	Status      AllocationStatus

	// Future marks months after the as-of cutoff that are covered by
	// overpayment (only produced with ExtendIntoFuture).
	Future bool
}

// AllocateInput carries everything the engine needs. No hidden time or I/O
// dependency: the caller fetches data, the engine computes.
type AllocateInput struct {
	LeaseStart  time.Time
	MonthlyRent Money

	// Approved payments only. Order does not matter; the engine sorts.
	Payments []PaymentLine

	// Cutoff month, inclusive. Usually "now", but always explicit.
	AsOfMonth Month

	// ExtendIntoFuture continues the walk past AsOfMonth while credit
	// remains, marking the covered months Future.
	ExtendIntoFuture bool
}

// Schedule is the engine's full answer for one lease.
type Schedule struct {
	LeaseStart  Month
	AsOfMonth   Month
	MonthlyRent Money

	Allocations []MonthlyAllocation

	// TotalPaid is the sum of all approved payment amounts.
	TotalPaid Money

	// Overpayment is the pool remaining after the as-of month.
	Overpayment Money

	// RentDue is the replay-derived balance: total rent due through the
	// as-of month minus total paid. Positive = tenant owes, negative =
	// credit. This is the authoritative value the persisted scalar caches.
	RentDue Money
}

// =============================================================================
// ALLOCATE - The single FIFO walk
// =============================================================================

// Allocate distributes the pooled payment total across calendar months,
// oldest month first.
func Allocate(in AllocateInput) (*Schedule, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	lines := make([]PaymentLine, len(in.Payments))
	copy(lines, in.Payments)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].CreatedAt.Before(lines[j].CreatedAt)
	})

	pool := ZeroMoney()
	for _, p := range lines {
		pool = pool.Add(p.Amount)
	}
	totalPaid := pool

	start := MonthOf(in.LeaseStart)
	sched := &Schedule{
		LeaseStart:  start,
		AsOfMonth:   in.AsOfMonth,
		MonthlyRent: in.MonthlyRent,
		TotalPaid:   totalPaid,
	}

	// Lease not started yet as of the cutoff: legal empty schedule.
	if start.After(in.AsOfMonth) {
		sched.Overpayment = pool
		sched.RentDue = pool.Neg()
		return sched, nil
	}

	allocated := ZeroMoney()
	for m := start; m.BeforeOrEqual(in.AsOfMonth); m = m.Next() {
		row := allocateMonth(m, in.MonthlyRent, &pool)
		allocated = allocated.Add(row.Allocated)
		sched.Allocations = append(sched.Allocations, row)
	}

	sched.Overpayment = pool

	monthsDue := int64(start.MonthsUntil(in.AsOfMonth) + 1)
	sched.RentDue = in.MonthlyRent.MulInt(monthsDue).Sub(totalPaid)

	if err := sched.checkInvariants(allocated); err != nil {
		return nil, err
	}

	if in.ExtendIntoFuture {
		for m := in.AsOfMonth.Next(); pool.IsPositive(); m = m.Next() {
			row := allocateMonth(m, in.MonthlyRent, &pool)
			row.Future = true
			sched.Allocations = append(sched.Allocations, row)
		}
	}

	return sched, nil
}

func allocateMonth(m Month, rent Money, pool *Money) MonthlyAllocation {
	row := MonthlyAllocation{
		Month:       m,
		MonthlyRent: rent,
		Allocated:   ZeroMoney(),
		Status:      StatusNotPaid,
	}

	switch {
	case pool.GreaterOrEqual(rent):
		row.Allocated = rent
		row.Status = StatusFullyPaid
		*pool = pool.Sub(rent)
	case pool.IsPositive():
		row.Allocated = *pool
		row.Status = StatusPartiallyPaid
		*pool = ZeroMoney()
	}
	return row
}

func (in AllocateInput) validate() error {
	if in.LeaseStart.IsZero() {
		return ErrInvalidLeaseStart
	}
	if !in.MonthlyRent.IsPositive() {
		return ErrInvalidRent
	}
	if in.AsOfMonth.IsZero() {
		return &ValidationError{Field: "as_of_month", Reason: "required"}
	}
	for _, p := range in.Payments {
		if p.Amount.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}

// checkInvariants fails hard if the walk created or destroyed money. These
// conditions cannot occur unless the algorithm itself is broken.
func (s *Schedule) checkInvariants(allocated Money) error {
	for _, row := range s.Allocations {
		if row.Allocated.IsNegative() || row.Allocated.GreaterThan(row.MonthlyRent) {
			return &InvariantError{
				Month:     row.Month,
				Allocated: row.Allocated,
				Rent:      row.MonthlyRent,
				Detail:    "allocation outside [0, monthlyRent]",
			}
		}
	}
	if !allocated.Add(s.Overpayment).Equal(s.TotalPaid) {
		return &InvariantError{
			Month:     s.AsOfMonth,
			Allocated: allocated,
			Rent:      s.MonthlyRent,
			Detail:    "allocations + overpayment != total paid",
		}
	}
	return nil
}

// =============================================================================
// SCHEDULE QUERIES
// =============================================================================

// AllocationFor returns the row for one month. Months before the lease start
// (or past the computed range) come back as zero NOT_PAID rows: "not due" is
// an answer, not an error.
func (s *Schedule) AllocationFor(m Month) MonthlyAllocation {
	for _, row := range s.Allocations {
		if row.Month.Equal(m) {
			return row
		}
	}
	return MonthlyAllocation{
		Month:       m,
		MonthlyRent: s.MonthlyRent,
		Allocated:   ZeroMoney(),
		Status:      StatusNotPaid,
	}
}

// DueAllocations returns only the rows up to the as-of month (no Future rows).
func (s *Schedule) DueAllocations() []MonthlyAllocation {
	var due []MonthlyAllocation
	for _, row := range s.Allocations {
		if !row.Future {
			due = append(due, row)
		}
	}
	return due
}

// TotalAllocated sums the due-month allocations.
func (s *Schedule) TotalAllocated() Money {
	sum := ZeroMoney()
	for _, row := range s.DueAllocations() {
		sum = sum.Add(row.Allocated)
	}
	return sum
}
