/*
balance.go - The persisted running balance and its two derivations

PURPOSE:
  TenantAssignment carries one persisted scalar, rentDue:
    positive  -> tenant owes (deficit)
    negative  -> tenant has credit
    zero      -> settled through the current month

  Two algorithms can produce that scalar:

  1. ReplayRentDue: months-due x rent minus total approved payments. This is
     what engine.Allocate computes and it is AUTHORITATIVE. The approval
     workflow persists this value after every approval; the reconciler
     repairs the cache when a manual override drifts it.

  2. NextRentDue: the legacy incremental step applied per approval event -
     deficit first, then the current month, leftover becomes credit. It is
     kept as a cross-check: the approval workflow computes both and flags
     any divergence instead of trusting the scalar walk.

WHY KEEP BOTH:
  The incremental step encodes a subtly different policy for "a fresh month
  with no deficit and no remainder" (it books next month's rent as due).
  Divergence between the two is exactly the drift the reconciler exists to
  surface, so the step stays implemented and tested rather than folklore.

SEE ALSO:
  - engine.go: the FIFO replay
  - billing/approval.go: persists the replay value, logs divergence
  - billing/reconcile.go: drift detection and repair
*/
package ledger

import "time"

// =============================================================================
// REPLAY-DERIVED BALANCE (authoritative)
// =============================================================================

// ReplayRentDue computes the signed balance through asOf from first
// principles: every month from the lease start owes one rent; every approved
// payment offsets the total. Positive = deficit, negative = credit.
func ReplayRentDue(leaseStart time.Time, monthlyRent Money, totalApproved Money, asOf Month) (Money, error) {
	if leaseStart.IsZero() {
		return Money{}, ErrInvalidLeaseStart
	}
	if !monthlyRent.IsPositive() {
		return Money{}, ErrInvalidRent
	}

	start := MonthOf(leaseStart)
	if start.After(asOf) {
		// Nothing due yet; any payment is pure credit.
		return totalApproved.Neg(), nil
	}
	monthsDue := int64(start.MonthsUntil(asOf) + 1)
	return monthlyRent.MulInt(monthsDue).Sub(totalApproved), nil
}

// =============================================================================
// INCREMENTAL STEP (legacy cross-check)
// =============================================================================

// NextRentDue applies one approved payment to the running balance without
// replaying history: pay down the deficit first, then the current month,
// leftover becomes credit.
//
// When no deficit was present and nothing remained to allocate, the step
// books a fresh month's rent as due - that is the behavior the FIFO replay
// does not share, and why callers treat this value as a cross-check only.
func NextRentDue(current, monthlyRent, payment Money) (Money, error) {
	if !monthlyRent.IsPositive() {
		return Money{}, ErrInvalidRent
	}
	if payment.IsNegative() {
		return Money{}, ErrInvalidAmount
	}

	hadDeficit := current.IsPositive()
	rentDue := current
	remaining := payment

	// 1. Existing deficit is paid down first.
	if hadDeficit {
		paid := remaining.Min(rentDue)
		rentDue = rentDue.Sub(paid)
		remaining = remaining.Sub(paid)
	}

	// 2. Remainder goes to the current month.
	switch {
	case remaining.GreaterOrEqual(monthlyRent):
		rentDue = remaining.Sub(monthlyRent).Neg()
	case remaining.IsPositive():
		rentDue = rentDue.Add(monthlyRent.Sub(remaining))
	default:
		// 3. No deficit, nothing left over: a new month's rent is now owed.
		if !hadDeficit {
			rentDue = rentDue.Add(monthlyRent)
		}
	}

	return rentDue, nil
}

// =============================================================================
// ALL-TIME CLASSIFICATION
// =============================================================================

// ClassifyRentDue maps the persisted scalar onto a payment status for the
// "all months / all years" summary window, which reads the cache directly
// instead of replaying the ledger.
func ClassifyRentDue(rentDue, monthlyRent Money) AllocationStatus {
	switch {
	case rentDue.IsZero() || rentDue.IsNegative():
		return StatusFullyPaid
	case rentDue.LessThan(monthlyRent):
		return StatusPartiallyPaid
	default:
		return StatusNotPaid
	}
}
