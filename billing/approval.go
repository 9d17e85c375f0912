/*
approval.go - Payment approval workflow

PURPOSE:
  Guards the one-way PENDING -> {APPROVED, DENIED} transition and sequences
  the balance update and tenant notification.

APPROVAL FLOW:
  1. Load payment          (ErrPaymentNotFound)
  2. Check still PENDING   (ConflictError - approval is at-most-once)
  3. Check ACTIVE lease    (ErrNoActiveLease)
  4. Mark APPROVED, recompute rentDue from the full approved history
     (ledger.ReplayRentDue) and persist it - all inside one store
     transaction. Either both writes land or neither does.
  5. After commit, dispatch the tenant notification.

BALANCE RULE:
  The persisted rentDue is a cache of the engine replay. The legacy
  incremental step (ledger.NextRentDue) is still computed on every approval
  as a cross-check; a divergence is logged, never persisted.

CONCURRENCY:
  Two back-to-back approvals for the same assignment must not lose an
  update. WithTx gives the whole read-modify-write a serial transaction
  boundary, and MarkDecided's PENDING guard makes the transition itself
  race-proof.

SEE ALSO:
  - ledger/balance.go: both balance derivations
  - store/sqlite: WithTx implementation
*/
package billing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// APPROVAL SERVICE
// =============================================================================

type ApprovalService struct {
	Store    TxStore
	Notifier Notifier

	// Now is injectable for tests; the engine itself never reads the clock.
	Now func() time.Time
}

func NewApprovalService(store TxStore, notifier Notifier) *ApprovalService {
	return &ApprovalService{Store: store, Notifier: notifier, Now: time.Now}
}

// ApprovalResult reports the outcome of one approval.
type ApprovalResult struct {
	Payment Payment

	// NewRentDue is the persisted (replay-derived) balance after approval.
	NewRentDue ledger.Money

	// IncrementalRentDue is what the legacy per-event step would have
	// produced. Kept for drift visibility, never persisted.
	IncrementalRentDue ledger.Money
	Diverged           bool
}

// =============================================================================
// SUBMIT - Tenant creates a pending payment
// =============================================================================

// Submit records a tenant payment in PENDING state against an active lease.
func (s *ApprovalService) Submit(ctx context.Context, p Payment) (*Payment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	a, err := s.Store.GetAssignment(ctx, p.AssignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ledger.ErrAssignmentNotFound
	}
	if !a.IsActive() {
		return nil, ledger.ErrNoActiveLease
	}

	p.ID = PaymentID(uuid.NewString())
	p.TenantID = a.TenantID
	p.UnitID = a.UnitID
	p.ApprovalState = PaymentPending
	p.CreatedAt = s.Now().UTC()

	if err := s.Store.SavePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}
	return &p, nil
}

// =============================================================================
// APPROVE
// =============================================================================

// Approve transitions one PENDING payment to APPROVED and updates the
// persisted balance atomically.
func (s *ApprovalService) Approve(ctx context.Context, id PaymentID, approverID string) (*ApprovalResult, error) {
	var result ApprovalResult

	err := s.Store.WithTx(ctx, func(tx Store) error {
		p, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return ledger.ErrPaymentNotFound
		}
		if p.IsTerminal() {
			return &ledger.ConflictError{PaymentID: string(p.ID), State: string(p.ApprovalState)}
		}

		a, err := tx.GetAssignment(ctx, p.AssignmentID)
		if err != nil {
			return err
		}
		if a == nil || !a.IsActive() {
			return ledger.ErrNoActiveLease
		}

		now := s.Now().UTC()
		p.ApprovalState = PaymentApproved
		p.DecidedBy = approverID
		p.DecidedAt = &now
		if err := tx.MarkDecided(ctx, *p); err != nil {
			return err
		}

		approved, err := tx.ListApprovedPayments(ctx, a.ID)
		if err != nil {
			return err
		}
		total := ledger.ZeroMoney()
		for _, ap := range approved {
			total = total.Add(ap.Amount)
		}

		newDue, err := ledger.ReplayRentDue(a.LeaseStart, a.MonthlyRent, total, ledger.MonthOf(now))
		if err != nil {
			return err
		}
		incremental, err := ledger.NextRentDue(a.RentDue, a.MonthlyRent, p.Amount)
		if err != nil {
			return err
		}

		if err := tx.SetRentDue(ctx, a.ID, newDue); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		result = ApprovalResult{
			Payment:            *p,
			NewRentDue:         newDue,
			IncrementalRentDue: incremental,
			Diverged:           !newDue.Equal(incremental),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Diverged {
		log.Printf("[Approval] balance algorithms diverged for payment %s: replay=%s incremental=%s",
			id, result.NewRentDue, result.IncrementalRentDue)
	}

	s.notify(ctx, Notification{
		Kind:      NotifyPaymentApproved,
		TenantID:  result.Payment.TenantID,
		PaymentID: result.Payment.ID,
		Amount:    result.Payment.Amount,
		RentDue:   result.NewRentDue,
	})

	return &result, nil
}

// =============================================================================
// DENY
// =============================================================================

// Deny transitions one PENDING payment to DENIED. No balance effect.
func (s *ApprovalService) Deny(ctx context.Context, id PaymentID, reviewerID, reason string) error {
	var denied Payment

	err := s.Store.WithTx(ctx, func(tx Store) error {
		p, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return ledger.ErrPaymentNotFound
		}
		if p.IsTerminal() {
			return &ledger.ConflictError{PaymentID: string(p.ID), State: string(p.ApprovalState)}
		}

		now := s.Now().UTC()
		p.ApprovalState = PaymentDenied
		p.DecidedBy = reviewerID
		p.DecidedAt = &now
		p.DenialReason = reason
		if err := tx.MarkDecided(ctx, *p); err != nil {
			return err
		}
		denied = *p
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(ctx, Notification{
		Kind:      NotifyPaymentDenied,
		TenantID:  denied.TenantID,
		PaymentID: denied.ID,
		Amount:    denied.Amount,
		Reason:    reason,
	})
	return nil
}

// notify dispatches after commit. A delivery failure must not undo an
// approval, so it is logged and swallowed.
func (s *ApprovalService) notify(ctx context.Context, n Notification) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		log.Printf("[Approval] notification failed for payment %s: %v", n.PaymentID, err)
	}
}
