/*
reconcile.go - Persisted-balance drift detection and repair

PURPOSE:
  The persisted rentDue on each assignment is a cache of what the ledger
  engine computes from scratch. Caches drift: a manual landlord override, a
  crash between writes on an old deployment, a bad import. The reconciler
  replays every active assignment, compares, and (optionally) repairs by
  writing the replay value back.

AUDIT TRAIL:
  Every run is persisted with per-assignment findings so drift frequency is
  observable over time. A clean run is still recorded.

SEE ALSO:
  - ledger/balance.go: ReplayRentDue
  - api/scheduler.go: periodic invocation
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
// RECONCILIATION TYPES
// =============================================================================

// Finding is one assignment's comparison of persisted vs replayed rentDue.
type Finding struct {
	AssignmentID AssignmentID
	Persisted    ledger.Money
	Replayed     ledger.Money
	Drifted      bool
	Repaired     bool
}

// ReconciliationRun is the persisted record of one reconciler sweep.
type ReconciliationRun struct {
	ID        string
	StartedAt time.Time
	AsOfMonth ledger.Month
	Checked   int
	Drifted   int
	Repaired  int
	Findings  []Finding
}

// =============================================================================
// RECONCILER
// =============================================================================

type Reconciler struct {
	Store TxStore
	Now   func() time.Time

	// Repair controls whether drifted balances are written back. A
	// read-only sweep still records findings.
	Repair bool
}

func NewReconciler(store TxStore, repair bool) *Reconciler {
	return &Reconciler{Store: store, Now: time.Now, Repair: repair}
}

// ReconcileAssignment replays one assignment and compares against the
// persisted scalar. When Repair is set and the values disagree, the replay
// value wins and is written back inside a transaction.
func (r *Reconciler) ReconcileAssignment(ctx context.Context, id AssignmentID, asOf ledger.Month) (*Finding, error) {
	finding := &Finding{AssignmentID: id}

	err := r.Store.WithTx(ctx, func(tx Store) error {
		a, err := tx.GetAssignment(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return ledger.ErrAssignmentNotFound
		}

		approved, err := tx.ListApprovedPayments(ctx, id)
		if err != nil {
			return err
		}
		total := ledger.ZeroMoney()
		for _, p := range approved {
			total = total.Add(p.Amount)
		}

		replayed, err := ledger.ReplayRentDue(a.LeaseStart, a.MonthlyRent, total, asOf)
		if err != nil {
			return err
		}

		finding.Persisted = a.RentDue
		finding.Replayed = replayed
		finding.Drifted = !replayed.Equal(a.RentDue)

		if finding.Drifted && r.Repair {
			if err := tx.SetRentDue(ctx, id, replayed); err != nil {
				return fmt.Errorf("failed to repair balance: %w", err)
			}
			finding.Repaired = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if finding.Drifted {
		log.Printf("[Reconciler] drift on assignment %s: persisted=%s replayed=%s repaired=%t",
			id, finding.Persisted, finding.Replayed, finding.Repaired)
	}
	return finding, nil
}

// ReconcileAll sweeps every active assignment and persists the run record.
// One broken assignment does not abort the sweep; its error is logged and
// the run continues.
func (r *Reconciler) ReconcileAll(ctx context.Context) (*ReconciliationRun, error) {
	now := r.Now().UTC()
	asOf := ledger.MonthOf(now)

	assignments, err := r.Store.ListAssignments(ctx, true)
	if err != nil {
		return nil, err
	}

	run := &ReconciliationRun{
		ID:        uuid.NewString(),
		StartedAt: now,
		AsOfMonth: asOf,
	}

	for _, a := range assignments {
		finding, err := r.ReconcileAssignment(ctx, a.ID, asOf)
		if err != nil {
			log.Printf("[Reconciler] assignment %s failed: %v", a.ID, err)
			continue
		}
		run.Checked++
		if finding.Drifted {
			run.Drifted++
		}
		if finding.Repaired {
			run.Repaired++
		}
		run.Findings = append(run.Findings, *finding)
	}

	if err := r.Store.SaveReconciliationRun(ctx, *run); err != nil {
		return nil, fmt.Errorf("failed to save reconciliation run: %w", err)
	}

	log.Printf("[Reconciler] run %s: checked=%d drifted=%d repaired=%d",
		run.ID, run.Checked, run.Drifted, run.Repaired)
	return run, nil
}
