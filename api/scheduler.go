/*
scheduler.go - Automated reconciliation scheduler

PURPOSE:
  Periodically replays every active lease and repairs a drifted rentDue
  cache (manual overrides, old incremental updates, bad imports).

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each sweep is delegated to billing.Reconciler and persisted as a run
  - A failing sweep is logged and retried on the next tick

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReconciliationScheduler(reconciler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - billing/reconcile.go: the sweep itself
  - handlers.go: TriggerReconciliation endpoint (manual sweep)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/rent-ledger/billing"
)

// ReconciliationScheduler runs periodic balance-cache sweeps.
type ReconciliationScheduler struct {
	Reconciler    *billing.Reconciler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReconciliationScheduler creates a new scheduler.
func NewReconciliationScheduler(reconciler *billing.Reconciler) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		Reconciler:    reconciler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Scheduler] Started with check interval: %v", rs.CheckInterval)
}

// Stop stops the scheduler.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (rs *ReconciliationScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.sweep()

	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReconciliationScheduler) sweep() {
	ctx := context.Background()

	run, err := rs.Reconciler.ReconcileAll(ctx)
	if err != nil {
		log.Printf("[Scheduler] Sweep failed: %v", err)
		return
	}

	if run.Drifted > 0 {
		log.Printf("[Scheduler] Sweep %s found drift: checked=%d drifted=%d repaired=%d",
			run.ID, run.Checked, run.Drifted, run.Repaired)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (rs *ReconciliationScheduler) RunNow() {
	rs.sweep()
}
