// Package memory provides an in-memory billing.TxStore for tests and dev.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/rent-ledger/billing"
	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	assignments map[billing.AssignmentID]billing.TenantAssignment
	payments    map[billing.PaymentID]billing.Payment
	runs        []billing.ReconciliationRun
}

func New() *Memory {
	return &Memory{
		assignments: make(map[billing.AssignmentID]billing.TenantAssignment),
		payments:    make(map[billing.PaymentID]billing.Payment),
	}
}

// -----------------------------------------------------------------------------
// Assignments
// -----------------------------------------------------------------------------

func (m *Memory) SaveAssignment(_ context.Context, a billing.TenantAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveAssignmentLocked(a)
}

func (m *Memory) GetAssignment(_ context.Context, id billing.AssignmentID) (*billing.TenantAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAssignmentLocked(id)
}

func (m *Memory) GetActiveAssignment(_ context.Context, tenantID billing.TenantID, unitID billing.UnitID) (*billing.TenantAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assignments {
		if a.TenantID == tenantID && a.UnitID == unitID && a.IsActive() {
			copied := a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListAssignments(_ context.Context, activeOnly bool) ([]billing.TenantAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listAssignmentsLocked(activeOnly)
}

func (m *Memory) SetRentDue(_ context.Context, id billing.AssignmentID, rentDue ledger.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setRentDueLocked(id, rentDue)
}

func (m *Memory) EndAssignment(_ context.Context, id billing.AssignmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endAssignmentLocked(id)
}

// -----------------------------------------------------------------------------
// Payments
// -----------------------------------------------------------------------------

func (m *Memory) SavePayment(_ context.Context, p billing.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savePaymentLocked(p)
}

func (m *Memory) GetPayment(_ context.Context, id billing.PaymentID) (*billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getPaymentLocked(id)
}

func (m *Memory) ListPayments(_ context.Context, id billing.AssignmentID) ([]billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listPaymentsLocked(id, false)
}

func (m *Memory) ListApprovedPayments(_ context.Context, id billing.AssignmentID) ([]billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listPaymentsLocked(id, true)
}

func (m *Memory) MarkDecided(_ context.Context, p billing.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markDecidedLocked(p)
}

// -----------------------------------------------------------------------------
// Reconciliation runs
// -----------------------------------------------------------------------------

func (m *Memory) SaveReconciliationRun(_ context.Context, run billing.ReconciliationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveRunLocked(run)
}

func (m *Memory) ListReconciliationRuns(_ context.Context, limit int) ([]billing.ReconciliationRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRunsLocked(limit)
}

// -----------------------------------------------------------------------------
// Locked internals, shared with the transactional view
// -----------------------------------------------------------------------------

func (m *Memory) saveAssignmentLocked(a billing.TenantAssignment) error {
	m.assignments[a.ID] = a
	return nil
}

func (m *Memory) getAssignmentLocked(id billing.AssignmentID) (*billing.TenantAssignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, nil
	}
	copied := a
	return &copied, nil
}

func (m *Memory) listAssignmentsLocked(activeOnly bool) ([]billing.TenantAssignment, error) {
	var result []billing.TenantAssignment
	for _, a := range m.assignments {
		if activeOnly && !a.IsActive() {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) setRentDueLocked(id billing.AssignmentID, rentDue ledger.Money) error {
	a, ok := m.assignments[id]
	if !ok {
		return ledger.ErrAssignmentNotFound
	}
	a.RentDue = rentDue
	m.assignments[id] = a
	return nil
}

func (m *Memory) endAssignmentLocked(id billing.AssignmentID) error {
	a, ok := m.assignments[id]
	if !ok {
		return ledger.ErrAssignmentNotFound
	}
	a.Status = billing.AssignmentEnded
	m.assignments[id] = a
	return nil
}

func (m *Memory) savePaymentLocked(p billing.Payment) error {
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) getPaymentLocked(id billing.PaymentID) (*billing.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	copied := p
	return &copied, nil
}

func (m *Memory) listPaymentsLocked(id billing.AssignmentID, approvedOnly bool) ([]billing.Payment, error) {
	var result []billing.Payment
	for _, p := range m.payments {
		if p.AssignmentID != id {
			continue
		}
		if approvedOnly && p.ApprovalState != billing.PaymentApproved {
			continue
		}
		result = append(result, p)
	}
	// Ledger order: CreatedAt ascending, ID as a stable tiebreaker.
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) markDecidedLocked(p billing.Payment) error {
	stored, ok := m.payments[p.ID]
	if !ok {
		return ledger.ErrPaymentNotFound
	}
	// The PENDING guard lives here, not in the service: it is what makes
	// double-approval safe under concurrency.
	if stored.ApprovalState != billing.PaymentPending {
		return ledger.ErrAlreadyDecided
	}
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) saveRunLocked(run billing.ReconciliationRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) listRunsLocked(limit int) ([]billing.ReconciliationRun, error) {
	// Newest first.
	result := make([]billing.ReconciliationRun, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		result = append(result, m.runs[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTx() *TxMemory {
	return &TxMemory{Memory: New()}
}

// WithTx executes fn within a transaction.
// For the memory store this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(billing.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	assignments map[billing.AssignmentID]billing.TenantAssignment
	payments    map[billing.PaymentID]billing.Payment
	runs        []billing.ReconciliationRun
}

func (tm *TxMemory) snapshot() memorySnapshot {
	assignments := make(map[billing.AssignmentID]billing.TenantAssignment, len(tm.assignments))
	for k, v := range tm.assignments {
		assignments[k] = v
	}
	payments := make(map[billing.PaymentID]billing.Payment, len(tm.payments))
	for k, v := range tm.payments {
		payments[k] = v
	}
	runs := append([]billing.ReconciliationRun{}, tm.runs...)
	return memorySnapshot{assignments: assignments, payments: payments, runs: runs}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.assignments = s.assignments
	tm.payments = s.payments
	tm.runs = s.runs
}

// txMemoryView reuses the locked internals without re-acquiring the mutex
// (WithTx already holds it).
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) SaveAssignment(_ context.Context, a billing.TenantAssignment) error {
	return tv.parent.saveAssignmentLocked(a)
}

func (tv *txMemoryView) GetAssignment(_ context.Context, id billing.AssignmentID) (*billing.TenantAssignment, error) {
	return tv.parent.getAssignmentLocked(id)
}

func (tv *txMemoryView) GetActiveAssignment(_ context.Context, tenantID billing.TenantID, unitID billing.UnitID) (*billing.TenantAssignment, error) {
	for _, a := range tv.parent.assignments {
		if a.TenantID == tenantID && a.UnitID == unitID && a.IsActive() {
			copied := a
			return &copied, nil
		}
	}
	return nil, nil
}

func (tv *txMemoryView) ListAssignments(_ context.Context, activeOnly bool) ([]billing.TenantAssignment, error) {
	return tv.parent.listAssignmentsLocked(activeOnly)
}

func (tv *txMemoryView) SetRentDue(_ context.Context, id billing.AssignmentID, rentDue ledger.Money) error {
	return tv.parent.setRentDueLocked(id, rentDue)
}

func (tv *txMemoryView) EndAssignment(_ context.Context, id billing.AssignmentID) error {
	return tv.parent.endAssignmentLocked(id)
}

func (tv *txMemoryView) SavePayment(_ context.Context, p billing.Payment) error {
	return tv.parent.savePaymentLocked(p)
}

func (tv *txMemoryView) GetPayment(_ context.Context, id billing.PaymentID) (*billing.Payment, error) {
	return tv.parent.getPaymentLocked(id)
}

func (tv *txMemoryView) ListPayments(_ context.Context, id billing.AssignmentID) ([]billing.Payment, error) {
	return tv.parent.listPaymentsLocked(id, false)
}

func (tv *txMemoryView) ListApprovedPayments(_ context.Context, id billing.AssignmentID) ([]billing.Payment, error) {
	return tv.parent.listPaymentsLocked(id, true)
}

func (tv *txMemoryView) MarkDecided(_ context.Context, p billing.Payment) error {
	return tv.parent.markDecidedLocked(p)
}

func (tv *txMemoryView) SaveReconciliationRun(_ context.Context, run billing.ReconciliationRun) error {
	return tv.parent.saveRunLocked(run)
}

func (tv *txMemoryView) ListReconciliationRuns(_ context.Context, limit int) ([]billing.ReconciliationRun, error) {
	return tv.parent.listRunsLocked(limit)
}
