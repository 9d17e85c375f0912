package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-ledger/billing"
	"github.com/warp/rent-ledger/ledger"
	"github.com/warp/rent-ledger/store/memory"
)

// newReconcilerFixture seeds a Jan 2024 lease at 5000/month with one approved
// 5000 payment, leaving the persisted balance in sync at 10000 (Jan-Mar due).
func newReconcilerFixture(t *testing.T, repair bool) (*billing.Reconciler, *memory.TxMemory, billing.AssignmentID) {
	t.Helper()

	store := memory.NewTx()
	svc := billing.NewApprovalService(store, nil)
	svc.Now = fixedNow

	a := billing.TenantAssignment{
		ID:          "lease-1",
		TenantID:    "tenant-1",
		UnitID:      "unit-1",
		LeaseStart:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MonthlyRent: money(5000),
		RentDue:     money(15000),
		Status:      billing.AssignmentActive,
		CreatedAt:   fixedNow(),
	}
	require.NoError(t, store.SaveAssignment(context.Background(), a))

	p := submit(t, svc, a.ID, 5000)
	_, err := svc.Approve(context.Background(), p.ID, "landlord-1")
	require.NoError(t, err)

	r := billing.NewReconciler(store, repair)
	r.Now = fixedNow
	return r, store, a.ID
}

func TestReconcileAssignment_InSync_NoDrift(t *testing.T) {
	r, _, id := newReconcilerFixture(t, true)

	finding, err := r.ReconcileAssignment(context.Background(), id, ledger.NewMonth(2024, time.March))
	require.NoError(t, err)

	assert.False(t, finding.Drifted)
	assert.False(t, finding.Repaired)
	assert.True(t, finding.Persisted.Equal(finding.Replayed))
}

func TestReconcileAssignment_ManualOverride_RepairedToReplay(t *testing.T) {
	// GIVEN: The persisted balance was overridden to 999
	// WHEN: Reconciling with repair enabled
	// THEN: Drift is detected and the replay value 10000 is written back

	r, store, id := newReconcilerFixture(t, true)
	require.NoError(t, store.SetRentDue(context.Background(), id, money(999)))

	finding, err := r.ReconcileAssignment(context.Background(), id, ledger.NewMonth(2024, time.March))
	require.NoError(t, err)

	assert.True(t, finding.Drifted)
	assert.True(t, finding.Repaired)
	assert.True(t, finding.Persisted.Equal(money(999)))
	assert.True(t, finding.Replayed.Equal(money(10000)))

	reloaded, err := store.GetAssignment(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, reloaded.RentDue.Equal(money(10000)))
}

func TestReconcileAssignment_ReadOnlySweep_ReportsWithoutWriting(t *testing.T) {
	// GIVEN: Drifted balance and repair disabled
	// WHEN: Reconciling
	// THEN: The drift is reported but the override stays on the books

	r, store, id := newReconcilerFixture(t, false)
	require.NoError(t, store.SetRentDue(context.Background(), id, money(999)))

	finding, err := r.ReconcileAssignment(context.Background(), id, ledger.NewMonth(2024, time.March))
	require.NoError(t, err)

	assert.True(t, finding.Drifted)
	assert.False(t, finding.Repaired)

	reloaded, err := store.GetAssignment(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, reloaded.RentDue.Equal(money(999)))
}

func TestReconcileAssignment_Unknown_NotFound(t *testing.T) {
	r, _, _ := newReconcilerFixture(t, true)

	_, err := r.ReconcileAssignment(context.Background(), "ghost", ledger.NewMonth(2024, time.March))
	assert.ErrorIs(t, err, ledger.ErrAssignmentNotFound)
}

func TestReconcileAll_PersistsRunRecord(t *testing.T) {
	// GIVEN: One in-sync lease and one drifted lease
	// WHEN: Sweeping all active assignments
	// THEN: The run counts checked=2 drifted=1 repaired=1 and is persisted

	r, store, _ := newReconcilerFixture(t, true)

	drifted := billing.TenantAssignment{
		ID:          "lease-2",
		TenantID:    "tenant-2",
		UnitID:      "unit-2",
		LeaseStart:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MonthlyRent: money(4000),
		RentDue:     money(1), // replay says 12000 (Jan-Mar, nothing paid)
		Status:      billing.AssignmentActive,
		CreatedAt:   fixedNow(),
	}
	require.NoError(t, store.SaveAssignment(context.Background(), drifted))

	run, err := r.ReconcileAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, run.Checked)
	assert.Equal(t, 1, run.Drifted)
	assert.Equal(t, 1, run.Repaired)
	assert.Equal(t, ledger.NewMonth(2024, time.March), run.AsOfMonth)
	require.Len(t, run.Findings, 2)

	runs, err := store.ListReconciliationRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, 1, runs[0].Drifted)

	reloaded, err := store.GetAssignment(context.Background(), drifted.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.RentDue.Equal(money(12000)))
}

func TestReconcileAll_SkipsEndedAssignments(t *testing.T) {
	r, store, id := newReconcilerFixture(t, true)
	require.NoError(t, store.EndAssignment(context.Background(), id))

	run, err := r.ReconcileAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, run.Checked)
	assert.Empty(t, run.Findings)
}
