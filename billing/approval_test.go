package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-ledger/billing"
	"github.com/warp/rent-ledger/ledger"
	"github.com/warp/rent-ledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func money(v int64) ledger.Money { return ledger.NewMoneyFromInt(v) }

func fixedNow() time.Time {
	return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
}

// newTestService seeds one active lease (Jan 2024, 5000/month) and returns
// the approval service pinned to March 15 2024.
func newTestService(t *testing.T) (*billing.ApprovalService, *memory.TxMemory, *billing.MemoryNotifier, billing.TenantAssignment) {
	t.Helper()

	store := memory.NewTx()
	notifier := &billing.MemoryNotifier{}
	svc := billing.NewApprovalService(store, notifier)
	svc.Now = fixedNow

	a := billing.TenantAssignment{
		ID:          "lease-1",
		TenantID:    "tenant-1",
		UnitID:      "unit-1",
		LeaseStart:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MonthlyRent: money(5000),
		RentDue:     money(15000), // Jan-Mar due, nothing paid
		Status:      billing.AssignmentActive,
		CreatedAt:   fixedNow(),
	}
	require.NoError(t, store.SaveAssignment(context.Background(), a))

	return svc, store, notifier, a
}

func submit(t *testing.T, svc *billing.ApprovalService, assignmentID billing.AssignmentID, amount int64) billing.Payment {
	t.Helper()
	p, err := svc.Submit(context.Background(), billing.Payment{
		AssignmentID: assignmentID,
		Amount:       money(amount),
		Method:       "bank_transfer",
	})
	require.NoError(t, err)
	return *p
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_CreatesPendingPayment(t *testing.T) {
	// GIVEN: An active lease
	// WHEN: A tenant submits a 5000 payment
	// THEN: It is stored PENDING with tenant/unit copied from the lease

	svc, store, _, a := newTestService(t)

	p := submit(t, svc, a.ID, 5000)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, billing.PaymentPending, p.ApprovalState)
	assert.Equal(t, a.TenantID, p.TenantID)
	assert.Equal(t, a.UnitID, p.UnitID)

	stored, err := store.GetPayment(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, billing.PaymentPending, stored.ApprovalState)
}

func TestSubmit_PendingPaymentDoesNotTouchBalance(t *testing.T) {
	// GIVEN: An active lease owing 15000
	// WHEN: A payment is submitted but not yet approved
	// THEN: The persisted balance is unchanged

	svc, store, _, a := newTestService(t)

	submit(t, svc, a.ID, 5000)

	reloaded, err := store.GetAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.RentDue.Equal(money(15000)))
}

func TestSubmit_RejectsNonPositiveAmount(t *testing.T) {
	svc, _, _, a := newTestService(t)

	_, err := svc.Submit(context.Background(), billing.Payment{
		AssignmentID: a.ID,
		Amount:       money(0),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestSubmit_RejectsEndedLease(t *testing.T) {
	svc, store, _, a := newTestService(t)
	require.NoError(t, store.EndAssignment(context.Background(), a.ID))

	_, err := svc.Submit(context.Background(), billing.Payment{
		AssignmentID: a.ID,
		Amount:       money(5000),
	})
	assert.ErrorIs(t, err, ledger.ErrNoActiveLease)
}

func TestSubmit_RejectsUnknownAssignment(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), billing.Payment{
		AssignmentID: "no-such-lease",
		Amount:       money(5000),
	})
	assert.ErrorIs(t, err, ledger.ErrAssignmentNotFound)
}

// =============================================================================
// APPROVE
// =============================================================================

func TestApprove_UpdatesBalanceFromReplay(t *testing.T) {
	// GIVEN: Jan-Mar due (15000), a pending 5000 payment
	// WHEN: The landlord approves it
	// THEN: The persisted balance becomes the replay value 10000 and the
	//       payment is APPROVED with reviewer recorded

	svc, store, _, a := newTestService(t)
	p := submit(t, svc, a.ID, 5000)

	result, err := svc.Approve(context.Background(), p.ID, "landlord-1")
	require.NoError(t, err)

	assert.Equal(t, billing.PaymentApproved, result.Payment.ApprovalState)
	assert.Equal(t, "landlord-1", result.Payment.DecidedBy)
	require.NotNil(t, result.Payment.DecidedAt)
	assert.True(t, result.NewRentDue.Equal(money(10000)))

	reloaded, err := store.GetAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.RentDue.Equal(money(10000)))
}

func TestApprove_SecondApprovalConflicts_BalanceUntouched(t *testing.T) {
	// GIVEN: An already-approved payment
	// WHEN: Approving it again
	// THEN: Conflict; the balance stays exactly where the first approval left it

	svc, store, _, a := newTestService(t)
	p := submit(t, svc, a.ID, 5000)

	_, err := svc.Approve(context.Background(), p.ID, "landlord-1")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), p.ID, "landlord-2")
	assert.True(t, ledger.IsConflict(err), "expected conflict, got %v", err)

	reloaded, err := store.GetAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.RentDue.Equal(money(10000)))
}

func TestApprove_UnknownPayment_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Approve(context.Background(), "no-such-payment", "landlord-1")
	assert.ErrorIs(t, err, ledger.ErrPaymentNotFound)
}

func TestApprove_EndedLease_Rejected(t *testing.T) {
	// GIVEN: A payment submitted while the lease was active
	// WHEN: The lease ends before the landlord reviews it
	// THEN: Approval is refused and the payment stays PENDING

	svc, store, _, a := newTestService(t)
	p := submit(t, svc, a.ID, 5000)
	require.NoError(t, store.EndAssignment(context.Background(), a.ID))

	_, err := svc.Approve(context.Background(), p.ID, "landlord-1")
	assert.ErrorIs(t, err, ledger.ErrNoActiveLease)

	stored, err := store.GetPayment(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentPending, stored.ApprovalState)
}

func TestApprove_SendsNotification(t *testing.T) {
	svc, _, notifier, a := newTestService(t)
	p := submit(t, svc, a.ID, 5000)

	_, err := svc.Approve(context.Background(), p.ID, "landlord-1")
	require.NoError(t, err)

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, billing.NotifyPaymentApproved, sent[0].Kind)
	assert.Equal(t, a.TenantID, sent[0].TenantID)
	assert.Equal(t, p.ID, sent[0].PaymentID)
	assert.True(t, sent[0].RentDue.Equal(money(10000)))
}

func TestApprove_OverpaymentYieldsCredit(t *testing.T) {
	// GIVEN: Jan-Mar due (15000)
	// WHEN: Approving a 22000 payment
	// THEN: The persisted balance goes negative: 7000 credit

	svc, store, _, a := newTestService(t)
	p := submit(t, svc, a.ID, 22000)

	result, err := svc.Approve(context.Background(), p.ID, "landlord-1")
	require.NoError(t, err)
	assert.True(t, result.NewRentDue.Equal(money(7000).Neg()))

	reloaded, err := store.GetAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.RentDue.IsNegative())
}

// =============================================================================
// DENY
// =============================================================================

func TestDeny_NoBalanceEffect(t *testing.T) {
	// GIVEN: A pending payment against a lease owing 15000
	// WHEN: The landlord denies it
	// THEN: Payment is DENIED with the reason; the balance never moves

	svc, store, notifier, a := newTestService(t)
	p := submit(t, svc, a.ID, 5000)

	err := svc.Deny(context.Background(), p.ID, "landlord-1", "bounced cheque")
	require.NoError(t, err)

	stored, err := store.GetPayment(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentDenied, stored.ApprovalState)
	assert.Equal(t, "bounced cheque", stored.DenialReason)

	reloaded, err := store.GetAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.RentDue.Equal(money(15000)))

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, billing.NotifyPaymentDenied, sent[0].Kind)
	assert.Equal(t, "bounced cheque", sent[0].Reason)
}

func TestDeny_ThenApprove_Conflicts(t *testing.T) {
	// GIVEN: A denied payment
	// WHEN: Trying to approve it afterwards
	// THEN: Conflict - terminal states are one-way

	svc, _, _, a := newTestService(t)
	p := submit(t, svc, a.ID, 5000)

	require.NoError(t, svc.Deny(context.Background(), p.ID, "landlord-1", "wrong amount"))

	_, err := svc.Approve(context.Background(), p.ID, "landlord-1")
	assert.True(t, ledger.IsConflict(err))
}

// =============================================================================
// ATOMICITY
// =============================================================================

// brokenBalanceStore fails every SetRentDue to prove the approval rolls back.
type brokenBalanceStore struct {
	*memory.TxMemory
}

type brokenBalanceView struct {
	billing.Store
}

var errDiskFull = errors.New("disk full")

func (b *brokenBalanceStore) WithTx(ctx context.Context, fn func(billing.Store) error) error {
	return b.TxMemory.WithTx(ctx, func(tx billing.Store) error {
		return fn(&brokenBalanceView{Store: tx})
	})
}

func (v *brokenBalanceView) SetRentDue(context.Context, billing.AssignmentID, ledger.Money) error {
	return errDiskFull
}

func TestApprove_BalanceWriteFails_PaymentStaysPending(t *testing.T) {
	// GIVEN: A store where the balance write always fails
	// WHEN: Approving a pending payment
	// THEN: The whole transaction rolls back - the payment must not end up
	//       APPROVED with the old balance still on the books

	inner := memory.NewTx()
	store := &brokenBalanceStore{TxMemory: inner}
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
	require.ErrorIs(t, err, errDiskFull)

	stored, err := inner.GetPayment(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentPending, stored.ApprovalState)

	reloaded, err := inner.GetAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.RentDue.Equal(money(15000)))
}
