package memory_test

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

func pendingPayment(id string, createdAt time.Time) billing.Payment {
	return billing.Payment{
		ID:            billing.PaymentID(id),
		AssignmentID:  "lease-1",
		TenantID:      "tenant-1",
		UnitID:        "unit-1",
		Amount:        ledger.NewMoneyFromInt(5000),
		ApprovalState: billing.PaymentPending,
		CreatedAt:     createdAt,
	}
}

func TestMemory_MarkDecided_PendingGuard(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	p := pendingPayment("pay-1", time.Now().UTC())
	require.NoError(t, store.SavePayment(ctx, p))

	p.ApprovalState = billing.PaymentApproved
	require.NoError(t, store.MarkDecided(ctx, p))

	assert.ErrorIs(t, store.MarkDecided(ctx, p), ledger.ErrAlreadyDecided)

	missing := pendingPayment("ghost", time.Now().UTC())
	missing.ApprovalState = billing.PaymentDenied
	assert.ErrorIs(t, store.MarkDecided(ctx, missing), ledger.ErrPaymentNotFound)
}

func TestMemory_ListPayments_LedgerOrder(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	base := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SavePayment(ctx, pendingPayment("pay-c", base.AddDate(0, 1, 0))))
	require.NoError(t, store.SavePayment(ctx, pendingPayment("pay-b", base)))
	require.NoError(t, store.SavePayment(ctx, pendingPayment("pay-a", base)))

	got, err := store.ListPayments(ctx, "lease-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, billing.PaymentID("pay-a"), got[0].ID)
	assert.Equal(t, billing.PaymentID("pay-b"), got[1].ID)
	assert.Equal(t, billing.PaymentID("pay-c"), got[2].ID)
}

func TestMemory_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that writes a payment then fails
	// WHEN: WithTx returns the error
	// THEN: The snapshot is restored and the write is gone

	store := memory.NewTx()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx billing.Store) error {
		if err := tx.SavePayment(ctx, pendingPayment("pay-1", time.Now().UTC())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
