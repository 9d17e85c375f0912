package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-ledger/ledger"
)

// =============================================================================
// REPLAY-DERIVED BALANCE
// =============================================================================

func TestReplayRentDue_FullYearPaid_Zero(t *testing.T) {
	// GIVEN: 12 months of a 5000 lease, 60000 approved in total
	// WHEN: Replaying through December 2024
	// THEN: Balance is exactly zero - no floating point drift

	due, err := ledger.ReplayRentDue(jan2024(), money(5000), money(60000), ledger.NewMonth(2024, time.December))
	require.NoError(t, err)
	assert.True(t, due.IsZero(), "expected zero, got %s", due)
}

func TestReplayRentDue_Underpaid_PositiveDeficit(t *testing.T) {
	due, err := ledger.ReplayRentDue(jan2024(), money(5000), money(12000), ledger.NewMonth(2024, time.March))
	require.NoError(t, err)
	assert.True(t, due.Equal(money(3000)))
}

func TestReplayRentDue_Overpaid_NegativeCredit(t *testing.T) {
	due, err := ledger.ReplayRentDue(jan2024(), money(5000), money(12000), ledger.NewMonth(2024, time.January))
	require.NoError(t, err)
	assert.True(t, due.Equal(money(7000).Neg()))
}

func TestReplayRentDue_BeforeLeaseStart_PureCredit(t *testing.T) {
	// GIVEN: Lease starting June 2024, 3000 already approved
	// WHEN: Replaying as of March 2024
	// THEN: Nothing is due; the full amount is credit

	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	due, err := ledger.ReplayRentDue(start, money(5000), money(3000), ledger.NewMonth(2024, time.March))
	require.NoError(t, err)
	assert.True(t, due.Equal(money(3000).Neg()))
}

func TestReplayRentDue_MatchesEngineRentDue(t *testing.T) {
	// GIVEN: The same lease and payment history
	// WHEN: Comparing the scalar replay against the full engine walk
	// THEN: Both produce the same rentDue

	payments := []ledger.PaymentLine{
		payment("p1", 4000, jan2024()),
		payment("p2", 9500, jan2024().AddDate(0, 2, 0)),
	}
	total := ledger.ZeroMoney()
	for _, p := range payments {
		total = total.Add(p.Amount)
	}

	asOf := ledger.NewMonth(2024, time.May)
	sched := allocate(t, ledger.AllocateInput{
		LeaseStart:  jan2024(),
		MonthlyRent: money(5000),
		Payments:    payments,
		AsOfMonth:   asOf,
	})

	due, err := ledger.ReplayRentDue(jan2024(), money(5000), total, asOf)
	require.NoError(t, err)
	assert.True(t, due.Equal(sched.RentDue))
}

func TestReplayRentDue_RejectsInvalidInput(t *testing.T) {
	_, err := ledger.ReplayRentDue(time.Time{}, money(5000), money(0), ledger.NewMonth(2024, time.January))
	assert.ErrorIs(t, err, ledger.ErrInvalidLeaseStart)

	_, err = ledger.ReplayRentDue(jan2024(), money(0), money(0), ledger.NewMonth(2024, time.January))
	assert.ErrorIs(t, err, ledger.ErrInvalidRent)
}

// =============================================================================
// INCREMENTAL STEP (legacy cross-check)
// =============================================================================

func TestNextRentDue_DeficitPaidDownFirst(t *testing.T) {
	// GIVEN: 2000 deficit, 5000 rent
	// WHEN: A 5000 payment arrives
	// THEN: Deficit cleared, remaining 3000 goes to the month, 2000 still due

	due, err := ledger.NextRentDue(money(2000), money(5000), money(5000))
	require.NoError(t, err)
	assert.True(t, due.Equal(money(2000)))
}

func TestNextRentDue_ExactMonth_SettlesToZero(t *testing.T) {
	due, err := ledger.NextRentDue(money(0), money(5000), money(5000))
	require.NoError(t, err)
	assert.True(t, due.IsZero())
}

func TestNextRentDue_LargePayment_BecomesCredit(t *testing.T) {
	// GIVEN: No deficit
	// WHEN: Paying 12000 against a 5000 month
	// THEN: 7000 credit (negative balance)

	due, err := ledger.NextRentDue(money(0), money(5000), money(12000))
	require.NoError(t, err)
	assert.True(t, due.Equal(money(7000).Neg()))
}

func TestNextRentDue_DeficitSwallowsWholePayment(t *testing.T) {
	// GIVEN: 8000 deficit
	// WHEN: Paying 3000
	// THEN: Deficit shrinks to 5000; no fresh month is booked

	due, err := ledger.NextRentDue(money(8000), money(5000), money(3000))
	require.NoError(t, err)
	assert.True(t, due.Equal(money(5000)))
}

func TestNextRentDue_NoDeficitNoRemainder_BooksFreshMonth(t *testing.T) {
	// GIVEN: Settled balance and a zero payment event
	// WHEN: Applying the step
	// THEN: A new month's rent is booked - the quirk the replay does not share

	due, err := ledger.NextRentDue(money(0), money(5000), money(0))
	require.NoError(t, err)
	assert.True(t, due.Equal(money(5000)))
}

func TestNextRentDue_IgnoresExistingCredit(t *testing.T) {
	// GIVEN: 1000 credit on the books
	// WHEN: Paying 7000 against a 5000 month
	// THEN: The step only sees the payment: result is -2000, not -3000.
	//       This divergence from the replay is why the step is a cross-check.

	due, err := ledger.NextRentDue(money(1000).Neg(), money(5000), money(7000))
	require.NoError(t, err)
	assert.True(t, due.Equal(money(2000).Neg()))
}

func TestNextRentDue_RejectsInvalidInput(t *testing.T) {
	_, err := ledger.NextRentDue(money(0), money(0), money(100))
	assert.ErrorIs(t, err, ledger.ErrInvalidRent)

	_, err = ledger.NextRentDue(money(0), money(5000), money(-100))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

// =============================================================================
// ALL-TIME CLASSIFICATION
// =============================================================================

func TestClassifyRentDue_Bands(t *testing.T) {
	rent := money(5000)

	cases := []struct {
		name    string
		rentDue ledger.Money
		want    ledger.AllocationStatus
	}{
		{"settled", money(0), ledger.StatusFullyPaid},
		{"credit counts as fully paid", money(2500).Neg(), ledger.StatusFullyPaid},
		{"small deficit", money(1), ledger.StatusPartiallyPaid},
		{"under one month", money(4999), ledger.StatusPartiallyPaid},
		{"exactly one month behind", money(5000), ledger.StatusNotPaid},
		{"several months behind", money(17000), ledger.StatusNotPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ledger.ClassifyRentDue(tc.rentDue, rent))
		})
	}
}
