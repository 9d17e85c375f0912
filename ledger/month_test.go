package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-ledger/ledger"
)

func TestParseMonth_WireFormat(t *testing.T) {
	m, err := ledger.ParseMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, 2024, m.Year)
	assert.Equal(t, time.March, m.Month)
	assert.Equal(t, "2024-03", m.String())
}

func TestParseMonth_RejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "2024", "2024-13", "03-2024", "March 2024"} {
		_, err := ledger.ParseMonth(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestMonthOf_TruncatesInUTC(t *testing.T) {
	// GIVEN: A timestamp that is Feb 1 in UTC+10 but still Jan 31 in UTC
	// WHEN: Truncating to a month
	// THEN: The UTC month wins regardless of server locale

	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2024, time.February, 1, 9, 30, 0, 0, loc) // 23:30 Jan 31 UTC

	m := ledger.MonthOf(ts)
	assert.Equal(t, time.January, m.Month)
	assert.Equal(t, 2024, m.Year)
}

func TestMonth_AddMonths_CrossesYearBoundaries(t *testing.T) {
	nov := ledger.NewMonth(2024, time.November)

	assert.Equal(t, ledger.NewMonth(2025, time.January), nov.AddMonths(2))
	assert.Equal(t, ledger.NewMonth(2024, time.December), nov.Next())
	assert.Equal(t, ledger.NewMonth(2023, time.December), nov.AddMonths(-11))
	assert.Equal(t, ledger.NewMonth(2026, time.November), nov.AddMonths(24))
}

func TestMonth_MonthsUntil(t *testing.T) {
	jan := ledger.NewMonth(2024, time.January)

	assert.Equal(t, 0, jan.MonthsUntil(jan))
	assert.Equal(t, 11, jan.MonthsUntil(ledger.NewMonth(2024, time.December)))
	assert.Equal(t, 12, jan.MonthsUntil(ledger.NewMonth(2025, time.January)))
	assert.Equal(t, -1, jan.MonthsUntil(ledger.NewMonth(2023, time.December)))
}

func TestMonth_Comparisons(t *testing.T) {
	jan := ledger.NewMonth(2024, time.January)
	dec23 := ledger.NewMonth(2023, time.December)

	assert.True(t, dec23.Before(jan))
	assert.True(t, jan.After(dec23))
	assert.True(t, jan.Equal(ledger.NewMonth(2024, time.January)))
	assert.True(t, jan.BeforeOrEqual(jan))
	assert.True(t, jan.AfterOrEqual(dec23))
	assert.False(t, jan.Before(dec23))
}

func TestMonth_Start(t *testing.T) {
	m := ledger.NewMonth(2024, time.July)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), m.Start())
}
