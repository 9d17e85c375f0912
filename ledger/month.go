package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - Calendar month, the unit the rent ledger walks in
// =============================================================================

// Month identifies one calendar month. All month math happens in UTC so that
// a payment recorded at 23:30 on the last day of a month never slides into
// the next one depending on server locale.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf truncates a timestamp to its calendar month (UTC).
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: u.Month()}
}

// CurrentMonth is only for boundary layers; the engine always takes an
// explicit as-of month.
func CurrentMonth() Month {
	return MonthOf(time.Now())
}

// ParseMonth parses the wire format "2006-01".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", s, err)
	}
	return MonthOf(t), nil
}

// index maps a month onto a monotonic integer for comparisons.
func (m Month) index() int { return m.Year*12 + int(m.Month) - 1 }

// Comparison
func (m Month) Before(o Month) bool        { return m.index() < o.index() }
func (m Month) After(o Month) bool         { return m.index() > o.index() }
func (m Month) Equal(o Month) bool         { return m.index() == o.index() }
func (m Month) BeforeOrEqual(o Month) bool { return m.index() <= o.index() }
func (m Month) AfterOrEqual(o Month) bool  { return m.index() >= o.index() }

// Arithmetic
func (m Month) Next() Month { return m.AddMonths(1) }

func (m Month) AddMonths(n int) Month {
	i := m.index() + n
	y, mo := i/12, i%12
	if mo < 0 {
		mo += 12
		y--
	}
	return Month{Year: y, Month: time.Month(mo + 1)}
}

// MonthsUntil counts whole months from m to o (negative if o is earlier).
func (m Month) MonthsUntil(o Month) int { return o.index() - m.index() }

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// String renders the wire format "2006-01".
func (m Month) String() string { return m.Start().Format("2006-01") }
