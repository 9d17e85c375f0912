/*
money.go - Fixed-point money arithmetic

PURPOSE:
  All rent and payment arithmetic runs on decimal.Decimal. A ledger that
  walks dozens of months must not accumulate binary floating-point drift:
  a tenant who paid exactly 12 x 5000 must owe exactly zero.

DESIGN:
  Money is a small value type wrapping decimal.Decimal. No currency field:
  the system is single-currency by design (see spec Non-goals in DESIGN.md).

USAGE:
  rent := ledger.NewMoneyFromInt(5000)
  paid := ledger.MustParseMoney("3000.50")
  due := rent.Sub(paid)

SEE ALSO:
  - engine.go: FIFO allocation over Money pools
  - balance.go: running-balance arithmetic
*/
package ledger

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Quantity of currency in fixed-point decimal
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

// ParseMoney parses an exact decimal string ("3000.50").
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

// MustParseMoney parses a decimal string, returning zero on malformed input.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(o Money) Money        { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money        { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money               { return Money{Value: m.Value.Neg()} }
func (m Money) Abs() Money               { return Money{Value: m.Value.Abs()} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool       { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool    { return m.Value.LessThan(o.Value) }

func (m Money) GreaterOrEqual(o Money) bool { return !m.Value.LessThan(o.Value) }
func (m Money) LessOrEqual(o Money) bool    { return !m.Value.GreaterThan(o.Value) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// MulInt scales by a whole number (months of rent, never fractional).
func (m Money) MulInt(n int64) Money {
	return Money{Value: m.Value.Mul(decimal.NewFromInt(n))}
}

// String renders the exact decimal value (no currency symbol, no rounding).
func (m Money) String() string { return m.Value.String() }

// Float64 is for display layers only. Never feed the result back into
// ledger arithmetic.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}
