// Package money holds the non-negative amount type shared by prices, fees
// and order totals. Amounts are whole yen; there is no minor unit.
package money

import (
	"fmt"
	"math"

	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
)

var (
	ErrNegative = fault.New(fault.Validation, "money amount must not be negative")
	ErrOverflow = fault.New(fault.Validation, "money amount overflows")
)

// Money is a value object. The zero value is a valid zero amount.
type Money struct {
	amount int64
}

var Zero = Money{}

func New(amount int64) (Money, error) {
	if amount < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrNegative, amount)
	}
	return Money{amount: amount}, nil
}

// MustNew is for constants and tests.
func MustNew(amount int64) Money {
	m, err := New(amount)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() int64 { return m.amount }

func (m Money) IsZero() bool { return m.amount == 0 }

func (m Money) LessThan(other Money) bool { return m.amount < other.amount }

func (m Money) Add(other Money) (Money, error) {
	if m.amount > math.MaxInt64-other.amount {
		return Money{}, ErrOverflow
	}
	return Money{amount: m.amount + other.amount}, nil
}

// Sub fails rather than produce a negative amount.
func (m Money) Sub(other Money) (Money, error) {
	if other.amount > m.amount {
		return Money{}, fmt.Errorf("%w: %d - %d", ErrNegative, m.amount, other.amount)
	}
	return Money{amount: m.amount - other.amount}, nil
}

func (m Money) Times(n int) (Money, error) {
	if n < 0 {
		return Money{}, fmt.Errorf("%w: multiplier %d", ErrNegative, n)
	}
	if n != 0 && m.amount > math.MaxInt64/int64(n) {
		return Money{}, ErrOverflow
	}
	return Money{amount: m.amount * int64(n)}, nil
}

// Sum adds all amounts, failing on overflow.
func Sum(ms ...Money) (Money, error) {
	total := Zero
	for _, m := range ms {
		var err error
		if total, err = total.Add(m); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

func (m Money) String() string { return fmt.Sprintf("¥%d", m.amount) }
