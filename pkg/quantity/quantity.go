// Package quantity provides a counted amount validated against the bounds
// of the context it is used in.
package quantity

import (
	"fmt"

	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
)

var ErrOutOfBounds = fault.New(fault.Validation, "quantity out of bounds")

type Quantity struct {
	value int
}

func (q Quantity) Int() int { return q.value }

// Bounds is an inclusive [Min, Max] range.
type Bounds struct {
	Min int
	Max int
}

func (b Bounds) Of(v int) (Quantity, error) {
	if v < b.Min || v > b.Max {
		return Quantity{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfBounds, v, b.Min, b.Max)
	}
	return Quantity{value: v}, nil
}

func (b Bounds) Contains(v int) bool { return v >= b.Min && v <= b.Max }
