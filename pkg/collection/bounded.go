// Package collection provides Bounded, an immutable sequence holding at most
// a fixed number of distinct members. Every mutation returns a new value and
// leaves the receiver untouched.
package collection

import (
	"fmt"
	"slices"

	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
)

var (
	ErrNilCollection    = fault.New(fault.Validation, "collection must not be nil or contain empty members")
	ErrNilItem          = fault.New(fault.Validation, "item must not be empty")
	ErrCapacityExceeded = fault.New(fault.CapacityExceeded, "collection capacity exceeded")
	ErrDuplicateItem    = fault.New(fault.DuplicateItem, "item already present")
)

// Bounded holds members compared with ==. The zero value of T stands for an
// absent member and is never accepted.
type Bounded[T comparable] struct {
	max   int
	items []T
}

func Empty[T comparable](max int) Bounded[T] {
	return Bounded[T]{max: max}
}

// FromExisting rebuilds a collection from an external sequence, such as rows
// restored from storage, applying the same rules Add enforces.
func FromExisting[T comparable](max int, seq []T) (Bounded[T], error) {
	if seq == nil {
		return Bounded[T]{}, ErrNilCollection
	}
	if len(seq) > max {
		return Bounded[T]{}, fmt.Errorf("%w: %d members, limit %d", ErrCapacityExceeded, len(seq), max)
	}
	var zero T
	for i, item := range seq {
		if item == zero {
			return Bounded[T]{}, fmt.Errorf("%w: position %d", ErrNilCollection, i)
		}
		if slices.Contains(seq[:i], item) {
			return Bounded[T]{}, fmt.Errorf("%w: position %d", ErrDuplicateItem, i)
		}
	}
	return Bounded[T]{max: max, items: slices.Clone(seq)}, nil
}

func (b Bounded[T]) Add(item T) (Bounded[T], error) {
	var zero T
	if item == zero {
		return b, ErrNilItem
	}
	if len(b.items) >= b.max {
		return b, fmt.Errorf("%w: limit %d", ErrCapacityExceeded, b.max)
	}
	if slices.Contains(b.items, item) {
		return b, ErrDuplicateItem
	}
	next := make([]T, len(b.items), len(b.items)+1)
	copy(next, b.items)
	return Bounded[T]{max: b.max, items: append(next, item)}, nil
}

// Remove returns a collection without item. Removing an absent member is a
// no-op.
func (b Bounded[T]) Remove(item T) Bounded[T] {
	i := slices.Index(b.items, item)
	if i < 0 {
		return b
	}
	return Bounded[T]{max: b.max, items: slices.Delete(slices.Clone(b.items), i, i+1)}
}

func (b Bounded[T]) Contains(item T) bool { return slices.Contains(b.items, item) }

func (b Bounded[T]) Len() int { return len(b.items) }

func (b Bounded[T]) Max() int { return b.max }

func (b Bounded[T]) Full() bool { return len(b.items) >= b.max }

// Items returns a copy; it is never nil so it can be fed back into
// FromExisting.
func (b Bounded[T]) Items() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

func (b Bounded[T]) Equal(other Bounded[T]) bool {
	return b.max == other.max && slices.Equal(b.items, other.items)
}
