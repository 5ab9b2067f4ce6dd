package domain

import (
	"fmt"
	"time"

	"github.com/dmehra2102/order-consistency-engine/pkg/money"
)

// Snapshot is the persisted shape of an Order.
type Snapshot struct {
	ID            string
	CustomerID    string
	Status        OrderStatus
	PaymentKind   PaymentKind
	PaymentDetail string
	PaymentFee    int64
	Total         int64
	PlacedAt      time.Time
	UpdatedAt     time.Time
	Version       int64
	Lines         []LineSnapshot
}

func (o *Order) Snapshot() Snapshot {
	s := Snapshot{
		ID:         string(o.id),
		CustomerID: string(o.customerID),
		Status:     o.status,
		PaymentFee: o.paymentFee.Amount(),
		Total:      o.total.Amount(),
		PlacedAt:   o.placedAt,
		UpdatedAt:  o.updatedAt,
		Version:    o.version,
		Lines:      make([]LineSnapshot, 0, len(o.lines)),
	}
	if o.payment != nil {
		s.PaymentKind = o.payment.Kind()
		s.PaymentDetail = Detail(o.payment)
	}
	for _, l := range o.lines {
		s.Lines = append(s.Lines, l.Snapshot())
	}
	return s
}

// Rehydrate rebuilds an order from storage. The stored total is checked
// against one recomputed from the lines and fee; a mismatch is reported
// rather than trusted.
func Rehydrate(s Snapshot) (*Order, error) {
	if s.CustomerID == "" {
		return nil, fmt.Errorf("order %s: %w", s.ID, ErrMissingCustomer)
	}
	if !s.Status.Valid() {
		return nil, fmt.Errorf("%w: order %s has status %q", ErrCorruptOrder, s.ID, s.Status)
	}
	if len(s.Lines) > MaxLines {
		return nil, fmt.Errorf("order %s: %w", s.ID, ErrTooManyLines)
	}

	o := &Order{
		id:         OrderID(s.ID),
		customerID: CustomerID(s.CustomerID),
		status:     s.Status,
		placedAt:   s.PlacedAt,
		updatedAt:  s.UpdatedAt,
		version:    s.Version,
		lines:      make([]LineItem, 0, len(s.Lines)),
	}
	for _, ls := range s.Lines {
		l, err := restoreLine(ls)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", s.ID, err)
		}
		o.lines = append(o.lines, l)
	}

	if s.PaymentKind != "" {
		m, err := ParsePaymentMethod(s.PaymentKind, s.PaymentDetail)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", s.ID, err)
		}
		o.payment = m
	}
	fee, err := money.New(s.PaymentFee)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", s.ID, err)
	}
	o.paymentFee = fee

	if err := o.recalculate(); err != nil {
		return nil, fmt.Errorf("order %s: %w", s.ID, err)
	}
	if o.total.Amount() != s.Total {
		return nil, fmt.Errorf("%w: order %s stored total %d, lines give %d",
			ErrCorruptOrder, s.ID, s.Total, o.total.Amount())
	}
	return o, nil
}
