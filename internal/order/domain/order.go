package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/order-consistency-engine/pkg/money"
)

const MaxLines = 30

type OrderID string

type CustomerID string

// Order owns its lines and the money derived from them. Stock is not its
// concern; cancelling an order leaves the restitution to the caller.
type Order struct {
	id         OrderID
	customerID CustomerID
	status     OrderStatus
	lines      []LineItem
	payment    PaymentMethod
	paymentFee money.Money
	total      money.Money
	placedAt   time.Time
	updatedAt  time.Time
	version    int64

	events []Event
}

// New starts an empty PENDING order for customer.
func New(id OrderID, customer CustomerID) (*Order, error) {
	if strings.TrimSpace(string(customer)) == "" {
		return nil, ErrMissingCustomer
	}
	if id == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrCorruptOrder)
	}
	now := time.Now().UTC()
	return &Order{
		id:         id,
		customerID: customer,
		status:     StatusPending,
		paymentFee: money.Zero,
		total:      money.Zero,
		placedAt:   now,
		updatedAt:  now,
	}, nil
}

func (o *Order) ID() OrderID                  { return o.id }
func (o *Order) CustomerID() CustomerID       { return o.customerID }
func (o *Order) Status() OrderStatus          { return o.status }
func (o *Order) Total() money.Money           { return o.total }
func (o *Order) PaymentFee() money.Money      { return o.paymentFee }
func (o *Order) PaymentMethod() PaymentMethod { return o.payment }
func (o *Order) PlacedAt() time.Time          { return o.placedAt }
func (o *Order) UpdatedAt() time.Time         { return o.updatedAt }
func (o *Order) Version() int64               { return o.version }
func (o *Order) LineCount() int               { return len(o.lines) }

// Lines returns a copy; callers cannot reach the order's own slice.
func (o *Order) Lines() []LineItem {
	out := make([]LineItem, len(o.lines))
	copy(out, o.lines)
	return out
}

// AddLine appends item and recomputes the total from every line.
func (o *Order) AddLine(item LineItem) error {
	if item.IsZero() {
		return ErrNilLine
	}
	if o.status != StatusPending {
		return fmt.Errorf("%w: order %s is %s", ErrOrderLocked, o.id, o.status)
	}
	if len(o.lines) >= MaxLines {
		return fmt.Errorf("%w: order %s", ErrTooManyLines, o.id)
	}

	o.lines = append(o.lines, item)
	if err := o.recalculate(); err != nil {
		o.lines = o.lines[:len(o.lines)-1]
		return err
	}
	o.touch()
	return nil
}

// Subtotal is the sum of all lines without the payment fee.
func (o *Order) Subtotal() (money.Money, error) {
	return sumLines(o.lines)
}

// SetPaymentMethod charges the method's fee on the current subtotal. Choosing
// again replaces the previous fee.
func (o *Order) SetPaymentMethod(m PaymentMethod) error {
	if m == nil {
		return fmt.Errorf("%w: method is required", ErrInvalidPaymentMethod)
	}
	if o.status != StatusPending {
		return fmt.Errorf("%w: order %s is %s", ErrOrderLocked, o.id, o.status)
	}
	subtotal, err := o.Subtotal()
	if err != nil {
		return err
	}

	prevMethod, prevFee := o.payment, o.paymentFee
	o.payment = m
	o.paymentFee = m.Fee(subtotal)
	if err := o.recalculate(); err != nil {
		o.payment, o.paymentFee = prevMethod, prevFee
		return err
	}
	o.touch()
	o.record(PaymentMethodSelected{
		OrderID: string(o.id),
		Method:  m.Kind(),
		Label:   m.Label(),
		Fee:     o.paymentFee.Amount(),
		Total:   o.total.Amount(),
	})
	return nil
}

// Confirm accepts a PENDING order that has lines and a payment method.
func (o *Order) Confirm() error {
	if len(o.lines) == 0 {
		return fmt.Errorf("%w: order %s", ErrEmptyOrder, o.id)
	}
	if o.payment == nil {
		return fmt.Errorf("%w: order %s", ErrNoPaymentMethod, o.id)
	}
	return o.transitionTo(StatusConfirmed)
}

func (o *Order) StartPreparing() error { return o.transitionTo(StatusPreparing) }
func (o *Order) Ship() error           { return o.transitionTo(StatusShipped) }
func (o *Order) Deliver() error        { return o.transitionTo(StatusDelivered) }
func (o *Order) Return() error         { return o.transitionTo(StatusReturned) }

// Cancel moves the order to CANCELLED. PENDING orders are refused. The caller
// must return each line's units to stock in the same unit of work.
func (o *Order) Cancel() error {
	from := o.status
	if err := o.transitionTo(StatusCancelled); err != nil {
		return err
	}
	lines := make([]LineSnapshot, 0, len(o.lines))
	for _, l := range o.lines {
		lines = append(lines, l.Snapshot())
	}
	o.record(OrderCancelled{OrderID: string(o.id), From: from, Lines: lines})
	return nil
}

// Advance moves the order to target through the matching transition.
func (o *Order) Advance(target OrderStatus) error {
	switch target {
	case StatusConfirmed:
		return o.Confirm()
	case StatusPreparing:
		return o.StartPreparing()
	case StatusShipped:
		return o.Ship()
	case StatusDelivered:
		return o.Deliver()
	case StatusReturned:
		return o.Return()
	case StatusCancelled:
		return o.Cancel()
	}
	return fmt.Errorf("%w: %s -> %q", ErrInvalidTransition, o.status, target)
}

func (o *Order) transitionTo(next OrderStatus) error {
	if !o.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: order %s %s -> %s", ErrInvalidTransition, o.id, o.status, next)
	}
	from := o.status
	o.status = next
	o.touch()
	o.record(OrderStatusChanged{OrderID: string(o.id), From: from, To: next})
	return nil
}

// recalculate rebuilds the total from the line list on every call instead of
// patching it, so it cannot drift from the lines.
func (o *Order) recalculate() error {
	subtotal, err := sumLines(o.lines)
	if err != nil {
		return err
	}
	total, err := subtotal.Add(o.paymentFee)
	if err != nil {
		return err
	}
	o.total = total
	return nil
}

func sumLines(lines []LineItem) (money.Money, error) {
	subtotal := money.Zero
	for _, l := range lines {
		st, err := l.Subtotal()
		if err != nil {
			return money.Money{}, err
		}
		if subtotal, err = subtotal.Add(st); err != nil {
			return money.Money{}, err
		}
	}
	return subtotal, nil
}

func (o *Order) touch() { o.updatedAt = time.Now().UTC() }

func (o *Order) record(e Event) { o.events = append(o.events, e) }

// PullEvents hands over and clears the events recorded since the last call.
func (o *Order) PullEvents() []Event {
	events := o.events
	o.events = nil
	return events
}

// MarkPersisted records the version the store assigned on save.
func (o *Order) MarkPersisted(version int64) { o.version = version }
