package domain

import "github.com/dmehra2102/order-consistency-engine/pkg/fault"

var (
	ErrMissingCustomer      = fault.New(fault.MissingReference, "order requires a customer")
	ErrMissingProduct       = fault.New(fault.MissingReference, "order line requires a product")
	ErrNilLine              = fault.New(fault.Validation, "order line must not be empty")
	ErrInvalidQuantity      = fault.New(fault.Validation, "order line quantity must be between 1 and 50")
	ErrTooManyLines         = fault.New(fault.CapacityExceeded, "order can hold at most 30 lines")
	ErrInvalidTransition    = fault.New(fault.InvalidTransition, "illegal order status transition")
	ErrOrderLocked          = fault.New(fault.InvalidTransition, "order lines and payment can only change while pending")
	ErrInvalidPaymentMethod = fault.New(fault.Validation, "invalid payment method")
	ErrNoPaymentMethod      = fault.New(fault.Validation, "order has no payment method")
	ErrEmptyOrder           = fault.New(fault.Validation, "order has no lines")
	ErrCorruptOrder         = fault.New(fault.Validation, "stored order violates its invariants")
	ErrOrderNotFound        = fault.New(fault.NotFound, "order not found")
)
