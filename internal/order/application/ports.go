package application

import (
	"context"

	catalogapp "github.com/dmehra2102/order-consistency-engine/internal/catalog/application"
	"github.com/dmehra2102/order-consistency-engine/internal/order/domain"
	"github.com/dmehra2102/order-consistency-engine/pkg/outbox"
)

// OrderRepository loads and stores whole aggregates. Get locks the order for
// the rest of the unit of work; Save fails with a fault.Conflict error when
// the stored version moved.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	Save(ctx context.Context, o *domain.Order) error
}

type CustomerDirectory interface {
	Exists(ctx context.Context, id domain.CustomerID) (bool, error)
}

type OutboxWriter interface {
	Append(ctx context.Context, e outbox.Event) error
}

// Repositories are bound to a single transaction.
type Repositories interface {
	Orders() OrderRepository
	Products() catalogapp.ProductRepository
	Customers() CustomerDirectory
	Outbox() OutboxWriter
}

// UnitOfWork runs fn atomically: everything fn wrote commits together or is
// rolled back when fn returns an error. Implementations may run fn more than
// once when the store reports a conflict, so fn must not leak state between
// attempts.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
