package application

import (
	"context"

	"github.com/dmehra2102/order-consistency-engine/internal/catalog/domain"
)

// ProductRepository is scoped to one unit of work. Get locks the row for the
// rest of that unit and returns the same *Product for repeated calls, so the
// ledger and the caller always see one copy of the stock counter.
type ProductRepository interface {
	Get(ctx context.Context, id domain.ProductID) (*domain.Product, error)
	Save(ctx context.Context, p *domain.Product) error
}

// ProductCatalog adds products outside any order unit of work. Create fails
// with domain.ErrDuplicateProduct when the id is taken.
type ProductCatalog interface {
	Create(ctx context.Context, p *domain.Product) error
}
