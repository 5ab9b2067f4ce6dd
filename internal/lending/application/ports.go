package application

import (
	"context"

	"github.com/dmehra2102/order-consistency-engine/internal/lending/domain"
)

type Books interface {
	CreateBook(ctx context.Context, b *domain.Book) error
	GetBook(ctx context.Context, id domain.BookID) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	SaveStock(ctx context.Context, b *domain.Book) error
}

type Borrowers interface {
	CreateBorrower(ctx context.Context, b *domain.Borrower) error
	GetBorrower(ctx context.Context, id domain.BorrowerID) (*domain.Borrower, error)
	SaveLoans(ctx context.Context, b *domain.Borrower) error
}

type Tx interface {
	Books
	Borrowers
}

// Store runs fn in a transaction; fn's writes are discarded when it fails.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
