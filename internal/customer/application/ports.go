package application

import (
	"context"

	"github.com/dmehra2102/order-consistency-engine/internal/customer/domain"
)

// UserRepository enforces email uniqueness: Create fails with
// domain.ErrEmailTaken when the address is already registered.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id domain.UserID) (*domain.User, error)
	// Lock holds the user's row until the transaction ends, serializing
	// writers that change the user's addresses.
	Lock(ctx context.Context, id domain.UserID) error
	AddAddress(ctx context.Context, id domain.UserID, a domain.Address) error
}

type RankRepository interface {
	ByName(ctx context.Context, name string) (*domain.Rank, error)
}

// Store runs fn in one transaction; nothing fn wrote survives a failure.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, users UserRepository) error) error
}
