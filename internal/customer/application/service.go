package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmehra2102/order-consistency-engine/internal/customer/domain"
)

type Service struct {
	log   *slog.Logger
	store Store
	ranks RankRepository
}

func NewService(log *slog.Logger, store Store, ranks RankRepository) *Service {
	return &Service{log: log, store: store, ranks: ranks}
}

// RegisterCommand carries an optional caller-chosen ID; a new one is
// generated when it is empty.
type RegisterCommand struct {
	ID       string
	Name     string
	Email    string
	Password string
	Rank     string
}

// Register creates a user after the rank has been found. Email uniqueness is
// left to the repository.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*domain.User, error) {
	email, err := domain.NewEmail(cmd.Email)
	if err != nil {
		return nil, err
	}
	pw, err := domain.HashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}
	rank, err := s.ranks.ByName(ctx, cmd.Rank)
	if err != nil {
		return nil, err
	}

	id := cmd.ID
	if id == "" {
		id = uuid.NewString()
	}
	u, err := domain.NewUser(domain.UserID(id), cmd.Name, domain.NewCredentials(email, pw), rank)
	if err != nil {
		return nil, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, users UserRepository) error {
		return users.Create(ctx, u)
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			s.log.Info("registration rejected", "email", email.String(), "err", err)
		}
		return nil, err
	}
	s.log.Info("user registered", "user_id", u.ID(), "rank", rank.Name)
	return u, nil
}

// AddAddress checks the address cap against the locked user, so concurrent
// calls cannot both take the last free slot.
func (s *Service) AddAddress(ctx context.Context, id domain.UserID, a domain.Address) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, users UserRepository) error {
		if err := users.Lock(ctx, id); err != nil {
			return err
		}
		u, err := users.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := u.AddAddress(a); err != nil {
			return err
		}
		if err := users.AddAddress(ctx, id, a); err != nil {
			return fmt.Errorf("store address: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("address added", "user_id", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var u *domain.User
	err := s.store.WithTx(ctx, func(ctx context.Context, users UserRepository) (err error) {
		u, err = users.Get(ctx, id)
		return err
	})
	return u, err
}
