package application

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmehra2102/order-consistency-engine/internal/lending/domain"
)

type Service struct {
	log   *slog.Logger
	store Store
}

func NewService(log *slog.Logger, store Store) *Service {
	return &Service{log: log, store: store}
}

func (s *Service) AddBook(ctx context.Context, title string, copies int) (*domain.Book, error) {
	stock, err := domain.NewBookStock(copies)
	if err != nil {
		return nil, err
	}
	b, err := domain.NewBook(domain.BookID(uuid.NewString()), title, stock)
	if err != nil {
		return nil, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateBook(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("book added", "book_id", b.ID(), "copies", copies)
	return b, nil
}

func (s *Service) RegisterBorrower(ctx context.Context, name string) (*domain.Borrower, error) {
	br, err := domain.NewBorrower(domain.BorrowerID(uuid.NewString()), name)
	if err != nil {
		return nil, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateBorrower(ctx, br)
	})
	if err != nil {
		return nil, err
	}
	return br, nil
}

// Borrow lends one copy of book to borrower. The loan and the stock change
// are stored together.
func (s *Service) Borrow(ctx context.Context, borrower domain.BorrowerID, book domain.BookID) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		br, err := tx.GetBorrower(ctx, borrower)
		if err != nil {
			return err
		}
		b, err := tx.GetBook(ctx, book)
		if err != nil {
			return err
		}
		if err := br.Borrow(b); err != nil {
			return err
		}
		if err := tx.SaveStock(ctx, b); err != nil {
			return err
		}
		return tx.SaveLoans(ctx, br)
	})
	if err != nil {
		s.log.Info("loan rejected", "borrower_id", borrower, "book_id", book, "err", err)
		return err
	}
	s.log.Info("book lent", "borrower_id", borrower, "book_id", book)
	return nil
}

func (s *Service) Borrower(ctx context.Context, id domain.BorrowerID) (*domain.Borrower, error) {
	var br *domain.Borrower
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) (err error) {
		br, err = tx.GetBorrower(ctx, id)
		return err
	})
	return br, err
}

func (s *Service) Books(ctx context.Context) ([]*domain.Book, error) {
	var books []*domain.Book
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) (err error) {
		books, err = tx.ListBooks(ctx)
		return err
	})
	return books, err
}
