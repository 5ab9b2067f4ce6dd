package application

import (
	"context"
	"log/slog"

	"github.com/dmehra2102/order-consistency-engine/internal/catalog/domain"
	"github.com/dmehra2102/order-consistency-engine/pkg/money"
)

// Service lists new products. Stock changes after listing go through the
// Ledger only.
type Service struct {
	log     *slog.Logger
	catalog ProductCatalog
}

func NewService(log *slog.Logger, catalog ProductCatalog) *Service {
	return &Service{log: log, catalog: catalog}
}

type AddProductCommand struct {
	ID        string
	Name      string
	UnitPrice int64
	Stock     int
}

func (s *Service) AddProduct(ctx context.Context, cmd AddProductCommand) (*domain.Product, error) {
	price, err := money.New(cmd.UnitPrice)
	if err != nil {
		return nil, err
	}
	stock, err := domain.NewStock(cmd.Stock)
	if err != nil {
		return nil, err
	}
	p, err := domain.NewProduct(domain.ProductID(cmd.ID), cmd.Name, price, stock)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("product listed", "product_id", p.ID(), "price", price.Amount(), "stock", cmd.Stock)
	return p, nil
}
