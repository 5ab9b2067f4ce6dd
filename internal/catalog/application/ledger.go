package application

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/order-consistency-engine/internal/catalog/domain"
)

// Ledger owns stock availability. It never looks at orders; callers pair its
// calls with order mutations inside the same unit of work.
type Ledger struct {
	log      *slog.Logger
	products ProductRepository
	tracer   trace.Tracer
}

func NewLedger(log *slog.Logger, products ProductRepository) *Ledger {
	return &Ledger{
		log:      log,
		products: products,
		tracer:   otel.Tracer("stock-ledger"),
	}
}

// Decrease takes qty units from the product and returns the remaining stock.
func (l *Ledger) Decrease(ctx context.Context, id domain.ProductID, qty int) (int, error) {
	ctx, span := l.tracer.Start(ctx, "StockLedger.Decrease", trace.WithAttributes(
		attribute.String("product_id", string(id)),
		attribute.Int("qty", qty),
	))
	defer span.End()

	p, err := l.products.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	left, err := p.DecreaseStock(qty)
	if err != nil {
		span.RecordError(err)
		return left, err
	}
	if err := l.products.Save(ctx, p); err != nil {
		return 0, err
	}
	l.log.Debug("stock decreased", "product_id", id, "qty", qty, "stock", left)
	return left, nil
}

// Increase returns qty units to the product and returns the new stock.
func (l *Ledger) Increase(ctx context.Context, id domain.ProductID, qty int) (int, error) {
	ctx, span := l.tracer.Start(ctx, "StockLedger.Increase", trace.WithAttributes(
		attribute.String("product_id", string(id)),
		attribute.Int("qty", qty),
	))
	defer span.End()

	p, err := l.products.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	left, err := p.IncreaseStock(qty)
	if err != nil {
		span.RecordError(err)
		return left, err
	}
	if err := l.products.Save(ctx, p); err != nil {
		return 0, err
	}
	l.log.Debug("stock increased", "product_id", id, "qty", qty, "stock", left)
	return left, nil
}
