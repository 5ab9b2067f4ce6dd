package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	catalogapp "github.com/dmehra2102/order-consistency-engine/internal/catalog/application"
	catalog "github.com/dmehra2102/order-consistency-engine/internal/catalog/domain"
	"github.com/dmehra2102/order-consistency-engine/internal/order/domain"
	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
	"github.com/dmehra2102/order-consistency-engine/pkg/metrics"
	"github.com/dmehra2102/order-consistency-engine/pkg/outbox"
	"github.com/dmehra2102/order-consistency-engine/pkg/tracing"
)

const aggregateType = "order"

type Service struct {
	log     *slog.Logger
	uow     UnitOfWork
	metrics *metrics.OrderMetrics
	tracer  trace.Tracer
}

func NewService(log *slog.Logger, uow UnitOfWork, m *metrics.OrderMetrics) *Service {
	return &Service{log: log, uow: uow, metrics: m, tracer: otel.Tracer("order-service")}
}

type PlaceOrderItem struct {
	ProductID string
	Quantity  int
}

type PlaceOrderCommand struct {
	CustomerID string
	Items      []PlaceOrderItem
	// Payment is optional; it can be chosen later with SelectPaymentMethod.
	Payment domain.PaymentMethod
	// Headers are copied onto every published event.
	Headers map[string]string
}

// PlaceOrder creates a PENDING order, taking stock for every item. Either
// every line is placed and its stock taken, or nothing is stored.
func (s *Service) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (_ *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(
		attribute.String("customer_id", cmd.CustomerID),
		attribute.Int("items", len(cmd.Items)),
	))
	defer func() { s.finish(span, "place_order", err) }()

	if len(cmd.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	var (
		placed    *domain.Order
		published []domain.Event
	)
	err = s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		customer := domain.CustomerID(cmd.CustomerID)
		ok, err := repos.Customers().Exists(ctx, customer)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrMissingCustomer, cmd.CustomerID)
		}

		o, err := domain.New(domain.OrderID(uuid.NewString()), customer)
		if err != nil {
			return err
		}
		ledger := catalogapp.NewLedger(s.log, repos.Products())
		for _, item := range cmd.Items {
			p, err := repos.Products().Get(ctx, catalog.ProductID(item.ProductID))
			if errors.Is(err, catalog.ErrProductNotFound) {
				return fmt.Errorf("%w: %w", domain.ErrMissingProduct, err)
			}
			if err != nil {
				return err
			}
			// the factory validates before any stock moves
			line, err := domain.NewLineItem(p, item.Quantity)
			if err != nil {
				return err
			}
			if _, err := ledger.Decrease(ctx, p.ID(), item.Quantity); err != nil {
				return err
			}
			if err := o.AddLine(line); err != nil {
				return err
			}
		}
		if cmd.Payment != nil {
			if err := o.SetPaymentMethod(cmd.Payment); err != nil {
				return err
			}
		}
		if err := repos.Orders().Create(ctx, o); err != nil {
			return err
		}

		events := append([]domain.Event{placedEvent(o)}, o.PullEvents()...)
		if err := s.publish(ctx, repos.Outbox(), events, cmd.Headers); err != nil {
			return err
		}
		placed, published = o, events
		return nil
	})
	if err != nil {
		return nil, err
	}

	units := 0
	for _, item := range cmd.Items {
		units += item.Quantity
	}
	s.metrics.StockMovements.WithLabelValues("out").Add(float64(units))
	span.SetAttributes(attribute.String("order_id", string(placed.ID())))
	s.log.Info("order placed",
		"order_id", placed.ID(),
		"customer_id", placed.CustomerID(),
		"lines", placed.LineCount(),
		"total", placed.Total().Amount(),
	)
	s.logEvents(published)
	return placed, nil
}

// CancelOrder cancels the order and hands every line's units back to stock.
func (s *Service) CancelOrder(ctx context.Context, id domain.OrderID) (_ *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrder", trace.WithAttributes(
		attribute.String("order_id", string(id)),
	))
	defer func() { s.finish(span, "cancel_order", err) }()

	var (
		cancelled *domain.Order
		published []domain.Event
		units     int
	)
	err = s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		o, err := repos.Orders().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := o.Cancel(); err != nil {
			return err
		}
		ledger := catalogapp.NewLedger(s.log, repos.Products())
		units = 0
		for _, l := range o.Lines() {
			if _, err := ledger.Increase(ctx, l.ProductID(), l.Quantity()); err != nil {
				return fmt.Errorf("restock %s: %w", l.ProductID(), err)
			}
			units += l.Quantity()
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		events := o.PullEvents()
		if err := s.publish(ctx, repos.Outbox(), events, nil); err != nil {
			return err
		}
		cancelled, published = o, events
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StockMovements.WithLabelValues("in").Add(float64(units))
	s.log.Info("order cancelled", "order_id", id, "restocked_units", units)
	s.logEvents(published)
	return cancelled, nil
}

// SelectPaymentMethod sets or replaces the payment method of a PENDING order.
func (s *Service) SelectPaymentMethod(ctx context.Context, id domain.OrderID, m domain.PaymentMethod) (_ *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.SelectPaymentMethod", trace.WithAttributes(
		attribute.String("order_id", string(id)),
	))
	defer func() { s.finish(span, "select_payment_method", err) }()

	return s.mutate(ctx, id, func(o *domain.Order) error {
		return o.SetPaymentMethod(m)
	})
}

// AdvanceOrder moves the order to target. Cancellation goes through
// CancelOrder so stock is returned.
func (s *Service) AdvanceOrder(ctx context.Context, id domain.OrderID, target domain.OrderStatus) (_ *domain.Order, err error) {
	if target == domain.StatusCancelled {
		return s.CancelOrder(ctx, id)
	}

	ctx, span := s.tracer.Start(ctx, "OrderService.AdvanceOrder", trace.WithAttributes(
		attribute.String("order_id", string(id)),
		attribute.String("target", string(target)),
	))
	defer func() { s.finish(span, "advance_order", err) }()

	return s.mutate(ctx, id, func(o *domain.Order) error {
		return o.Advance(target)
	})
}

func (s *Service) GetOrder(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	var found *domain.Order
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) (err error) {
		found, err = repos.Orders().Get(ctx, id)
		return err
	})
	return found, err
}

// mutate loads the order, applies fn, stores the result and publishes what
// fn recorded.
func (s *Service) mutate(ctx context.Context, id domain.OrderID, fn func(*domain.Order) error) (*domain.Order, error) {
	var (
		changed   *domain.Order
		published []domain.Event
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		o, err := repos.Orders().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		events := o.PullEvents()
		if err := s.publish(ctx, repos.Outbox(), events, nil); err != nil {
			return err
		}
		changed, published = o, events
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logEvents(published)
	return changed, nil
}

func (s *Service) publish(ctx context.Context, w OutboxWriter, events []domain.Event, headers map[string]string) error {
	tp := tracing.Traceparent(ctx)
	for _, e := range events {
		oe, err := outbox.NewEvent(aggregateType, e.AggregateID(), e.EventType(), e)
		if err != nil {
			return err
		}
		oe.Headers = headers
		oe.Traceparent = tp
		if err := w.Append(ctx, oe); err != nil {
			return fmt.Errorf("append %s: %w", e.EventType(), err)
		}
	}
	return nil
}

func (s *Service) logEvents(events []domain.Event) {
	for _, e := range events {
		switch e := e.(type) {
		case domain.PaymentMethodSelected:
			s.log.Info("payment method selected",
				"order_id", e.OrderID, "method", e.Method, "label", e.Label, "fee", e.Fee, "total", e.Total)
		case domain.OrderStatusChanged:
			s.log.Info("order status changed", "order_id", e.OrderID, "from", e.From, "to", e.To)
		}
	}
}

// finish closes span and counts the outcome. Business rejections are logged
// at info; anything outside the fault taxonomy is an error.
func (s *Service) finish(span trace.Span, command string, err error) {
	defer span.End()
	result := fault.Label(err)
	s.metrics.Commands.WithLabelValues(command, result).Inc()
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, result)
	if result == "internal" {
		s.log.Error("order command failed", "command", command, "err", err)
		return
	}
	s.log.Info("order command rejected", "command", command, "reason", result, "err", err)
}

func placedEvent(o *domain.Order) domain.OrderPlaced {
	lines := make([]domain.LineSnapshot, 0, o.LineCount())
	for _, l := range o.Lines() {
		lines = append(lines, l.Snapshot())
	}
	return domain.OrderPlaced{
		OrderID:    string(o.ID()),
		CustomerID: string(o.CustomerID()),
		Total:      o.Total().Amount(),
		PaymentFee: o.PaymentFee().Amount(),
		Lines:      lines,
	}
}
