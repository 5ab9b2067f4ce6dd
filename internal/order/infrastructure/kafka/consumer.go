package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	catalogapp "github.com/dmehra2102/order-consistency-engine/internal/catalog/application"
	catalog "github.com/dmehra2102/order-consistency-engine/internal/catalog/domain"
	customerapp "github.com/dmehra2102/order-consistency-engine/internal/customer/application"
	customer "github.com/dmehra2102/order-consistency-engine/internal/customer/domain"
	"github.com/dmehra2102/order-consistency-engine/internal/order/application"
	"github.com/dmehra2102/order-consistency-engine/internal/order/domain"
	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
	"github.com/dmehra2102/order-consistency-engine/pkg/idempotency"
	"github.com/dmehra2102/order-consistency-engine/pkg/tracing"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Orders is the use-case surface the consumer drives.
type Orders interface {
	PlaceOrder(ctx context.Context, cmd application.PlaceOrderCommand) (*domain.Order, error)
	CancelOrder(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	SelectPaymentMethod(ctx context.Context, id domain.OrderID, m domain.PaymentMethod) (*domain.Order, error)
	AdvanceOrder(ctx context.Context, id domain.OrderID, target domain.OrderStatus) (*domain.Order, error)
}

// Customers registers buyers and their delivery addresses.
type Customers interface {
	Register(ctx context.Context, cmd customerapp.RegisterCommand) (*customer.User, error)
	AddAddress(ctx context.Context, id customer.UserID, a customer.Address) error
}

// Catalog lists products that orders can then draw stock from.
type Catalog interface {
	AddProduct(ctx context.Context, cmd catalogapp.AddProductCommand) (*catalog.Product, error)
}

// Services are the use cases commands are dispatched to.
type Services struct {
	Orders    Orders
	Customers Customers
	Catalog   Catalog
}

// releaseTimeout bounds the idempotency release that runs after the
// consumer's context may already be cancelled.
const releaseTimeout = 5 * time.Second

type Deduplicator interface {
	Seen(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Consumer struct {
	log    *slog.Logger
	reader Reader
	svc    Services
	idem   Deduplicator
	tracer trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewConsumer(log *slog.Logger, reader Reader, svc Services, idem Deduplicator) *Consumer {
	return &Consumer{
		log:    log,
		reader: reader,
		svc:    svc,
		idem:   idem,
		tracer: otel.Tracer("order-command-consumer"),
	}
}

// Run consumes until ctx is cancelled or a command fails for a reason other
// than a business rejection. The failed message is left uncommitted so it is
// redelivered once the service is back.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.Handle(ctx, msg); err != nil {
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "offset", msg.Offset, "err", err)
		}
	}
}

// Handle applies one message. Rejected and malformed commands are logged and
// count as handled; only infrastructure failures are returned.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) error {
	cmd, err := decodeCommand(msg.Value)
	if err != nil {
		c.log.Warn("dropping malformed command", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		return nil
	}

	key := idempotency.Key(cmd.ID, msg.Topic, msg.Partition, msg.Offset)
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if seen {
		c.log.Info("duplicate command skipped", "key", key, "type", cmd.Type)
		return nil
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "Consume "+cmd.Type, trace.WithAttributes(
		attribute.String("command_id", cmd.ID),
		attribute.Int64("offset", msg.Offset),
	))
	defer span.End()

	err = c.dispatch(msgCtx, cmd)
	switch {
	case err == nil:
		return nil
	case fault.KindOf(err) != "" && !fault.Retryable(err):
		c.log.Info("command rejected", "type", cmd.Type, "command_id", cmd.ID, "reason", fault.Label(err), "err", err)
		return nil
	default:
		span.RecordError(err)
		c.release(ctx, key)
		return fmt.Errorf("%s %s: %w", cmd.Type, cmd.ID, err)
	}
}

// release frees key even when ctx was cancelled mid-command; otherwise the
// redelivered message would be skipped as a duplicate.
func (c *Consumer) release(ctx context.Context, key string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := c.idem.Release(rctx, key); err != nil {
		c.log.Error("idempotency release failed", "key", key, "err", err)
	}
}

func (c *Consumer) dispatch(ctx context.Context, cmd Command) error {
	id := domain.OrderID(cmd.OrderID)
	switch cmd.Type {
	case CommandPlaceOrder:
		in, err := cmd.placeOrder()
		if err != nil {
			return err
		}
		_, err = c.svc.Orders.PlaceOrder(ctx, in)
		return err
	case CommandCancelOrder:
		_, err := c.svc.Orders.CancelOrder(ctx, id)
		return err
	case CommandSelectPayment:
		m, err := cmd.Payment.method()
		if err != nil {
			return err
		}
		_, err = c.svc.Orders.SelectPaymentMethod(ctx, id, m)
		return err
	case CommandAdvanceOrder:
		_, err := c.svc.Orders.AdvanceOrder(ctx, id, domain.OrderStatus(cmd.Target))
		return err
	case CommandRegisterCustomer:
		u, err := c.svc.Customers.Register(ctx, cmd.registerCustomer())
		if err == nil {
			c.log.Info("customer registered", "command_id", cmd.ID, "customer_id", u.ID())
		}
		return err
	case CommandAddAddress:
		a, err := cmd.address()
		if err != nil {
			return err
		}
		return c.svc.Customers.AddAddress(ctx, customer.UserID(cmd.CustomerID), a)
	case CommandAddProduct:
		_, err := c.svc.Catalog.AddProduct(ctx, cmd.addProduct())
		return err
	}
	return errors.New("unreachable command type " + cmd.Type)
}
