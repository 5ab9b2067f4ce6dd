package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogapp "github.com/dmehra2102/order-consistency-engine/internal/catalog/application"
	catalogpg "github.com/dmehra2102/order-consistency-engine/internal/catalog/infrastructure/postgres"
	customer "github.com/dmehra2102/order-consistency-engine/internal/customer/domain"
	customerpg "github.com/dmehra2102/order-consistency-engine/internal/customer/infrastructure/postgres"
	"github.com/dmehra2102/order-consistency-engine/internal/order/application"
	order "github.com/dmehra2102/order-consistency-engine/internal/order/domain"
	orderpg "github.com/dmehra2102/order-consistency-engine/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
	"github.com/dmehra2102/order-consistency-engine/pkg/pgxutil"
)

// RetryCounter is told each time a unit of work is rerun.
type RetryCounter interface {
	Inc()
}

// UnitOfWork runs order use cases in one read-committed transaction. Row
// locks taken by the repositories serialize competing writers; version
// conflicts and serialization failures rerun the whole function.
type UnitOfWork struct {
	log        *slog.Logger
	pool       *pgxpool.Pool
	maxRetries int
	retries    RetryCounter
}

func NewUnitOfWork(log *slog.Logger, pool *pgxpool.Pool, maxRetries int, retries RetryCounter) *UnitOfWork {
	return &UnitOfWork{log: log, pool: pool, maxRetries: maxRetries, retries: retries}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos application.Repositories) error) error {
	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		err := u.run(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if !fault.Retryable(err) && !pgxutil.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		if attempt <= u.maxRetries {
			u.retries.Inc()
			u.log.Warn("unit of work conflict, retrying", "attempt", attempt, "err", err)
		}
		return struct{}{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(u.maxRetries)+1),
	)
	return err
}

func (u *UnitOfWork) run(ctx context.Context, fn func(ctx context.Context, repos application.Repositories) error) error {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, newRepositories(u.log, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type repositories struct {
	orders    *orderpg.Repository
	products  *catalogpg.Repository
	customers customerDirectory
	outbox    *OutboxWriter
}

func newRepositories(log *slog.Logger, tx pgx.Tx) *repositories {
	return &repositories{
		orders:    orderpg.NewRepository(log, tx),
		products:  catalogpg.NewRepository(log, tx),
		customers: customerDirectory{users: customerpg.NewRepository(log, tx)},
		outbox:    NewOutboxWriter(tx),
	}
}

func (r *repositories) Orders() application.OrderRepository      { return r.orders }
func (r *repositories) Products() catalogapp.ProductRepository   { return r.products }
func (r *repositories) Customers() application.CustomerDirectory { return r.customers }
func (r *repositories) Outbox() application.OutboxWriter         { return r.outbox }

// customerDirectory answers the order context's customer lookups from the
// customer store.
type customerDirectory struct {
	users *customerpg.Repository
}

func (d customerDirectory) Exists(ctx context.Context, id order.CustomerID) (bool, error) {
	return d.users.Exists(ctx, customer.UserID(id))
}
