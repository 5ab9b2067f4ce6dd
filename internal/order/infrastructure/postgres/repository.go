package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/dmehra2102/order-consistency-engine/internal/order/domain"
	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
	"github.com/dmehra2102/order-consistency-engine/pkg/pgxutil"
)

var ErrStaleOrder = fault.New(fault.Conflict, "order was modified concurrently")

// Repository is bound to one transaction.
type Repository struct {
	log *slog.Logger
	db  pgxutil.DBTX
}

func NewRepository(log *slog.Logger, db pgxutil.DBTX) *Repository {
	return &Repository{log: log, db: db}
}

func (r *Repository) Create(ctx context.Context, o *domain.Order) error {
	s := o.Snapshot()
	_, err := r.db.Exec(ctx, `INSERT INTO orders
		(id, customer_id, status, payment_kind, payment_detail, payment_fee, total, placed_at, updated_at, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0)`,
		s.ID, s.CustomerID, string(s.Status), string(s.PaymentKind), s.PaymentDetail,
		s.PaymentFee, s.Total, s.PlacedAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	if err := r.insertLines(ctx, s); err != nil {
		return err
	}
	o.MarkPersisted(0)
	return nil
}

// Get loads and locks the order.
func (r *Repository) Get(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	var (
		s             domain.Snapshot
		status, pkind string
	)
	err := r.db.QueryRow(ctx, `SELECT id, customer_id, status, payment_kind, payment_detail, payment_fee, total,
			placed_at, updated_at, version
		FROM orders WHERE id=$1 FOR UPDATE`, string(id)).
		Scan(&s.ID, &s.CustomerID, &status, &pkind, &s.PaymentDetail, &s.PaymentFee, &s.Total,
			&s.PlacedAt, &s.UpdatedAt, &s.Version)
	if pgxutil.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	s.Status = domain.OrderStatus(status)
	s.PaymentKind = domain.PaymentKind(pkind)

	rows, err := r.db.Query(ctx, `SELECT product_id, product_name, unit_price, quantity
		FROM order_items WHERE order_id=$1 ORDER BY position`, string(id))
	if err != nil {
		return nil, err
	}
	s.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LineSnapshot, error) {
		var l domain.LineSnapshot
		err := row.Scan(&l.ProductID, &l.ProductName, &l.UnitPrice, &l.Quantity)
		return l, err
	})
	if err != nil {
		return nil, err
	}

	o, err := domain.Rehydrate(s)
	if err != nil {
		r.log.Error("stored order failed validation", "order_id", id, "err", err)
		return nil, err
	}
	return o, nil
}

// Save writes the order if nobody else saved it since it was loaded.
func (r *Repository) Save(ctx context.Context, o *domain.Order) error {
	s := o.Snapshot()
	ct, err := r.db.Exec(ctx, `UPDATE orders
		SET status=$2, payment_kind=$3, payment_detail=$4, payment_fee=$5, total=$6, updated_at=$7, version=version+1
		WHERE id=$1 AND version=$8`,
		s.ID, string(s.Status), string(s.PaymentKind), s.PaymentDetail, s.PaymentFee, s.Total, s.UpdatedAt, s.Version)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		r.log.Warn("stale order write", "order_id", s.ID, "version", s.Version)
		return fmt.Errorf("%w: %s", ErrStaleOrder, s.ID)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, s.ID); err != nil {
		return err
	}
	if err := r.insertLines(ctx, s); err != nil {
		return err
	}
	o.MarkPersisted(s.Version + 1)
	return nil
}

func (r *Repository) insertLines(ctx context.Context, s domain.Snapshot) error {
	if len(s.Lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, l := range s.Lines {
		batch.Queue(`INSERT INTO order_items (order_id, position, product_id, product_name, unit_price, quantity)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			s.ID, i, l.ProductID, l.ProductName, l.UnitPrice, l.Quantity)
	}
	return r.db.SendBatch(ctx, batch).Close()
}
