package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/order-consistency-engine/internal/catalog/domain"
	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
	"github.com/dmehra2102/order-consistency-engine/pkg/pgxutil"
)

var ErrStaleProduct = fault.New(fault.Conflict, "product was modified concurrently")

// Repository is created per transaction. Rows loaded through Get stay locked
// until the transaction ends and are cached so the same *domain.Product is
// handed to every caller in the unit of work.
type Repository struct {
	log    *slog.Logger
	db     pgxutil.DBTX
	loaded map[domain.ProductID]*domain.Product
}

func NewRepository(log *slog.Logger, db pgxutil.DBTX) *Repository {
	return &Repository{
		log:    log,
		db:     db,
		loaded: make(map[domain.ProductID]*domain.Product),
	}
}

func (r *Repository) Get(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	if p, ok := r.loaded[id]; ok {
		return p, nil
	}

	var s domain.Snapshot
	err := r.db.QueryRow(ctx, `SELECT id, name, price, stock, is_active, version, updated_at
		FROM products WHERE id=$1 FOR UPDATE`, string(id)).
		Scan(&s.ID, &s.Name, &s.UnitPrice, &s.Stock, &s.Active, &s.Version, &s.UpdatedAt)
	if pgxutil.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	p, err := domain.Rehydrate(s)
	if err != nil {
		return nil, err
	}
	r.loaded[id] = p
	return p, nil
}

// Save writes the product guarded by its version. A zero-row update means
// another transaction got there first.
func (r *Repository) Save(ctx context.Context, p *domain.Product) error {
	s := p.Snapshot()
	ct, err := r.db.Exec(ctx, `UPDATE products
		SET name=$2, price=$3, stock=$4, is_active=$5, version=version+1, updated_at=$6
		WHERE id=$1 AND version=$7`,
		string(s.ID), s.Name, s.UnitPrice, s.Stock, s.Active, time.Now().UTC(), s.Version)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		r.log.Warn("stale product write", "product_id", s.ID, "version", s.Version)
		return fmt.Errorf("%w: %s", ErrStaleProduct, s.ID)
	}
	p.MarkPersisted(s.Version + 1)
	r.loaded[s.ID] = p
	return nil
}

// Create inserts a new product at version 0. It keeps nothing in the
// repository, so a pool-backed Repository can serve it for the process
// lifetime.
func (r *Repository) Create(ctx context.Context, p *domain.Product) error {
	s := p.Snapshot()
	_, err := r.db.Exec(ctx, `INSERT INTO products (id, name, price, stock, is_active, version, updated_at)
		VALUES ($1,$2,$3,$4,$5,0,$6)`,
		string(s.ID), s.Name, s.UnitPrice, s.Stock, s.Active, time.Now().UTC())
	if pgxutil.IsUniqueViolation(err, "products_pkey") {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateProduct, s.ID)
	}
	if err != nil {
		return err
	}
	p.MarkPersisted(0)
	return nil
}
