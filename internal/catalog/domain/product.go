package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
	"github.com/dmehra2102/order-consistency-engine/pkg/money"
)

var (
	ErrInvalidQuantity   = fault.New(fault.Validation, "stock quantity must be positive")
	ErrNegativeStock     = fault.New(fault.Validation, "stock must not be negative")
	ErrInsufficientStock = fault.New(fault.InsufficientStock, "insufficient stock")
	ErrInvalidProduct    = fault.New(fault.Validation, "invalid product")
	ErrProductNotFound   = fault.New(fault.NotFound, "product not found")
	ErrProductInactive   = fault.New(fault.Validation, "product is not on sale")
	ErrDuplicateProduct  = fault.New(fault.DuplicateItem, "product id is already listed")
)

type ProductID string

// Stock is the available unit count of a product. It never goes below zero.
type Stock struct {
	units int
}

func NewStock(units int) (Stock, error) {
	if units < 0 {
		return Stock{}, fmt.Errorf("%w: %d", ErrNegativeStock, units)
	}
	return Stock{units: units}, nil
}

func (s Stock) Units() int { return s.units }

func (s Stock) Decrease(qty int) (Stock, error) {
	if qty <= 0 {
		return s, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if qty > s.units {
		return s, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, qty, s.units)
	}
	return Stock{units: s.units - qty}, nil
}

func (s Stock) Increase(qty int) (Stock, error) {
	if qty <= 0 {
		return s, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if s.units > math.MaxInt-qty {
		return s, fmt.Errorf("%w: stock overflow", ErrInvalidQuantity)
	}
	return Stock{units: s.units + qty}, nil
}

// Product is the catalog aggregate. Only the stock and price move after
// creation, each through a dedicated method.
type Product struct {
	id        ProductID
	name      string
	unitPrice money.Money
	stock     Stock
	active    bool
	version   int64
	updatedAt time.Time
}

func NewProduct(id ProductID, name string, unitPrice money.Money, stock Stock) (*Product, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	return &Product{
		id:        id,
		name:      name,
		unitPrice: unitPrice,
		stock:     stock,
		active:    true,
		updatedAt: time.Now().UTC(),
	}, nil
}

// Snapshot is the persisted shape of a Product.
type Snapshot struct {
	ID        ProductID
	Name      string
	UnitPrice int64
	Stock     int
	Active    bool
	Version   int64
	UpdatedAt time.Time
}

// Rehydrate rebuilds a product from storage. Stored rows go through the same
// checks as new products.
func Rehydrate(s Snapshot) (*Product, error) {
	price, err := money.New(s.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", s.ID, err)
	}
	stock, err := NewStock(s.Stock)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", s.ID, err)
	}
	p, err := NewProduct(s.ID, s.Name, price, stock)
	if err != nil {
		return nil, err
	}
	p.active = s.Active
	p.version = s.Version
	p.updatedAt = s.UpdatedAt
	return p, nil
}

func (p *Product) Snapshot() Snapshot {
	return Snapshot{
		ID:        p.id,
		Name:      p.name,
		UnitPrice: p.unitPrice.Amount(),
		Stock:     p.stock.Units(),
		Active:    p.active,
		Version:   p.version,
		UpdatedAt: p.updatedAt,
	}
}

func (p *Product) ID() ProductID          { return p.id }
func (p *Product) Name() string           { return p.name }
func (p *Product) UnitPrice() money.Money { return p.unitPrice }
func (p *Product) Stock() Stock           { return p.stock }
func (p *Product) Active() bool           { return p.active }
func (p *Product) Version() int64         { return p.version }

// DecreaseStock removes qty units and returns what is left. On failure the
// stock is left as it was.
func (p *Product) DecreaseStock(qty int) (int, error) {
	next, err := p.stock.Decrease(qty)
	if err != nil {
		return p.stock.Units(), fmt.Errorf("product %s: %w", p.id, err)
	}
	p.stock = next
	p.touch()
	return next.Units(), nil
}

func (p *Product) IncreaseStock(qty int) (int, error) {
	next, err := p.stock.Increase(qty)
	if err != nil {
		return p.stock.Units(), fmt.Errorf("product %s: %w", p.id, err)
	}
	p.stock = next
	p.touch()
	return next.Units(), nil
}

// ChangePrice affects future order lines only; existing lines keep the price
// they were created with.
func (p *Product) ChangePrice(price money.Money) {
	p.unitPrice = price
	p.touch()
}

func (p *Product) Deactivate() {
	p.active = false
	p.touch()
}

func (p *Product) Activate() {
	p.active = true
	p.touch()
}

// MarkPersisted records the version the store assigned on save.
func (p *Product) MarkPersisted(version int64) {
	p.version = version
}

func (p *Product) touch() { p.updatedAt = time.Now().UTC() }
