package domain

import (
	"fmt"

	catalog "github.com/dmehra2102/order-consistency-engine/internal/catalog/domain"
	"github.com/dmehra2102/order-consistency-engine/pkg/money"
	"github.com/dmehra2102/order-consistency-engine/pkg/quantity"
)

// LineQuantity bounds the units a single order line may carry.
var LineQuantity = quantity.Bounds{Min: 1, Max: 50}

// LineItem is immutable once created. The unit price is copied from the
// product at creation time and never follows later catalog price changes.
type LineItem struct {
	productID   catalog.ProductID
	productName string
	unitPrice   money.Money
	quantity    quantity.Quantity
}

// NewLineItem snapshots the product's current price. It does not touch
// stock; reserving units is the stock ledger's job.
func NewLineItem(p *catalog.Product, qty int) (LineItem, error) {
	if p == nil {
		return LineItem{}, ErrMissingProduct
	}
	q, err := LineQuantity.Of(qty)
	if err != nil {
		return LineItem{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	if !p.Active() {
		return LineItem{}, fmt.Errorf("%w: %s", catalog.ErrProductInactive, p.ID())
	}
	return LineItem{
		productID:   p.ID(),
		productName: p.Name(),
		unitPrice:   p.UnitPrice(),
		quantity:    q,
	}, nil
}

func (l LineItem) ProductID() catalog.ProductID { return l.productID }
func (l LineItem) ProductName() string          { return l.productName }
func (l LineItem) UnitPrice() money.Money       { return l.unitPrice }
func (l LineItem) Quantity() int                { return l.quantity.Int() }

func (l LineItem) IsZero() bool { return l == LineItem{} }

func (l LineItem) Subtotal() (money.Money, error) {
	return l.unitPrice.Times(l.quantity.Int())
}

// LineSnapshot is the persisted and published shape of a line.
type LineSnapshot struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
}

func (l LineItem) Snapshot() LineSnapshot {
	return LineSnapshot{
		ProductID:   string(l.productID),
		ProductName: l.productName,
		UnitPrice:   l.unitPrice.Amount(),
		Quantity:    l.quantity.Int(),
	}
}

func restoreLine(s LineSnapshot) (LineItem, error) {
	if s.ProductID == "" {
		return LineItem{}, ErrMissingProduct
	}
	price, err := money.New(s.UnitPrice)
	if err != nil {
		return LineItem{}, err
	}
	q, err := LineQuantity.Of(s.Quantity)
	if err != nil {
		return LineItem{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, s.Quantity)
	}
	return LineItem{
		productID:   catalog.ProductID(s.ProductID),
		productName: s.ProductName,
		unitPrice:   price,
		quantity:    q,
	}, nil
}
