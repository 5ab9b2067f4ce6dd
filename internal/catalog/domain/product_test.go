package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
	"github.com/dmehra2102/order-consistency-engine/pkg/money"
)

func newProduct(t *testing.T, stock int) *Product {
	t.Helper()
	s, err := NewStock(stock)
	require.NoError(t, err)
	p, err := NewProduct("p-1", "Keyboard", money.MustNew(1000), s)
	require.NoError(t, err)
	return p
}

func TestNewStockRejectsNegative(t *testing.T) {
	_, err := NewStock(-1)
	assert.ErrorIs(t, err, ErrNegativeStock)
	assert.ErrorIs(t, err, fault.Validation)
}

func TestDecreaseStock(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		qty       int
		wantStock int
		wantErr   error
	}{
		{"partial", 10, 3, 7, nil},
		{"exact", 5, 5, 0, nil},
		{"more than available", 5, 6, 5, ErrInsufficientStock},
		{"zero", 5, 0, 5, ErrInvalidQuantity},
		{"negative", 5, -2, 5, ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProduct(t, tt.stock)
			left, err := p.DecreaseStock(tt.qty)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantStock, left)
			assert.Equal(t, tt.wantStock, p.Stock().Units())
		})
	}
}

func TestInsufficientStockKind(t *testing.T) {
	p := newProduct(t, 1)
	_, err := p.DecreaseStock(2)
	assert.ErrorIs(t, err, fault.InsufficientStock)
}

func TestIncreaseStock(t *testing.T) {
	p := newProduct(t, 2)

	left, err := p.IncreaseStock(3)
	require.NoError(t, err)
	assert.Equal(t, 5, left)

	_, err = p.IncreaseStock(0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = p.IncreaseStock(-1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 5, p.Stock().Units())
}

func TestNewProductValidation(t *testing.T) {
	s, _ := NewStock(1)
	_, err := NewProduct("", "x", money.Zero, s)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = NewProduct("p", "  ", money.Zero, s)
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestRehydrateRevalidates(t *testing.T) {
	_, err := Rehydrate(Snapshot{ID: "p", Name: "x", UnitPrice: 10, Stock: -1})
	assert.ErrorIs(t, err, ErrNegativeStock)

	_, err = Rehydrate(Snapshot{ID: "p", Name: "x", UnitPrice: -10, Stock: 1})
	assert.ErrorIs(t, err, money.ErrNegative)

	p, err := Rehydrate(Snapshot{ID: "p", Name: "x", UnitPrice: 10, Stock: 4, Active: false, Version: 7})
	require.NoError(t, err)
	assert.False(t, p.Active())
	assert.Equal(t, int64(7), p.Version())
	assert.Equal(t, 4, p.Snapshot().Stock)
}
