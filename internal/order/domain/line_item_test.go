package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/dmehra2102/order-consistency-engine/internal/catalog/domain"
	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
	"github.com/dmehra2102/order-consistency-engine/pkg/money"
)

func TestNewLineItemQuantityBounds(t *testing.T) {
	p := product(t, "p-9", 300)
	tests := []struct {
		qty     int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{50, false},
		{51, true},
	}
	for _, tt := range tests {
		_, err := NewLineItem(p, tt.qty)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidQuantity, "qty %d", tt.qty)
			assert.ErrorIs(t, err, fault.Validation)
			continue
		}
		assert.NoError(t, err, "qty %d", tt.qty)
	}
}

func TestNewLineItemSnapshotsPrice(t *testing.T) {
	p := product(t, "p-9", 300)
	l, err := NewLineItem(p, 2)
	require.NoError(t, err)

	p.ChangePrice(money.MustNew(999))

	assert.Equal(t, money.MustNew(300), l.UnitPrice())
	sub, err := l.Subtotal()
	require.NoError(t, err)
	assert.Equal(t, money.MustNew(600), sub)
	assert.Equal(t, catalog.ProductID("p-9"), l.ProductID())
}

func TestNewLineItemDoesNotTouchStock(t *testing.T) {
	p := product(t, "p-9", 300)
	before := p.Stock().Units()
	_, err := NewLineItem(p, 5)
	require.NoError(t, err)
	assert.Equal(t, before, p.Stock().Units())
}

func TestNewLineItemRejectsMissingOrInactiveProduct(t *testing.T) {
	_, err := NewLineItem(nil, 1)
	assert.ErrorIs(t, err, ErrMissingProduct)

	p := product(t, "p-9", 300)
	p.Deactivate()
	_, err = NewLineItem(p, 1)
	assert.ErrorIs(t, err, catalog.ErrProductInactive)
}
