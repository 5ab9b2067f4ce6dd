package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/order-consistency-engine/pkg/money"
)

func TestFees(t *testing.T) {
	card := CreditCard{Last4: "1111", Expiry: "01/29"}
	wallet := DigitalWallet{AccountID: "acc-1"}
	tests := []struct {
		name     string
		method   PaymentMethod
		subtotal int64
		want     int64
	}{
		{"card small", card, 100, 0},
		{"card large", card, 1_000_000, 0},
		{"cod below threshold", CashOnDelivery{}, 9999, 330},
		{"cod at threshold", CashOnDelivery{}, 10000, 440},
		{"cod zero", CashOnDelivery{}, 0, 330},
		{"wallet", wallet, 50000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.method.Fee(money.MustNew(tt.subtotal))
			assert.Equal(t, money.MustNew(tt.want), got)
		})
	}
}

func TestNewCreditCard(t *testing.T) {
	c, err := NewCreditCard("4242 4242 4242 4242", "12/30")
	require.NoError(t, err)
	assert.Equal(t, CreditCard{Last4: "4242", Expiry: "12/30"}, c)
	assert.Equal(t, "credit card ending 4242", c.Label())

	_, err = NewCreditCard("12ab", "12/30")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	_, err = NewCreditCard("4242424242424242", "13/30")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestPaymentMethodsCompareByValue(t *testing.T) {
	var a, b PaymentMethod = CreditCard{Last4: "1", Expiry: "x"}, CreditCard{Last4: "1", Expiry: "x"}
	assert.True(t, a == b)
	assert.True(t, PaymentMethod(CashOnDelivery{}) == PaymentMethod(CashOnDelivery{}))
}

func TestParsePaymentMethodRoundTrip(t *testing.T) {
	methods := []PaymentMethod{
		CreditCard{Last4: "4242", Expiry: "12/30"},
		CashOnDelivery{},
		DigitalWallet{AccountID: "acc-7"},
	}
	for _, m := range methods {
		got, err := ParsePaymentMethod(m.Kind(), Detail(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestParsePaymentMethodRejectsUnknown(t *testing.T) {
	_, err := ParsePaymentMethod("bank_transfer", "")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = ParsePaymentMethod(KindCreditCard, "garbage")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = ParsePaymentMethod(KindDigitalWallet, " ")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestDetailOfMissingMethodIsEmpty(t *testing.T) {
	assert.NotPanics(t, func() { assert.Equal(t, "", Detail(nil)) })
	assert.Equal(t, "4242|12/30", Detail(CreditCard{Last4: "4242", Expiry: "12/30"}))
	assert.Equal(t, "acc-7", Detail(DigitalWallet{AccountID: "acc-7"}))
}
