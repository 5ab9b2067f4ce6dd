package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/order-consistency-engine/pkg/collection"
	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
	"github.com/dmehra2102/order-consistency-engine/pkg/money"
)

var (
	gold    = &Rank{ID: 1, Name: "GOLD", DisplayName: "Gold", DiscountBasisPoints: 1000}
	regular = &Rank{ID: 2, Name: "REGULAR", DisplayName: "Regular"}
)

func creds(t *testing.T) Credentials {
	t.Helper()
	email, err := NewEmail("test@example.com")
	require.NoError(t, err)
	pw, err := PasswordFromHash("$2a$10$abcdefghijklmnopqrstuv")
	require.NoError(t, err)
	return NewCredentials(email, pw)
}

func TestNewEmail(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"test@example.com", true},
		{"a.b+c@x", true},
		{"", false},
		{"no-at-sign", false},
		{"sp ace@example.com", false},
	}
	for _, tt := range tests {
		e, err := NewEmail(tt.in)
		if !tt.valid {
			assert.ErrorIs(t, err, ErrInvalidUser, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.in, e.String())
	}
	a, _ := NewEmail("x@y")
	b, _ := NewEmail("x@y")
	assert.Equal(t, a, b)
}

func TestPassword(t *testing.T) {
	pw, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", pw.Hash())
	assert.True(t, pw.Matches("secret"))
	assert.False(t, pw.Matches("other"))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestNewUserRequiresRank(t *testing.T) {
	_, err := NewUser("u-1", "Taro", creds(t), nil)
	assert.ErrorIs(t, err, ErrMissingRank)
	assert.ErrorIs(t, err, fault.MissingReference)

	_, err = NewUser("u-1", "", creds(t), regular)
	assert.ErrorIs(t, err, ErrInvalidUser)

	_, err = NewUser("u-1", "Taro", Credentials{}, regular)
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestCalculatePrice(t *testing.T) {
	g, err := NewUser("u-1", "Taro", creds(t), gold)
	require.NoError(t, err)
	assert.Equal(t, money.MustNew(9000), g.CalculatePrice(money.MustNew(10000)))
	assert.Equal(t, money.MustNew(900), g.CalculatePrice(money.MustNew(999)))

	r, err := NewUser("u-2", "Hanako", creds(t), regular)
	require.NoError(t, err)
	assert.Equal(t, money.MustNew(10000), r.CalculatePrice(money.MustNew(10000)))

	require.NoError(t, r.ChangeRank(gold))
	assert.Equal(t, money.MustNew(9000), r.CalculatePrice(money.MustNew(10000)))
	assert.ErrorIs(t, r.ChangeRank(nil), ErrMissingRank)
}

func TestAddAddressCap(t *testing.T) {
	u, err := NewUser("u-1", "Taro", creds(t), regular)
	require.NoError(t, err)
	for _, city := range []string{"Shibuya", "Osaka", "Sapporo"} {
		a, err := NewAddress("100-0001", "Tokyo", city, "1-1")
		require.NoError(t, err)
		require.NoError(t, u.AddAddress(a))
	}
	extra, _ := NewAddress("100-0001", "Tokyo", "Naha", "1-1")
	assert.ErrorIs(t, u.AddAddress(extra), collection.ErrCapacityExceeded)
	assert.Len(t, u.Addresses(), 3)

	_, err = NewAddress("", "Tokyo", "x", "y")
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestRestoreUserRevalidatesAddresses(t *testing.T) {
	a, _ := NewAddress("1", "A", "", "")
	b, _ := NewAddress("2", "B", "", "")
	c, _ := NewAddress("3", "C", "", "")
	d, _ := NewAddress("4", "D", "", "")

	_, err := RestoreUser("u-1", "Taro", creds(t), regular, []Address{a, b, c, d}, time.Now())
	assert.ErrorIs(t, err, collection.ErrCapacityExceeded)

	u, err := RestoreUser("u-1", "Taro", creds(t), regular, nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, u.Addresses())
}
